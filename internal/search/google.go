// Package search adapts the Google Custom Search API into the small snippet
// lists the resolver feeds to generation. The adapter is stateless; every
// failure mode collapses into ErrUnavailable so the pipeline can continue
// without web context.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrUnavailable signals that web search produced nothing usable: quota
// exhaustion, rate limiting, timeout, or transport failure.
var ErrUnavailable = errors.New("web search unavailable")

const (
	apiURL     = "https://www.googleapis.com/customsearch/v1"
	maxResults = 5
)

// Result is one ranked search hit.
type Result struct {
	Title   string
	Snippet string
	URL     string
	Source  string
}

type apiResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Snippet     string `json:"snippet"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

// GoogleClient queries a Google Programmable Search Engine.
type GoogleClient struct {
	client *resty.Client
	apiKey string
	cseID  string
	apiURL string
}

// NewGoogleClient builds the search client. baseURL overrides the API
// endpoint and exists for tests; pass "" for the real service.
func NewGoogleClient(apiKey, cseID, baseURL string) *GoogleClient {
	if baseURL == "" {
		baseURL = apiURL
	}

	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		if r == nil {
			return false
		}
		code := r.StatusCode()
		return code == 429 || code >= 500
	})

	return &GoogleClient{
		client: client,
		apiKey: apiKey,
		cseID:  cseID,
		apiURL: baseURL,
	}
}

// Search runs the enriched query and returns up to five snippets. When the
// enriched query finds nothing, a plainer variant is tried once before
// giving up with an empty list.
func (g *GoogleClient) Search(ctx context.Context, query string) ([]Result, error) {
	if g.apiKey == "" || g.cseID == "" {
		zap.S().Warn("search credentials not configured")
		return nil, ErrUnavailable
	}

	results, err := g.fetch(ctx, EnrichQuery(query))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		// Site filters can be too strict; retry once without them.
		results, err = g.fetch(ctx, query+" Malawi agriculture")
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (g *GoogleClient) fetch(ctx context.Context, query string) ([]Result, error) {
	var body apiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":    g.apiKey,
			"cx":     g.cseID,
			"q":      query,
			"num":    fmt.Sprintf("%d", maxResults),
			"safe":   "active",
			"fields": "items(title,snippet,link,displayLink)",
		}).
		SetResult(&body).
		Get(g.apiURL)
	if err != nil {
		zap.S().Warnw("search request failed", "error", err)
		return nil, ErrUnavailable
	}
	if resp.IsError() {
		zap.S().Warnw("search API returned error status", "status", resp.Status())
		return nil, ErrUnavailable
	}

	results := make([]Result, 0, len(body.Items))
	for _, item := range body.Items {
		if len(results) == maxResults {
			break
		}
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.Link,
			Source:  item.DisplayLink,
		})
	}
	return results, nil
}

// EnrichQuery adds agricultural and location context the query is missing,
// plus a filter for trusted agricultural sites.
func EnrichQuery(query string) string {
	baseTerms := []string{"agriculture", "farming", "crops"}
	locationTerms := []string{"malawi", "lilongwe", "central region"}

	lower := strings.ToLower(query)
	hasAgri := false
	for _, term := range baseTerms {
		if strings.Contains(lower, term) {
			hasAgri = true
			break
		}
	}
	hasLocation := false
	for _, term := range locationTerms {
		if strings.Contains(lower, term) {
			hasLocation = true
			break
		}
	}

	enriched := query
	if !hasAgri {
		enriched += " agriculture farming"
	}
	if !hasLocation {
		enriched += " Malawi Lilongwe"
	}
	enriched += " site:agriculture.gov.mw OR site:fao.org OR site:cgiar.org OR site:icrisat.org"
	return enriched
}
