// Package gemini adapts Google's generateContent REST endpoint into the
// single Generate operation the resolver needs. The adapter is handed the
// search snippets and the bounded conversation history; everything else
// about prompting lives here.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"mlimi/internal/domain"
	"mlimi/internal/search"
)

// ErrGenerationFailed signals a hard, non-transient failure of the
// generative backend. The resolver answers with its static fallback on it.
var ErrGenerationFailed = errors.New("answer generation failed")

const (
	defaultModel = "gemini-1.5-flash-latest"
	defaultBase  = "https://generativelanguage.googleapis.com/v1beta"

	maxAttempts = 3
)

// Request/response contract of the generateContent endpoint.

type requestPart struct {
	Text string `json:"text"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
	Role  string        `json:"role,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP,omitempty"`
}

type generateRequest struct {
	Contents         []requestContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content struct {
		Parts []requestPart `json:"parts"`
		Role  string        `json:"role"`
	} `json:"content"`
	FinishReason string `json:"finishReason"`
}

type generateResponse struct {
	Candidates     []candidate    `json:"candidates"`
	PromptFeedback map[string]any `json:"promptFeedback,omitempty"`
}

// Client calls the Gemini API with retries on transient failures.
type Client struct {
	client  *resty.Client
	apiKey  string
	model   string
	baseURL string
}

// NewClient builds a Gemini client. baseURL overrides the API host for
// tests; pass "" for the real service.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBase
	}
	return &Client{
		client:  resty.New().SetTimeout(30 * time.Second),
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: baseURL,
	}
}

// Generate produces an answer for the query, grounded on the search
// snippets and preceded by the conversation history (oldest first). Any
// failure that survives the retry budget comes back as ErrGenerationFailed.
func (c *Client) Generate(ctx context.Context, query string, snippets []search.Result, history []domain.Turn) (string, error) {
	payload := c.buildRequest(query, snippets, history)
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	backoff := retry.WithMaxRetries(maxAttempts-1,
		retry.NewExponential(1*time.Second))

	var body generateResponse
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(payload).
			SetResult(&body).
			Post(url)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.IsError() {
			code := resp.StatusCode()
			if code == 429 || code >= 500 {
				zap.S().Warnw("transient Gemini error, retrying", "status", resp.Status())
				return retry.RetryableError(fmt.Errorf("gemini returned %s", resp.Status()))
			}
			return fmt.Errorf("gemini returned %s: %s", resp.Status(), resp.String())
		}
		return nil
	})
	if err != nil {
		zap.S().Errorw("gemini generation failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(body.Candidates) == 0 || len(body.Candidates[0].Content.Parts) == 0 {
		zap.S().Errorw("gemini response has no candidates", "feedback", body.PromptFeedback)
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	answer := ParseAnswer(body.Candidates[0].Content.Parts[0].Text)
	if answer == "" {
		return "", fmt.Errorf("%w: blank answer text", ErrGenerationFailed)
	}
	return answer, nil
}

// buildRequest maps history turns to role-tagged contents, oldest first,
// closing with the current prompt as the final user content.
func (c *Client) buildRequest(query string, snippets []search.Result, history []domain.Turn) generateRequest {
	contents := make([]requestContent, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, requestContent{
			Role:  role,
			Parts: []requestPart{{Text: turn.Content}},
		})
	}

	contents = append(contents, requestContent{
		Role:  "user",
		Parts: []requestPart{{Text: BuildPrompt(query, snippets)}},
	})

	return generateRequest{
		Contents: contents,
		GenerationConfig: &generationConfig{
			Temperature: 0.2,
			TopP:        0.9,
		},
	}
}
