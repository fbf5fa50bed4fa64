package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemsJSON = `{
	"items": [
		{"title": "Maize in Malawi", "snippet": "Maize is the staple crop.", "link": "https://fao.org/maize", "displayLink": "fao.org"},
		{"title": "Groundnuts", "snippet": "Plant in December.", "link": "https://icrisat.org/gn", "displayLink": "icrisat.org"}
	]
}`

func TestGoogleClient_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return parsed snippets with their sources", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(itemsJSON))
		}))
		defer srv.Close()

		client := NewGoogleClient("key", "cse", srv.URL)
		results, err := client.Search(ctx, "maize")

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Maize in Malawi", results[0].Title)
		assert.Equal(t, "fao.org", results[0].Source)
		assert.Equal(t, "https://icrisat.org/gn", results[1].URL)
		// The outgoing query is enriched with region and site filters.
		assert.Contains(t, gotQuery, "Malawi Lilongwe")
		assert.Contains(t, gotQuery, "site:fao.org")
	})

	t.Run("Should retry once with a plainer query when the enriched one finds nothing", func(t *testing.T) {
		var queries []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			queries = append(queries, r.URL.Query().Get("q"))
			w.Header().Set("Content-Type", "application/json")
			if len(queries) == 1 {
				w.Write([]byte(`{}`))
				return
			}
			w.Write([]byte(itemsJSON))
		}))
		defer srv.Close()

		client := NewGoogleClient("key", "cse", srv.URL)
		results, err := client.Search(ctx, "obscure crop")

		require.NoError(t, err)
		require.Len(t, queries, 2)
		assert.Contains(t, queries[1], "Malawi agriculture")
		assert.Len(t, results, 2)
	})

	t.Run("Should surface quota exhaustion as ErrUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "quota exceeded"}`, http.StatusForbidden)
		}))
		defer srv.Close()

		client := NewGoogleClient("key", "cse", srv.URL)
		_, err := client.Search(ctx, "maize")

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("Should surface missing credentials as ErrUnavailable", func(t *testing.T) {
		client := NewGoogleClient("", "", "")
		_, err := client.Search(ctx, "maize")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestEnrichQuery(t *testing.T) {
	t.Run("Should add agricultural and location context when absent", func(t *testing.T) {
		enriched := EnrichQuery("best time to plant beans")
		assert.Contains(t, enriched, "agriculture farming")
		assert.Contains(t, enriched, "Malawi Lilongwe")
		assert.Contains(t, enriched, "site:agriculture.gov.mw")
	})

	t.Run("Should not duplicate context the query already has", func(t *testing.T) {
		enriched := EnrichQuery("maize farming in Lilongwe")
		assert.NotContains(t, enriched, "agriculture farming")
		assert.NotContains(t, enriched, "Malawi Lilongwe")
	})
}
