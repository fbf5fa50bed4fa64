package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlimi/internal/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, LevenshteinSimilarity{}, DefaultThreshold), mock
}

func adviceRows(entries ...domain.Advice) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "query", "response", "created_at", "search_count"})
	for _, a := range entries {
		rows.AddRow(a.ID, a.Query, a.Response, a.CreatedAt, a.SearchCount)
	}
	return rows
}

func TestPostgresStore_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return exact match on the normalized query", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, query, response, created_at, search_count").
			WithArgs("what crops grow best in lilongwe?").
			WillReturnRows(adviceRows(domain.Advice{
				ID: 1, Query: "What crops grow best in Lilongwe?",
				Response: "Maize, groundnuts, beans.", CreatedAt: time.Now(), SearchCount: 4,
			}))

		adv, confidence, err := store.Lookup(ctx, "  What   crops grow best in Lilongwe? ")
		require.NoError(t, err)
		assert.Equal(t, domain.ConfidenceExact, confidence)
		assert.Equal(t, int64(1), adv.ID)
		assert.Equal(t, "Maize, groundnuts, beans.", adv.Response)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should fall back to fuzzy matching and return the best candidate", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("WHERE LOWER").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("ORDER BY search_count DESC").
			WillReturnRows(adviceRows(
				domain.Advice{ID: 7, Query: "How to manage pests in maize?", Response: "Scout weekly.", CreatedAt: time.Now()},
				domain.Advice{ID: 9, Query: "Advice on irrigation methods for vegetable farming?", Response: "Drip.", CreatedAt: time.Now()},
			))

		adv, confidence, err := store.Lookup(ctx, "how to manage pest in maize")
		require.NoError(t, err)
		assert.Equal(t, domain.ConfidenceFuzzy, confidence)
		assert.Equal(t, int64(7), adv.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should return ErrNotFound when nothing clears the threshold", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("WHERE LOWER").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("ORDER BY search_count DESC").
			WillReturnRows(adviceRows(
				domain.Advice{ID: 7, Query: "How to manage pests in maize?", Response: "Scout weekly.", CreatedAt: time.Now()},
			))

		_, _, err := store.Lookup(ctx, "what fertilizer price today")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should degrade storage failure to ErrNotFound", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("WHERE LOWER").
			WillReturnError(errors.New("connection refused"))

		_, _, err := store.Lookup(ctx, "maize pests")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should treat blank queries as a miss without touching the database", func(t *testing.T) {
		store, _ := newMockStore(t)
		_, _, err := store.Lookup(ctx, "   ")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStore_RecordHit(t *testing.T) {
	ctx := context.Background()

	t.Run("Should increment the search counter for the entry", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE advice SET search_count = search_count \+ 1`).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.RecordHit(ctx, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should report storage failure", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE advice SET search_count = search_count \+ 1`).
			WillReturnError(errors.New("connection refused"))

		assert.Error(t, store.RecordHit(ctx, 3))
	})
}

func TestPostgresStore_Learn(t *testing.T) {
	ctx := context.Background()

	t.Run("Should upsert keyed on the normalized query", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("INSERT INTO advice").
			WithArgs("When to plant beans?", "January-February.").
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, store.Learn(ctx, "  When to   plant beans? ", "January-February."))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should refuse empty query or response", func(t *testing.T) {
		store, _ := newMockStore(t)
		assert.Error(t, store.Learn(ctx, "  ", "answer"))
		assert.Error(t, store.Learn(ctx, "question", ""))
	})
}

func TestPostgresStore_LogQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("Should append an audit row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("INSERT INTO query_logs").
			WithArgs("maize pests", "local").
			WillReturnResult(sqlmock.NewResult(1, 1))

		store.LogQuery(ctx, "maize pests", domain.SourceLocal)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should swallow storage failure", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("INSERT INTO query_logs").
			WillReturnError(errors.New("connection refused"))

		// Must not panic or propagate anything.
		store.LogQuery(ctx, "maize pests", domain.SourceDegraded)
	})
}

func TestPostgresStore_Popular(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return entries ordered by hit count", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("ORDER BY search_count DESC").
			WithArgs(5).
			WillReturnRows(adviceRows(
				domain.Advice{ID: 1, Query: "a", Response: "ra", CreatedAt: time.Now(), SearchCount: 9},
				domain.Advice{ID: 2, Query: "b", Response: "rb", CreatedAt: time.Now(), SearchCount: 3},
			))

		entries, err := store.Popular(ctx, 5)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 9, entries[0].SearchCount)
	})

	t.Run("Should propagate storage failure", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("ORDER BY search_count DESC").
			WillReturnError(errors.New("connection refused"))

		_, err := store.Popular(ctx, 5)
		assert.Error(t, err)
	})
}
