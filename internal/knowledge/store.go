package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mlimi/internal/domain"
)

// ErrNotFound is the normal miss signal: nothing stored matched the query
// well enough. Callers fall through to the next tier on it.
var ErrNotFound = errors.New("no stored advice matched")

const (
	// DefaultThreshold is the minimum similarity score a fuzzy candidate
	// must clear to count as a match.
	DefaultThreshold = 0.7

	// fuzzyCandidateLimit bounds how many stored questions one lookup
	// scores in memory. Most-hit entries are scored first.
	fuzzyCandidateLimit = 500
)

// PostgresStore persists advice and the query audit trail in PostgreSQL.
type PostgresStore struct {
	db        *sql.DB
	sim       Similarity
	threshold float64
}

// NewPostgresStore creates a store using the given similarity strategy for
// fuzzy lookups. A nil strategy falls back to Levenshtein at the default
// threshold.
func NewPostgresStore(db *sql.DB, sim Similarity, threshold float64) *PostgresStore {
	if sim == nil {
		sim = LevenshteinSimilarity{}
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &PostgresStore{db: db, sim: sim, threshold: threshold}
}

// Normalize produces the canonical matching form of a question: trimmed,
// inner whitespace collapsed, case-folded.
func Normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// canonical keeps the original casing but collapses whitespace, so stored
// query text stays readable while LOWER(query) equals the normalized form.
func canonical(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// Lookup finds stored advice for the query: exact match on the normalized
// text first, then a fuzzy pass over stored questions. Storage failures
// degrade to ErrNotFound so the pipeline can continue to the next tier.
func (s *PostgresStore) Lookup(ctx context.Context, query string) (domain.Advice, domain.Confidence, error) {
	norm := Normalize(query)
	if norm == "" {
		return domain.Advice{}, domain.ConfidenceNone, ErrNotFound
	}

	var adv domain.Advice
	err := s.db.QueryRowContext(ctx, `
        SELECT id, query, response, created_at, search_count
        FROM advice
        WHERE LOWER(query) = $1`,
		norm,
	).Scan(&adv.ID, &adv.Query, &adv.Response, &adv.CreatedAt, &adv.SearchCount)

	switch {
	case err == nil:
		return adv, domain.ConfidenceExact, nil
	case errors.Is(err, sql.ErrNoRows):
		return s.fuzzyLookup(ctx, norm)
	default:
		zap.S().Warnw("advice lookup degraded to miss", "error", err)
		return domain.Advice{}, domain.ConfidenceNone, ErrNotFound
	}
}

// fuzzyLookup scores stored questions against the normalized query and
// returns the best one above the threshold.
func (s *PostgresStore) fuzzyLookup(ctx context.Context, norm string) (domain.Advice, domain.Confidence, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, query, response, created_at, search_count
        FROM advice
        ORDER BY search_count DESC, id
        LIMIT $1`,
		fuzzyCandidateLimit,
	)
	if err != nil {
		zap.S().Warnw("fuzzy advice scan degraded to miss", "error", err)
		return domain.Advice{}, domain.ConfidenceNone, ErrNotFound
	}
	defer rows.Close()

	var best domain.Advice
	bestScore := 0.0
	for rows.Next() {
		var adv domain.Advice
		if err := rows.Scan(&adv.ID, &adv.Query, &adv.Response, &adv.CreatedAt, &adv.SearchCount); err != nil {
			zap.S().Warnw("skipping malformed advice row", "error", err)
			continue
		}
		if score := s.sim.Score(norm, Normalize(adv.Query)); score > bestScore {
			best = adv
			bestScore = score
		}
	}
	if err := rows.Err(); err != nil {
		zap.S().Warnw("fuzzy advice scan degraded to miss", "error", err)
		return domain.Advice{}, domain.ConfidenceNone, ErrNotFound
	}

	if bestScore < s.threshold {
		return domain.Advice{}, domain.ConfidenceNone, ErrNotFound
	}
	return best, domain.ConfidenceFuzzy, nil
}

// RecordHit increments the advice's search counter. Must be called exactly
// once per successful lookup.
func (s *PostgresStore) RecordHit(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE advice SET search_count = search_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("recording advice hit for id %d: %w", id, err)
	}
	return nil
}

// Learn persists a freshly generated answer. The unique index on the
// normalized query makes concurrent learns of the same new question safe:
// the first insert wins and the racer refreshes the response instead.
func (s *PostgresStore) Learn(ctx context.Context, query, response string) error {
	q := canonical(query)
	if q == "" || response == "" {
		return errors.New("refusing to learn empty query or response")
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO advice (query, response)
        VALUES ($1, $2)
        ON CONFLICT (LOWER(query)) DO UPDATE
        SET response = EXCLUDED.response`,
		q, response,
	)
	if err != nil {
		return fmt.Errorf("learning advice for %q: %w", q, err)
	}

	zap.S().Infow("learned new advice", "query", q)
	return nil
}

// LogQuery appends an audit row. Fire and forget: a failed log line never
// costs the user their answer.
func (s *PostgresStore) LogQuery(ctx context.Context, userQuery string, source domain.Source) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_logs (user_query, response_source) VALUES ($1, $2)`,
		userQuery, string(source))
	if err != nil {
		zap.S().Warnw("failed to log query", "source", source, "error", err)
	}
}

// Popular returns the most looked-up advice entries, best first.
func (s *PostgresStore) Popular(ctx context.Context, limit int) ([]domain.Advice, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT id, query, response, created_at, search_count
        FROM advice
        ORDER BY search_count DESC, id
        LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching popular advice: %w", err)
	}
	defer rows.Close()

	var out []domain.Advice
	for rows.Next() {
		var adv domain.Advice
		if err := rows.Scan(&adv.ID, &adv.Query, &adv.Response, &adv.CreatedAt, &adv.SearchCount); err != nil {
			return nil, fmt.Errorf("scanning popular advice row: %w", err)
		}
		out = append(out, adv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating popular advice rows: %w", err)
	}
	return out, nil
}
