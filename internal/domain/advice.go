package domain

import (
	"context"
	"time"
)

// Source identifies which tier of the pipeline produced an answer.
type Source string

const (
	SourceLocal       Source = "local"
	SourceOnline      Source = "online"
	SourceAIGenerated Source = "ai_generated"

	// SourceDegraded only ever appears in the query log, when generation
	// hard-failed and the static fallback was returned.
	SourceDegraded Source = "degraded"
)

// Confidence is a coarse hint about how the answer was matched or produced.
type Confidence string

const (
	ConfidenceExact     Confidence = "exact"
	ConfidenceFuzzy     Confidence = "fuzzy"
	ConfidenceGenerated Confidence = "generated"
	ConfidenceNone      Confidence = "none"
)

// Advice is a curated or learned question/answer pair.
type Advice struct {
	ID          int64
	Query       string
	Response    string
	CreatedAt   time.Time
	SearchCount int
}

// QueryLog is one append-only audit row per resolution call.
type QueryLog struct {
	ID             int64
	UserQuery      string
	ResponseSource Source
	CreatedAt      time.Time
}

// Resolution is the final answer returned to the transport, tagged with
// its provenance.
type Resolution struct {
	Answer     string
	Source     Source
	Confidence Confidence
}

// AdviceRepository is the storage contract the resolver depends on.
type AdviceRepository interface {
	// Lookup returns the best stored advice for the query, with the
	// confidence of the match. ErrNotFound when nothing clears the bar.
	Lookup(ctx context.Context, query string) (Advice, Confidence, error)
	// RecordHit bumps the advice's search counter. Callers must call it
	// exactly once per successful lookup.
	RecordHit(ctx context.Context, id int64) error
	// Learn inserts a new advice entry, or refreshes the response of an
	// existing one with the same normalized query.
	Learn(ctx context.Context, query, response string) error
	// LogQuery appends an audit row. Failures are swallowed and logged;
	// resolving an answer never depends on the audit trail.
	LogQuery(ctx context.Context, userQuery string, source Source)
	// Popular returns the most-hit advice entries, best first.
	Popular(ctx context.Context, limit int) ([]Advice, error)
}
