// Package service holds the query resolution engine: the tiered
// store → search → generate pipeline that turns a farmer's question into an
// answer with provenance, and decides what the bot learns from it.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mlimi/internal/domain"
	"mlimi/internal/search"
	"mlimi/internal/sessions"
)

// FallbackAnswer is the static reply used when generation hard-fails. The
// end user never sees a raw error.
const FallbackAnswer = "🚫 I apologize, but I'm having trouble processing your request at the moment. " +
	"Please try rephrasing your question or contact local agricultural extension services " +
	"for immediate assistance."

// Searcher is the web-search capability the resolver consumes.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Generator is the generative-answer capability the resolver consumes.
type Generator interface {
	Generate(ctx context.Context, query string, snippets []search.Result, history []domain.Turn) (string, error)
}

// Resolver routes each query through the tiers and owns every store write:
// hit counting, learning write-back, and the audit log.
type Resolver struct {
	store    domain.AdviceRepository
	searcher Searcher
	gen      Generator
	sessions *sessions.Context
}

func NewResolver(store domain.AdviceRepository, searcher Searcher, gen Generator, sessions *sessions.Context) *Resolver {
	return &Resolver{store: store, searcher: searcher, gen: gen, sessions: sessions}
}

// Resolve answers one query for one conversation. Tier order: local store,
// then web search feeding generation. Never returns an error; total failure
// degrades to the static fallback. Store writes happen only once the answer
// to return is final, and no session lock is held across the adapter calls.
func (r *Resolver) Resolve(ctx context.Context, query, conversationID string) domain.Resolution {
	log := zap.S().With(
		"resolution_id", uuid.NewString(),
		"conversation", conversationID,
	)
	log.Infow("resolving query", "query", query)

	history := r.sessions.History(conversationID)

	// Tier 1: curated/learned store. Lookup degrades storage failures to
	// a plain miss, so any error here means "fall through".
	adv, confidence, err := r.store.Lookup(ctx, query)
	if err == nil {
		log.Infow("answered from local store", "confidence", confidence, "advice_id", adv.ID)
		if hitErr := r.store.RecordHit(ctx, adv.ID); hitErr != nil {
			log.Warnw("failed to record advice hit", "error", hitErr)
		}
		r.remember(conversationID, query, adv.Response)
		r.store.LogQuery(ctx, query, domain.SourceLocal)
		return domain.Resolution{
			Answer:     adv.Response,
			Source:     domain.SourceLocal,
			Confidence: confidence,
		}
	}

	// Tier 2: web search. Unavailable just means generating without
	// snippets.
	snippets, err := r.searcher.Search(ctx, query)
	if err != nil {
		if errors.Is(err, search.ErrUnavailable) {
			log.Infow("search unavailable, generating without web context")
		} else {
			log.Warnw("search failed, generating without web context", "error", err)
		}
		snippets = nil
	}

	// Tier 3: generation.
	answer, err := r.gen.Generate(ctx, query, snippets, history)
	if err != nil {
		log.Errorw("generation failed, returning fallback", "error", err)
		r.store.LogQuery(ctx, query, domain.SourceDegraded)
		return domain.Resolution{
			Answer:     FallbackAnswer,
			Source:     domain.SourceAIGenerated,
			Confidence: domain.ConfidenceNone,
		}
	}

	source := domain.SourceAIGenerated
	if len(snippets) > 0 {
		source = domain.SourceOnline
	}
	log.Infow("answered from generation", "source", source, "snippets", len(snippets))

	r.remember(conversationID, query, answer)
	if learnErr := r.store.Learn(ctx, query, answer); learnErr != nil {
		log.Warnw("failed to learn answer", "error", learnErr)
	}
	r.store.LogQuery(ctx, query, source)

	return domain.Resolution{
		Answer:     answer,
		Source:     source,
		Confidence: domain.ConfidenceGenerated,
	}
}

// remember appends the finished exchange to the conversation, user turn
// first.
func (r *Resolver) remember(conversationID, query, answer string) {
	r.sessions.Append(conversationID, domain.RoleUser, query)
	r.sessions.Append(conversationID, domain.RoleAssistant, answer)
}
