// Package query orchestrates the ask pipeline: result cache in front of
// the search engine and answer synthesizer.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/ranjeet229/KnowledgeScout/internal/answer"
	"github.com/ranjeet229/KnowledgeScout/internal/cache"
	"github.com/ranjeet229/KnowledgeScout/internal/kerr"
	"github.com/ranjeet229/KnowledgeScout/internal/search"
)

// Service answers queries through the two-tier cache.
type Service struct {
	engine    *search.Engine
	local     *cache.Local
	persisted *cache.Persisted
	ttl       time.Duration
	logger    *slog.Logger

	// now is injectable for TTL tests.
	now func() time.Time
}

// New creates the query service. ttl <= 0 falls back to cache.DefaultTTL.
func New(engine *search.Engine, local *cache.Local, persisted *cache.Persisted, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:    engine,
		local:     local,
		persisted: persisted,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Ask resolves a query to a cached or freshly computed answer.
//
// Lookup order: local tier, then persisted tier (back-filling the local
// tier on hit), then a fresh search + synthesis written through both
// tiers. The returned bool reports whether either tier hit.
// Persisted-tier failures propagate; they are not masked by recompute.
func (s *Service) Ask(ctx context.Context, queryText string, limit int, callerID string) (*cache.Answer, bool, error) {
	if queryText == "" {
		return nil, false, kerr.New(kerr.CodeQueryEmpty, "query is required")
	}

	key := cache.Key(queryText, limit, callerID)

	if a, ok := s.local.Get(key); ok {
		s.logger.Debug("ask_cache_hit", slog.String("tier", "local"), slog.String("query", queryText))
		return a, true, nil
	}

	a, ok, err := s.persisted.Lookup(ctx, queryText, s.now())
	if err != nil {
		return nil, false, err
	}
	if ok {
		s.local.Add(key, a)
		s.logger.Debug("ask_cache_hit", slog.String("tier", "persisted"), slog.String("query", queryText))
		return a, true, nil
	}

	refs, err := s.engine.Search(ctx, queryText, search.Options{
		Limit:    limit,
		CallerID: callerID,
	})
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	a = &cache.Answer{
		Query:      queryText,
		Text:       answer.Synthesize(queryText, refs),
		References: refs,
		CachedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := s.persisted.Insert(ctx, a); err != nil {
		return nil, false, err
	}
	s.local.Add(key, a)

	s.logger.Info("ask_computed",
		slog.String("query", queryText),
		slog.Int("references", len(refs)))
	return a, false, nil
}
