package ranklist

import (
	"context"
	"fmt"
	"time"

	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/store"
	"github.com/judgehub/judgehub/pkg/cache"
)

// Aggregator computes scoreboards and optionally caches them, keyed by the
// (scoring_rule, tie_breaker) pair. A nil cache disables caching.
type Aggregator struct {
	store *store.Store
	cfg   *config.Config
	cache cache.Cache[[]Entry]
	ttl   time.Duration
}

// NewAggregator builds an Aggregator. Pass a nil cache to compute every
// request fresh.
func NewAggregator(st *store.Store, cfg *config.Config, c cache.Cache[[]Entry], ttl time.Duration) *Aggregator {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &Aggregator{store: st, cfg: cfg, cache: c, ttl: ttl}
}

// Get returns the scoreboard for the given rule and tie-breaker, serving a
// cached copy when available and fresh.
func (a *Aggregator) Get(ctx context.Context, rule ScoringRule, tie TieBreaker) ([]Entry, error) {
	if a.cache == nil {
		return Compute(ctx, a.store, a.cfg, rule, tie)
	}

	key := fmt.Sprintf("ranklist:%s:%s", rule, tie)
	return cache.GetOrSet(ctx, a.cache, key, func(ctx context.Context) ([]Entry, time.Duration, error) {
		entries, err := Compute(ctx, a.store, a.cfg, rule, tie)
		return entries, a.ttl, err
	})
}

// Invalidate drops every cached scoreboard. Called whenever a job's terminal
// state changes (result saved, job canceled, job rejudged), since any of
// those can change a user's representative submission for a problem.
func (a *Aggregator) Invalidate(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Clear(ctx)
}
