package openai

import (
	"context"
	"sync"

	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
	"github.com/lricher7329/refsearch/internal/logger"
)

// usageTracker accumulates provider consumption. The cumulative portion
// is persisted through a driven.UsageStore so it survives restarts;
// session counters live and die with the process.
type usageTracker struct {
	mu         sync.Mutex
	cumulative domain.UsageCounters
	session    domain.UsageCounters
	store      driven.UsageStore
}

// newUsageTracker creates a tracker, loading persisted cumulative
// counters when a store is supplied.
func newUsageTracker(ctx context.Context, store driven.UsageStore) *usageTracker {
	t := &usageTracker{store: store}
	if store != nil {
		counters, err := store.LoadUsage(ctx)
		if err != nil {
			logger.Warn("Failed to load usage counters: %v", err)
		} else {
			t.cumulative = counters
		}
	}
	return t
}

// record accumulates one call's consumption and persists the cumulative
// counters. Persistence failures are logged, not surfaced: losing a
// counter update must not fail an embedding call.
func (t *usageTracker) record(ctx context.Context, requests, tokens, chunks int64) {
	t.mu.Lock()
	t.cumulative.Add(requests, tokens, chunks)
	t.session.Add(requests, tokens, chunks)
	cumulative := t.cumulative
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveUsage(ctx, cumulative); err != nil {
			logger.Warn("Failed to persist usage counters: %v", err)
		}
	}
}

// snapshot returns copies of both counter sets.
func (t *usageTracker) snapshot() (cumulative, session domain.UsageCounters) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cumulative, t.session
}

// resetSession zeroes the session counters only.
func (t *usageTracker) resetSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = domain.UsageCounters{}
}

// resetAll zeroes both counter sets and the persisted state.
func (t *usageTracker) resetAll(ctx context.Context) error {
	t.mu.Lock()
	t.cumulative = domain.UsageCounters{}
	t.session = domain.UsageCounters{}
	t.mu.Unlock()

	if t.store != nil {
		return t.store.SaveUsage(ctx, domain.UsageCounters{})
	}
	return nil
}

// flush persists the current cumulative counters.
func (t *usageTracker) flush(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	t.mu.Lock()
	cumulative := t.cumulative
	t.mu.Unlock()
	return t.store.SaveUsage(ctx, cumulative)
}
