package openai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// fakeClock drives the limiter's notion of time in tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rpm, tpm int, mode domain.RateLimitMode) (*slidingLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := newSlidingLimiter(rpm, tpm, mode)
	l.now = clock.now
	return l, clock
}

func TestSlidingLimiter_AdmitsWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(10, 1000, domain.RateLimitFail)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, l.reserve(ctx, 50))
	}

	requests, tokens, hits := l.usage()
	assert.Equal(t, 10, requests)
	assert.Equal(t, 500, tokens)
	assert.Zero(t, hits)
}

func TestSlidingLimiter_FailModeRejectsOverRPM(t *testing.T) {
	l, _ := newTestLimiter(2, 0, domain.RateLimitFail)
	ctx := context.Background()

	require.NoError(t, l.reserve(ctx, 1))
	require.NoError(t, l.reserve(ctx, 1))

	err := l.reserve(ctx, 1)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ErrorKindRateLimit, pe.Kind)

	_, _, hits := l.usage()
	assert.Equal(t, int64(1), hits)
}

func TestSlidingLimiter_FailModeRejectsOverTPM(t *testing.T) {
	l, _ := newTestLimiter(0, 100, domain.RateLimitFail)
	ctx := context.Background()

	require.NoError(t, l.reserve(ctx, 80))

	err := l.reserve(ctx, 30)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ErrorKindRateLimit, pe.Kind)
}

func TestSlidingLimiter_OversizedSingleRequestAdmitted(t *testing.T) {
	// A single request larger than the whole token budget must not
	// deadlock: it is admitted when the window is empty.
	l, _ := newTestLimiter(0, 100, domain.RateLimitFail)

	assert.NoError(t, l.reserve(context.Background(), 500))
}

func TestSlidingLimiter_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(2, 0, domain.RateLimitFail)
	ctx := context.Background()

	require.NoError(t, l.reserve(ctx, 1))
	require.NoError(t, l.reserve(ctx, 1))
	require.Error(t, l.reserve(ctx, 1))

	// Once the old events leave the one-minute window, capacity returns.
	clock.advance(61 * time.Second)
	assert.NoError(t, l.reserve(ctx, 1))

	requests, _, _ := l.usage()
	assert.Equal(t, 1, requests, "expired events are pruned")
}

func TestSlidingLimiter_RecordTokensCorrectsEstimate(t *testing.T) {
	l, _ := newTestLimiter(0, 1000, domain.RateLimitFail)
	ctx := context.Background()

	require.NoError(t, l.reserve(ctx, 100))
	l.recordTokens(900)

	_, tokens, _ := l.usage()
	assert.Equal(t, 900, tokens)

	// The corrected count now dominates the window.
	err := l.reserve(ctx, 200)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ErrorKindRateLimit, pe.Kind)
}

func TestSlidingLimiter_WaitModeBlocksUntilWindowFrees(t *testing.T) {
	l, _ := newTestLimiter(1, 0, domain.RateLimitWait)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, l.reserve(ctx, 1))

	// The second call must block, then surface the context cancellation.
	err := l.reserve(ctx, 1)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ErrorKindNetwork, pe.Kind)
}

func TestSlidingLimiter_DisabledBudgets(t *testing.T) {
	l, _ := newTestLimiter(0, 0, domain.RateLimitFail)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, l.reserve(ctx, 1_000_000))
	}
}

func TestSlidingLimiter_InvalidModeDefaultsToWait(t *testing.T) {
	l := newSlidingLimiter(10, 0, domain.RateLimitMode("bogus"))
	assert.Equal(t, domain.RateLimitWait, l.mode)
}
