package openai

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// window is the sliding rate-limit window length.
const window = time.Minute

// limiterEvent is one provider call inside the sliding window.
type limiterEvent struct {
	at     time.Time
	tokens int
}

// slidingLimiter enforces requests-per-minute and tokens-per-minute over
// a sliding window, with a token bucket underneath to smooth request
// issue. Depending on mode, a call that would exceed the window blocks
// cooperatively or fails with a RateLimit error.
type slidingLimiter struct {
	mu     sync.Mutex
	events []limiterEvent
	rpm    int
	tpm    int
	mode   domain.RateLimitMode
	bucket *rate.Limiter
	hits   int64

	// now is swappable for tests.
	now func() time.Time
}

// newSlidingLimiter creates a limiter for the given per-minute budgets.
// Non-positive budgets disable the corresponding check.
func newSlidingLimiter(rpm, tpm int, mode domain.RateLimitMode) *slidingLimiter {
	if !mode.IsValid() {
		mode = domain.RateLimitWait
	}

	// Smooth request issue to the sustained rate, with a small burst.
	bucketRate := rate.Inf
	burst := 1
	if rpm > 0 {
		bucketRate = rate.Limit(float64(rpm) / 60.0)
		burst = rpm/10 + 1
	}

	return &slidingLimiter{
		rpm:    rpm,
		tpm:    tpm,
		mode:   mode,
		bucket: rate.NewLimiter(bucketRate, burst),
		now:    time.Now,
	}
}

// reserve admits one request carrying estTokens, blocking or failing per
// the configured mode. The caller records actual token usage afterwards
// via recordTokens.
func (l *slidingLimiter) reserve(ctx context.Context, estTokens int) error {
	for {
		l.mu.Lock()
		l.prune()
		wait := l.retryAfter(estTokens)
		if wait <= 0 {
			l.events = append(l.events, limiterEvent{at: l.now(), tokens: estTokens})
			l.mu.Unlock()
			break
		}
		l.hits++
		mode := l.mode
		l.mu.Unlock()

		if mode == domain.RateLimitFail {
			return domain.NewProviderError(domain.ErrorKindRateLimit,
				"local rate limit window exhausted", nil)
		}

		select {
		case <-ctx.Done():
			return domain.NewProviderError(domain.ErrorKindNetwork,
				"cancelled while waiting for rate limit window", ctx.Err())
		case <-time.After(wait):
		}
	}

	if err := l.bucket.Wait(ctx); err != nil {
		return domain.NewProviderError(domain.ErrorKindNetwork,
			"cancelled while waiting for rate limiter", err)
	}
	return nil
}

// recordTokens corrects the latest reservation with actual token usage.
func (l *slidingLimiter) recordTokens(actual int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.events); n > 0 && actual > 0 {
		l.events[n-1].tokens = actual
	}
}

// usage returns the current window's request and token counts and the
// accumulated limit-hit count.
func (l *slidingLimiter) usage() (requests, tokens int, hits int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune()
	for _, e := range l.events {
		tokens += e.tokens
	}
	return len(l.events), tokens, l.hits
}

// prune drops events older than the window. Callers hold l.mu.
func (l *slidingLimiter) prune() {
	cutoff := l.now().Add(-window)
	keep := 0
	for _, e := range l.events {
		if e.at.After(cutoff) {
			l.events[keep] = e
			keep++
		}
	}
	l.events = l.events[:keep]
}

// retryAfter returns how long until a request carrying estTokens fits in
// the window, or 0 if it fits now. Callers hold l.mu.
func (l *slidingLimiter) retryAfter(estTokens int) time.Duration {
	overRequests := l.rpm > 0 && len(l.events)+1 > l.rpm
	tokens := 0
	for _, e := range l.events {
		tokens += e.tokens
	}
	overTokens := l.tpm > 0 && len(l.events) > 0 && tokens+estTokens > l.tpm

	if !overRequests && !overTokens {
		return 0
	}
	// Wait until the oldest event leaves the window.
	oldest := l.events[0].at
	wait := window - l.now().Sub(oldest)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}
