package domain

// UsageCounters accumulate embedding provider consumption.
type UsageCounters struct {
	// Requests is the number of provider calls.
	Requests int64

	// Tokens is the total prompt tokens consumed.
	Tokens int64

	// Chunks is the number of text segments embedded.
	Chunks int64
}

// Add accumulates one call's consumption.
func (c *UsageCounters) Add(requests, tokens, chunks int64) {
	c.Requests += requests
	c.Tokens += tokens
	c.Chunks += chunks
}

// UsageStats is the embedding service's consumption report.
// Cumulative counters persist across restarts; session counters reset
// with the process (or on explicit session reset).
type UsageStats struct {
	// Cumulative covers the store's whole lifetime.
	Cumulative UsageCounters

	// Session covers the current process since the last session reset.
	Session UsageCounters

	// CurrentRPM is the request count inside the sliding one-minute window.
	CurrentRPM int

	// CurrentTPM is the token count inside the sliding one-minute window.
	CurrentTPM int

	// RateLimitHits counts calls delayed or rejected by the limiter.
	RateLimitHits int64

	// EstimatedCostUSD derives from cumulative tokens and the configured
	// per-million-token price.
	EstimatedCostUSD float64
}
