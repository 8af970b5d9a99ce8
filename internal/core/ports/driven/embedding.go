package driven

import (
	"context"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// Failures are classified exactly once, here, as *domain.ProviderError;
// downstream consumers must not re-interpret them. Rate limiting is
// enforced inside the service: depending on the configured mode a call
// that would exceed the sliding window either blocks cooperatively or
// fails with a RateLimit error. A call is never silently dropped.
type EmbeddingService interface {
	// EmbedBatch generates embeddings for multiple texts.
	// The result has the same length and order as the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Embed generates a single embedding. Convenience over EmbedBatch.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the configured embedding width.
	Dimensions() int

	// ModelName returns the active embedding model.
	ModelName() string

	// Configure hot-swaps the provider settings. The new configuration
	// takes effect on the next call.
	Configure(settings domain.EmbeddingSettings) error

	// Stats returns a copy of the current usage statistics.
	Stats() domain.UsageStats

	// ResetSession zeroes the session counters only.
	ResetSession()

	// ResetAll zeroes session and cumulative counters.
	ResetAll() error

	// Close flushes persisted usage state and releases resources.
	Close() error
}
