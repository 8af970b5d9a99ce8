package driving

import (
	"context"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// SearchService answers semantic and cache queries.
type SearchService interface {
	// Search embeds the query text and returns the most similar chunks.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SearchByVector bypasses the embedding service and searches with a
	// caller-supplied vector.
	SearchByVector(ctx context.Context, vector []float32, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SearchCache performs a substring search over the content cache.
	SearchCache(ctx context.Context, substring string, limit int) ([]domain.CacheSearchResult, error)

	// Stats merges store and usage statistics.
	Stats(ctx context.Context) (*domain.StoreStats, domain.UsageStats, error)
}
