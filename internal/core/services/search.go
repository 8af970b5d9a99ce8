package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
	"github.com/lricher7329/refsearch/internal/core/ports/driving"
	"github.com/lricher7329/refsearch/internal/logger"
)

// Ensure Search implements the interface.
var _ driving.SearchService = (*Search)(nil)

// Search answers semantic and cache queries against the vector store.
type Search struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
}

// NewSearch creates the search service.
func NewSearch(store driven.VectorStore, embedder driven.EmbeddingService) *Search {
	return &Search{store: store, embedder: embedder}
}

// Search embeds the query text and returns the most similar chunks.
func (s *Search) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	logger.Debug("Embedding search query (%d runes)", len([]rune(query)))
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return s.store.Search(ctx, vector, opts)
}

// SearchByVector bypasses the embedding service and searches with a
// caller-supplied vector.
func (s *Search) SearchByVector(ctx context.Context, vector []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	return s.store.Search(ctx, vector, opts)
}

// SearchCache performs a substring search over the content cache.
func (s *Search) SearchCache(ctx context.Context, substring string, limit int) ([]domain.CacheSearchResult, error) {
	return s.store.SearchCachedContent(ctx, substring, limit)
}

// Stats merges store contents and embedding usage.
func (s *Search) Stats(ctx context.Context) (*domain.StoreStats, domain.UsageStats, error) {
	storeStats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, domain.UsageStats{}, fmt.Errorf("reading store stats: %w", err)
	}
	return storeStats, s.embedder.Stats(), nil
}
