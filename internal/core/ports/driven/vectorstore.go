package driven

import (
	"context"
	"time"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// VectorStore provides durable vector persistence and similarity search.
// Backed by SQLite; all mutations run inside transactions serialized on a
// single writer, and readers observe only committed rows.
type VectorStore interface {
	// UpsertVectors atomically replaces a batch of records. Reinserting an
	// existing (DocumentID, ChunkIndex) key replaces the prior content.
	// A record whose vector length disagrees with the established width
	// fails the whole batch with domain.ErrDimensionMismatch.
	UpsertVectors(ctx context.Context, records []domain.VectorRecord) error

	// Search returns the top-K most similar chunks, sorted by descending
	// cosine similarity. A zero-norm query yields an empty result.
	Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// EstablishedDimensions returns the store's embedding width,
	// or 0 when no vectors are stored.
	EstablishedDimensions(ctx context.Context) (int, error)

	// SaveIndexStatus upserts a document's index bookkeeping.
	SaveIndexStatus(ctx context.Context, status domain.IndexStatus) error

	// GetIndexStatus returns a document's index bookkeeping,
	// or domain.ErrNotFound.
	GetIndexStatus(ctx context.Context, documentID string) (*domain.IndexStatus, error)

	// ListIndexedDocuments returns the IDs of all indexed documents.
	ListIndexedDocuments(ctx context.Context) ([]string, error)

	// NeedsReindex reports whether the stored content hash differs from
	// contentHash (or the document has never been indexed).
	NeedsReindex(ctx context.Context, documentID, contentHash string) (bool, error)

	// NeedsReindexByTimestamp is the cheap check: false iff both stored
	// timestamps exactly match the supplied ones. Absent stored timestamps
	// force the conservative answer (true).
	NeedsReindexByTimestamp(ctx context.Context, documentID string, sourceModifiedAt, attachmentModifiedAt time.Time) (bool, error)

	// DeleteDocumentVectors removes a document's vectors and index status.
	// The content cache entry is removed only when alsoDeleteCache is set:
	// the cache is a standing full-text store, not index-derived state.
	DeleteDocumentVectors(ctx context.Context, documentID string, alsoDeleteCache bool) error

	// ClearVectors removes all vectors and index status, preserving the
	// content cache for a cheap later reindex.
	ClearVectors(ctx context.Context) error

	// ClearAll is a full reset: vectors, index status and content cache.
	ClearAll(ctx context.Context) error

	// SaveCachedContent upserts a document's content cache entry.
	SaveCachedContent(ctx context.Context, entry domain.ContentCacheEntry) error

	// GetCachedContent returns a document's cached full text,
	// or domain.ErrNotFound.
	GetCachedContent(ctx context.Context, documentID string) (*domain.ContentCacheEntry, error)

	// SearchCachedContent performs a substring match over the content
	// cache, ranked by match count.
	SearchCachedContent(ctx context.Context, substring string, limit int) ([]domain.CacheSearchResult, error)

	// Stats summarises the store's contents.
	Stats(ctx context.Context) (*domain.StoreStats, error)

	// Close closes the underlying database.
	Close() error
}

// UsageStore persists the embedding service's cumulative usage counters.
type UsageStore interface {
	// LoadUsage returns the persisted cumulative counters.
	LoadUsage(ctx context.Context) (domain.UsageCounters, error)

	// SaveUsage overwrites the persisted cumulative counters.
	SaveUsage(ctx context.Context, counters domain.UsageCounters) error
}
