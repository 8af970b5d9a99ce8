package domain

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// TopK is the maximum number of results (default 10).
	TopK int

	// Language restricts results to one language. Empty means all.
	Language Language

	// DocumentIDs restricts results to specific documents. Empty means all.
	DocumentIDs []string

	// MinScore drops results scoring below this cosine similarity.
	MinScore float64
}

// SearchResult is a single similarity hit.
type SearchResult struct {
	// DocumentID is the matched document.
	DocumentID string

	// ChunkIndex is the matched chunk's position within the document.
	ChunkIndex int

	// Score is the cosine similarity in [-1, 1].
	Score float64

	// ChunkText is the matched chunk's source text.
	ChunkText string

	// Language is the chunk's language tag.
	Language Language
}

// CacheSearchResult is a substring match against the content cache.
// This is the store's secondary, non-vector search capability.
type CacheSearchResult struct {
	// DocumentID is the matched document.
	DocumentID string

	// MatchCount is the number of substring occurrences.
	MatchCount int

	// Snippet surrounds the first occurrence.
	Snippet string
}

// StoreStats summarises the vector store's contents.
type StoreStats struct {
	// TotalVectors is the number of stored vectors.
	TotalVectors int

	// TotalDocuments is the number of distinct indexed documents.
	TotalDocuments int

	// VectorsByLanguage counts vectors per language tag.
	VectorsByLanguage map[Language]int

	// CacheItems is the number of content cache entries.
	CacheItems int

	// CacheBytes is the total cached text size in bytes.
	CacheBytes int64

	// Dimensions is the established embedding width, 0 if empty.
	Dimensions int

	// QuantizedFraction is the share of vectors stored int8-quantized.
	QuantizedFraction float64
}
