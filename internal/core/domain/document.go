package domain

import "time"

// Language tags the dominant language of a piece of text.
type Language string

// Supported chunk languages.
const (
	// LanguageChinese marks predominantly Han-script text.
	LanguageChinese Language = "zh"

	// LanguageEnglish marks Latin-script text (the default).
	LanguageEnglish Language = "en"
)

// IsValid returns true if the language tag is recognised.
func (l Language) IsValid() bool {
	return l == LanguageChinese || l == LanguageEnglish
}

// Chunk represents a bounded text segment of a document.
// Chunks are produced by the chunker and embedded into vectors;
// they are ephemeral and never persisted standalone.
type Chunk struct {
	// DocumentID links to the source document in the library.
	DocumentID string

	// Index is the ordinal position within the document, starting at 0.
	// Chunk boundaries are deterministic, so Index is stable across runs.
	Index int

	// Text is the segment content.
	Text string

	// Language is the detected (or hinted) dominant language.
	Language Language
}

// VectorRecord is a persisted embedding for one chunk.
// The (DocumentID, ChunkIndex) pair is unique within the store.
type VectorRecord struct {
	// DocumentID links to the source document.
	DocumentID string

	// ChunkIndex is the chunk's ordinal position within the document.
	ChunkIndex int

	// Vector is the embedding. Its length must equal Dimensions.
	Vector []float32

	// Language is the chunk's language tag.
	Language Language

	// ChunkText is the chunk's source text, stored alongside the vector
	// so search results can be rendered without refetching the document.
	ChunkText string

	// Dimensions is the embedding width. All records in a store share
	// one width; a disagreement is a hard DimensionMismatch error.
	Dimensions int
}

// IndexStatus records per-document indexing bookkeeping.
// It is created and updated atomically with the document's VectorRecords
// and deleted together with them.
type IndexStatus struct {
	// DocumentID identifies the document.
	DocumentID string

	// IndexedAt is when the document was last fully indexed.
	IndexedAt time.Time

	// ChunkCount is the number of vectors stored for the document.
	ChunkCount int

	// ContentHash is the SHA-256 of the full text at indexing time.
	ContentHash string

	// Version is the index schema/pipeline version the document was built with.
	Version int

	// SourceModifiedAt is the document's modification time at indexing,
	// if the library reported one. Zero means unknown.
	SourceModifiedAt time.Time

	// AttachmentModifiedAt is the attachment's modification time at indexing,
	// if the library reported one. Zero means unknown.
	AttachmentModifiedAt time.Time
}

// ContentCacheEntry is a document's extracted full text.
// Its lifecycle is independent of the vector index: it survives
// reindexing and index clears, and is removed only by an explicit
// full purge or permanent document deletion.
type ContentCacheEntry struct {
	// DocumentID identifies the document.
	DocumentID string

	// FullText is the complete extracted text.
	FullText string

	// ContentHash is the SHA-256 of FullText.
	ContentHash string

	// CachedAt is when the text was cached.
	CachedAt time.Time
}

// FullTextDocument is what the library collaborator returns for a document.
type FullTextDocument struct {
	// Text is the document's complete extracted text.
	Text string

	// SourceModifiedAt is the document's last modification time.
	SourceModifiedAt time.Time

	// AttachmentModifiedAt is the primary attachment's last modification time.
	// Zero if the document has no attachment.
	AttachmentModifiedAt time.Time
}

// IndexVersion is the current indexing pipeline version. Documents indexed
// with an older version are rebuilt on the next incremental pass.
const IndexVersion = 1
