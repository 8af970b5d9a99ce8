// Package domain defines the core business entities for refsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded text segment of a document, the unit that is embedded
//   - VectorRecord: A persisted embedding keyed by (DocumentID, ChunkIndex)
//   - IndexStatus: Per-document bookkeeping used for incremental reindexing
//   - ContentCacheEntry: A document's extracted full text, independent of the index
//   - JobSnapshot: The single indexing job's observable state
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
