// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// Driven ports are called BY the core services and implemented by adapters:
//
//   - EmbeddingService: turns text into vectors (OpenAI-compatible HTTP)
//   - VectorStore: persists vectors, index status and the content cache (SQLite)
//   - Library: the host collaborator that owns documents and their text
//   - ConfigStore: typed settings persistence (TOML file)
//
// Core services depend on these interfaces only; concrete adapters are
// constructed once at process start and injected explicitly.
package driven
