package domain

import "time"

const unknownDescription = "Unknown"

// RateLimitMode selects the limiter's behaviour when a call would
// exceed the sliding window.
type RateLimitMode string

// Available rate limit modes.
const (
	// RateLimitWait blocks cooperatively until the window frees.
	RateLimitWait RateLimitMode = "wait"

	// RateLimitFail rejects the call immediately with a RateLimit error.
	RateLimitFail RateLimitMode = "fail"
)

// IsValid returns true if the mode is recognised.
func (m RateLimitMode) IsValid() bool {
	return m == RateLimitWait || m == RateLimitFail
}

// EmbeddingSettings holds embedding provider configuration.
// Settings are hot-swappable: a new value takes effect on the next
// provider call without restarting the process.
type EmbeddingSettings struct {
	// APIBase is the OpenAI-compatible endpoint root.
	APIBase string

	// APIKey authenticates against the provider.
	APIKey string

	// Model is the embedding model name.
	Model string

	// Dimensions is the embedding width. Changing it invalidates
	// previously stored vectors.
	Dimensions int

	// RequestsPerMinute caps provider calls in the sliding window.
	RequestsPerMinute int

	// TokensPerMinute caps token consumption in the sliding window.
	TokensPerMinute int

	// RateLimitMode selects wait-or-fail behaviour at the window edge.
	RateLimitMode RateLimitMode

	// PricePerMillionTokens is the USD rate used for cost estimation.
	PricePerMillionTokens float64

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// IsConfigured returns true if the provider can be called.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.APIKey != "" && e.Model != "" && e.Dimensions > 0
}

// VectorPrecision defines the storage precision for vector embeddings.
type VectorPrecision string

// Available vector precision options.
const (
	// VectorPrecisionFloat32 stores vectors at full 32-bit precision.
	VectorPrecisionFloat32 VectorPrecision = "float32"

	// VectorPrecisionInt8 stores vectors as 8-bit symmetric-quantized
	// integers plus a per-vector float scale (75% storage savings).
	VectorPrecisionInt8 VectorPrecision = "int8"
)

// IsValid returns true if the precision is recognised.
func (p VectorPrecision) IsValid() bool {
	return p == VectorPrecisionFloat32 || p == VectorPrecisionInt8
}

// String returns the string representation.
func (p VectorPrecision) String() string {
	return string(p)
}

// Description returns a human-readable description of the precision.
func (p VectorPrecision) Description() string {
	switch p {
	case VectorPrecisionFloat32:
		return "Float32 (full precision, no compression)"
	case VectorPrecisionInt8:
		return "Int8 (8-bit quantized, 75% savings)"
	default:
		return unknownDescription
	}
}

// ChunkingSettings holds text chunker configuration.
type ChunkingSettings struct {
	// ChunkSize is the target chunk length in runes.
	ChunkSize int

	// Overlap is the number of overlapping runes between chunks.
	Overlap int

	// LanguageHint forces a language tag instead of detection. Empty
	// means detect per chunk.
	LanguageHint Language
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Precision is the storage precision for new vectors.
	Precision VectorPrecision

	// SearchBatchSize is the number of candidate rows scanned per batch.
	SearchBatchSize int
}

// Settings holds all application settings.
type Settings struct {
	// LibraryRoot is the document library directory.
	LibraryRoot string

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Chunking holds chunker settings.
	Chunking ChunkingSettings

	// Store holds vector store settings.
	Store StoreSettings
}

// DefaultSettings returns settings with sensible defaults.
// The embedding provider is left unconfigured; the API key must be
// supplied via the config file or environment.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			APIBase:               "https://api.openai.com/v1",
			Model:                 "text-embedding-3-small",
			Dimensions:            1536,
			RequestsPerMinute:     300,
			TokensPerMinute:       1_000_000,
			RateLimitMode:         RateLimitWait,
			PricePerMillionTokens: 0.02,
			Timeout:               60 * time.Second,
		},
		Chunking: ChunkingSettings{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Store: StoreSettings{
			Precision:       VectorPrecisionFloat32,
			SearchBatchSize: 512,
		},
	}
}
