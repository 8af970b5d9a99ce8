// Package file implements the config store on a TOML file in the
// refsearch config directory.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// apiKeyEnv overrides the stored API key when set, so the key never has
// to live on disk.
const apiKeyEnv = "REFSEARCH_API_KEY"

// fileConfig is the on-disk TOML shape. It mirrors domain.Settings with
// toml tags and a plain-seconds timeout so the file stays hand-editable.
type fileConfig struct {
	LibraryRoot string `toml:"library_root,omitempty"`

	Embedding struct {
		APIBase               string  `toml:"api_base,omitempty"`
		APIKey                string  `toml:"api_key,omitempty"`
		Model                 string  `toml:"model,omitempty"`
		Dimensions            int     `toml:"dimensions,omitempty"`
		RequestsPerMinute     int     `toml:"requests_per_minute,omitempty"`
		TokensPerMinute       int     `toml:"tokens_per_minute,omitempty"`
		RateLimitMode         string  `toml:"rate_limit_mode,omitempty"`
		PricePerMillionTokens float64 `toml:"price_per_million_tokens,omitempty"`
		TimeoutSeconds        int     `toml:"timeout_seconds,omitempty"`
	} `toml:"embedding"`

	Chunking struct {
		ChunkSize int `toml:"chunk_size,omitempty"`
		Overlap   int `toml:"overlap,omitempty"`
	} `toml:"chunking"`

	Store struct {
		Precision       string `toml:"precision,omitempty"`
		SearchBatchSize int    `toml:"search_batch_size,omitempty"`
	} `toml:"store"`
}

// ConfigStore is a TOML-file implementation of driven.ConfigStore.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a TOML-based config store.
// If configDir is empty, defaults to ~/.refsearch.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".refsearch")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	return &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads settings from disk, filling absent values from defaults.
// A missing file yields pure defaults. The REFSEARCH_API_KEY
// environment variable overrides any stored API key.
func (s *ConfigStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&settings)
			return settings, nil
		}
		return settings, fmt.Errorf("reading config file: %w", err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return settings, fmt.Errorf("parsing config file: %w", err)
	}

	applyFile(&settings, cfg)
	applyEnv(&settings)
	return settings, nil
}

// Save persists the settings to disk with restricted permissions.
func (s *ConfigStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg fileConfig
	cfg.LibraryRoot = settings.LibraryRoot
	cfg.Embedding.APIBase = settings.Embedding.APIBase
	cfg.Embedding.APIKey = settings.Embedding.APIKey
	cfg.Embedding.Model = settings.Embedding.Model
	cfg.Embedding.Dimensions = settings.Embedding.Dimensions
	cfg.Embedding.RequestsPerMinute = settings.Embedding.RequestsPerMinute
	cfg.Embedding.TokensPerMinute = settings.Embedding.TokensPerMinute
	cfg.Embedding.RateLimitMode = string(settings.Embedding.RateLimitMode)
	cfg.Embedding.PricePerMillionTokens = settings.Embedding.PricePerMillionTokens
	cfg.Embedding.TimeoutSeconds = int(settings.Embedding.Timeout / time.Second)
	cfg.Chunking.ChunkSize = settings.Chunking.ChunkSize
	cfg.Chunking.Overlap = settings.Chunking.Overlap
	cfg.Store.Precision = string(settings.Store.Precision)
	cfg.Store.SearchBatchSize = settings.Store.SearchBatchSize

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	// Restricted permissions: the file may hold an API key.
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// applyFile overlays non-zero file values onto the defaults.
func applyFile(settings *domain.Settings, cfg fileConfig) {
	if cfg.LibraryRoot != "" {
		settings.LibraryRoot = cfg.LibraryRoot
	}

	e := cfg.Embedding
	if e.APIBase != "" {
		settings.Embedding.APIBase = e.APIBase
	}
	if e.APIKey != "" {
		settings.Embedding.APIKey = e.APIKey
	}
	if e.Model != "" {
		settings.Embedding.Model = e.Model
	}
	if e.Dimensions > 0 {
		settings.Embedding.Dimensions = e.Dimensions
	}
	if e.RequestsPerMinute > 0 {
		settings.Embedding.RequestsPerMinute = e.RequestsPerMinute
	}
	if e.TokensPerMinute > 0 {
		settings.Embedding.TokensPerMinute = e.TokensPerMinute
	}
	if mode := domain.RateLimitMode(e.RateLimitMode); mode.IsValid() {
		settings.Embedding.RateLimitMode = mode
	}
	if e.PricePerMillionTokens > 0 {
		settings.Embedding.PricePerMillionTokens = e.PricePerMillionTokens
	}
	if e.TimeoutSeconds > 0 {
		settings.Embedding.Timeout = time.Duration(e.TimeoutSeconds) * time.Second
	}

	if cfg.Chunking.ChunkSize > 0 {
		settings.Chunking.ChunkSize = cfg.Chunking.ChunkSize
	}
	if cfg.Chunking.Overlap > 0 {
		settings.Chunking.Overlap = cfg.Chunking.Overlap
	}

	if p := domain.VectorPrecision(cfg.Store.Precision); p.IsValid() {
		settings.Store.Precision = p
	}
	if cfg.Store.SearchBatchSize > 0 {
		settings.Store.SearchBatchSize = cfg.Store.SearchBatchSize
	}
}

// applyEnv overlays environment overrides.
func applyEnv(settings *domain.Settings) {
	if key := os.Getenv(apiKeyEnv); key != "" {
		settings.Embedding.APIKey = key
	}
}
