// Package openai provides an embedding service adapter for
// OpenAI-compatible APIs, with provider error classification, sliding
// window rate limiting and usage accounting.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"unicode/utf8"

	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
	"github.com/lricher7329/refsearch/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// runesPerToken is the heuristic used to estimate token counts before a
// call; the provider's reported usage replaces the estimate afterwards.
const runesPerToken = 4

// EmbeddingService generates embeddings via an OpenAI-compatible API.
//
// Configuration is hot-swappable: Configure replaces the settings under
// a mutex and the next call picks them up. All failures leave this
// adapter classified as *domain.ProviderError.
type EmbeddingService struct {
	mu       sync.Mutex
	client   *http.Client
	settings domain.EmbeddingSettings
	limiter  *slidingLimiter
	usage    *usageTracker
}

// embeddingRequest is the OpenAI API request format.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the OpenAI API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates an embedding service. The usage store is
// optional; when nil, cumulative counters are process-local.
func NewEmbeddingService(settings domain.EmbeddingSettings, usageStore driven.UsageStore) *EmbeddingService {
	return &EmbeddingService{
		client:   &http.Client{Timeout: settings.Timeout},
		settings: settings,
		limiter: newSlidingLimiter(settings.RequestsPerMinute,
			settings.TokensPerMinute, settings.RateLimitMode),
		usage: newUsageTracker(context.Background(), usageStore),
	}
}

// Configure hot-swaps the provider settings. The limiter is rebuilt so
// new budgets apply immediately; in-window history is deliberately not
// carried over.
func (s *EmbeddingService) Configure(settings domain.EmbeddingSettings) error {
	if settings.Dimensions <= 0 {
		return domain.NewProviderError(domain.ErrorKindConfig,
			"dimensions must be positive", nil)
	}
	if settings.Model == "" {
		return domain.NewProviderError(domain.ErrorKindConfig,
			"model is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.client = &http.Client{Timeout: settings.Timeout}
	s.limiter = newSlidingLimiter(settings.RequestsPerMinute,
		settings.TokensPerMinute, settings.RateLimitMode)
	logger.Info("Embedding provider reconfigured: model=%s dims=%d", settings.Model, settings.Dimensions)
	return nil
}

// Embed generates a single embedding.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.NewProviderError(domain.ErrorKindUnknown,
			"provider returned no embedding", nil)
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts. The result has the
// same length and order as the input.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	settings := s.settings
	client := s.client
	limiter := s.limiter
	s.mu.Unlock()

	if !settings.IsConfigured() {
		return nil, domain.NewProviderError(domain.ErrorKindConfig,
			"embedding provider is not configured", domain.ErrEmbeddingUnavailable)
	}

	estTokens := estimateTokens(texts)
	if err := limiter.reserve(ctx, estTokens); err != nil {
		return nil, err
	}

	reqBody := embeddingRequest{
		Model:      settings.Model,
		Input:      texts,
		Dimensions: settings.Dimensions,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.NewProviderError(domain.ErrorKindInvalidRequest,
			"marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		settings.APIBase+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, domain.NewProviderError(domain.ErrorKindConfig,
			"create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+settings.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(domain.ErrorKindNetwork,
			"send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewProviderError(domain.ErrorKindNetwork,
			"read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, domain.NewProviderError(domain.ErrorKindUnknown,
			"decode response", err)
	}
	if embedResp.Error != nil {
		return nil, domain.NewProviderError(domain.ErrorKindUnknown,
			embedResp.Error.Message, nil)
	}
	if len(embedResp.Data) != len(texts) {
		return nil, domain.NewProviderError(domain.ErrorKindUnknown,
			fmt.Sprintf("provider returned %d embeddings for %d inputs",
				len(embedResp.Data), len(texts)), nil)
	}

	// Order by the provider-reported index, converting to float32.
	vectors := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, domain.NewProviderError(domain.ErrorKindUnknown,
				fmt.Sprintf("embedding index %d out of range", data.Index), nil)
		}
		if len(data.Embedding) != settings.Dimensions {
			return nil, fmt.Errorf("%w: provider returned %d, configured %d",
				domain.ErrDimensionMismatch, len(data.Embedding), settings.Dimensions)
		}
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		vectors[data.Index] = vector
	}

	tokens := embedResp.Usage.PromptTokens
	if tokens == 0 {
		tokens = estTokens
	}
	limiter.recordTokens(tokens)
	s.usage.record(ctx, 1, int64(tokens), int64(len(texts)))

	return vectors, nil
}

// Dimensions returns the configured embedding width.
func (s *EmbeddingService) Dimensions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Dimensions
}

// ModelName returns the active embedding model.
func (s *EmbeddingService) ModelName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Model
}

// Stats returns a copy of the current usage statistics.
func (s *EmbeddingService) Stats() domain.UsageStats {
	s.mu.Lock()
	limiter := s.limiter
	price := s.settings.PricePerMillionTokens
	s.mu.Unlock()

	cumulative, session := s.usage.snapshot()
	requests, tokens, hits := limiter.usage()

	return domain.UsageStats{
		Cumulative:       cumulative,
		Session:          session,
		CurrentRPM:       requests,
		CurrentTPM:       tokens,
		RateLimitHits:    hits,
		EstimatedCostUSD: float64(cumulative.Tokens) / 1_000_000 * price,
	}
}

// ResetSession zeroes the session counters only.
func (s *EmbeddingService) ResetSession() {
	s.usage.resetSession()
}

// ResetAll zeroes session and cumulative counters, including the
// persisted state.
func (s *EmbeddingService) ResetAll() error {
	return s.usage.resetAll(context.Background())
}

// Close flushes persisted usage state.
func (s *EmbeddingService) Close() error {
	return s.usage.flush(context.Background())
}

// classifyStatus maps an HTTP failure to the provider error taxonomy.
// This is the single classification point; downstream code never
// re-interprets provider failures.
func classifyStatus(status int, body []byte) *domain.ProviderError {
	message := providerMessage(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewProviderError(domain.ErrorKindAuth, message, nil)
	case status == http.StatusTooManyRequests:
		return domain.NewProviderError(domain.ErrorKindRateLimit, message, nil)
	case status >= 500:
		return domain.NewProviderError(domain.ErrorKindServer, message, nil)
	case status >= 400:
		return domain.NewProviderError(domain.ErrorKindInvalidRequest, message, nil)
	default:
		return domain.NewProviderError(domain.ErrorKindUnknown, message, nil)
	}
}

// providerMessage extracts the provider's error message, falling back to
// the raw body.
func providerMessage(body []byte) string {
	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

// estimateTokens approximates token usage from rune counts.
func estimateTokens(texts []string) int {
	runes := 0
	for _, t := range texts {
		runes += utf8.RuneCountInString(t)
	}
	est := runes / runesPerToken
	if est < 1 {
		est = 1
	}
	return est
}
