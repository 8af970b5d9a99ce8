package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// stubSearchService returns canned results.
type stubSearchService struct {
	results []domain.SearchResult
	cache   []domain.CacheSearchResult
	stats   *domain.StoreStats
	usage   domain.UsageStats
	err     error
}

func (s *stubSearchService) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return s.results, s.err
}

func (s *stubSearchService) SearchByVector(_ context.Context, _ []float32, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return s.results, s.err
}

func (s *stubSearchService) SearchCache(_ context.Context, _ string, _ int) ([]domain.CacheSearchResult, error) {
	return s.cache, s.err
}

func (s *stubSearchService) Stats(_ context.Context) (*domain.StoreStats, domain.UsageStats, error) {
	return s.stats, s.usage, s.err
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	oldService := searchService
	searchService = &stubSearchService{results: []domain.SearchResult{
		{DocumentID: "papers/attention.txt", ChunkIndex: 2, Score: 0.91,
			ChunkText: "Attention is all you need", Language: domain.LanguageEnglish},
	}}
	defer func() { searchService = oldService }()

	out, err := execute(t, "search", "transformers")
	require.NoError(t, err)

	assert.Contains(t, out, "papers/attention.txt")
	assert.Contains(t, out, "0.91")
	assert.Contains(t, out, "Attention is all you need")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	oldService := searchService
	searchService = &stubSearchService{results: []domain.SearchResult{
		{DocumentID: "doc-123", ChunkIndex: 0, Score: 0.75},
	}}
	defer func() {
		searchService = oldService
		searchJSON = false
	}()

	out, err := execute(t, "search", "query", "--json")
	require.NoError(t, err)

	assert.Contains(t, out, "\"DocumentID\"")
	assert.Contains(t, out, "doc-123")
	assert.Contains(t, out, "0.75")
}

func TestSearchCmd_NoResults(t *testing.T) {
	oldService := searchService
	searchService = &stubSearchService{}
	defer func() { searchService = oldService }()

	out, err := execute(t, "search", "nothing matches this")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found")
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	oldService := searchService
	searchService = nil
	defer func() { searchService = oldService }()

	_, err := execute(t, "search", "query")
	assert.Error(t, err)
}

func TestSearchCmd_ServiceError(t *testing.T) {
	oldService := searchService
	searchService = &stubSearchService{err: errors.New("provider exploded")}
	defer func() { searchService = oldService }()

	_, err := execute(t, "search", "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider exploded")
}

func TestSearchCmd_RejectsUnknownLanguage(t *testing.T) {
	oldService := searchService
	searchService = &stubSearchService{}
	defer func() {
		searchService = oldService
		searchLang = ""
	}()

	_, err := execute(t, "search", "query", "--lang", "klingon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown language")
}

func TestCacheSearchCmd_PrintsMatches(t *testing.T) {
	oldService := searchService
	searchService = &stubSearchService{cache: []domain.CacheSearchResult{
		{DocumentID: "notes.md", MatchCount: 3, Snippet: "the exact phrase"},
	}}
	defer func() { searchService = oldService }()

	out, err := execute(t, "cache-search", "exact phrase")
	require.NoError(t, err)

	assert.Contains(t, out, "notes.md")
	assert.Contains(t, out, "3 matches")
	assert.Contains(t, out, "the exact phrase")
}

func TestStatsCmd_PrintsStoreAndUsage(t *testing.T) {
	oldService := searchService
	searchService = &stubSearchService{
		stats: &domain.StoreStats{
			TotalVectors:   42,
			TotalDocuments: 7,
			Dimensions:     1536,
			CacheItems:     7,
		},
		usage: domain.UsageStats{
			Cumulative:       domain.UsageCounters{Requests: 10, Tokens: 5000, Chunks: 42},
			EstimatedCostUSD: 0.0001,
		},
	}
	defer func() { searchService = oldService }()

	out, err := execute(t, "stats")
	require.NoError(t, err)

	assert.Contains(t, out, "42")
	assert.Contains(t, out, "1536")
	assert.Contains(t, out, "$0.0001")
}
