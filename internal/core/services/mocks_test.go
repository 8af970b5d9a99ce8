package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
)

// ==================== mockLibrary ====================

type mockLibrary struct {
	mu   sync.Mutex
	docs map[string]*domain.FullTextDocument
	// listOrder fixes ListDocuments ordering for deterministic tests.
	listOrder []string
	failDocs  map[string]error
}

var _ driven.Library = (*mockLibrary)(nil)

func newMockLibrary() *mockLibrary {
	return &mockLibrary{
		docs:     make(map[string]*domain.FullTextDocument),
		failDocs: make(map[string]error),
	}
}

func (m *mockLibrary) addDoc(id, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	m.docs[id] = &domain.FullTextDocument{
		Text:                 text,
		SourceModifiedAt:     at,
		AttachmentModifiedAt: at,
	}
	m.listOrder = append(m.listOrder, id)
}

func (m *mockLibrary) ListDocuments(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.listOrder))
	copy(ids, m.listOrder)
	return ids, nil
}

func (m *mockLibrary) GetFullText(_ context.Context, documentID string) (*domain.FullTextDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failDocs[documentID]; err != nil {
		return nil, err
	}
	doc, ok := m.docs[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

// ==================== mockStore ====================

type vectorKey struct {
	docID string
	index int
}

type mockStore struct {
	mu       sync.Mutex
	vectors  map[vectorKey]domain.VectorRecord
	statuses map[string]domain.IndexStatus
	cache    map[string]domain.ContentCacheEntry

	upsertErr    error
	clearedCount int
}

var _ driven.VectorStore = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		vectors:  make(map[vectorKey]domain.VectorRecord),
		statuses: make(map[string]domain.IndexStatus),
		cache:    make(map[string]domain.ContentCacheEntry),
	}
}

func (m *mockStore) UpsertVectors(_ context.Context, records []domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, r := range records {
		m.vectors[vectorKey{r.DocumentID, r.ChunkIndex}] = r
	}
	return nil
}

func (m *mockStore) Search(_ context.Context, _ []float32, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return nil, nil
}

func (m *mockStore) EstablishedDimensions(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.vectors {
		return r.Dimensions, nil
	}
	return 0, nil
}

func (m *mockStore) SaveIndexStatus(_ context.Context, status domain.IndexStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status.DocumentID] = status
	return nil
}

func (m *mockStore) GetIndexStatus(_ context.Context, documentID string) (*domain.IndexStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}

func (m *mockStore) ListIndexedDocuments(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.statuses))
	for id := range m.statuses {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockStore) NeedsReindex(_ context.Context, documentID, contentHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[documentID]
	if !ok {
		return true, nil
	}
	return status.ContentHash != contentHash || status.Version < domain.IndexVersion, nil
}

func (m *mockStore) NeedsReindexByTimestamp(_ context.Context, documentID string, src, att time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[documentID]
	if !ok {
		return true, nil
	}
	if status.SourceModifiedAt.IsZero() || status.AttachmentModifiedAt.IsZero() {
		return true, nil
	}
	return !status.SourceModifiedAt.Equal(src) || !status.AttachmentModifiedAt.Equal(att), nil
}

func (m *mockStore) DeleteDocumentVectors(_ context.Context, documentID string, alsoDeleteCache bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.vectors {
		if key.docID == documentID {
			delete(m.vectors, key)
		}
	}
	delete(m.statuses, documentID)
	if alsoDeleteCache {
		delete(m.cache, documentID)
	}
	return nil
}

func (m *mockStore) ClearVectors(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = make(map[vectorKey]domain.VectorRecord)
	m.statuses = make(map[string]domain.IndexStatus)
	m.clearedCount++
	return nil
}

func (m *mockStore) ClearAll(_ context.Context) error {
	if err := m.ClearVectors(context.Background()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]domain.ContentCacheEntry)
	return nil
}

func (m *mockStore) SaveCachedContent(_ context.Context, entry domain.ContentCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[entry.DocumentID] = entry
	return nil
}

func (m *mockStore) GetCachedContent(_ context.Context, documentID string) (*domain.ContentCacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.cache[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (m *mockStore) SearchCachedContent(_ context.Context, _ string, _ int) ([]domain.CacheSearchResult, error) {
	return nil, nil
}

func (m *mockStore) Stats(_ context.Context) (*domain.StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &domain.StoreStats{
		TotalVectors:   len(m.vectors),
		TotalDocuments: len(m.statuses),
		CacheItems:     len(m.cache),
	}, nil
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) vectorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}

// ==================== mockEmbedder ====================

type mockEmbedder struct {
	mu         sync.Mutex
	dimensions int
	calls      int
	embedded   int
	err        error

	// onEmbed runs before each batch, outside the mutex. Lets tests
	// trigger Pause or Abort at a known point.
	onEmbed func(batch int)
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder(dimensions int) *mockEmbedder {
	return &mockEmbedder{dimensions: dimensions}
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	hook := m.onEmbed
	err := m.err
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.embedded += len(texts)
	m.mu.Unlock()

	vectors := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, m.dimensions)
		v[0] = 1
		vectors[i] = v
	}
	return vectors, nil
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) Dimensions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dimensions
}

func (m *mockEmbedder) ModelName() string { return "mock-model" }

func (m *mockEmbedder) Configure(settings domain.EmbeddingSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if settings.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions", domain.ErrInvalidInput)
	}
	m.dimensions = settings.Dimensions
	return nil
}

func (m *mockEmbedder) Stats() domain.UsageStats { return domain.UsageStats{} }
func (m *mockEmbedder) ResetSession()            {}
func (m *mockEmbedder) ResetAll() error          { return nil }
func (m *mockEmbedder) Close() error             { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbedder) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
