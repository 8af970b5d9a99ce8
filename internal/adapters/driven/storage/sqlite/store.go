package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lricher7329/refsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.VectorStore = (*Store)(nil)
	_ driven.UsageStore  = (*Store)(nil)
)

// DefaultSearchBatchSize is the number of candidate rows scanned per
// batch when no size is configured.
const DefaultSearchBatchSize = 512

// snippetRadius is the number of runes kept around a cache search match.
const snippetRadius = 80

// Store is the SQLite-backed vector store. It persists vectors, per-
// document index status, the content cache and cumulative usage
// counters. All mutations run inside transactions on a single writer
// connection; readers observe only committed rows (WAL mode).
type Store struct {
	db        *sql.DB
	path      string
	precision domain.VectorPrecision
	batchSize int
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.refsearch/data/index.db.
func NewStore(dataDir string, settings domain.StoreSettings) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".refsearch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode lets search reads interleave with the single writer.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	precision := settings.Precision
	if !precision.IsValid() {
		precision = domain.VectorPrecisionFloat32
	}
	batchSize := settings.SearchBatchSize
	if batchSize <= 0 {
		batchSize = DefaultSearchBatchSize
	}

	s := &Store{
		db:        db,
		path:      dbPath,
		precision: precision,
		batchSize: batchSize,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Vectors ====================

// UpsertVectors atomically replaces a batch of records. The whole batch
// commits or none of it does, so a failure never leaves a document
// partially indexed.
func (s *Store) UpsertVectors(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	established, err := s.EstablishedDimensions(ctx)
	if err != nil {
		return err
	}

	width := established
	for _, r := range records {
		if len(r.Vector) != r.Dimensions {
			return fmt.Errorf("%w: record %s/%d declares %d dimensions, vector has %d",
				domain.ErrDimensionMismatch, r.DocumentID, r.ChunkIndex, r.Dimensions, len(r.Vector))
		}
		if width == 0 {
			width = r.Dimensions // First insert establishes the width
		}
		if r.Dimensions != width {
			return fmt.Errorf("%w: record %s/%d has %d dimensions, store uses %d",
				domain.ErrDimensionMismatch, r.DocumentID, r.ChunkIndex, r.Dimensions, width)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (document_id, chunk_index, vector, dimensions, language, chunk_text)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_index) DO UPDATE SET
			vector = excluded.vector,
			dimensions = excluded.dimensions,
			language = excluded.language,
			chunk_text = excluded.chunk_text
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		blob := encodeVector(r.Vector, s.precision)
		if _, err := stmt.ExecContext(ctx, r.DocumentID, r.ChunkIndex, blob,
			r.Dimensions, string(r.Language), r.ChunkText); err != nil {
			return fmt.Errorf("saving vector %s/%d: %w", r.DocumentID, r.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// EstablishedDimensions returns the store's embedding width, or 0 when
// no vectors are stored.
func (s *Store) EstablishedDimensions(ctx context.Context) (int, error) {
	var dims int
	err := s.db.QueryRowContext(ctx,
		"SELECT dimensions FROM vectors LIMIT 1").Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying established dimensions: %w", err)
	}
	return dims, nil
}

// scoredHit is a search candidate in the bounded working set.
type scoredHit struct {
	result domain.SearchResult
	order  int // insertion order, for stable ties
}

// Search scans candidate vectors in bounded-size batches and keeps only
// a bounded top-K working set, so result sets larger than memory are
// tolerated. Results are sorted by descending cosine similarity; equal
// scores keep storage order.
func (s *Store) Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}

	established, err := s.EstablishedDimensions(ctx)
	if err != nil {
		return nil, err
	}
	if established == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(query) != established {
		return nil, fmt.Errorf("%w: query has %d dimensions, store uses %d",
			domain.ErrDimensionMismatch, len(query), established)
	}

	// A zero-norm query has no direction to compare against.
	if vectorNormZero(query) {
		return []domain.SearchResult{}, nil
	}

	// Quantize the query once for comparison against quantized blobs;
	// scale factors cancel inside the cosine ratio.
	_, queryQ := quantize(query)

	where, args := searchFilter(opts)

	var (
		working   []scoredHit
		lastRowID int64
		order     int
	)

	for {
		batchQuery := `
			SELECT rowid, document_id, chunk_index, vector, dimensions, language, chunk_text
			FROM vectors WHERE rowid > ?` + where + `
			ORDER BY rowid LIMIT ?`
		batchArgs := append([]any{lastRowID}, args...)
		batchArgs = append(batchArgs, s.batchSize)

		rows, err := s.db.QueryContext(ctx, batchQuery, batchArgs...)
		if err != nil {
			return nil, fmt.Errorf("querying vectors: %w", err)
		}

		count := 0
		for rows.Next() {
			var (
				rowID      int64
				documentID string
				chunkIndex int
				blob       []byte
				dims       int
				language   string
				chunkText  string
			)
			if err := rows.Scan(&rowID, &documentID, &chunkIndex, &blob,
				&dims, &language, &chunkText); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning vector: %w", err)
			}
			lastRowID = rowID
			count++

			score, err := scoreBlob(blob, dims, query, queryQ)
			if err != nil {
				rows.Close()
				return nil, err
			}
			if score < opts.MinScore {
				continue
			}

			working = append(working, scoredHit{
				result: domain.SearchResult{
					DocumentID: documentID,
					ChunkIndex: chunkIndex,
					Score:      score,
					ChunkText:  chunkText,
					Language:   domain.Language(language),
				},
				order: order,
			})
			order++

			// Keep the working set bounded: prune back to topK once it
			// grows past twice that.
			if len(working) > 2*topK {
				sortHits(working)
				working = working[:topK]
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterating vectors: %w", err)
		}
		rows.Close()

		if count < s.batchSize {
			break
		}
	}

	sortHits(working)
	if len(working) > topK {
		working = working[:topK]
	}

	results := make([]domain.SearchResult, len(working))
	for i, h := range working {
		results[i] = h.result
	}
	return results, nil
}

// scoreBlob computes cosine similarity between the query and one stored
// blob, using the int8 path for quantized blobs.
func scoreBlob(blob []byte, dims int, query []float32, queryQ []int8) (float64, error) {
	if isQuantizedBlob(blob, dims) {
		_, stored := bytesToQuantized(blob)
		return cosineSimilarityInt8(queryQ, stored), nil
	}
	stored, err := decodeVector(blob, dims)
	if err != nil {
		return 0, err
	}
	return cosineSimilarity(query, stored), nil
}

// searchFilter builds the optional WHERE tail for language and document
// filters.
func searchFilter(opts domain.SearchOptions) (string, []any) {
	var where strings.Builder
	var args []any

	if opts.Language != "" {
		where.WriteString(" AND language = ?")
		args = append(args, string(opts.Language))
	}
	if len(opts.DocumentIDs) > 0 {
		where.WriteString(" AND document_id IN (?" +
			strings.Repeat(", ?", len(opts.DocumentIDs)-1) + ")")
		for _, id := range opts.DocumentIDs {
			args = append(args, id)
		}
	}
	return where.String(), args
}

// sortHits orders by descending score, insertion order on ties.
func sortHits(hits []scoredHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].result.Score != hits[j].result.Score {
			return hits[i].result.Score > hits[j].result.Score
		}
		return hits[i].order < hits[j].order
	})
}

// vectorNormZero reports whether every component is zero.
func vectorNormZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// ==================== Index status ====================

// SaveIndexStatus upserts a document's index bookkeeping.
func (s *Store) SaveIndexStatus(ctx context.Context, status domain.IndexStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_status
			(document_id, indexed_at, version, chunk_count, content_hash, source_modified_at, attachment_modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			indexed_at = excluded.indexed_at,
			version = excluded.version,
			chunk_count = excluded.chunk_count,
			content_hash = excluded.content_hash,
			source_modified_at = excluded.source_modified_at,
			attachment_modified_at = excluded.attachment_modified_at
	`, status.DocumentID, status.IndexedAt.UTC(), status.Version, status.ChunkCount,
		status.ContentHash, timeToNano(status.SourceModifiedAt), timeToNano(status.AttachmentModifiedAt))

	if err != nil {
		return fmt.Errorf("saving index status: %w", err)
	}
	return nil
}

// GetIndexStatus returns a document's index bookkeeping.
func (s *Store) GetIndexStatus(ctx context.Context, documentID string) (*domain.IndexStatus, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, indexed_at, version, chunk_count, content_hash, source_modified_at, attachment_modified_at
		FROM index_status WHERE document_id = ?
	`, documentID)

	var status domain.IndexStatus
	var srcNano, attNano int64
	if err := row.Scan(&status.DocumentID, &status.IndexedAt, &status.Version,
		&status.ChunkCount, &status.ContentHash, &srcNano, &attNano); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index status: %w", err)
	}
	status.SourceModifiedAt = nanoToTime(srcNano)
	status.AttachmentModifiedAt = nanoToTime(attNano)

	return &status, nil
}

// ListIndexedDocuments returns the IDs of all indexed documents.
func (s *Store) ListIndexedDocuments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT document_id FROM index_status ORDER BY document_id")
	if err != nil {
		return nil, fmt.Errorf("querying index status: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index status: %w", err)
	}
	return ids, nil
}

// NeedsReindex reports whether the stored content hash differs from the
// supplied one, the pipeline version is stale, or the document has
// never been indexed.
func (s *Store) NeedsReindex(ctx context.Context, documentID, contentHash string) (bool, error) {
	status, err := s.GetIndexStatus(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return status.ContentHash != contentHash || status.Version < domain.IndexVersion, nil
}

// NeedsReindexByTimestamp is the cheap check that avoids recomputing
// content hashes: false iff both stored timestamps are present and
// exactly match the supplied ones. An absent stored timestamp forces
// the conservative answer so the caller falls back to the hash check.
func (s *Store) NeedsReindexByTimestamp(ctx context.Context, documentID string, sourceModifiedAt, attachmentModifiedAt time.Time) (bool, error) {
	status, err := s.GetIndexStatus(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	storedSrc := timeToNano(status.SourceModifiedAt)
	storedAtt := timeToNano(status.AttachmentModifiedAt)
	if storedSrc == 0 || storedAtt == 0 {
		return true, nil
	}
	return storedSrc != timeToNano(sourceModifiedAt) ||
		storedAtt != timeToNano(attachmentModifiedAt), nil
}

// ==================== Deletion ====================

// DeleteDocumentVectors removes a document's vectors and index status.
// The content cache entry survives unless alsoDeleteCache is set; the
// cache is a standing full-text store, not index-derived state.
func (s *Store) DeleteDocumentVectors(ctx context.Context, documentID string, alsoDeleteCache bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM vectors WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM index_status WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting index status: %w", err)
	}
	if alsoDeleteCache {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM content_cache WHERE document_id = ?", documentID); err != nil {
			return fmt.Errorf("deleting cached content: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ClearVectors removes all vectors and index status, preserving the
// content cache for a cheap later reindex.
func (s *Store) ClearVectors(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors"); err != nil {
		return fmt.Errorf("clearing vectors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_status"); err != nil {
		return fmt.Errorf("clearing index status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ClearAll is a full reset: vectors, index status and content cache.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"vectors", "index_status", "content_cache"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Content cache ====================

// SaveCachedContent upserts a document's content cache entry.
func (s *Store) SaveCachedContent(ctx context.Context, entry domain.ContentCacheEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_cache (document_id, full_text, content_hash, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			full_text = excluded.full_text,
			content_hash = excluded.content_hash,
			cached_at = excluded.cached_at
	`, entry.DocumentID, entry.FullText, entry.ContentHash, entry.CachedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving cached content: %w", err)
	}
	return nil
}

// GetCachedContent returns a document's cached full text.
func (s *Store) GetCachedContent(ctx context.Context, documentID string) (*domain.ContentCacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, full_text, content_hash, cached_at
		FROM content_cache WHERE document_id = ?
	`, documentID)

	var entry domain.ContentCacheEntry
	if err := row.Scan(&entry.DocumentID, &entry.FullText,
		&entry.ContentHash, &entry.CachedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cached content: %w", err)
	}
	return &entry, nil
}

// SearchCachedContent performs a substring match over the content
// cache, ranked by occurrence count. This is the store's secondary,
// non-vector search capability.
func (s *Store) SearchCachedContent(ctx context.Context, substring string, limit int) ([]domain.CacheSearchResult, error) {
	substring = strings.TrimSpace(substring)
	if substring == "" {
		return []domain.CacheSearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, full_text FROM content_cache
		WHERE instr(full_text, ?) > 0
	`, substring)
	if err != nil {
		return nil, fmt.Errorf("querying content cache: %w", err)
	}
	defer rows.Close()

	var results []domain.CacheSearchResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var documentID, fullText string
		if err := rows.Scan(&documentID, &fullText); err != nil {
			return nil, fmt.Errorf("scanning cached content: %w", err)
		}
		results = append(results, domain.CacheSearchResult{
			DocumentID: documentID,
			MatchCount: strings.Count(fullText, substring),
			Snippet:    extractSnippet(fullText, substring),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content cache: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchCount > results[j].MatchCount
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// extractSnippet returns the text surrounding the first occurrence of
// the substring, trimmed to rune boundaries.
func extractSnippet(text, substring string) string {
	idx := strings.Index(text, substring)
	if idx < 0 {
		return ""
	}

	runes := []rune(text)
	runeIdx := len([]rune(text[:idx]))

	start := runeIdx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := runeIdx + len([]rune(substring)) + snippetRadius
	if end > len(runes) {
		end = len(runes)
	}
	return strings.TrimSpace(string(runes[start:end]))
}

// ==================== Stats ====================

// Stats summarises the store's contents.
func (s *Store) Stats(ctx context.Context) (*domain.StoreStats, error) {
	stats := &domain.StoreStats{
		VectorsByLanguage: make(map[domain.Language]int),
	}

	var quantized int
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT document_id),
			COALESCE(SUM(CASE WHEN length(vector) = dimensions + 4 THEN 1 ELSE 0 END), 0)
		FROM vectors
	`)
	if err := row.Scan(&stats.TotalVectors, &stats.TotalDocuments, &quantized); err != nil {
		return nil, fmt.Errorf("scanning vector stats: %w", err)
	}
	if stats.TotalVectors > 0 {
		stats.QuantizedFraction = float64(quantized) / float64(stats.TotalVectors)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT language, COUNT(*) FROM vectors GROUP BY language")
	if err != nil {
		return nil, fmt.Errorf("querying language stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var language string
		var count int
		if err := rows.Scan(&language, &count); err != nil {
			return nil, fmt.Errorf("scanning language stats: %w", err)
		}
		stats.VectorsByLanguage[domain.Language(language)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating language stats: %w", err)
	}

	row = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(length(full_text)), 0) FROM content_cache")
	if err := row.Scan(&stats.CacheItems, &stats.CacheBytes); err != nil {
		return nil, fmt.Errorf("scanning cache stats: %w", err)
	}

	dims, err := s.EstablishedDimensions(ctx)
	if err != nil {
		return nil, err
	}
	stats.Dimensions = dims

	return stats, nil
}

// ==================== Usage counters ====================

// LoadUsage returns the persisted cumulative counters.
func (s *Store) LoadUsage(ctx context.Context) (domain.UsageCounters, error) {
	var counters domain.UsageCounters
	row := s.db.QueryRowContext(ctx,
		"SELECT requests, tokens, chunks FROM usage_stats WHERE id = 1")
	if err := row.Scan(&counters.Requests, &counters.Tokens, &counters.Chunks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UsageCounters{}, nil
		}
		return domain.UsageCounters{}, fmt.Errorf("scanning usage counters: %w", err)
	}
	return counters, nil
}

// SaveUsage overwrites the persisted cumulative counters.
func (s *Store) SaveUsage(ctx context.Context, counters domain.UsageCounters) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_stats (id, requests, tokens, chunks)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			requests = excluded.requests,
			tokens = excluded.tokens,
			chunks = excluded.chunks
	`, counters.Requests, counters.Tokens, counters.Chunks)
	if err != nil {
		return fmt.Errorf("saving usage counters: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// timeToNano converts a timestamp to unix nanoseconds, 0 for unknown.
func timeToNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// nanoToTime converts unix nanoseconds back, zero time for 0.
func nanoToTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
