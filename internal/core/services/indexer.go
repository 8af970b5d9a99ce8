package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lricher7329/refsearch/internal/chunker"
	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
	"github.com/lricher7329/refsearch/internal/core/ports/driving"
	"github.com/lricher7329/refsearch/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// embedBatchSize is the number of chunks sent per embedding call.
const embedBatchSize = 64

// subscriberBuffer is the per-subscriber snapshot channel capacity.
// A slow subscriber loses intermediate ticks, never the final state:
// the Progress poll always has the truth.
const subscriberBuffer = 32

// etaSmoothing is the exponential moving average weight given to the
// most recent per-document duration.
const etaSmoothing = 0.2

// Indexer orchestrates the single system-wide indexing job. It walks
// the library, skips unchanged documents, chunks and embeds the rest,
// and commits each document atomically: vectors first, then cache and
// status, so bookkeeping never claims more than the store holds.
type Indexer struct {
	library  driven.Library
	store    driven.VectorStore
	embedder driven.EmbeddingService
	splitter *chunker.Chunker

	mu          sync.Mutex
	cond        *sync.Cond
	running     bool
	paused      bool
	aborted     bool
	snapshot    domain.JobSnapshot
	failed      []domain.FailedItem
	subscribers map[int]chan domain.JobSnapshot
	nextSubID   int
	onError     func(domain.JobSnapshot)
}

// NewIndexer creates the index orchestrator.
func NewIndexer(library driven.Library, store driven.VectorStore,
	embedder driven.EmbeddingService, splitter *chunker.Chunker) *Indexer {
	idx := &Indexer{
		library:     library,
		store:       store,
		embedder:    embedder,
		splitter:    splitter,
		snapshot:    domain.JobSnapshot{Status: domain.JobIdle},
		subscribers: make(map[int]chan domain.JobSnapshot),
	}
	idx.cond = sync.NewCond(&idx.mu)
	return idx
}

// BuildIndex runs an index build and blocks until it finishes, halts on
// error or is aborted. Only one build may be live at a time.
func (idx *Indexer) BuildIndex(ctx context.Context, opts domain.BuildOptions) (*domain.BuildResult, error) {
	jobID := uuid.NewString()

	idx.mu.Lock()
	if idx.running {
		idx.mu.Unlock()
		return nil, domain.ErrIndexInProgress
	}
	idx.running = true
	idx.paused = false
	idx.aborted = false
	idx.failed = nil
	idx.snapshot = domain.JobSnapshot{JobID: jobID, Status: domain.JobIndexing}
	idx.publishLocked()
	idx.mu.Unlock()

	result, err := idx.build(ctx, jobID, opts)

	idx.mu.Lock()
	idx.running = false
	idx.mu.Unlock()

	return result, err
}

// build is the job loop proper; the caller holds the running slot.
func (idx *Indexer) build(ctx context.Context, jobID string, opts domain.BuildOptions) (*domain.BuildResult, error) {
	targets := opts.DocumentIDs
	if len(targets) == 0 {
		ids, err := idx.library.ListDocuments(ctx)
		if err != nil {
			return idx.halt(jobID, fmt.Errorf("listing documents: %w", err))
		}
		targets = ids
	}

	idx.setTotal(len(targets))

	if err := idx.checkDimensions(ctx, opts.Rebuild); err != nil {
		return idx.halt(jobID, err)
	}

	var processed, skipped int
	var avgDocSeconds float64

	for i, documentID := range targets {
		switch idx.checkpoint(ctx) {
		case checkpointAbort:
			return idx.finish(jobID, domain.JobAborted, processed, skipped, len(targets)), nil
		case checkpointContextDone:
			return idx.finish(jobID, domain.JobAborted, processed, skipped, len(targets)), ctx.Err()
		}

		idx.setCurrent(documentID)
		started := time.Now()

		outcome, err := idx.processDocument(ctx, documentID, opts.Rebuild)
		switch {
		case err != nil && isLocalFailure(err):
			// Extraction failures are recorded and the loop continues.
			idx.recordFailure(documentID, err)
			logger.Warn("Skipping %s: %v", documentID, err)
			continue
		case err != nil:
			// Embedding and storage failures halt the whole build.
			return idx.halt(jobID, fmt.Errorf("indexing %s: %w", documentID, err))
		case outcome == outcomeSkipped:
			skipped++
			continue
		case outcome == outcomeAborted:
			return idx.finish(jobID, domain.JobAborted, processed, skipped, len(targets)), nil
		}

		processed++
		elapsed := time.Since(started).Seconds()
		if avgDocSeconds == 0 {
			avgDocSeconds = elapsed
		} else {
			avgDocSeconds = avgDocSeconds*(1-etaSmoothing) + elapsed*etaSmoothing
		}
		remaining := time.Duration(avgDocSeconds*float64(len(targets)-i-1)) * time.Second
		idx.tick(processed, remaining)
	}

	logger.Info("Index build %s finished: %d processed, %d skipped", jobID, processed, skipped)
	return idx.finish(jobID, domain.JobCompleted, processed, skipped, len(targets)), nil
}

// docOutcome is the per-document result inside the build loop.
type docOutcome int

const (
	outcomeIndexed docOutcome = iota
	outcomeSkipped
	outcomeAborted
)

// processDocument runs the per-document pipeline: extract, change
// check, chunk, embed, commit. Nothing is written unless the whole
// document succeeds.
func (idx *Indexer) processDocument(ctx context.Context, documentID string, rebuild bool) (docOutcome, error) {
	doc, err := idx.library.GetFullText(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("extracting text: %w", localFailure(err))
	}

	hash := contentHash(doc.Text)

	if !rebuild {
		unchanged, err := idx.isUnchanged(ctx, documentID, doc, hash)
		if err != nil {
			return 0, err
		}
		if unchanged {
			return outcomeSkipped, nil
		}
	}

	chunks := idx.splitter.Chunk(documentID, doc.Text)

	vectors, outcome, err := idx.embedChunks(ctx, chunks)
	if err != nil || outcome == outcomeAborted {
		return outcome, err
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.VectorRecord{
			DocumentID: documentID,
			ChunkIndex: c.Index,
			Vector:     vectors[i],
			Language:   c.Language,
			ChunkText:  c.Text,
			Dimensions: len(vectors[i]),
		}
	}

	// Stale chunks beyond the new count would otherwise survive the
	// upsert when a document shrinks.
	if err := idx.store.DeleteDocumentVectors(ctx, documentID, false); err != nil {
		return 0, fmt.Errorf("clearing stale vectors: %w", err)
	}
	if err := idx.store.UpsertVectors(ctx, records); err != nil {
		return 0, fmt.Errorf("storing vectors: %w", err)
	}
	if err := idx.store.SaveCachedContent(ctx, domain.ContentCacheEntry{
		DocumentID:  documentID,
		FullText:    doc.Text,
		ContentHash: hash,
		CachedAt:    time.Now().UTC(),
	}); err != nil {
		return 0, fmt.Errorf("caching content: %w", err)
	}

	// Status is written last: its presence means the document's vectors
	// and cache are fully committed.
	if err := idx.store.SaveIndexStatus(ctx, domain.IndexStatus{
		DocumentID:           documentID,
		IndexedAt:            time.Now().UTC(),
		ChunkCount:           len(chunks),
		ContentHash:          hash,
		Version:              domain.IndexVersion,
		SourceModifiedAt:     doc.SourceModifiedAt,
		AttachmentModifiedAt: doc.AttachmentModifiedAt,
	}); err != nil {
		return 0, fmt.Errorf("saving index status: %w", err)
	}

	return outcomeIndexed, nil
}

// isUnchanged runs the two-stage change check: the cheap timestamp
// comparison first, the content hash as fallback. When the hash matches
// but timestamps drifted, the stored timestamps are refreshed so the
// next run takes the fast path.
func (idx *Indexer) isUnchanged(ctx context.Context, documentID string, doc *domain.FullTextDocument, hash string) (bool, error) {
	byTime, err := idx.store.NeedsReindexByTimestamp(ctx, documentID,
		doc.SourceModifiedAt, doc.AttachmentModifiedAt)
	if err != nil {
		return false, fmt.Errorf("checking timestamps: %w", err)
	}
	if !byTime {
		return true, nil
	}

	byHash, err := idx.store.NeedsReindex(ctx, documentID, hash)
	if err != nil {
		return false, fmt.Errorf("checking content hash: %w", err)
	}
	if byHash {
		return false, nil
	}

	status, err := idx.store.GetIndexStatus(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("loading index status: %w", err)
	}
	status.SourceModifiedAt = doc.SourceModifiedAt
	status.AttachmentModifiedAt = doc.AttachmentModifiedAt
	if err := idx.store.SaveIndexStatus(ctx, *status); err != nil {
		return false, fmt.Errorf("refreshing timestamps: %w", err)
	}
	return true, nil
}

// embedChunks embeds in bounded batches, honouring pause and abort
// between batches. Nothing is committed here, so an abort mid-document
// leaves no partial state.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, docOutcome, error) {
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		if start > 0 {
			switch idx.checkpoint(ctx) {
			case checkpointAbort:
				return nil, outcomeAborted, nil
			case checkpointContextDone:
				return nil, outcomeAborted, ctx.Err()
			}
		}

		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}

		batch, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("embedding batch: %w", err)
		}
		vectors = append(vectors, batch...)
	}

	return vectors, outcomeIndexed, nil
}

// checkDimensions verifies the provider's width against the store's
// established width. On mismatch a rebuild drops the stale vectors;
// an incremental build fails fast rather than silently discarding data.
func (idx *Indexer) checkDimensions(ctx context.Context, rebuild bool) error {
	established, err := idx.store.EstablishedDimensions(ctx)
	if err != nil {
		return fmt.Errorf("checking store dimensions: %w", err)
	}
	configured := idx.embedder.Dimensions()
	if established == 0 || established == configured {
		return nil
	}
	if !rebuild {
		return fmt.Errorf("%w: store holds %d-dimensional vectors, provider emits %d; rerun with rebuild to replace them",
			domain.ErrDimensionMismatch, established, configured)
	}
	logger.Info("Dimensions changed from %d to %d, dropping stored vectors", established, configured)
	if err := idx.store.ClearVectors(ctx); err != nil {
		return fmt.Errorf("clearing stale vectors: %w", err)
	}
	return nil
}

// ==================== Pause / abort / checkpoints ====================

type checkpointResult int

const (
	checkpointProceed checkpointResult = iota
	checkpointAbort
	checkpointContextDone
)

// checkpoint blocks while paused and reports whether the loop should
// proceed, stop on abort, or stop on context cancellation.
func (idx *Indexer) checkpoint(ctx context.Context) checkpointResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for idx.paused && !idx.aborted && ctx.Err() == nil {
		if idx.snapshot.Status != domain.JobPaused {
			idx.snapshot.Status = domain.JobPaused
			idx.publishLocked()
		}
		idx.cond.Wait()
	}

	if idx.aborted {
		return checkpointAbort
	}
	if ctx.Err() != nil {
		return checkpointContextDone
	}
	if idx.snapshot.Status == domain.JobPaused {
		idx.snapshot.Status = domain.JobIndexing
		idx.publishLocked()
	}
	return checkpointProceed
}

// Pause requests a cooperative pause. The transition shows up in
// snapshots only once the flag takes effect at the next checkpoint.
func (idx *Indexer) Pause() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.running {
		return
	}
	idx.paused = true
}

// Resume clears the pause flag if a build loop is live. Otherwise, when
// the last job paused, errored or was aborted, it starts a fresh
// incremental build that naturally skips committed documents.
func (idx *Indexer) Resume(ctx context.Context) (*domain.BuildResult, error) {
	idx.mu.Lock()
	if idx.running {
		idx.paused = false
		idx.cond.Broadcast()
		snapshot := idx.snapshot
		idx.mu.Unlock()
		return &domain.BuildResult{
			Status:    domain.JobIndexing,
			Processed: snapshot.Processed,
			Total:     snapshot.Total,
		}, nil
	}
	status := idx.snapshot.Status
	idx.mu.Unlock()

	switch status {
	case domain.JobPaused, domain.JobError, domain.JobAborted:
		return idx.BuildIndex(ctx, domain.BuildOptions{})
	default:
		return nil, fmt.Errorf("%w: nothing to resume from status %s",
			domain.ErrInvalidInput, status)
	}
}

// Abort requests cooperative cancellation. The in-flight document
// finishes (or its uncommitted work is discarded) before the job stops.
func (idx *Indexer) Abort() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.running {
		return
	}
	idx.aborted = true
	idx.cond.Broadcast()
}

// ==================== Progress ====================

// Progress returns the current job snapshot. Never blocks.
func (idx *Indexer) Progress() domain.JobSnapshot {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.snapshot
}

// Subscribe registers a progress observer. The returned function
// cancels the subscription and closes the channel.
func (idx *Indexer) Subscribe() (<-chan domain.JobSnapshot, func()) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	id := idx.nextSubID
	idx.nextSubID++
	ch := make(chan domain.JobSnapshot, subscriberBuffer)
	idx.subscribers[id] = ch

	cancel := func() {
		idx.mu.Lock()
		defer idx.mu.Unlock()
		if sub, ok := idx.subscribers[id]; ok {
			delete(idx.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// SetOnError registers a callback invoked when a build halts on an
// embedding or storage failure.
func (idx *Indexer) SetOnError(fn func(domain.JobSnapshot)) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.onError = fn
}

// FailedItems returns the extraction failures recorded by the most
// recent build.
func (idx *Indexer) FailedItems() []domain.FailedItem {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	items := make([]domain.FailedItem, len(idx.failed))
	copy(items, idx.failed)
	return items
}

// publishLocked pushes the current snapshot to every subscriber.
// Caller holds idx.mu. Slow subscribers lose ticks, never block the
// build loop.
func (idx *Indexer) publishLocked() {
	for _, ch := range idx.subscribers {
		select {
		case ch <- idx.snapshot:
		default:
		}
	}
}

func (idx *Indexer) setTotal(total int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.snapshot.Total = total
	idx.publishLocked()
}

func (idx *Indexer) setCurrent(documentID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.snapshot.CurrentDocument = documentID
	idx.publishLocked()
}

func (idx *Indexer) tick(processed int, remaining time.Duration) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.snapshot.Processed = processed
	idx.snapshot.EstimatedRemaining = remaining
	idx.publishLocked()
}

func (idx *Indexer) recordFailure(documentID string, err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.failed = append(idx.failed, domain.FailedItem{
		DocumentID: documentID,
		Reason:     err.Error(),
		FailedAt:   time.Now().UTC(),
	})
}

// finish settles the terminal state and returns the build result.
func (idx *Indexer) finish(jobID string, status domain.JobStatus, processed, skipped, total int) *domain.BuildResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.snapshot = domain.JobSnapshot{
		JobID:     jobID,
		Status:    status,
		Processed: processed,
		Total:     total,
	}
	idx.publishLocked()
	return &domain.BuildResult{
		Status:    status,
		Processed: processed,
		Skipped:   skipped,
		Total:     total,
	}
}

// halt settles the error state, fires the error callback and surfaces
// the failure to the caller.
func (idx *Indexer) halt(jobID string, err error) (*domain.BuildResult, error) {
	kind := domain.ClassifyError(err)

	idx.mu.Lock()
	idx.snapshot.JobID = jobID
	idx.snapshot.Status = domain.JobError
	idx.snapshot.LastError = err.Error()
	idx.snapshot.ErrorKind = kind
	idx.snapshot.ErrorRetryable = kind.Retryable()
	idx.publishLocked()
	snapshot := idx.snapshot
	onError := idx.onError
	result := &domain.BuildResult{
		Status:    domain.JobError,
		Processed: snapshot.Processed,
		Total:     snapshot.Total,
	}
	idx.mu.Unlock()

	logger.Warn("Index build %s halted: %v", jobID, err)
	if onError != nil {
		onError(snapshot)
	}
	return result, err
}

// ==================== Maintenance ====================

// DeleteDocumentIndex removes one document's vectors and status,
// preserving its content cache entry. Rejected while a build is live.
func (idx *Indexer) DeleteDocumentIndex(ctx context.Context, documentID string) error {
	if err := idx.requireIdle(); err != nil {
		return err
	}
	return idx.store.DeleteDocumentVectors(ctx, documentID, false)
}

// ClearIndex removes all vectors and status, preserving the cache.
func (idx *Indexer) ClearIndex(ctx context.Context) error {
	if err := idx.requireIdle(); err != nil {
		return err
	}
	return idx.store.ClearVectors(ctx)
}

// ClearAll is a full reset including the content cache.
func (idx *Indexer) ClearAll(ctx context.Context) error {
	if err := idx.requireIdle(); err != nil {
		return err
	}
	return idx.store.ClearAll(ctx)
}

func (idx *Indexer) requireIdle() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.running {
		return domain.ErrIndexInProgress
	}
	return nil
}

// ==================== Helpers ====================

// contentHash is the change-detection fingerprint of a document's text.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// localFailureError marks failures recovered inside the build loop.
type localFailureError struct{ err error }

func (e *localFailureError) Error() string { return e.err.Error() }
func (e *localFailureError) Unwrap() error { return e.err }

func localFailure(err error) error {
	return &localFailureError{err: err}
}

func isLocalFailure(err error) bool {
	var local *localFailureError
	return errors.As(err, &local)
}
