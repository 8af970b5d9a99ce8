package driving

import (
	"context"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// IndexService controls the single system-wide indexing job.
//
// Exactly one build may be active; starting a second one is rejected
// with domain.ErrIndexInProgress, never queued. Pause and abort are
// cooperative: flags checked between documents (and between embedding
// batches within large documents), so in-flight document processing
// always finishes and no partial per-document state is committed.
type IndexService interface {
	// BuildIndex runs an index build and blocks until it finishes,
	// pauses, halts on error or is aborted.
	BuildIndex(ctx context.Context, opts domain.BuildOptions) (*domain.BuildResult, error)

	// Pause requests a cooperative pause. The transition to paused
	// happens only when the flag takes effect; callers re-check state.
	Pause()

	// Resume clears the pause flag if a build loop is live. If no loop
	// is live and the job is paused or errored, it starts a fresh
	// incremental build that naturally skips completed documents.
	Resume(ctx context.Context) (*domain.BuildResult, error)

	// Abort requests cooperative cancellation. The in-flight document
	// finishes before the job stops with status aborted.
	Abort()

	// Progress returns the current job snapshot. Never blocks.
	Progress() domain.JobSnapshot

	// Subscribe registers a progress observer. Every state transition
	// and per-document tick is pushed as a snapshot. The returned
	// function cancels the subscription.
	Subscribe() (<-chan domain.JobSnapshot, func())

	// SetOnError registers a callback invoked when a build halts on an
	// embedding or storage failure.
	SetOnError(fn func(domain.JobSnapshot))

	// FailedItems returns the extraction failures recorded by the most
	// recent build. Never blocks.
	FailedItems() []domain.FailedItem

	// DeleteDocumentIndex removes one document's vectors and status,
	// preserving its content cache entry.
	DeleteDocumentIndex(ctx context.Context, documentID string) error

	// ClearIndex removes all vectors and status, preserving the cache.
	ClearIndex(ctx context.Context) error

	// ClearAll is a full reset including the content cache.
	ClearAll(ctx context.Context) error
}
