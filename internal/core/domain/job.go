package domain

import "time"

// JobStatus is the indexing job's lifecycle state.
type JobStatus string

// Job states. Transitions: idle → indexing → {completed, error, aborted};
// indexing ⇄ paused; error → indexing (retry).
const (
	// JobIdle means no job has run in this process yet.
	JobIdle JobStatus = "idle"

	// JobIndexing means the build loop is live.
	JobIndexing JobStatus = "indexing"

	// JobPaused means the cooperative pause flag took effect.
	JobPaused JobStatus = "paused"

	// JobCompleted means the last build finished all target documents.
	JobCompleted JobStatus = "completed"

	// JobError means the last build halted on an embedding or storage failure.
	JobError JobStatus = "error"

	// JobAborted means the last build was cancelled cooperatively.
	JobAborted JobStatus = "aborted"
)

// Active reports whether a build loop may still be live.
func (s JobStatus) Active() bool {
	return s == JobIndexing || s == JobPaused
}

// String returns the string representation.
func (s JobStatus) String() string {
	return string(s)
}

// JobSnapshot is an immutable view of the indexing job's state.
// Snapshots are pushed to subscribers on every transition and per-document
// tick; Processed always reflects the last committed document.
type JobSnapshot struct {
	// JobID identifies the build that produced this snapshot.
	JobID string

	// Status is the job's lifecycle state.
	Status JobStatus

	// Processed is the number of documents committed so far.
	Processed int

	// Total is the number of target documents for this build.
	Total int

	// CurrentDocument is the document being processed, if any.
	CurrentDocument string

	// EstimatedRemaining is a moving-average completion estimate.
	// Zero when unknown.
	EstimatedRemaining time.Duration

	// LastError is the failure that halted the job, empty otherwise.
	LastError string

	// ErrorKind classifies LastError. Empty when LastError is empty.
	ErrorKind ErrorKind

	// ErrorRetryable reports whether LastError is worth retrying as-is.
	ErrorRetryable bool
}

// FailedItem records a document whose text extraction failed.
// Extraction failures are recovered locally: the item is recorded
// and the build loop continues with the next document.
type FailedItem struct {
	// DocumentID identifies the failed document.
	DocumentID string

	// Reason is the extraction failure message.
	Reason string

	// FailedAt is when the failure was recorded.
	FailedAt time.Time
}

// BuildOptions configures an index build.
type BuildOptions struct {
	// DocumentIDs restricts the build to specific documents.
	// Empty means the full known document set.
	DocumentIDs []string

	// Rebuild forces re-extraction and re-embedding of every target
	// document. False (the default) skips unchanged documents.
	Rebuild bool
}

// BuildResult summarises a finished (or halted) build.
type BuildResult struct {
	// Status is the job's final state.
	Status JobStatus

	// Processed is the number of documents committed.
	Processed int

	// Skipped is the number of unchanged documents left as-is.
	Skipped int

	// Total is the number of target documents.
	Total int
}
