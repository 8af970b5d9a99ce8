package driven

import (
	"context"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

// Library is the host collaborator that owns documents and supplies
// their extracted text. Text extraction itself (PDF/HTML parsing) is
// the library's concern; the core only consumes raw text.
type Library interface {
	// ListDocuments returns the IDs of all documents in the library.
	ListDocuments(ctx context.Context) ([]string, error)

	// GetFullText returns a document's extracted text and modification
	// timestamps. Fails with domain.ErrNotFound if unavailable.
	GetFullText(ctx context.Context, documentID string) (*domain.FullTextDocument, error)
}

// ChangeType identifies a library change event.
type ChangeType int

const (
	// DocumentAdded indicates a new or modified document.
	DocumentAdded ChangeType = iota

	// DocumentDeleted indicates a removed document.
	DocumentDeleted
)

// LibraryChange is a document add/delete notification.
type LibraryChange struct {
	// Type is the change kind.
	Type ChangeType

	// DocumentID identifies the affected document.
	DocumentID string
}

// LibraryWatcher emits change notifications for library documents.
// Implementations debounce bursts before delivering.
type LibraryWatcher interface {
	// Watch starts delivering change events until ctx is cancelled.
	Watch(ctx context.Context) (<-chan LibraryChange, error)

	// Close stops watching and releases resources.
	Close() error
}
