package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lricher7329/refsearch/internal/core/ports/driven"
	"github.com/lricher7329/refsearch/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.LibraryWatcher = (*Watcher)(nil)

// DefaultDebounce is how long a document's events are coalesced before
// a change notification is delivered.
const DefaultDebounce = 2 * time.Second

// Watcher emits debounced change notifications for library documents.
// Editors produce bursts of writes per save; the debounce collapses a
// burst into one notification per document.
type Watcher struct {
	library  *Library
	debounce time.Duration

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]driven.LibraryChange
	timer   *time.Timer
	out     chan driven.LibraryChange
	closed  bool
}

// NewWatcher creates a watcher for the library. A non-positive debounce
// uses DefaultDebounce.
func NewWatcher(library *Library, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		library:  library,
		debounce: debounce,
		pending:  make(map[string]driven.LibraryChange),
	}
}

// Watch starts delivering change events until ctx is cancelled. The
// returned channel closes when watching stops.
func (w *Watcher) Watch(ctx context.Context) (<-chan driven.LibraryChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw != nil {
		return nil, fmt.Errorf("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	// Watch the root and every subdirectory; fsnotify is not recursive.
	if err := addRecursive(fsw, w.library.Root()); err != nil {
		fsw.Close()
		return nil, err
	}

	w.fsw = fsw
	w.out = make(chan driven.LibraryChange, 16)

	go w.loop(ctx)
	return w.out, nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.out)

	for {
		select {
		case <-ctx.Done():
			w.Close() //nolint:errcheck
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Library watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories need watches of their own.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(w.fsw, event.Name); err != nil {
				logger.Warn("Watching new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !indexable(filepath.Base(event.Name)) {
		return
	}

	rel, err := filepath.Rel(w.library.Root(), event.Name)
	if err != nil {
		return
	}
	documentID := filepath.ToSlash(rel)

	change := driven.LibraryChange{Type: driven.DocumentAdded, DocumentID: documentID}
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		change.Type = driven.DocumentDeleted
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	// Latest event per document wins within the debounce window.
	w.pending[documentID] = change
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

// flush delivers everything accumulated in the debounce window.
func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]driven.LibraryChange)
	w.timer = nil
	closed := w.closed
	out := w.out
	w.mu.Unlock()

	if closed {
		return
	}
	for _, change := range pending {
		select {
		case out <- change:
		default:
			logger.Warn("Dropping library change for %s: subscriber not keeping up", change.DocumentID)
		}
	}
}

// addRecursive watches a directory and all its non-hidden descendants.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
