package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
	"github.com/lricher7329/refsearch/internal/core/ports/driving"
	"github.com/lricher7329/refsearch/internal/logger"
)

// retryDelay is how long the scheduler waits before reattempting work
// that collided with a live build.
const retryDelay = 5 * time.Second

// Scheduler turns debounced library change notifications into
// incremental index work. Changed documents are accumulated and built
// in one batch; when a build is already live the batch is retried
// later instead of being dropped.
type Scheduler struct {
	watcher driven.LibraryWatcher
	indexer driving.IndexService

	mu      sync.Mutex
	changed map[string]struct{}
	deleted map[string]struct{}
}

// NewScheduler creates a change scheduler.
func NewScheduler(watcher driven.LibraryWatcher, indexer driving.IndexService) *Scheduler {
	return &Scheduler{
		watcher: watcher,
		indexer: indexer,
		changed: make(map[string]struct{}),
		deleted: make(map[string]struct{}),
	}
}

// Run consumes change events until ctx is cancelled. Blocks; run it on
// its own goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	events, err := s.watcher.Watch(ctx)
	if err != nil {
		return err
	}

	timer := time.NewTimer(retryDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case change, ok := <-events:
			if !ok {
				return nil
			}
			s.enqueue(change)
			if !s.drain(ctx) {
				timer.Reset(retryDelay)
			}

		case <-timer.C:
			if !s.drain(ctx) {
				timer.Reset(retryDelay)
			}
		}
	}
}

func (s *Scheduler) enqueue(change driven.LibraryChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch change.Type {
	case driven.DocumentDeleted:
		delete(s.changed, change.DocumentID)
		s.deleted[change.DocumentID] = struct{}{}
	default:
		delete(s.deleted, change.DocumentID)
		s.changed[change.DocumentID] = struct{}{}
	}
}

// drain applies the pending work. Returns false when a live build got
// in the way and the work should be retried.
func (s *Scheduler) drain(ctx context.Context) bool {
	s.mu.Lock()
	changed := make([]string, 0, len(s.changed))
	for id := range s.changed {
		changed = append(changed, id)
	}
	deleted := make([]string, 0, len(s.deleted))
	for id := range s.deleted {
		deleted = append(deleted, id)
	}
	s.changed = make(map[string]struct{})
	s.deleted = make(map[string]struct{})
	s.mu.Unlock()

	if len(changed) == 0 && len(deleted) == 0 {
		return true
	}

	for _, id := range deleted {
		if err := s.indexer.DeleteDocumentIndex(ctx, id); err != nil {
			if errors.Is(err, domain.ErrIndexInProgress) {
				s.requeueDeleted(deleted)
				s.requeueChanged(changed)
				return false
			}
			logger.Warn("Removing index for deleted document %s: %v", id, err)
		}
	}

	if len(changed) == 0 {
		return true
	}

	logger.Debug("Scheduling incremental build for %d changed documents", len(changed))
	_, err := s.indexer.BuildIndex(ctx, domain.BuildOptions{DocumentIDs: changed})
	if errors.Is(err, domain.ErrIndexInProgress) {
		s.requeueChanged(changed)
		return false
	}
	if err != nil {
		logger.Warn("Incremental build failed: %v", err)
	}
	return true
}

func (s *Scheduler) requeueChanged(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.changed[id] = struct{}{}
	}
}

func (s *Scheduler) requeueDeleted(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.deleted[id] = struct{}{}
	}
}
