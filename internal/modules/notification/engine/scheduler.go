package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

// Scheduler owns one reappearance timer per dismissed-but-unread item.
// All timer lifetime lives behind Arm/Cancel/Close so cancellation is
// auditable in one place.
//
// A fired timer does not trust local state: within the reappearance
// window another client or a server-side job may already have marked the
// record read, so the callback re-fetches the authoritative record and
// resurfaces the item only if it still exists, is still unread and is
// still significant.
type Scheduler struct {
	backend domain.NotificationBackend
	store   *Store
	delay   time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	closed bool

	afterFunc func(time.Duration, func()) *time.Timer
}

func NewScheduler(backend domain.NotificationBackend, store *Store, delay time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		backend:   backend,
		store:     store,
		delay:     delay,
		logger:    logger,
		timers:    make(map[uuid.UUID]*time.Timer),
		afterFunc: time.AfterFunc,
	}
}

// Arm starts the one-shot reappearance timer for id, replacing any timer
// already armed for the same id.
func (s *Scheduler) Arm(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = s.afterFunc(s.delay, func() { s.fire(id) })
}

// Cancel clears the pending timer for id; unarmed ids are a no-op.
func (s *Scheduler) Cancel(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Close cancels every outstanding timer. No callback mutates the store
// after Close returns its check.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) fire(id uuid.UUID) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()

	rec, err := s.backend.FetchByID(context.Background(), id)
	switch {
	case errors.Is(err, domain.ErrNotificationNotFound):
		// Already resolved elsewhere; cancel silently.
		return
	case err != nil:
		s.logger.Warn("reappearance re-validation failed", "id", id, "error", err)
		return
	}
	if rec.IsRead || !Significant(*rec) {
		return
	}

	// The lock stays held across the mutation so a concurrent Close
	// cannot complete between the check and the Reappear. The store never
	// calls back into the scheduler under its own lock, so this cannot
	// deadlock.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.store.Reappear(id)
}
