package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

// ReadStateService performs read-state mutations with optimistic local
// updates. The local flag flips before the backend confirms; a failed
// mutation rolls the flag back and propagates the error so the panel can
// offer a retry. Background collaborators never see a half-applied
// state: SetLocalRead(true) cancels the reappearance timer through the
// store's hook, so a dismiss followed immediately by a mark-read cannot
// leave a surviving timer regardless of ordering.
type ReadStateService struct {
	store   *Store
	backend domain.NotificationBackend
	cache   domain.NotificationCache
	logger  *slog.Logger
}

func NewReadStateService(store *Store, backend domain.NotificationBackend, cache domain.NotificationCache, logger *slog.Logger) *ReadStateService {
	return &ReadStateService{store: store, backend: backend, cache: cache, logger: logger}
}

// MarkRead optimistically marks the item read, persists the flag, and
// invalidates downstream caches. On failure the optimistic state is
// rolled back and the error returned to the caller.
func (s *ReadStateService) MarkRead(ctx context.Context, id uuid.UUID) error {
	s.store.SetLocalRead(id, true)

	if err := s.backend.SetRead(ctx, id); err != nil {
		rollbackTotal.Inc()
		s.store.SetLocalRead(id, false)
		return fmt.Errorf("mark notification read: %w", err)
	}

	s.store.Remove(id)
	readTotal.Inc()
	s.invalidate(ctx)
	return nil
}

// MarkAllRead applies the optimistic-then-confirm pattern to every
// currently unread tracked item, issuing the mutations concurrently.
// The backend offers no transaction, so a failed mutation rolls back
// only its own item; the rest stay read.
func (s *ReadStateService) MarkAllRead(ctx context.Context) error {
	ids := s.store.UnreadIDs()
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		s.store.SetLocalRead(id, true)
	}

	errs := s.backend.SetReadBulk(ctx, ids)

	var failed []error
	confirmed := false
	for i, id := range ids {
		if i < len(errs) && errs[i] != nil {
			rollbackTotal.Inc()
			s.store.SetLocalRead(id, false)
			failed = append(failed, fmt.Errorf("mark %s read: %w", id, errs[i]))
			continue
		}
		s.store.Remove(id)
		readTotal.Inc()
		confirmed = true
	}
	if confirmed {
		s.invalidate(ctx)
	}
	return errors.Join(failed...)
}

func (s *ReadStateService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, domain.CacheTagNotifications); err != nil {
		s.logger.Warn("notification cache invalidation failed", "error", err)
	}
}
