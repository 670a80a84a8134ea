package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

func TestReadStateService_MarkRead(t *testing.T) {
	t.Run("success removes item and invalidates cache", func(t *testing.T) {
		n := record("New order", time.Now())
		store := NewStore(20, 5)
		store.Upsert(n)

		cache := &cacheMock{}
		var persisted uuid.UUID
		backend := backendMock{
			setReadFn: func(_ context.Context, id uuid.UUID) error {
				persisted = id
				return nil
			},
		}
		svc := NewReadStateService(store, backend, cache, discardLogger())

		require.NoError(t, svc.MarkRead(context.Background(), n.ID))
		assert.Equal(t, n.ID, persisted)
		assert.Equal(t, 0, store.Len(), "read is terminal")
		assert.Equal(t, []string{domain.CacheTagNotifications}, cache.tags())
	})

	t.Run("failure rolls back and propagates", func(t *testing.T) {
		n := record("New order", time.Now())
		store := NewStore(20, 5)
		store.Upsert(n)

		cache := &cacheMock{}
		backend := backendMock{
			setReadFn: func(context.Context, uuid.UUID) error {
				// The optimistic flag must already be set while the
				// mutation is in flight.
				it, ok := store.Item(n.ID)
				require.True(t, ok)
				assert.True(t, it.LocalRead)
				return errors.New("write denied")
			},
		}
		svc := NewReadStateService(store, backend, cache, discardLogger())

		err := svc.MarkRead(context.Background(), n.ID)
		require.ErrorContains(t, err, "write denied")

		it, ok := store.Item(n.ID)
		require.True(t, ok)
		assert.False(t, it.LocalRead, "optimistic state rolled back")
		require.Len(t, store.VisibleItems(), 1, "item visible again for retry")
		assert.Empty(t, cache.tags(), "no invalidation on failure")
	})

	t.Run("cancels armed dismissal timer", func(t *testing.T) {
		n := record("New order", time.Now())
		store := NewStore(20, 5)
		store.Upsert(n)

		sched := NewScheduler(backendMock{}, store, 30*time.Second, discardLogger())
		timers := newFakeTimers()
		timers.install(sched)
		store.SetTimerCanceller(sched)

		store.Dismiss(n.ID)
		sched.Arm(n.ID)

		svc := NewReadStateService(store, backendMock{}, &cacheMock{}, discardLogger())
		require.NoError(t, svc.MarkRead(context.Background(), n.ID))

		sched.mu.Lock()
		assert.Empty(t, sched.timers, "no surviving timer after mark-read")
		sched.mu.Unlock()

		// Even a late stray fire finds nothing to resurface.
		timers.fireLast()
		assert.Empty(t, store.VisibleItems())
	})
}

func TestReadStateService_MarkAllRead(t *testing.T) {
	t.Run("partial failure rolls back only the failed item", func(t *testing.T) {
		now := time.Now()
		store := NewStore(20, 5)
		var recs []domain.Notification
		for i := 0; i < 4; i++ {
			n := record("New order", now.Add(time.Duration(i)*time.Second))
			recs = append(recs, n)
			store.Upsert(n)
		}
		failing := recs[1].ID

		cache := &cacheMock{}
		backend := backendMock{
			setReadFn: func(_ context.Context, id uuid.UUID) error {
				if id == failing {
					return errors.New("row locked")
				}
				return nil
			},
		}
		svc := NewReadStateService(store, backend, cache, discardLogger())

		err := svc.MarkAllRead(context.Background())
		require.ErrorContains(t, err, "row locked")

		assert.Equal(t, 1, store.Len(), "three confirmed reads were removed")
		it, ok := store.Item(failing)
		require.True(t, ok)
		assert.False(t, it.LocalRead, "failed item rolled back")
		visible := store.VisibleItems()
		require.Len(t, visible, 1)
		assert.Equal(t, failing, visible[0].Record.ID)
		assert.Equal(t, []string{domain.CacheTagNotifications}, cache.tags())
	})

	t.Run("no unread items is a no-op", func(t *testing.T) {
		store := NewStore(20, 5)
		calls := 0
		backend := backendMock{
			setReadBulkFn: func(_ context.Context, ids []uuid.UUID) []error {
				calls++
				return make([]error, len(ids))
			},
		}
		svc := NewReadStateService(store, backend, &cacheMock{}, discardLogger())
		require.NoError(t, svc.MarkAllRead(context.Background()))
		assert.Zero(t, calls)
	})

	t.Run("cache invalidation failure is logged, not returned", func(t *testing.T) {
		n := record("New order", time.Now())
		store := NewStore(20, 5)
		store.Upsert(n)
		cache := &cacheMock{err: errors.New("redis down")}
		svc := NewReadStateService(store, backendMock{}, cache, discardLogger())

		require.NoError(t, svc.MarkRead(context.Background(), n.ID))
	})
}
