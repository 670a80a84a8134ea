package domain

import (
	"context"

	"github.com/google/uuid"
)

// NotificationBackend is the engine's view of the persistent store.
type NotificationBackend interface {
	// FetchRecent returns up to limit records, newest first.
	FetchRecent(ctx context.Context, limit int) ([]Notification, error)

	// FetchByID returns ErrNotificationNotFound for an unknown id.
	FetchByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// SubscribeInserts starts a push subscription for newly inserted
	// records and returns a stop function. Returns ErrPushUnsupported
	// when the backend cannot deliver insert events.
	SubscribeInserts(onInsert func(Notification)) (func(), error)

	SetRead(ctx context.Context, id uuid.UUID) error

	// SetReadBulk marks every id read and returns one error slot per id,
	// aligned with ids. A nil slot means that mutation succeeded.
	SetReadBulk(ctx context.Context, ids []uuid.UUID) []error
}

// NotificationCache invalidates cached reads derived from notifications
// (e.g. the unread-count badge) after a successful mutation.
type NotificationCache interface {
	Invalidate(ctx context.Context, tag string) error
}
