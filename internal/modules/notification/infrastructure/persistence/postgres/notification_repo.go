package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

// NotificationRepository is the Postgres-backed NotificationBackend.
// When constructed with a listen DSN it can also stream inserts over
// LISTEN/NOTIFY (see listener.go); without one, push delivery reports
// unsupported and the engine polls.
type NotificationRepository struct {
	db        *sqlx.DB
	listenDSN string
	logger    *slog.Logger
}

func NewNotificationRepository(db *sqlx.DB, listenDSN string, logger *slog.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, listenDSN: listenDSN, logger: logger}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, type, title, message, is_read, order_id, customer_name, product_name, amount, metadata, created_at)
		VALUES (:id, :type, :title, :message, :is_read, :order_id, :customer_name, :product_name, :amount, :metadata, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, n)
	return err
}

func (r *NotificationRepository) FetchRecent(ctx context.Context, limit int) ([]domain.Notification, error) {
	query := `
		SELECT * FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`
	var notifications []domain.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, limit); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) FetchByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	query := `SELECT * FROM notifications WHERE id = $1`
	var n domain.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) SetRead(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// SetReadBulk maps SetRead over ids concurrently; the table has no
// native bulk read flag with per-row error reporting. The returned slice
// is aligned with ids.
func (r *NotificationRepository) SetReadBulk(ctx context.Context, ids []uuid.UUID) []error {
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			errs[i] = r.SetRead(ctx, id)
		}(i, id)
	}
	wg.Wait()
	return errs
}

func (r *NotificationRepository) UnreadCount(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE is_read = FALSE
	`
	var count int
	err := r.db.GetContext(ctx, &count, query)
	return count, err
}
