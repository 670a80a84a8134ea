package postgres_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
	"github.com/mercastudio/storefront-admin/internal/modules/notification/infrastructure/persistence/postgres"
)

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func notificationColumns() []string {
	return []string{"id", "type", "title", "message", "is_read", "order_id", "customer_name", "product_name", "amount", "metadata", "created_at"}
}

func TestNotificationRepository_CreateAndFetch(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewNotificationRepository(db, "", testLogger())
	ctx := context.Background()
	id := uuid.New()
	orderID := "ORD-1042"

	n := &domain.Notification{
		ID:        id,
		Type:      domain.TypeNewOrder,
		Title:     "New order",
		Message:   "Order ORD-1042 was placed",
		OrderID:   &orderID,
		Metadata:  domain.Metadata{"source": "checkout"},
		CreatedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, n))

	rows := sqlmock.NewRows(notificationColumns()).
		AddRow(id, "new_order", "New order", "Order ORD-1042 was placed", false, orderID, nil, nil, nil, []byte(`{"source":"checkout"}`), time.Now())
	mock.ExpectQuery(`SELECT \* FROM notifications`).
		WithArgs(20).
		WillReturnRows(rows)
	items, err := repo.FetchRecent(ctx, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, domain.TypeNewOrder, items[0].Type)
	require.NotNil(t, items[0].OrderID)
	assert.Equal(t, orderID, *items[0].OrderID)
	assert.Equal(t, "checkout", items[0].Metadata["source"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_FetchByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewNotificationRepository(db, "", testLogger())
	ctx := context.Background()
	id := uuid.New()

	rows := sqlmock.NewRows(notificationColumns()).
		AddRow(id, "paid_order", "Order paid", "Order ORD-7 was paid", true, nil, nil, nil, 49.99, []byte(`{}`), time.Now())
	mock.ExpectQuery(`SELECT \* FROM notifications WHERE id`).
		WithArgs(id).
		WillReturnRows(rows)
	n, err := repo.FetchByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	require.NotNil(t, n.Amount)
	assert.InDelta(t, 49.99, *n.Amount, 0.001)

	missing := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM notifications WHERE id`).
		WithArgs(missing).
		WillReturnRows(sqlmock.NewRows(notificationColumns()))
	_, err = repo.FetchByID(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotificationNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_SetRead(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewNotificationRepository(db, "", testLogger())
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetRead(ctx, id))

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetRead(ctx, id), domain.ErrNotificationNotFound)

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(id).
		WillReturnError(errors.New("connection reset"))
	assert.Error(t, repo.SetRead(ctx, id))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_SetReadBulk(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.MatchExpectationsInOrder(false)

	repo := postgres.NewNotificationRepository(db, "", testLogger())
	ctx := context.Background()
	ok1, failing, ok2 := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(ok1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(failing).
		WillReturnError(errors.New("row locked"))
	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(ok2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	errs := repo.SetReadBulk(ctx, []uuid.UUID{ok1, failing, ok2})
	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorContains(t, errs[1], "row locked")
	assert.NoError(t, errs[2])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_UnreadCount(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewNotificationRepository(db, "", testLogger())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	count, err := repo.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_SubscribeInserts_Unsupported(t *testing.T) {
	db, _, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewNotificationRepository(db, "", testLogger())
	_, err := repo.SubscribeInserts(func(domain.Notification) {})
	assert.ErrorIs(t, err, domain.ErrPushUnsupported)
}
