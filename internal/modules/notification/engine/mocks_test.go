package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

type backendMock struct {
	fetchRecentFn      func(context.Context, int) ([]domain.Notification, error)
	fetchByIDFn        func(context.Context, uuid.UUID) (*domain.Notification, error)
	subscribeInsertsFn func(func(domain.Notification)) (func(), error)
	setReadFn          func(context.Context, uuid.UUID) error
	setReadBulkFn      func(context.Context, []uuid.UUID) []error
}

func (m backendMock) FetchRecent(ctx context.Context, limit int) ([]domain.Notification, error) {
	if m.fetchRecentFn == nil {
		return nil, nil
	}
	return m.fetchRecentFn(ctx, limit)
}

func (m backendMock) FetchByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	if m.fetchByIDFn == nil {
		return nil, domain.ErrNotificationNotFound
	}
	return m.fetchByIDFn(ctx, id)
}

func (m backendMock) SubscribeInserts(onInsert func(domain.Notification)) (func(), error) {
	if m.subscribeInsertsFn == nil {
		return nil, domain.ErrPushUnsupported
	}
	return m.subscribeInsertsFn(onInsert)
}

func (m backendMock) SetRead(ctx context.Context, id uuid.UUID) error {
	if m.setReadFn == nil {
		return nil
	}
	return m.setReadFn(ctx, id)
}

func (m backendMock) SetReadBulk(ctx context.Context, ids []uuid.UUID) []error {
	if m.setReadBulkFn != nil {
		return m.setReadBulkFn(ctx, ids)
	}
	errs := make([]error, len(ids))
	for i, id := range ids {
		errs[i] = m.SetRead(ctx, id)
	}
	return errs
}

type cacheMock struct {
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (m *cacheMock) Invalidate(_ context.Context, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, tag)
	return m.err
}

func (m *cacheMock) tags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.invalidated...)
}

// fakeTimers captures scheduler callbacks so tests control virtual time.
type fakeTimers struct {
	mu    sync.Mutex
	fns   map[uuid.UUID]func()
	order []uuid.UUID
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{fns: make(map[uuid.UUID]func())}
}

func (f *fakeTimers) install(s *Scheduler) {
	pending := f
	s.afterFunc = func(_ time.Duration, fn func()) *time.Timer {
		pending.mu.Lock()
		defer pending.mu.Unlock()
		// The scheduler keys timers by id internally; tests fire by the
		// order callbacks were armed.
		id := uuid.New()
		pending.fns[id] = fn
		pending.order = append(pending.order, id)
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	}
}

// fireLast invokes the most recently armed callback synchronously.
func (f *fakeTimers) fireLast() {
	f.mu.Lock()
	if len(f.order) == 0 {
		f.mu.Unlock()
		return
	}
	id := f.order[len(f.order)-1]
	fn := f.fns[id]
	f.mu.Unlock()
	fn()
}

func (f *fakeTimers) armed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

func record(title string, createdAt time.Time) domain.Notification {
	return domain.Notification{
		ID:        uuid.New(),
		Type:      domain.TypeNewOrder,
		Title:     title,
		Message:   "order #1042 placed",
		CreatedAt: createdAt,
	}
}
