// Package engine implements the admin notification delivery and
// reappearance engine: deduplicated delivery over push or polling,
// a bounded visible panel, dismiss-with-reappear timers, and optimistic
// read-state mutations with rollback.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

// Config collects the engine's tunables. Zero values fall back to the
// defaults below.
type Config struct {
	BootstrapFetchLimit int           // recent records fetched at startup
	BootstrapSeedLimit  int           // unread significant records seeded
	TrackCapacity       int           // max tracked items
	VisibleLimit        int           // max simultaneously displayed items
	PollInterval        time.Duration // poll-mode cadence
	PollFetchLimit      int           // records per poll fetch
	ReappearDelay       time.Duration // dismissal-to-reappearance delay
}

func (c Config) withDefaults() Config {
	if c.BootstrapFetchLimit <= 0 {
		c.BootstrapFetchLimit = 20
	}
	if c.BootstrapSeedLimit <= 0 {
		c.BootstrapSeedLimit = 5
	}
	if c.TrackCapacity <= 0 {
		c.TrackCapacity = 20
	}
	if c.VisibleLimit <= 0 {
		c.VisibleLimit = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.PollFetchLimit <= 0 {
		c.PollFetchLimit = 20
	}
	if c.ReappearDelay <= 0 {
		c.ReappearDelay = 30 * time.Second
	}
	return c
}

// Engine wires the store, noise filter, scheduler, delivery channel and
// read-state service together and exposes the surface the panel
// consumes.
type Engine struct {
	cfg     Config
	backend domain.NotificationBackend
	logger  *slog.Logger

	store     *Store
	scheduler *Scheduler
	readState *ReadStateService

	mu       sync.Mutex
	channel  DeliveryChannel
	snapshot func([]Item)

	closeOnce sync.Once
}

func New(backend domain.NotificationBackend, cache domain.NotificationCache, cfg Config, logger *slog.Logger) *Engine {
	cfg = cfg.withDefaults()
	store := NewStore(cfg.TrackCapacity, cfg.VisibleLimit)
	scheduler := NewScheduler(backend, store, cfg.ReappearDelay, logger)
	store.SetTimerCanceller(scheduler)

	e := &Engine{
		cfg:       cfg,
		backend:   backend,
		logger:    logger,
		store:     store,
		scheduler: scheduler,
		readState: NewReadStateService(store, backend, cache, logger),
	}
	store.SetOnChange(e.broadcast)
	return e
}

// Start seeds the store from the backend, then opens live delivery.
// A failed bootstrap fetch is logged, not fatal: live delivery still
// begins and the next natural cycle fills the gap.
func (e *Engine) Start(ctx context.Context) error {
	if err := Bootstrap(ctx, e.backend, e.store, e.cfg.BootstrapFetchLimit, e.cfg.BootstrapSeedLimit); err != nil {
		e.logger.Warn("notification bootstrap fetch failed", "error", err)
	}

	ch, err := OpenChannel(e.backend, e.cfg, e.logger, func(n domain.Notification) {
		e.store.Upsert(n)
	})
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.channel = ch
	e.mu.Unlock()
	return nil
}

// Close stops live delivery and cancels every armed reappearance timer.
// No store mutation happens afterwards.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		ch := e.channel
		e.channel = nil
		e.mu.Unlock()
		if ch != nil {
			ch.Stop()
		}
		e.scheduler.Close()
	})
}

// SetSnapshotListener registers a consumer of visible-set snapshots,
// invoked after every effective store mutation.
func (e *Engine) SetSnapshotListener(fn func([]Item)) {
	e.mu.Lock()
	e.snapshot = fn
	e.mu.Unlock()
}

// VisibleItems is the panel's read surface.
func (e *Engine) VisibleItems() []Item {
	return e.store.VisibleItems()
}

// Dismiss hides the notification and arms its reappearance timer.
func (e *Engine) Dismiss(id uuid.UUID) {
	if e.store.Dismiss(id) {
		e.scheduler.Arm(id)
	}
}

// MarkRead marks a single notification read; see ReadStateService.
func (e *Engine) MarkRead(ctx context.Context, id uuid.UUID) error {
	return e.readState.MarkRead(ctx, id)
}

// MarkAllRead marks every tracked unread notification read.
func (e *Engine) MarkAllRead(ctx context.Context) error {
	return e.readState.MarkAllRead(ctx)
}

// Store exposes the tracked collection to in-process collaborators
// (tests, the module wiring).
func (e *Engine) Store() *Store { return e.store }

func (e *Engine) broadcast() {
	e.mu.Lock()
	fn := e.snapshot
	e.mu.Unlock()
	if fn != nil {
		fn(e.store.VisibleItems())
	}
}
