package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

// DeliveryChannel yields newly inserted records to the engine. Exactly
// one concrete channel is active at a time: push when the backend can
// stream inserts, polling otherwise. The choice is made once at startup,
// never per event.
type DeliveryChannel interface {
	Start(onNew func(domain.Notification)) error
	Stop()
}

// OpenChannel performs the one-time capability check: it tries the push
// subscription and silently falls back to polling when the subscription
// cannot be established. Subscription failures are logged, never
// surfaced to the operator.
func OpenChannel(backend domain.NotificationBackend, cfg Config, logger *slog.Logger, onNew func(domain.Notification)) (DeliveryChannel, error) {
	push := NewPushChannel(backend, logger)
	if err := push.Start(onNew); err == nil {
		logger.Info("notification delivery using push subscription")
		return push, nil
	} else {
		logger.Warn("push subscription unavailable, falling back to polling", "error", err)
	}

	poll := NewPollChannel(backend, cfg.PollInterval, cfg.PollFetchLimit, logger)
	if err := poll.Start(onNew); err != nil {
		return nil, err
	}
	logger.Info("notification delivery using polling", "interval", cfg.PollInterval)
	return poll, nil
}

// PushChannel forwards backend insert events, screened through the noise
// filter.
type PushChannel struct {
	backend domain.NotificationBackend
	logger  *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

func NewPushChannel(backend domain.NotificationBackend, logger *slog.Logger) *PushChannel {
	return &PushChannel{backend: backend, logger: logger}
}

func (c *PushChannel) Start(onNew func(domain.Notification)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return nil
	}
	unsub, err := c.backend.SubscribeInserts(func(n domain.Notification) {
		if !Significant(n) {
			filteredTotal.Inc()
			return
		}
		onNew(n)
	})
	if err != nil {
		return err
	}
	c.unsubscribe = unsub
	return nil
}

func (c *PushChannel) Stop() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// PollChannel fetches the recent window on a fixed interval and forwards
// every not-yet-seen unread significant record. Forwarding the whole
// window rather than only the single latest record means a second unread
// record arriving within one interval is not lost; the store's dedup
// makes re-delivery harmless.
type PollChannel struct {
	backend    domain.NotificationBackend
	interval   time.Duration
	fetchLimit int
	logger     *slog.Logger

	lastSeen time.Time
	stop     chan struct{}
	stopOnce sync.Once
	started  bool
	mu       sync.Mutex

	// newTicker is injectable for deterministic tests.
	newTicker func(time.Duration) (<-chan time.Time, func())
}

func NewPollChannel(backend domain.NotificationBackend, interval time.Duration, fetchLimit int, logger *slog.Logger) *PollChannel {
	return &PollChannel{
		backend:    backend,
		interval:   interval,
		fetchLimit: fetchLimit,
		logger:     logger,
		stop:       make(chan struct{}),
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

func (c *PollChannel) Start(onNew func(domain.Notification)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.started = true
	go c.loop(onNew)
	return nil
}

func (c *PollChannel) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *PollChannel) loop(onNew func(domain.Notification)) {
	tick, stopTicker := c.newTicker(c.interval)
	defer stopTicker()
	for {
		select {
		case <-tick:
			c.poll(onNew)
		case <-c.stop:
			return
		}
	}
}

func (c *PollChannel) poll(onNew func(domain.Notification)) {
	recs, err := c.backend.FetchRecent(context.Background(), c.fetchLimit)
	if err != nil {
		// Retried on the next tick; an empty result is not an error.
		c.logger.Warn("notification poll failed", "error", err)
		return
	}
	// Oldest first so arrival order matches creation order. The boundary
	// is inclusive: a record sharing lastSeen's timestamp (rows inserted
	// in one transaction tie on NOW()) is forwarded again rather than
	// lost, and the store's dedup absorbs the repeat.
	for i := len(recs) - 1; i >= 0; i-- {
		n := recs[i]
		if n.CreatedAt.Before(c.lastSeen) || n.IsRead {
			continue
		}
		if !Significant(n) {
			filteredTotal.Inc()
			continue
		}
		onNew(n)
	}
	if len(recs) > 0 && recs[0].CreatedAt.After(c.lastSeen) {
		c.lastSeen = recs[0].CreatedAt
	}
}

// Bootstrap seeds the store with outstanding unread significant records
// before live delivery begins, so a freshly opened dashboard shows what
// is already pending, not only what arrives after open.
func Bootstrap(ctx context.Context, backend domain.NotificationBackend, store *Store, fetchLimit, seedLimit int) error {
	recs, err := backend.FetchRecent(ctx, fetchLimit)
	if err != nil {
		return err
	}
	kept := make([]domain.Notification, 0, seedLimit)
	for _, n := range recs { // newest first
		if n.IsRead {
			continue
		}
		if !Significant(n) {
			filteredTotal.Inc()
			continue
		}
		kept = append(kept, n)
		if len(kept) == seedLimit {
			break
		}
	}
	// Insert oldest first so the store's arrival order matches age.
	for i := len(kept) - 1; i >= 0; i-- {
		store.Upsert(kept[i])
	}
	return nil
}
