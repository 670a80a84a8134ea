package postgres

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

// insertChannel is the pg_notify channel fed by the notifications
// insert trigger (see migrations).
const insertChannel = "notifications_insert"

const (
	listenMinReconnect = 10 * time.Second
	listenMaxReconnect = time.Minute
	listenPingInterval = 90 * time.Second
)

// SubscribeInserts opens a LISTEN/NOTIFY subscription on the
// notifications table. The trigger publishes the full row as JSON, so
// subscribers get the record without a follow-up query. Returns
// ErrPushUnsupported when the repository has no listen DSN, which is the
// capability signal the delivery channel uses to fall back to polling.
func (r *NotificationRepository) SubscribeInserts(onInsert func(domain.Notification)) (func(), error) {
	if r.listenDSN == "" {
		return nil, domain.ErrPushUnsupported
	}

	listener := pq.NewListener(r.listenDSN, listenMinReconnect, listenMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				r.logger.Warn("notification listener event", "event", int(ev), "error", err)
			}
		})
	if err := listener.Listen(insertChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", insertChannel, err)
	}

	done := make(chan struct{})
	go r.consume(listener, onInsert, done)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			if err := listener.Close(); err != nil {
				r.logger.Warn("closing notification listener", "error", err)
			}
		})
	}
	return stop, nil
}

func (r *NotificationRepository) consume(listener *pq.Listener, onInsert func(domain.Notification), done <-chan struct{}) {
	for {
		select {
		case ev, ok := <-listener.Notify:
			if !ok {
				return
			}
			if ev == nil {
				// Reconnect marker; the next poll or event catches up.
				continue
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(ev.Extra), &n); err != nil {
				r.logger.Warn("undecodable notification payload", "error", err)
				continue
			}
			onInsert(n)
		case <-done:
			return
		case <-time.After(listenPingInterval):
			go func() {
				if err := listener.Ping(); err != nil {
					r.logger.Warn("notification listener ping failed", "error", err)
				}
			}()
		}
	}
}
