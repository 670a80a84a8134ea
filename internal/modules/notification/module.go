package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/engine"
	"github.com/mercastudio/storefront-admin/internal/modules/notification/infrastructure/cache"
	"github.com/mercastudio/storefront-admin/internal/modules/notification/infrastructure/persistence/postgres"
	ws "github.com/mercastudio/storefront-admin/internal/modules/notification/infrastructure/websocket"
	notification_http "github.com/mercastudio/storefront-admin/internal/modules/notification/interfaces/http"
)

// Module wires the notification engine to its Postgres backend, Redis
// cache, websocket hub and HTTP surface.
type Module struct {
	engine  *engine.Engine
	handler *notification_http.NotificationHandler
	hub     *ws.Hub
	repo    *postgres.NotificationRepository
}

// NewModule assembles the module. listenDSN may be empty, in which case
// push delivery is unavailable and the engine polls.
func NewModule(db *sqlx.DB, rdb *redis.Client, listenDSN string, cfg engine.Config, logger *slog.Logger) *Module {
	repo := postgres.NewNotificationRepository(db, listenDSN, logger)
	notificationCache := cache.NewNotificationCache(rdb, time.Minute, logger)

	eng := engine.New(repo, notificationCache, cfg, logger)

	hub := ws.NewHub(logger)
	go hub.Run()
	eng.SetSnapshotListener(func(items []engine.Item) {
		payload, err := json.Marshal(map[string]any{"items": items})
		if err != nil {
			logger.Warn("snapshot encode failed", "error", err)
			return
		}
		hub.Broadcast(payload)
	})

	counter := cache.NewUnreadCounter(notificationCache, repo)
	handler := notification_http.NewNotificationHandler(eng, repo, counter, hub, logger)

	return &Module{
		engine:  eng,
		handler: handler,
		hub:     hub,
		repo:    repo,
	}
}

// Start bootstraps the engine and opens live delivery.
func (m *Module) Start(ctx context.Context) error {
	return m.engine.Start(ctx)
}

// Close stops delivery, cancels all reappearance timers and drops every
// websocket session.
func (m *Module) Close() {
	m.engine.Close()
	m.hub.Stop()
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Engine() *engine.Engine {
	return m.engine
}
