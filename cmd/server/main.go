package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/mercastudio/storefront-admin/internal/gateway"
	"github.com/mercastudio/storefront-admin/internal/gateway/middleware"
	"github.com/mercastudio/storefront-admin/internal/modules/notification"
	"github.com/mercastudio/storefront-admin/internal/modules/notification/engine"
	"github.com/mercastudio/storefront-admin/internal/shared/infrastructure/config"
	"github.com/mercastudio/storefront-admin/internal/shared/infrastructure/database"
	"github.com/mercastudio/storefront-admin/pkg/migration"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	log.Println("Connecting to DB...")
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	if err := migration.AutoMigrate(cfg.Database.DSN(), getEnv("MIGRATIONS_PATH", "migrations"), logger); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	listenDSN := ""
	if cfg.Notification.PushEnabled {
		listenDSN = cfg.Database.DSN()
	}

	notificationModule := notification.NewModule(db, rdb, listenDSN, engine.Config{
		TrackCapacity: cfg.Notification.TrackCapacity,
		VisibleLimit:  cfg.Notification.VisibleLimit,
		PollInterval:  cfg.Notification.PollInterval,
		ReappearDelay: cfg.Notification.ReappearDelay,
	}, logger)
	defer notificationModule.Close()

	if err := notificationModule.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start notification module: %v", err)
	}

	mux := gateway.SetupRoutes(gateway.RouterConfig{
		NotificationHandler: notificationModule.HTTPHandler(),
		AuthMiddleware:      middleware.NewAuthMiddleware(cfg.JWT.Secret),
	})

	var handler http.Handler = mux
	handler = middleware.PrometheusMiddleware(handler)
	handler = middleware.CORSMiddleware(handler, cfg.Server.AllowedOrigins)

	server := gateway.NewServer(cfg.Server.Port, handler)
	if err := server.Start(); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
