package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercastudio/storefront-admin/internal/gateway/middleware"
	notification_http "github.com/mercastudio/storefront-admin/internal/modules/notification/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	NotificationHandler *notification_http.NotificationHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Health Check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	mux.Handle("/metrics", promhttp.Handler())

	admin := config.AuthMiddleware.RequireAdmin

	// Notification Routes
	mux.Handle("POST /notifications", admin(http.HandlerFunc(config.NotificationHandler.Ingest)))
	mux.Handle("GET /notifications/visible", admin(http.HandlerFunc(config.NotificationHandler.ListVisible)))
	mux.Handle("POST /notifications/{id}/dismiss", admin(http.HandlerFunc(config.NotificationHandler.Dismiss)))
	mux.Handle("PATCH /notifications/{id}/read", admin(http.HandlerFunc(config.NotificationHandler.MarkRead)))
	mux.Handle("PATCH /notifications/read-all", admin(http.HandlerFunc(config.NotificationHandler.MarkAllRead)))
	mux.Handle("GET /notifications/unread-count", admin(http.HandlerFunc(config.NotificationHandler.UnreadCount)))
	mux.Handle("GET /notifications/ws", admin(http.HandlerFunc(config.NotificationHandler.Subscribe)))

	return mux
}
