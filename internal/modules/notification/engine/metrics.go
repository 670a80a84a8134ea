package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_notifications_delivered_total",
		Help: "Notifications newly tracked by the store.",
	})
	dedupedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_notifications_deduplicated_total",
		Help: "Re-deliveries dropped because the id was already tracked.",
	})
	filteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_notifications_filtered_total",
		Help: "Records excluded as test/debug noise.",
	})
	dismissedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_notifications_dismissed_total",
		Help: "Operator dismissals.",
	})
	reappearedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_notifications_reappeared_total",
		Help: "Dismissed notifications resurfaced by the scheduler.",
	})
	readTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_notifications_read_total",
		Help: "Notifications confirmed read by the backend.",
	})
	rollbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_notifications_read_rollbacks_total",
		Help: "Optimistic read updates rolled back after a failed mutation.",
	})
)
