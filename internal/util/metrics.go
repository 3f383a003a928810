package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of orders placed through checkout",
	})

	OrderStatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_status_updates_total",
		Help: "Total number of order status changes by target status",
	}, []string{"status"})

	LedgerPersistFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_ledger_persist_failed_total",
		Help: "Total number of failed order ledger writes",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_failed_total",
		Help: "Total number of rejected checkout transitions",
	}, []string{"reason"})

	CheckoutProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_checkout_processing_seconds",
		Help:    "Time spent in the processing state of checkout",
		Buckets: prometheus.DefBuckets,
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Total number of cart mutations by operation",
	}, []string{"op"})

	SessionsEvictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_sessions_evicted_total",
		Help: "Total number of idle session entries dropped by kind",
	}, []string{"kind"})

	CatalogRefreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_catalog_refresh_total",
		Help: "Total number of catalog refreshes",
	})

	CatalogRefreshFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_catalog_refresh_failed_total",
		Help: "Total number of catalog refreshes that kept the stale cache",
	})

	CatalogDeleteRollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_delete_rollbacks_total",
		Help: "Total number of optimistic deletes rolled back",
	}, []string{"reason"})

	CatalogChangeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_change_events_total",
		Help: "Total number of backend change notifications by type and action",
	}, []string{"type", "action"})

	AIRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_ai_request_seconds",
		Help:    "Latency of AI text service calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
