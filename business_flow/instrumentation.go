package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bulk requests partitioned by action, kind and outcome (completed, rejected)
	bulkOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estately_bulk_operations_total",
			Help: "Total number of bulk operation requests",
		},
		[]string{"action", "kind", "outcome"},
	)

	// Per-item results partitioned by action, kind and result (succeeded, noop, or the item error code)
	bulkItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estately_bulk_items_total",
			Help: "Total number of bulk operation items by result",
		},
		[]string{"action", "kind", "result"},
	)

	bulkOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estately_bulk_operation_duration_seconds",
			Help:    "Bulk operation latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// Dashboard sections zeroed because their read failed
	dashboardDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estately_dashboard_degraded_sections_total",
			Help: "Total number of dashboard sections degraded to zero values",
		},
		[]string{"section"},
	)

	dashboardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estately_dashboard_cache_requests_total",
			Help: "Dashboard metrics cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	dashboardAggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "estately_dashboard_aggregation_duration_seconds",
			Help:    "Time spent reading and aggregating dashboard metrics",
			Buckets: prometheus.DefBuckets,
		},
	)
)
