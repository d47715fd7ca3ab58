// Package metrics exposes Prometheus instrumentation for sync cycles and the
// stats service client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"EngagementSync/internal/ports"
)

var (
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engagement_sync_cycle_duration_seconds",
			Help:    "Duration of sync cycles by outcome",
			Buckets: []float64{0.1, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"outcome"},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_sync_cycles_total",
			Help: "Sync cycles by outcome (skipped, completed, unavailable, failed)",
		},
		[]string{"outcome"},
	)

	ItemsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_sync_items_updated_total",
			Help: "Items whose stats were refreshed",
		},
	)

	ItemFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_sync_item_failures_total",
			Help: "Eligible items skipped because their fetch failed",
		},
	)

	LastSyncTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engagement_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last committed sync cursor",
		},
	)

	// StatsRequests counts calls to the stats service by endpoint and result.
	StatsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_sync_stats_requests_total",
			Help: "Requests sent to the stats service",
		},
		[]string{"endpoint", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engagement_sync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// Prometheus implements ports.SyncMetrics on the package collectors.
type Prometheus struct{}

var _ ports.SyncMetrics = Prometheus{}

// ObserveCycle records one cycle.
func (Prometheus) ObserveCycle(outcome string, duration time.Duration) {
	CyclesTotal.WithLabelValues(outcome).Inc()
	CycleDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// AddUpdated counts refreshed items.
func (Prometheus) AddUpdated(n int) {
	if n > 0 {
		ItemsUpdated.Add(float64(n))
	}
}

// AddItemFailures counts skipped items.
func (Prometheus) AddItemFailures(n int) {
	if n > 0 {
		ItemFailures.Add(float64(n))
	}
}

// SetLastSync records the committed cursor.
func (Prometheus) SetLastSync(t time.Time) {
	LastSyncTimestamp.Set(float64(t.Unix()))
}
