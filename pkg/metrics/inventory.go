package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics tracks snapshot refresh behavior.
type InventoryMetrics struct {
	refreshes   *prometheus.CounterVec
	duration    prometheus.Histogram
	refreshedAt prometheus.Gauge
}

// NewInventoryMetrics registers the snapshot metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_refresh_total",
		Help: "Snapshot refresh attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_refresh_duration_seconds",
		Help:    "Duration of snapshot refreshes in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	refreshedAt := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_refreshed_at_seconds",
		Help: "Unix timestamp of the last successful snapshot refresh.",
	})
	reg.MustRegister(refreshes, duration, refreshedAt)
	return &InventoryMetrics{
		refreshes:   refreshes,
		duration:    duration,
		refreshedAt: refreshedAt,
	}
}

// ObserveRefresh records one refresh attempt.
func (m *InventoryMetrics) ObserveRefresh(outcome string, took time.Duration) {
	if m == nil || m.refreshes == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
	if outcome == "success" {
		m.refreshedAt.SetToCurrentTime()
	}
}
