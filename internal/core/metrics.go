package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for ingestion, lookup and sessions.
type Metrics struct {
	filesIngested   *prometheus.CounterVec
	recordsIngested *prometheus.CounterVec
	lookups         *prometheus.CounterVec
	lookupDuration  prometheus.Histogram
	remoteFailures  prometheus.Counter
	activeSessions  prometheus.Gauge
}

// NewMetrics registers the collectors with reg. A nil reg yields metrics
// that are tracked but never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		filesIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osintdesk",
			Name:      "files_ingested_total",
			Help:      "Uploaded database files by kind and outcome.",
		}, []string{"kind", "status"}),
		recordsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osintdesk",
			Name:      "records_ingested_total",
			Help:      "Records loaded into sessions by kind.",
		}, []string{"kind"}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osintdesk",
			Name:      "lookups_total",
			Help:      "Lookups by outcome.",
		}, []string{"outcome"}),
		lookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "osintdesk",
			Name:      "lookup_duration_seconds",
			Help:      "Lookup latency including the remote call.",
			Buckets:   prometheus.DefBuckets,
		}),
		remoteFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "osintdesk",
			Name:      "remote_lookup_failures_total",
			Help:      "Remote lookup calls that failed or timed out.",
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "osintdesk",
			Name:      "active_sessions",
			Help:      "Live sessions.",
		}),
	}
}

func (m *Metrics) fileIngested(kind Kind, err error, records int) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	if kind == "" {
		kind = "unknown"
	}
	m.filesIngested.WithLabelValues(string(kind), status).Inc()
	if err == nil {
		m.recordsIngested.WithLabelValues(string(kind)).Add(float64(records))
	}
}

func (m *Metrics) lookupDone(outcome string, took time.Duration) {
	m.lookups.WithLabelValues(outcome).Inc()
	m.lookupDuration.Observe(took.Seconds())
}

// SetActiveSessions updates the live session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}
