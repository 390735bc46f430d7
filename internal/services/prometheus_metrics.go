package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	authenticationEventsTotal *prometheus.CounterVec
	transactionsTotal         *prometheus.CounterVec
	categoriesTotal           *prometheus.CounterVec
	eventsPublishedTotal      *prometheus.CounterVec
	cleanupDeletedTotal       *prometheus.CounterVec
	demoTransactionsTotal     prometheus.Counter
	statsQueryDuration        *prometheus.HistogramVec
	cleanupDuration           prometheus.Histogram
	transactionAmount         *prometheus.HistogramVec
	lastCleanupTimestamp      prometheus.Gauge
}

// NewPrometheusMetrics registers the collectors with reg; pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		authenticationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_total",
				Help: "Total number of transaction mutations by operation and entry type",
			},
			[]string{"operation", "type"},
		),
		categoriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "categories_total",
				Help: "Total number of category mutations by operation",
			},
			[]string{"operation"},
		),
		eventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domain_events_published_total",
				Help: "Total number of domain events handed to the broker",
			},
			[]string{"type", "status"},
		),
		cleanupDeletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cleanup_deleted_rows_total",
				Help: "Rows removed by the maintenance worker",
			},
			[]string{"kind"},
		),
		demoTransactionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "demo_transactions_generated_total",
				Help: "Total number of generated demo transactions",
			},
		),
		statsQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stats_query_duration_milliseconds",
				Help:    "Aggregation query duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"query"},
		),
		cleanupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cleanup_duration_seconds",
				Help:    "Maintenance run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		transactionAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transaction_amount",
				Help:    "Transaction amount in the user's currency units",
				Buckets: prometheus.ExponentialBuckets(1, 10, 8),
			},
			[]string{"type"},
		),
		lastCleanupTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cleanup_last_run_timestamp_seconds",
				Help: "Unix time of the last completed maintenance run",
			},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case "authentication_event":
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEventsTotal.WithLabelValues(eventType).Inc()
		}
	case "transaction_mutation":
		m.transactionsTotal.WithLabelValues(tags["operation"], tags["type"]).Inc()
	case "category_mutation":
		m.categoriesTotal.WithLabelValues(tags["operation"]).Inc()
	case "event_published":
		m.eventsPublishedTotal.WithLabelValues(tags["type"], tags["status"]).Inc()
	case "demo_transaction_generated":
		m.demoTransactionsTotal.Inc()
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case "stats.balance", "stats.monthly", "stats.categories":
		m.statsQueryDuration.WithLabelValues(name).Observe(float64(duration.Milliseconds()))
	case "cleanup":
		m.cleanupDuration.Observe(duration.Seconds())
		m.lastCleanupTimestamp.SetToCurrentTime()
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case "transaction_amount":
		m.transactionAmount.WithLabelValues(tags["type"]).Observe(value)
	case "cleanup_deleted":
		if kind := tags["kind"]; kind != "" {
			m.cleanupDeletedTotal.WithLabelValues(kind).Add(value)
		}
	}
}
