package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Run level metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Per notification metrics
	NotificationsSent    *prometheus.CounterVec
	NotificationsFailed  *prometheus.CounterVec
	NotificationsSkipped *prometheus.CounterVec
	DeliveryLatency      prometheus.Histogram

	// Mirror metrics
	SourceSyncDuration   prometheus.Histogram
	SourceEventsUpserted prometheus.Counter

	// Escalation metrics
	EscalationsTotal prometheus.Counter
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of trigger runs by outcome",
		}, []string{"trigger", "outcome"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full trigger run",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"trigger"}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of successfully delivered notifications",
		}, []string{"trigger"}),
		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of failed delivery attempts",
		}, []string{"trigger"}),
		NotificationsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_skipped_total",
			Help:      "Total number of notifications skipped without an attempt",
		}, []string{"trigger", "reason"}),
		DeliveryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Round trip time of a single delivery attempt",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		SourceSyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_sync_duration_seconds",
			Help:      "Time spent refreshing the event mirror",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		SourceEventsUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_events_upserted_total",
			Help:      "Total number of event rows upserted from the source",
		}),
		EscalationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Total number of operator alerts raised",
		}),
	}
}
