// Package metrics exposes Prometheus counters for the prediction scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "raceday"

// Metrics holds the service's Prometheus instruments.
type Metrics struct {
	PollTicks         prometheus.Counter
	DateMismatchDrops prometheus.Counter
	StartTimeParseErr prometheus.Counter
	PredictionsFired  *prometheus.CounterVec // label: kind=final|initial
	PipelineFailures  *prometheus.CounterVec // label: kind=final|initial
	NotificationsSent prometheus.Counter
	NotificationsFail prometheus.Counter
}

// New registers the service metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PollTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Scheduler poll ticks executed.",
		}),
		DateMismatchDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_mismatch_drops_total",
			Help:      "Listed races dropped because their reported date disagreed with the requested date.",
		}),
		StartTimeParseErr: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "start_time_parse_failures_total",
			Help:      "Races skipped because their start time was unparseable.",
		}),
		PredictionsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_fired_total",
			Help:      "Prediction pipeline runs that completed successfully.",
		}, []string{"kind"}),
		PipelineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Prediction pipeline runs that failed and stay eligible for retry.",
		}, []string{"kind"}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Recommendation notifications delivered.",
		}),
		NotificationsFail: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Recommendation notifications that could not be delivered.",
		}),
	}
}
