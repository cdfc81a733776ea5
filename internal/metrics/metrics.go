// Package metrics holds the Prometheus collectors for the poll loop.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "siriuswatch_cycles_total",
			Help: "Total number of completed poll cycles",
		},
	)

	EventsNotifiedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "siriuswatch_events_notified_total",
			Help: "Total number of new course events notified",
		},
	)

	NewsNotifiedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "siriuswatch_news_notified_total",
			Help: "Total number of new course-pages messages notified",
		},
	)

	CourseErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "siriuswatch_course_errors_total",
			Help: "Total number of per-course poll failures",
		},
	)

	DeliveryErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "siriuswatch_delivery_errors_total",
			Help: "Total number of per-channel delivery failures",
		},
	)

	PersistErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "siriuswatch_persist_errors_total",
			Help: "Total number of state persistence failures",
		},
	)

	SeenEvents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "siriuswatch_seen_events",
			Help: "Current size of the seen-event set",
		},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "siriuswatch_cycle_duration_seconds",
			Help:    "Duration of poll cycles",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(CyclesTotal)
	prometheus.MustRegister(EventsNotifiedTotal)
	prometheus.MustRegister(NewsNotifiedTotal)
	prometheus.MustRegister(CourseErrorsTotal)
	prometheus.MustRegister(DeliveryErrorsTotal)
	prometheus.MustRegister(PersistErrorsTotal)
	prometheus.MustRegister(SeenEvents)
	prometheus.MustRegister(CycleDuration)
}
