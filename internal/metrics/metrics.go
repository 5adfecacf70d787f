package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ReviewDesk/internal/domain"
)

const namespace = "reviewdesk"

// Metrics holds the collectors for feed refreshes and author notifications.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	refreshes       prometheus.Counter
	refreshDuration prometheus.Histogram
	sourceFailures  *prometheus.CounterVec
	sourceEvents    *prometheus.GaugeVec
	dispatches      *prometheus.CounterVec
}

// New registers all collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "refreshes_total",
			Help:      "Number of completed feed refreshes.",
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of a feed refresh including the slowest source.",
			Buckets:   prometheus.DefBuckets,
		}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "failures_total",
			Help:      "Source errors by source and kind.",
		}, []string{"source", "kind"}),
		sourceEvents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "events",
			Help:      "Events contributed by a source in the last refresh.",
		}, []string{"source"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "dispatches_total",
			Help:      "Author notifications by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(m.refreshes, m.refreshDuration, m.sourceFailures, m.sourceEvents, m.dispatches)
	return m
}

func (m *Metrics) ObserveRefresh(d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.Inc()
	m.refreshDuration.Observe(d.Seconds())
}

func (m *Metrics) SourceFailed(source string, kind domain.SourceErrorKind) {
	if m == nil {
		return
	}
	m.sourceFailures.WithLabelValues(source, string(kind)).Inc()
}

func (m *Metrics) SourceEvents(source string, n int) {
	if m == nil {
		return
	}
	m.sourceEvents.WithLabelValues(source).Set(float64(n))
}

func (m *Metrics) Dispatch(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "sent"
	}
	m.dispatches.WithLabelValues(outcome).Inc()
}
