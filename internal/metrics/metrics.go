package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	decisionsTotal   *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	eventsTotal      *prometheus.CounterVec
	eventsDropped    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		decisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gamewallet",
				Subsystem: "approval",
				Name:      "decisions_total",
				Help:      "Total approval decisions partitioned by request kind, action and result.",
			},
			[]string{"kind", "action", "result"},
		),
		decisionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gamewallet",
				Subsystem: "approval",
				Name:      "decision_duration_seconds",
				Help:      "Time spent deciding a request, including the store transaction.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gamewallet",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total event deliveries partitioned by sink and result.",
			},
			[]string{"sink", "result"},
		),
		eventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gamewallet",
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Events dropped because the dispatch queue was full or closed.",
			},
		),
	}
}

func (m *Metrics) ObserveDecision(kind, action, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.decisionsTotal.WithLabelValues(kind, action, result).Inc()
	m.decisionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveEvent(sink string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsTotal.WithLabelValues(sink, result).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}
