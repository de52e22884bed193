package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Decisions        *prometheus.CounterVec
	UpstreamFailures prometheus.Counter
	RequestDuration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptgate_decisions_total",
				Help: "Requests by pipeline decision",
			},
			[]string{"decision"},
		),
		UpstreamFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "promptgate_upstream_failures_total",
				Help: "Forward attempts that failed at the transport level",
			},
		),
		RequestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "promptgate_request_duration_seconds",
				Help:    "Inference request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(m.Decisions, m.UpstreamFailures, m.RequestDuration)
	return m
}

func (m *Metrics) ObserveRequest(decision string, start time.Time) {
	m.Decisions.WithLabelValues(decision).Inc()
	m.RequestDuration.Observe(time.Since(start).Seconds())
}
