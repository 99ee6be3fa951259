package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IntakeMetrics exposes counters/histograms for the lead intake endpoint.
type IntakeMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	notifyFailures prometheus.Counter
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "intake",
			Name:      "requests_total",
			Help:      "Intake requests by terminal outcome",
		}, []string{"outcome", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leads",
			Subsystem: "intake",
			Name:      "request_duration_seconds",
			Help:      "Latency of intake request processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "notify",
			Name:      "failures_total",
			Help:      "Operator notifications that could not be sent",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.notifyFailures)
	return m
}

// ObserveRequest records one terminal outcome of the intake state machine.
func (m *IntakeMetrics) ObserveRequest(outcome string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome, statusLabel(status)).Inc()
	m.requestLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *IntakeMetrics) ObserveNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 200 && status < 300:
		return "2xx"
	default:
		return "other"
	}
}
