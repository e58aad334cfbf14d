package observe

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rpc_client"

// Metrics records call events as Prometheus series
type Metrics struct {
	attempts        *prometheus.CounterVec
	calls           *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	callAttempts    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Dispatch attempts by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Logical calls by outcome",
			},
			[]string{"outcome"},
		),
		attemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attempt_duration_seconds",
				Help:      "Duration of a single dispatch attempt",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		callAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_attempts",
				Help:      "Attempts made per logical call",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.attempts, m.calls, m.attemptDuration, m.callAttempts} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// OnAttempt implements Observer
func (m *Metrics) OnAttempt(e AttemptEvent) {
	m.attempts.WithLabelValues(e.Endpoint, outcome(e.Err, e.Kind.String())).Inc()
	if e.Endpoint != "" {
		m.attemptDuration.WithLabelValues(e.Endpoint).Observe(e.Duration.Seconds())
	}
}

// OnResult implements Observer
func (m *Metrics) OnResult(e ResultEvent) {
	m.calls.WithLabelValues(outcome(e.Err, e.Kind.String())).Inc()
	m.callAttempts.Observe(float64(e.Attempts))
}

func outcome(err error, kind string) string {
	if err == nil {
		return "success"
	}
	return kind
}
