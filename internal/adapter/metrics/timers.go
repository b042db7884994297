package metrics

import "github.com/prometheus/client_golang/prometheus"

// TimerMetrics holds Prometheus metrics for timer views and custom timer creation.
type TimerMetrics struct {
	Created  prometheus.Counter
	Rejected *prometheus.CounterVec
	Views    *prometheus.CounterVec
}

// NewTimerMetrics creates and registers timer metrics on the given registry.
func NewTimerMetrics(reg prometheus.Registerer) *TimerMetrics {
	m := &TimerMetrics{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "custom_timer",
			Name:      "created_total",
			Help:      "Total number of custom timers created.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "custom_timer",
			Name:      "rejected_total",
			Help:      "Total number of rejected custom timer submissions, by reason.",
		}, []string{"reason"}),
		Views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "views_total",
			Help:      "Total number of timer page views, by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.Created, m.Rejected, m.Views)
	return m
}
