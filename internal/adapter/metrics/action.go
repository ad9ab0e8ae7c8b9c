package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/applyme/internal/domain"
)

// ActionMetrics holds Prometheus metrics for user actions. It implements
// app.ActionObserver.
type ActionMetrics struct {
	ActionsTotal   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
}

// NewActionMetrics creates and registers action metrics on the given registry.
func NewActionMetrics(reg prometheus.Registerer) *ActionMetrics {
	m := &ActionMetrics{
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_total",
			Help:      "Total number of user actions, by action and outcome.",
		}, []string{"action", "outcome"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Time an action spent in flight, in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"action"}),
	}

	reg.MustRegister(m.ActionsTotal, m.ActionDuration)
	return m
}

// ObserveAction records one finished action. Rejected actions never ran,
// so only their count is recorded.
func (m *ActionMetrics) ObserveAction(action domain.Action, outcome string, duration time.Duration) {
	m.ActionsTotal.WithLabelValues(string(action), outcome).Inc()
	if outcome == "rejected" {
		return
	}
	m.ActionDuration.WithLabelValues(string(action)).Observe(duration.Seconds())
}
