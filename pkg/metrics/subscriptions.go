package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SubscriptionMetrics records subscription lifecycle activity.
type SubscriptionMetrics struct {
	transitions *prometheus.CounterVec
}

// NewSubscriptionMetrics registers the subscription metrics on the provided registerer.
func NewSubscriptionMetrics(reg prometheus.Registerer) *SubscriptionMetrics {
	if reg == nil {
		return &SubscriptionMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_transitions",
		Help: "Subscription status transitions by from/to state.",
	}, []string{"from", "to"})
	reg.MustRegister(transitions)
	return &SubscriptionMetrics{transitions: transitions}
}

// IncTransition increments the transition counter for a status change.
func (s *SubscriptionMetrics) IncTransition(from, to string) {
	if s == nil || s.transitions == nil {
		return
	}
	s.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}
