package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthorizationMetrics counts guard decisions.
type AuthorizationMetrics struct {
	decisions *prometheus.CounterVec
}

// NewAuthorizationMetrics registers the authorization counters on reg. A nil
// registerer yields a no-op recorder.
func NewAuthorizationMetrics(reg prometheus.Registerer) *AuthorizationMetrics {
	if reg == nil {
		return &AuthorizationMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Authorization decisions by resource, action, result and reason code.",
	}, []string{"resource", "action", "result", "reason"})
	reg.MustRegister(decisions)
	return &AuthorizationMetrics{decisions: decisions}
}

func (m *AuthorizationMetrics) Allowed(resource, action string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(resource), normalizeLabel(action), "allow", "none").Inc()
}

func (m *AuthorizationMetrics) Denied(resource, action, reason string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(resource), normalizeLabel(action), "deny", normalizeLabel(reason)).Inc()
}

// CardMetrics counts membership card state machine outcomes.
type CardMetrics struct {
	transitions *prometheus.CounterVec
}

func NewCardMetrics(reg prometheus.Registerer) *CardMetrics {
	if reg == nil {
		return &CardMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "card_transitions_total",
		Help: "Membership card transitions by event and outcome code.",
	}, []string{"event", "outcome"})
	reg.MustRegister(transitions)
	return &CardMetrics{transitions: transitions}
}

// Observe records one transition attempt. outcome is "ok" or an error code.
func (m *CardMetrics) Observe(event, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
