package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the domain-action engine.
type Metrics struct {
	ActionsTotal             *prometheus.CounterVec
	ActionDuration           *prometheus.HistogramVec
	NotificationsDispatched  *prometheus.CounterVec
	NotificationFailures     prometheus.Counter
	AuditEntriesAppended     prometheus.Counter
	AuditMirrorDropped       prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a specific registerer so tests can use an
// isolated registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_domain_actions_total",
			Help: "Domain actions by name and outcome (committed, rejected, failed)",
		}, []string{"action", "outcome"}),
		ActionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinica_domain_action_duration_seconds",
			Help:    "Wall time per domain action including the transaction",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		NotificationsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_notifications_dispatched_total",
			Help: "Notifications persisted by triggering event",
		}, []string{"event"}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clinica_notification_failures_total",
			Help: "Notification writes that failed and were swallowed",
		}),
		AuditEntriesAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "clinica_audit_entries_total",
			Help: "Audit log entries appended",
		}),
		AuditMirrorDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "clinica_audit_mirror_dropped_total",
			Help: "Audit events dropped by the Kafka mirror because its buffer was full",
		}),
	}
}

// ObserveAction records one finished domain action.
func (m *Metrics) ObserveAction(action, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(seconds)
}
