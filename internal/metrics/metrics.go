// Package metrics holds the gateway's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's request-path counters and gauges.
type Metrics struct {
	EnglishMessagesTotal      prometheus.Counter
	NovelMessagesTotal        prometheus.Counter
	ReportsSubmittedTotal     prometheus.Counter
	ReportsRejectedTotal      prometheus.Counter
	ComplianceViolationsTotal *prometheus.CounterVec // labels: severity
	AgentComplianceStatus     *prometheus.GaugeVec   // labels: agent_id
}

// New registers and returns the gateway's metrics against the default
// Prometheus registry.
func New() *Metrics {
	return &Metrics{
		EnglishMessagesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "english_messages_total",
			Help: "Total number of messages classified as English and admitted unconditionally.",
		}),
		NovelMessagesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "novel_messages_total",
			Help: "Total number of messages classified as novel-language and admitted.",
		}),
		ReportsSubmittedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reports_submitted_total",
			Help: "Total number of English translation reports accepted.",
		}),
		ReportsRejectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reports_rejected_total",
			Help: "Total number of English translation reports rejected.",
		}),
		ComplianceViolationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_violations_total",
			Help: "Total number of compliance violations recorded, by resulting enforcement severity.",
		}, []string{"severity"}),
		AgentComplianceStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agent_compliance_status",
			Help: "Current enforcement state per agent (0=active, 1=throttled, 2=quarantined, 3=disabled).",
		}, []string{"agent_id"}),
	}
}

// NewUnregistered builds a Metrics instance bound to a private registry —
// used by tests so repeated construction doesn't collide on the global
// default registry.
func NewUnregistered() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		EnglishMessagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "english_messages_total",
			Help: "Total number of messages classified as English and admitted unconditionally.",
		}),
		NovelMessagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "novel_messages_total",
			Help: "Total number of messages classified as novel-language and admitted.",
		}),
		ReportsSubmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reports_submitted_total",
			Help: "Total number of English translation reports accepted.",
		}),
		ReportsRejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reports_rejected_total",
			Help: "Total number of English translation reports rejected.",
		}),
		ComplianceViolationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_violations_total",
			Help: "Total number of compliance violations recorded, by resulting enforcement severity.",
		}, []string{"severity"}),
		AgentComplianceStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agent_compliance_status",
			Help: "Current enforcement state per agent (0=active, 1=throttled, 2=quarantined, 3=disabled).",
		}, []string{"agent_id"}),
	}, reg
}
