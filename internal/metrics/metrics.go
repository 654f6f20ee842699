// Package metrics содержит prometheus-метрики процесса напоминаний и HTTP API.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReminderMetrics интерфейс для метрик напоминаний
type ReminderMetrics interface {
	IncReminderSent(leadDays int)
	IncReminderFailed(leadDays int)
	IncSubscriptionExpired()
	IncWorkflowStarted(reason string)
	IncWorkflowStartFailed(reason string)
}

type reminderMetrics struct {
	reminders        *prometheus.CounterVec
	expired          prometheus.Counter
	workflowsStarted *prometheus.CounterVec
}

// NewReminderMetrics регистрирует метрики напоминаний в registry.
func NewReminderMetrics(registry prometheus.Registerer) ReminderMetrics {
	reminders := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_total",
			Help: "The total number of renewal reminders by delivery result",
		},
		[]string{"result", "lead_days"},
	)

	expired := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "The total number of subscriptions marked expired by the reminder workflow",
		},
	)

	workflowsStarted := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_workflows_started_total",
			Help: "The total number of reminder workflow start attempts",
		},
		[]string{"reason", "result"},
	)

	return &reminderMetrics{
		reminders:        reminders,
		expired:          expired,
		workflowsStarted: workflowsStarted,
	}
}

func (m *reminderMetrics) IncReminderSent(leadDays int) {
	m.reminders.WithLabelValues("sent", label(leadDays)).Inc()
}

func (m *reminderMetrics) IncReminderFailed(leadDays int) {
	m.reminders.WithLabelValues("failed", label(leadDays)).Inc()
}

func (m *reminderMetrics) IncSubscriptionExpired() {
	m.expired.Inc()
}

func (m *reminderMetrics) IncWorkflowStarted(reason string) {
	m.workflowsStarted.WithLabelValues(reason, "ok").Inc()
}

func (m *reminderMetrics) IncWorkflowStartFailed(reason string) {
	m.workflowsStarted.WithLabelValues(reason, "error").Inc()
}

func label(n int) string {
	return strconv.Itoa(n)
}

// Noop метрики, которые ничего не пишут. Нужны в тестах.
type Noop struct{}

func (Noop) IncReminderSent(int)           {}
func (Noop) IncReminderFailed(int)         {}
func (Noop) IncSubscriptionExpired()       {}
func (Noop) IncWorkflowStarted(string)     {}
func (Noop) IncWorkflowStartFailed(string) {}
