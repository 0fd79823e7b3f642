package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famcal_events_scheduled_total",
		Help: "Count of schedule attempts by result",
	}, []string{"result"})

	eventsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "famcal_events_cancelled_total",
		Help: "Count of cancelled calendar events",
	})

	eventsUpdated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famcal_events_updated_total",
		Help: "Count of update attempts by result",
	}, []string{"result"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famcal_partner_notifications_total",
		Help: "Count of partner notification deliveries by kind and result",
	}, []string{"kind", "result"})
)

// ObserveSchedule records the outcome of a schedule attempt.
// result is one of "scheduled", "conflict", "error".
func ObserveSchedule(result string) {
	eventsScheduled.WithLabelValues(result).Inc()
}

// ObserveUpdate records the outcome of an update attempt.
// result is one of "updated", "conflict", "rejected", "error".
func ObserveUpdate(result string) {
	eventsUpdated.WithLabelValues(result).Inc()
}

// ObserveCancellations records n cancelled events.
func ObserveCancellations(n int) {
	eventsCancelled.Add(float64(n))
}

// ObserveNotification records a notification delivery attempt.
func ObserveNotification(kind string, ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	notifications.WithLabelValues(kind, result).Inc()
}
