package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vaxtrack",
			Subsystem: "schedule",
			Name:      "generations_total",
			Help:      "Schedule generation requests by outcome.",
		},
		[]string{"outcome"},
	)

	remindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vaxtrack",
			Subsystem: "schedule",
			Name:      "reminders_total",
			Help:      "Reminders produced, by urgency level.",
		},
		[]string{"urgency"},
	)
)

func observe(rs []Reminder, err error) {
	switch {
	case err == nil:
		generationsTotal.WithLabelValues("ok").Inc()
	case isValidation(err):
		generationsTotal.WithLabelValues("invalid").Inc()
	default:
		generationsTotal.WithLabelValues("error").Inc()
	}
	for _, r := range rs {
		remindersTotal.WithLabelValues(string(r.UrgencyLevel)).Inc()
	}
}
