package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application metric instruments, registered on the default registry and
// exposed through the /metrics endpoint.
var (
	PlansBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trip_plans_built_total",
		Help: "Total number of itinerary plans assembled",
	})

	PlansNoMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trip_plans_no_matches_total",
		Help: "Plans that matched no candidates for the requested location",
	})

	SchedulesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trip_schedules_saved_total",
		Help: "Total number of schedules persisted",
	})

	ScheduleSaveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trip_schedule_save_errors_total",
		Help: "Schedule persistence failures (after rollback)",
	})

	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trip_reminders_sent_total",
		Help: "Reminder notifications dispatched, by kind",
	}, []string{"kind"})

	BillingRefunds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trip_billing_refunds_total",
		Help: "Compensating refunds issued after a failed schedule save",
	})
)
