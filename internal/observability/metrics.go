package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksCreated counts registry task creations.
	TasksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_tasks_created_total",
			Help: "Total number of tasks created",
		},
	)
	// TasksDeleted counts registry task deletions.
	TasksDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_tasks_deleted_total",
			Help: "Total number of tasks deleted",
		},
	)
	// TaskTransitions counts task state transitions by resulting state.
	TaskTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_task_transitions_total",
			Help: "Total number of task state transitions",
		},
		[]string{"state"},
	)
	// FixAttemptsStarted counts workflow attempts started.
	FixAttemptsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_fix_attempts_started_total",
			Help: "Total number of fix workflow attempts started",
		},
	)
	// FixAttemptsFinished counts terminal workflow outcomes by final state.
	FixAttemptsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_fix_attempts_finished_total",
			Help: "Total number of fix workflow attempts finished",
		},
		[]string{"state"},
	)
	// EventsPublished counts bus events by kind.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_events_published_total",
			Help: "Total number of events published to the notification bus",
		},
		[]string{"kind"},
	)
)
