// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	IntentResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_intent_resolutions_total",
			Help: "Utterances resolved against the knowledge catalog, by topic",
		},
		[]string{"topic", "kind"},
	)

	ConversationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_conversation_actions_total",
			Help: "Conversation turns by resolved action",
		},
		[]string{"action"},
	)

	TicketsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_tickets_created_total",
			Help: "Tickets opened from the chat",
		},
	)

	TicketsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_tickets_closed_total",
			Help: "Tickets closed by an agent",
		},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_notifications_failed_total",
			Help: "Support events a channel failed to deliver",
		},
		[]string{"channel", "event"},
	)

	SessionLockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_session_lock_conflicts_total",
			Help: "Messages rejected because another turn held the session",
		},
	)
)
