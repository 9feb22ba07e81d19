// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"support-workers/internal/common/config"
	"support-workers/internal/common/logger"
	"support-workers/internal/common/metrics"
	"support-workers/internal/common/observability"
)

// Manager opens job workers and closes them on shutdown.
type Manager struct {
	client  zbc.Client
	obs     *observability.Observability
	logger  logger.Logger
	workers []worker.JobWorker
}

func NewManager(client zbc.Client, obs *observability.Observability, log logger.Logger) *Manager {
	return &Manager{client: client, obs: obs, logger: log}
}

// Start opens a worker for taskType unless it is disabled. It reports
// whether a worker was opened.
func (m *Manager) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !wcfg.Enabled {
		m.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := m.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, m.obs, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()
	m.workers = append(m.workers, jw)

	m.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Stop closes every worker and waits for in-flight jobs.
func (m *Manager) Stop() {
	for _, jw := range m.workers {
		jw.Close()
	}
	for _, jw := range m.workers {
		jw.AwaitClose()
	}
	m.logger.Info("workers stopped", map[string]interface{}{"count": len(m.workers)})
}

// Instrument records active jobs and duration around handler.
func Instrument(taskType string, obs *observability.Observability, handler worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if obs != nil {
				obs.RecordJobDuration(context.Background(), taskType, elapsed)
			}
		}()

		handler(client, job)
	}
}
