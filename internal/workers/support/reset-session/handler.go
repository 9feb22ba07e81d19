// internal/workers/support/reset-session/handler.go
package resetsession

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"support-workers/internal/common/camunda"
	apperrors "support-workers/internal/common/errors"
	"support-workers/internal/common/logger"
	"support-workers/internal/common/observability"
	"support-workers/internal/support/sessions"
)

const (
	TaskType = "support-reset-session"
)

type Handler struct {
	config       *Config
	sessions     SessionStore
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, sessionStore SessionStore, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sessions:     sessionStore,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := observability.Tracer().Start(ctx, TaskType)
	defer span.End()

	input, err := parseInput(job.Variables)
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(ctx, client, job, output, h.logger)
}

func parseInput(variables string) (*Input, error) {
	result, err := inputSchema.ValidateJSON([]byte(variables))
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// Execute drops the stored conversation so the next message starts fresh.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.SessionID == "" {
		return nil, apperrors.NewInvalidInputError("sessionId is required")
	}

	unlock, err := h.sessions.Lock(ctx, input.SessionID)
	if errors.Is(err, sessions.ErrSessionBusy) {
		return nil, apperrors.NewSessionBusyError(input.SessionID)
	}
	if err != nil {
		return nil, apperrors.NewSessionLoadFailedError(input.SessionID, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn("failed to release session lock", map[string]interface{}{
				"sessionId": input.SessionID,
				"error":     err.Error(),
			})
		}
	}()

	state, err := h.sessions.Load(ctx, input.SessionID)
	if err != nil {
		return nil, apperrors.NewSessionLoadFailedError(input.SessionID, err)
	}

	if err := h.sessions.Delete(ctx, input.SessionID); err != nil {
		return nil, apperrors.NewSessionSaveFailedError(input.SessionID, err)
	}

	output := &Output{
		SessionID:     input.SessionID,
		PreviousPhase: string(state.Phase),
	}
	if state.HasActiveTicket() {
		output.OpenTicket = state.TicketNumber
	}

	h.logger.Info("session reset", map[string]interface{}{
		"sessionId":     input.SessionID,
		"previousPhase": output.PreviousPhase,
	})
	return output, nil
}
