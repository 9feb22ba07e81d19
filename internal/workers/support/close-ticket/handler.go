// internal/workers/support/close-ticket/handler.go
package closeticket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"support-workers/internal/chatbot/flow"
	"support-workers/internal/common/camunda"
	apperrors "support-workers/internal/common/errors"
	"support-workers/internal/common/logger"
	"support-workers/internal/common/metrics"
	"support-workers/internal/common/observability"
	"support-workers/internal/models"
	"support-workers/internal/support/archive"
	"support-workers/internal/support/notify"
	"support-workers/internal/support/sessions"
)

const (
	TaskType = "support-close-ticket"
)

type Handler struct {
	config       *Config
	tickets      models.TicketRepository
	sessions     SessionStore
	publisher    notify.Publisher
	archiver     Archiver
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler builds the handler. archiver may be nil when transcript
// archiving is not configured.
func NewHandler(
	config *Config,
	tickets models.TicketRepository,
	sessionStore SessionStore,
	publisher notify.Publisher,
	archiver Archiver,
	log logger.Logger,
) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tickets:      tickets,
		sessions:     sessionStore,
		publisher:    publisher,
		archiver:     archiver,
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
	span.SetAttributes(attribute.String("ticket.number", input.TicketNumber))

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

// Execute closes the ticket, tells the chat session about it once, and
// archives the transcript. Running it again for the same ticket is safe.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.TicketNumber == "" {
		return nil, apperrors.NewInvalidInputError("ticketNumber is required")
	}
	log := h.logger.WithFields(map[string]interface{}{"ticketNumber": input.TicketNumber})

	ticket, err := h.tickets.GetTicket(ctx, input.TicketNumber)
	if err != nil {
		return nil, apperrors.NewTicketUpdateFailedError(input.TicketNumber, err)
	}
	if ticket == nil {
		return nil, apperrors.NewTicketNotFoundError(input.TicketNumber)
	}

	newlyClosed := !ticket.Status.IsClosed()
	if newlyClosed {
		if err := h.tickets.UpdateTicketStatus(ctx, input.TicketNumber, models.TicketStatusClosed); err != nil {
			return nil, apperrors.NewTicketUpdateFailedError(input.TicketNumber, err)
		}
		ticket.Status = models.TicketStatusClosed
		metrics.TicketsClosed.Inc()
		log.Info("ticket closed", nil)
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = ticket.SessionID
	}

	if newlyClosed {
		event := notify.NewEvent(models.EventTicketClosed, sessionID, ticket.TicketNumber, ticket.UserName)
		if err := h.publisher.Publish(ctx, event); err != nil {
			log.Warn("ticket.closed not fully delivered", map[string]interface{}{"error": err.Error()})
		}
	}

	output := &Output{
		TicketNumber: input.TicketNumber,
		Status:       string(ticket.Status),
		Messages:     []flow.Reply{},
	}

	if sessionID != "" {
		replies, ok, err := h.acknowledge(ctx, sessionID, input.TicketNumber)
		if err != nil {
			return nil, err
		}
		output.Acknowledged = ok
		if ok {
			output.Messages = replies
			for _, r := range replies {
				if r.Sender == flow.SenderSystem {
					h.record(ctx, input.TicketNumber, r, log)
				}
			}
		}
	}

	if h.archiver != nil {
		if err := h.archive(ctx, ticket); err != nil {
			return nil, err
		}
		output.Archived = true
	}

	return output, nil
}

func (h *Handler) acknowledge(ctx context.Context, sessionID, ticketNumber string) ([]flow.Reply, bool, error) {
	unlock, err := h.sessions.Lock(ctx, sessionID)
	if errors.Is(err, sessions.ErrSessionBusy) {
		return nil, false, apperrors.NewSessionBusyError(sessionID)
	}
	if err != nil {
		return nil, false, apperrors.NewSessionLoadFailedError(sessionID, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn("failed to release session lock", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
	}()

	state, err := h.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, false, apperrors.NewSessionLoadFailedError(sessionID, err)
	}

	env := flow.Env{AgentsOnline: h.config.AgentsOnline}
	if online, found, err := h.sessions.AgentsOnline(ctx); err == nil && found {
		env.AgentsOnline = online
	}

	next, replies, ok := flow.CloseTicket(state, ticketNumber, env)
	if !ok {
		return nil, false, nil
	}
	if err := h.sessions.Save(ctx, sessionID, next); err != nil {
		return nil, false, apperrors.NewSessionSaveFailedError(sessionID, err)
	}
	return replies, true, nil
}

func (h *Handler) record(ctx context.Context, ticketNumber string, reply flow.Reply, log logger.Logger) {
	msg := &models.TicketMessage{TicketNumber: ticketNumber, Sender: reply.Sender, Text: reply.Text}
	if err := h.tickets.AppendMessage(ctx, msg); err != nil {
		log.Warn("failed to record closing message", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) archive(ctx context.Context, ticket *models.Ticket) error {
	messages, err := h.tickets.ListMessages(ctx, ticket.TicketNumber)
	if err != nil {
		return apperrors.NewArchiveFailedError(ticket.TicketNumber, err)
	}
	transcript := archive.NewTranscript(ticket, messages, time.Now())
	if err := h.archiver.Put(ctx, transcript); err != nil {
		return apperrors.NewArchiveFailedError(ticket.TicketNumber, err)
	}
	return nil
}
