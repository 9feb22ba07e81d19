// internal/workers/chatbot/handle-message/handler.go
package handlemessage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"support-workers/internal/chatbot/flow"
	"support-workers/internal/chatbot/textnorm"
	"support-workers/internal/common/camunda"
	apperrors "support-workers/internal/common/errors"
	"support-workers/internal/common/logger"
	"support-workers/internal/common/metrics"
	"support-workers/internal/common/observability"
	"support-workers/internal/models"
	"support-workers/internal/support/notify"
	"support-workers/internal/support/sessions"
)

const (
	TaskType = "support-handle-message"

	maxTicketAttempts = 3
)

type Handler struct {
	config       *Config
	controller   *flow.Controller
	sessions     SessionStore
	tickets      models.TicketRepository
	publisher    notify.Publisher
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(
	config *Config,
	controller *flow.Controller,
	sessionStore SessionStore,
	tickets models.TicketRepository,
	publisher notify.Publisher,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		controller:   controller,
		sessions:     sessionStore,
		tickets:      tickets,
		publisher:    publisher,
		obs:          obs,
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
	span.SetAttributes(attribute.String("session.id", input.SessionID))

	output, err := h.Execute(ctx, input)
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	span.SetAttributes(
		attribute.String("chat.action", output.Action),
		attribute.String("chat.phase", output.Phase),
	)
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

// Execute runs one conversation turn under the session lock. Ticket and
// notification side effects are best-effort; the new state is saved even
// when they fail.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.SessionID == "" {
		return nil, apperrors.NewInvalidInputError("sessionId is required")
	}
	log := h.logger.WithFields(map[string]interface{}{"sessionId": input.SessionID})

	unlock, err := h.sessions.Lock(ctx, input.SessionID)
	if errors.Is(err, sessions.ErrSessionBusy) {
		metrics.SessionLockConflicts.Inc()
		return nil, apperrors.NewSessionBusyError(input.SessionID)
	}
	if err != nil {
		return nil, apperrors.NewSessionLoadFailedError(input.SessionID, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release session lock", map[string]interface{}{"error": err.Error()})
		}
	}()

	state, err := h.sessions.Load(ctx, input.SessionID)
	if err != nil {
		return nil, apperrors.NewSessionLoadFailedError(input.SessionID, err)
	}

	env := flow.Env{AgentsOnline: h.agentsOnline(ctx, log)}
	turn := h.controller.Respond(state, input.Utterance, env)

	log.Debug("turn interpreted", map[string]interface{}{
		"tokens": len(textnorm.Tokens(input.Utterance)),
		"action": turn.Resolved.Action,
		"from":   state.Phase,
		"to":     turn.State.Phase,
	})

	if turn.Resolved.Action == flow.ActionCreateTicket {
		turn = h.openTicket(ctx, input.SessionID, turn, log)
	}
	for _, effect := range turn.Effects {
		h.apply(ctx, input.SessionID, effect, log)
	}

	if err := h.sessions.Save(ctx, input.SessionID, turn.State); err != nil {
		return nil, apperrors.NewSessionSaveFailedError(input.SessionID, err)
	}

	output := &Output{
		Reply:        turn.Resolved.Text,
		QuickReplies: turn.Resolved.QuickReplies,
		Silent:       turn.Resolved.Action == flow.ActionSilent || turn.Resolved.Text == "",
		Action:       string(turn.Resolved.Action),
		Phase:        string(turn.State.Phase),
		TicketNumber: turn.State.TicketNumber,
	}
	if turn.Resolved.Intent != nil {
		output.TopicID = turn.Resolved.Intent.Topic.ID
		metrics.IntentResolutions.WithLabelValues(output.TopicID, turn.Resolved.Intent.Kind.String()).Inc()
	}

	if !output.Silent && turn.State.HasActiveTicket() {
		if turn.Resolved.Action != flow.ActionCreateTicket && h.agentIsHandling(ctx, input.SessionID, turn.State.TicketNumber, log) {
			output.Silent = true
		} else {
			h.record(ctx, turn.State.TicketNumber, flow.SenderBot, output.Reply, log)
		}
	}
	if output.Silent {
		output.Reply = ""
	}
	if output.QuickReplies == nil || output.Silent {
		output.QuickReplies = []string{}
	}

	metrics.ConversationActions.WithLabelValues(output.Action).Inc()
	if h.obs != nil {
		h.obs.RecordTurn(ctx, output.Action, output.Phase)
	}
	return output, nil
}

func (h *Handler) agentsOnline(ctx context.Context, log logger.Logger) bool {
	online, found, err := h.sessions.AgentsOnline(ctx)
	if err != nil {
		log.Warn("agents presence unavailable, using configured default", map[string]interface{}{"error": err.Error()})
		return h.config.AgentsOnline
	}
	if !found {
		return h.config.AgentsOnline
	}
	return online
}

// agentIsHandling reports whether a human agent has taken the session's
// ticket over, in which case the bot stays quiet.
func (h *Handler) agentIsHandling(ctx context.Context, sessionID, ticketNumber string, log logger.Logger) bool {
	ticket, err := h.tickets.GetTicket(ctx, ticketNumber)
	if err != nil {
		log.Warn("failed to read ticket status", map[string]interface{}{
			"ticketNumber": ticketNumber,
			"error":        err.Error(),
		})
		return false
	}
	if ticket == nil || (ticket.SessionID != "" && ticket.SessionID != sessionID) {
		return false
	}
	return ticket.Status == models.TicketStatusInProgress
}

// openTicket persists the ticket a turn opens. A number already owned by
// another ticket is replaced with a fresh one and the insert retried, so the
// session never points at someone else's ticket.
func (h *Handler) openTicket(ctx context.Context, sessionID string, turn flow.Turn, log logger.Logger) flow.Turn {
	for attempt := 1; ; attempt++ {
		var create *flow.Effect
		for i := range turn.Effects {
			if turn.Effects[i].Kind == flow.EffectCreateTicket {
				create = &turn.Effects[i]
				break
			}
		}
		if create == nil {
			return turn
		}

		ticket := &models.Ticket{
			TicketNumber: create.TicketNumber,
			SessionID:    sessionID,
			UserName:     create.UserName,
			Description:  create.Text,
			Status:       models.TicketStatusPending,
		}
		err := h.tickets.CreateTicket(ctx, ticket)
		if err == nil {
			metrics.TicketsCreated.Inc()
			log.Info("ticket created", map[string]interface{}{"ticketNumber": ticket.TicketNumber})
			return turn
		}
		if errors.Is(err, models.ErrTicketExists) && attempt < maxTicketAttempts {
			number := h.controller.AnotherTicketNumber(ticket.TicketNumber)
			log.Warn("ticket number taken, renumbering", map[string]interface{}{
				"ticketNumber": ticket.TicketNumber,
				"replacement":  number,
			})
			turn = turn.WithTicketNumber(number)
			continue
		}
		log.Error("failed to create ticket", map[string]interface{}{
			"ticketNumber": ticket.TicketNumber,
			"error":        apperrors.NewTicketCreateFailedError(ticket.TicketNumber, err).Error(),
		})
		return turn
	}
}

func (h *Handler) apply(ctx context.Context, sessionID string, effect flow.Effect, log logger.Logger) {
	switch effect.Kind {
	case flow.EffectRecordMessage:
		h.record(ctx, effect.TicketNumber, effect.Sender, effect.Text, log)

	case flow.EffectNotify:
		event := notify.NewEvent(effect.Event, sessionID, effect.TicketNumber, effect.UserName)
		event.Description = effect.Text
		if err := h.publisher.Publish(ctx, event); err != nil {
			log.Warn("support event not fully delivered", map[string]interface{}{
				"event": effect.Event,
				"error": apperrors.NewNotificationPublishFailedError(h.publisher.Name(), err).Error(),
			})
		}
	}
}

func (h *Handler) record(ctx context.Context, ticketNumber, sender, text string, log logger.Logger) {
	msg := &models.TicketMessage{TicketNumber: ticketNumber, Sender: sender, Text: text}
	if err := h.tickets.AppendMessage(ctx, msg); err != nil {
		log.Warn("failed to record ticket message", map[string]interface{}{
			"ticketNumber": ticketNumber,
			"sender":       sender,
			"error":        err.Error(),
		})
	}
}
