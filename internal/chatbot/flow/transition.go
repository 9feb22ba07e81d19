package flow

import (
	"strings"

	"support-workers/internal/models"
)

type EffectKind string

const (
	// EffectCreateTicket asks the ticket store to persist a new ticket.
	EffectCreateTicket EffectKind = "CREATE_TICKET"
	// EffectRecordMessage appends the user's utterance to the active ticket.
	EffectRecordMessage EffectKind = "RECORD_MESSAGE"
	// EffectNotify publishes a support event.
	EffectNotify EffectKind = "NOTIFY"
)

// Effect is a side effect requested by a transition. Effects are best-effort;
// the state change does not depend on them.
type Effect struct {
	Kind         EffectKind
	TicketNumber string
	UserName     string
	Sender       string
	Text         string
	Event        models.EventType
}

type Transition struct {
	State   State
	Effects []Effect
}

// Advance applies the transition table to state for a resolved utterance.
// It is pure: the same inputs always give the same output.
func Advance(state State, utterance string, resolved Resolved) Transition {
	next := state
	next.AdminPending = resolved.Action == ActionAdminPrompt

	var effects []Effect
	if state.HasActiveTicket() && resolved.Action != ActionReset {
		effects = append(effects, Effect{
			Kind:         EffectRecordMessage,
			TicketNumber: state.TicketNumber,
			Sender:       SenderUser,
			Text:         utterance,
		})
	}

	switch resolved.Action {
	case ActionReset:
		return Transition{State: NewState()}

	case ActionAdminLogin:
		next.Phase = PhaseAdminControlling
		effects = append(effects, Effect{Kind: EffectNotify, Event: models.EventAdminLogin})

	case ActionAdminLogout:
		if state.Phase == PhaseAdminControlling {
			next.Phase = PhaseIdle
		}

	case ActionAskForHuman:
		if state.Phase == PhaseIdle {
			next.Phase = PhaseAwaitingName
		}

	case ActionSubmitName:
		if state.Phase == PhaseAwaitingName && resolved.Payload != "" {
			next.Phase = PhaseAwaitingProblemDescription
			next.UserName = resolved.Payload
		}

	case ActionCreateTicket:
		if state.Phase != PhaseAwaitingProblemDescription || resolved.Payload == "" {
			break
		}
		userName := state.UserName
		if userName == "" {
			userName = defaultUserName
		}
		description := strings.TrimSpace(utterance)

		next.Phase = PhaseTicketActive
		next.TicketNumber = resolved.Payload
		effects = append(effects,
			Effect{Kind: EffectCreateTicket, TicketNumber: resolved.Payload, UserName: userName, Text: description},
			Effect{Kind: EffectNotify, Event: models.EventTicketCreated, TicketNumber: resolved.Payload, UserName: userName, Text: description},
		)
	}

	return Transition{State: next, Effects: effects}
}
