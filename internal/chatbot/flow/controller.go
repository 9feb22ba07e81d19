package flow

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"support-workers/internal/chatbot/intent"
	"support-workers/internal/chatbot/knowledge"
	"support-workers/internal/chatbot/textnorm"
)

// Action is the kind of reply Interpret decided on. Advance derives the next
// state from it.
type Action string

const (
	ActionKnowledge      Action = "KNOWLEDGE"
	ActionReset          Action = "RESET"
	ActionWelcome        Action = "WELCOME"
	ActionAdminPrompt    Action = "ADMIN_PROMPT"
	ActionAdminLogin     Action = "ADMIN_LOGIN"
	ActionAdminLogout    Action = "ADMIN_LOGOUT"
	ActionSilent         Action = "SILENT"
	ActionAskForHuman    Action = "ASK_FOR_HUMAN"
	ActionInform         Action = "INFORM"
	ActionSubmitName     Action = "SUBMIT_NAME"
	ActionRejectName     Action = "REJECT_NAME"
	ActionCreateTicket   Action = "CREATE_TICKET"
	ActionAskDescription Action = "ASK_DESCRIPTION"
	ActionUnknownCommand Action = "UNKNOWN_COMMAND"
)

// Resolved is the interpreted intent of one utterance.
type Resolved struct {
	Action       Action
	Text         string
	QuickReplies []string
	// Payload carries the accepted name for ActionSubmitName and the new
	// ticket number for ActionCreateTicket.
	Payload string
	// Intent is set for ActionKnowledge.
	Intent *intent.Result
}

// Env is the per-turn environment that is not part of the session state.
type Env struct {
	AgentsOnline bool
}

const DefaultTicketPrefix = "TK"

const defaultUserName = "Usuário"

type Options struct {
	TicketPrefix string
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Controller interprets utterances against a session state. It holds no
// per-session data and is safe for concurrent use.
type Controller struct {
	catalog      *knowledge.Catalog
	denylist     map[string]struct{}
	ticketPrefix string
	clock        func() time.Time
}

func NewController(catalog *knowledge.Catalog, opts Options) *Controller {
	if catalog == nil {
		panic("flow: nil catalog")
	}
	if opts.TicketPrefix == "" {
		opts.TicketPrefix = DefaultTicketPrefix
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	denylist := make(map[string]struct{})
	addLabels := func(labels ...string) {
		for _, l := range labels {
			if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
				denylist[l] = struct{}{}
			}
		}
	}
	addLabels(reservedNames...)
	addLabels(catalog.QuickReplyLabels()...)
	addLabels(cancelReplies...)
	addLabels(adminReplies...)
	addLabels(offlineReplies...)
	addLabels(defaultReplies...)
	addLabels(mainMenu(true)...)
	addLabels(mainMenu(false)...)

	return &Controller{
		catalog:      catalog,
		denylist:     denylist,
		ticketPrefix: opts.TicketPrefix,
		clock:        opts.Clock,
	}
}

func (c *Controller) Catalog() *knowledge.Catalog {
	return c.catalog
}

// Interpret decides how to answer utterance in state. It does not change
// state; feed the result to Advance.
func (c *Controller) Interpret(state State, utterance string, env Env) Resolved {
	trimmed := strings.TrimSpace(utterance)
	msg := strings.ToLower(trimmed)
	isCommand := strings.HasPrefix(msg, commandPrefix)

	switch {
	case msg == CommandCancel:
		return Resolved{Action: ActionReset, Text: msgCancelled, QuickReplies: cancelReplies}
	case msg == CommandAdmin:
		return Resolved{Action: ActionAdminPrompt, Text: msgAdminPrompt, QuickReplies: adminReplies}
	case state.AdminPending && msg == strings.ToLower(AdminConfirmReply):
		return Resolved{Action: ActionAdminLogin, Text: msgAdminGranted}
	}

	if state.Phase == PhaseAdminControlling {
		if msg == CommandLogout {
			return Resolved{Action: ActionAdminLogout, Text: msgAdminLogout, QuickReplies: mainMenu(env.AgentsOnline)}
		}
		return Resolved{Action: ActionSilent}
	}

	if state.Phase == PhaseIdle {
		if _, ok := greetings[msg]; ok {
			return Resolved{Action: ActionWelcome, Text: msgWelcome, QuickReplies: mainMenu(env.AgentsOnline)}
		}
	}

	if isHumanRequest(msg) {
		switch {
		case !env.AgentsOnline:
			return Resolved{Action: ActionInform, Text: msgAgentsOffline, QuickReplies: offlineReplies}
		case state.Phase == PhaseTicketActive:
			return Resolved{Action: ActionInform, Text: msgTicketAlreadyOpen, QuickReplies: backReplies}
		case state.Phase == PhaseIdle:
			return Resolved{Action: ActionAskForHuman, Text: msgAskName}
		}
	}

	if state.Phase == PhaseAwaitingName && !isCommand {
		if !c.IsValidName(trimmed) {
			return Resolved{Action: ActionRejectName, Text: msgNameRejected}
		}
		return Resolved{
			Action:  ActionSubmitName,
			Text:    fmt.Sprintf(msgNameAccepted, trimmed),
			Payload: trimmed,
		}
	}

	if state.Phase == PhaseAwaitingProblemDescription && !isCommand {
		if trimmed == "" {
			return Resolved{Action: ActionAskDescription, Text: msgNoDescription}
		}
		ticket := c.NewTicketNumber()
		return Resolved{
			Action:       ActionCreateTicket,
			Text:         fmt.Sprintf(msgTicketCreated, ticket),
			QuickReplies: backReplies,
			Payload:      ticket,
		}
	}

	if isCommand {
		return Resolved{Action: ActionUnknownCommand, Text: msgUnknownCommand, QuickReplies: cancelReplies}
	}

	result := intent.Resolve(trimmed, c.catalog)
	replies := result.QuickReplies()
	if len(replies) == 0 {
		replies = defaultReplies
	}
	return Resolved{
		Action:       ActionKnowledge,
		Text:         result.Text(),
		QuickReplies: replies,
		Intent:       &result,
	}
}

func isHumanRequest(msg string) bool {
	folded := textnorm.Fold(msg)
	return strings.Contains(folded, "humano") || strings.Contains(folded, "atendente")
}

// IsValidName accepts input as a display name when, trimmed and lowercased,
// it is longer than one character and is not a reserved menu phrase.
func (c *Controller) IsValidName(input string) bool {
	clean := strings.ToLower(strings.TrimSpace(input))
	if utf8.RuneCountInString(clean) <= 1 {
		return false
	}
	_, reserved := c.denylist[clean]
	return !reserved
}

// NewTicketNumber builds a ticket id from the prefix and the last six digits
// of the current Unix time in milliseconds. Ids are practically unique for
// a session, not globally unique.
func (c *Controller) NewTicketNumber() string {
	return fmt.Sprintf("%s%06d", c.ticketPrefix, c.clock().UnixMilli()%1_000_000)
}

// AnotherTicketNumber returns a random ticket id with the same shape as
// NewTicketNumber that differs from taken.
func (c *Controller) AnotherTicketNumber(taken string) string {
	for {
		number := fmt.Sprintf("%s%06d", c.ticketPrefix, rand.IntN(1_000_000))
		if number != taken {
			return number
		}
	}
}

// Turn is one fully processed utterance.
type Turn struct {
	Resolved Resolved
	Transition
}

// Respond runs Interpret followed by Advance.
func (c *Controller) Respond(state State, utterance string, env Env) Turn {
	resolved := c.Interpret(state, utterance, env)
	return Turn{Resolved: resolved, Transition: Advance(state, utterance, resolved)}
}

// WithTicketNumber returns a copy of a ticket-creating turn that uses number
// instead of the id chosen by Interpret. Other turns are returned unchanged.
func (t Turn) WithTicketNumber(number string) Turn {
	if t.Resolved.Action != ActionCreateTicket || number == "" {
		return t
	}
	old := t.Resolved.Payload
	t.Resolved.Payload = number
	t.Resolved.Text = fmt.Sprintf(msgTicketCreated, number)
	t.State.TicketNumber = number

	effects := make([]Effect, len(t.Effects))
	for i, effect := range t.Effects {
		if effect.TicketNumber == old {
			effect.TicketNumber = number
		}
		effects[i] = effect
	}
	t.Effects = effects
	return t
}
