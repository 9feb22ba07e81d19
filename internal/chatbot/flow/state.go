// Package flow implements the support conversation state machine: the
// human handoff sub-flow (name, problem description, ticket), admin mode
// and cancellation, delegating free text to the intent resolver.
package flow

type Phase string

const (
	PhaseIdle                       Phase = "IDLE"
	PhaseAwaitingName               Phase = "AWAITING_NAME"
	PhaseAwaitingProblemDescription Phase = "AWAITING_PROBLEM_DESCRIPTION"
	PhaseTicketActive               Phase = "TICKET_ACTIVE"
	PhaseAdminControlling           Phase = "ADMIN_CONTROLLING"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseAwaitingName, PhaseAwaitingProblemDescription, PhaseTicketActive, PhaseAdminControlling:
		return true
	}
	return false
}

// State is the conversation state of one chat session. It is a plain value;
// callers persist it between turns and must serialize turns per session.
type State struct {
	Phase            Phase  `json:"phase"`
	UserName         string `json:"userName,omitempty"`
	TicketNumber     string `json:"ticketNumber,omitempty"`
	LastClosedTicket string `json:"lastClosedTicket,omitempty"`
	AdminPending     bool   `json:"adminPending,omitempty"`
}

func NewState() State {
	return State{Phase: PhaseIdle}
}

// HasActiveTicket reports whether the session currently owns an open ticket.
func (s State) HasActiveTicket() bool {
	return s.Phase == PhaseTicketActive && s.TicketNumber != ""
}
