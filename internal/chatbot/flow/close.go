package flow

import "fmt"

// Reply is one outbound chat message.
type Reply struct {
	Sender       string   `json:"sender"`
	Text         string   `json:"text"`
	QuickReplies []string `json:"quickReplies,omitempty"`
}

// CloseTicket handles the external "ticket closed" notification. It applies
// only when ticketNumber is the session's current ticket and that ticket has
// not been acknowledged yet; otherwise state is returned unchanged with
// ok == false.
func CloseTicket(state State, ticketNumber string, env Env) (next State, replies []Reply, ok bool) {
	if ticketNumber == "" || state.TicketNumber != ticketNumber || state.LastClosedTicket == ticketNumber {
		return state, nil, false
	}

	next = NewState()
	next.LastClosedTicket = ticketNumber

	replies = []Reply{
		{Sender: SenderSystem, Text: fmt.Sprintf(msgTicketClosed, ticketNumber)},
		{Sender: SenderBot, Text: msgAfterClose, QuickReplies: mainMenu(env.AgentsOnline)},
	}
	return next, replies, true
}
