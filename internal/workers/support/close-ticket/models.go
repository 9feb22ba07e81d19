// internal/workers/support/close-ticket/models.go
package closeticket

import (
	"context"

	"support-workers/internal/chatbot/flow"
	"support-workers/internal/support/archive"
)

type Input struct {
	TicketNumber string `json:"ticketNumber"`
	// SessionID defaults to the session the ticket was opened from.
	SessionID string `json:"sessionId,omitempty"`
}

type Output struct {
	TicketNumber string       `json:"ticketNumber"`
	Status       string       `json:"status"`
	Acknowledged bool         `json:"acknowledged"`
	Messages     []flow.Reply `json:"messages"`
	Archived     bool         `json:"archived"`
}

type SessionStore interface {
	Load(ctx context.Context, sessionID string) (flow.State, error)
	Save(ctx context.Context, sessionID string, state flow.State) error
	Lock(ctx context.Context, sessionID string) (func(context.Context) error, error)
	AgentsOnline(ctx context.Context) (online bool, found bool, err error)
}

// Archiver stores the final transcript of a ticket.
type Archiver interface {
	Put(ctx context.Context, t archive.Transcript) error
}
