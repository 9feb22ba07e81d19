// internal/workers/support/reset-session/models.go
package resetsession

import (
	"context"

	"support-workers/internal/chatbot/flow"
)

type Input struct {
	SessionID string `json:"sessionId"`
}

type Output struct {
	SessionID     string `json:"sessionId"`
	PreviousPhase string `json:"previousPhase"`
	// OpenTicket is the ticket the session still owned, if any. Resetting
	// the chat does not close it.
	OpenTicket string `json:"openTicket,omitempty"`
}

type SessionStore interface {
	Load(ctx context.Context, sessionID string) (flow.State, error)
	Delete(ctx context.Context, sessionID string) error
	Lock(ctx context.Context, sessionID string) (func(context.Context) error, error)
}
