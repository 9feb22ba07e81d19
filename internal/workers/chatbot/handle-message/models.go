// internal/workers/chatbot/handle-message/models.go
package handlemessage

import (
	"context"

	"support-workers/internal/chatbot/flow"
)

type Input struct {
	SessionID string `json:"sessionId"`
	Utterance string `json:"utterance"`
}

type Output struct {
	Reply        string   `json:"reply"`
	QuickReplies []string `json:"quickReplies"`
	// Silent is true when no bot message should be shown for this turn.
	Silent       bool   `json:"silent"`
	Action       string `json:"action"`
	Phase        string `json:"phase"`
	TicketNumber string `json:"ticketNumber,omitempty"`
	TopicID      string `json:"topicId,omitempty"`
}

// SessionStore persists conversation state between turns.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (flow.State, error)
	Save(ctx context.Context, sessionID string, state flow.State) error
	Lock(ctx context.Context, sessionID string) (func(context.Context) error, error)
	AgentsOnline(ctx context.Context) (online bool, found bool, err error)
}
