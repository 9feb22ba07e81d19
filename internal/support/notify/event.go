package notify

import (
	"time"

	"github.com/google/uuid"

	"support-workers/internal/models"
)

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType models.EventType, sessionID, ticketNumber, userName string) models.SupportEvent {
	return models.SupportEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		SessionID:    sessionID,
		TicketNumber: ticketNumber,
		UserName:     userName,
		OccurredAt:   time.Now().UTC(),
	}
}
