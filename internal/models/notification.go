package models

import "time"

type EventType string

const (
	EventTicketCreated EventType = "ticket.created"
	EventTicketClosed  EventType = "ticket.closed"
	EventAdminLogin    EventType = "admin.login"
)

// SupportEvent is announced to the admin side whenever a ticket or session
// changes in a way agents care about.
type SupportEvent struct {
	ID           string            `json:"id"`
	Type         EventType         `json:"type"`
	SessionID    string            `json:"sessionId,omitempty"`
	TicketNumber string            `json:"ticketNumber,omitempty"`
	UserName     string            `json:"userName,omitempty"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	OccurredAt   time.Time         `json:"occurredAt"`
}

// Subject is a short human readable summary used by mail and SNS channels.
func (e SupportEvent) Subject() string {
	switch e.Type {
	case EventTicketCreated:
		return "Novo ticket #" + e.TicketNumber
	case EventTicketClosed:
		return "Ticket #" + e.TicketNumber + " fechado"
	case EventAdminLogin:
		return "Login administrativo no chat"
	default:
		return string(e.Type)
	}
}
