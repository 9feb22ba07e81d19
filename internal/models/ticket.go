package models

import (
	"context"
	"errors"
	"time"
)

// ErrTicketExists is returned by CreateTicket when the ticket number is taken.
var ErrTicketExists = errors.New("TICKET_EXISTS")

type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pendente"
	TicketStatusInProgress TicketStatus = "em atendimento"
	TicketStatusOpen       TicketStatus = "aberto"
	TicketStatusFinished   TicketStatus = "finalizado"
	TicketStatusClosed     TicketStatus = "fechado"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusOpen, TicketStatusFinished, TicketStatusClosed:
		return true
	}
	return false
}

// IsClosed reports whether no further conversation happens on the ticket.
func (s TicketStatus) IsClosed() bool {
	return s == TicketStatusFinished || s == TicketStatusClosed
}

// Ticket is a support request handed off to a human agent.
type Ticket struct {
	TicketNumber string       `json:"ticketNumber" db:"ticket_number"`
	SessionID    string       `json:"sessionId,omitempty" db:"session_id"`
	UserName     string       `json:"userName" db:"user_name"`
	Description  string       `json:"description" db:"description"`
	Status       TicketStatus `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
}

// TicketMessage is one chat line recorded against a ticket.
type TicketMessage struct {
	ID           int64     `json:"id" db:"id"`
	TicketNumber string    `json:"ticketNumber" db:"ticket_number"`
	Sender       string    `json:"sender" db:"sender"`
	Text         string    `json:"text" db:"text"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// TicketRepository defines ticket data access.
// GetTicket returns (nil, nil) when the ticket does not exist; CreateTicket
// wraps ErrTicketExists when the number is already in use.
type TicketRepository interface {
	CreateTicket(ctx context.Context, ticket *Ticket) error
	GetTicket(ctx context.Context, ticketNumber string) (*Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketNumber string, status TicketStatus) error
	DeleteTicket(ctx context.Context, ticketNumber string) error
	AppendMessage(ctx context.Context, msg *TicketMessage) error
	ListMessages(ctx context.Context, ticketNumber string) ([]TicketMessage, error)
}
