// Package tickets persists support tickets and their chat transcript in
// PostgreSQL.
package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"support-workers/internal/common/database"
	"support-workers/internal/models"
)

var ErrTicketNotFound = errors.New("TICKET_NOT_FOUND")

const uniqueViolation = pq.ErrorCode("23505")

const schema = `
CREATE TABLE IF NOT EXISTS support_tickets (
	ticket_number TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL DEFAULT '',
	user_name     TEXT NOT NULL,
	description   TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS support_ticket_messages (
	id            BIGSERIAL PRIMARY KEY,
	ticket_number TEXT NOT NULL REFERENCES support_tickets(ticket_number) ON DELETE CASCADE,
	sender        TEXT NOT NULL,
	text          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_support_ticket_messages_ticket
	ON support_ticket_messages (ticket_number, id);
`

// PostgresRepository implements models.TicketRepository.
type PostgresRepository struct {
	pg  *database.PostgresClient
	now func() time.Time
}

var _ models.TicketRepository = (*PostgresRepository)(nil)

func NewPostgresRepository(pg *database.PostgresClient) *PostgresRepository {
	return &PostgresRepository{
		pg:  pg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pg.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create ticket tables: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusPending
	}
	now := r.now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now

	query := `
		INSERT INTO support_tickets (ticket_number, session_id, user_name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pg.DB.ExecContext(ctx, query,
		ticket.TicketNumber,
		ticket.SessionID,
		ticket.UserName,
		ticket.Description,
		string(ticket.Status),
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert ticket %s: %w", ticket.TicketNumber, models.ErrTicketExists)
		}
		return fmt.Errorf("insert ticket %s: %w", ticket.TicketNumber, err)
	}
	return nil
}

func (r *PostgresRepository) GetTicket(ctx context.Context, ticketNumber string) (*models.Ticket, error) {
	query := `
		SELECT ticket_number, session_id, user_name, description, status, created_at, updated_at
		FROM support_tickets
		WHERE ticket_number = $1
	`
	var (
		t      models.Ticket
		status string
	)
	err := r.pg.DB.QueryRowContext(ctx, query, ticketNumber).Scan(
		&t.TicketNumber,
		&t.SessionID,
		&t.UserName,
		&t.Description,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket %s: %w", ticketNumber, err)
	}
	t.Status = models.TicketStatus(status)
	return &t, nil
}

func (r *PostgresRepository) UpdateTicketStatus(ctx context.Context, ticketNumber string, status models.TicketStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid ticket status %q", status)
	}
	query := `UPDATE support_tickets SET status = $1, updated_at = $2 WHERE ticket_number = $3`
	res, err := r.pg.DB.ExecContext(ctx, query, string(status), r.now(), ticketNumber)
	if err != nil {
		return fmt.Errorf("update ticket %s: %w", ticketNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ticket %s: %w", ticketNumber, err)
	}
	if n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// DeleteTicket removes a ticket and its transcript. Deleting a missing
// ticket is not an error.
func (r *PostgresRepository) DeleteTicket(ctx context.Context, ticketNumber string) error {
	return r.pg.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM support_ticket_messages WHERE ticket_number = $1`, ticketNumber); err != nil {
			return fmt.Errorf("delete messages of %s: %w", ticketNumber, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM support_tickets WHERE ticket_number = $1`, ticketNumber); err != nil {
			return fmt.Errorf("delete ticket %s: %w", ticketNumber, err)
		}
		return nil
	})
}

func (r *PostgresRepository) AppendMessage(ctx context.Context, msg *models.TicketMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now()
	}
	query := `
		INSERT INTO support_ticket_messages (ticket_number, sender, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.pg.DB.QueryRowContext(ctx, query, msg.TicketNumber, msg.Sender, msg.Text, msg.CreatedAt).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("append message to %s: %w", msg.TicketNumber, err)
	}
	return nil
}

func (r *PostgresRepository) ListMessages(ctx context.Context, ticketNumber string) ([]models.TicketMessage, error) {
	query := `
		SELECT id, ticket_number, sender, text, created_at
		FROM support_ticket_messages
		WHERE ticket_number = $1
		ORDER BY id
	`
	rows, err := r.pg.DB.QueryContext(ctx, query, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", ticketNumber, err)
	}
	defer rows.Close()

	var messages []models.TicketMessage
	for rows.Next() {
		var m models.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketNumber, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", ticketNumber, err)
	}
	return messages, nil
}
