package tickets

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-workers/internal/common/database"
	"support-workers/internal/models"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresRepository(database.NewPostgresFromDB(db))
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS support_tickets").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicket_DefaultsStatus(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO support_tickets").
		WithArgs("TK000001", "sess-1", "Maria", "vídeo não sobe", "pendente", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ticket := &models.Ticket{
		TicketNumber: "TK000001",
		SessionID:    "sess-1",
		UserName:     "Maria",
		Description:  "vídeo não sobe",
	}
	require.NoError(t, repo.CreateTicket(context.Background(), ticket))
	assert.Equal(t, models.TicketStatusPending, ticket.Status)
	assert.Equal(t, fixedNow, ticket.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicket_NumberTaken(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO support_tickets").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.CreateTicket(context.Background(), &models.Ticket{TicketNumber: "TK000001", UserName: "A", Description: "d"})
	assert.ErrorIs(t, err, models.ErrTicketExists)
}

func TestCreateTicket_Error(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO support_tickets").WillReturnError(errors.New("duplicate key"))

	err := repo.CreateTicket(context.Background(), &models.Ticket{TicketNumber: "TK1", UserName: "A", Description: "d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestGetTicket(t *testing.T) {
	repo, mock := newRepo(t)
	rows := sqlmock.NewRows([]string{"ticket_number", "session_id", "user_name", "description", "status", "created_at", "updated_at"}).
		AddRow("TK000001", "sess-1", "Maria", "erro", "em atendimento", fixedNow, fixedNow)
	mock.ExpectQuery("SELECT ticket_number, session_id").WithArgs("TK000001").WillReturnRows(rows)

	ticket, err := repo.GetTicket(context.Background(), "TK000001")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, models.TicketStatusInProgress, ticket.Status)
	assert.Equal(t, "Maria", ticket.UserName)
}

func TestGetTicket_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT ticket_number, session_id").WithArgs("TK404").WillReturnError(sql.ErrNoRows)

	ticket, err := repo.GetTicket(context.Background(), "TK404")
	assert.NoError(t, err)
	assert.Nil(t, ticket)
}

func TestUpdateTicketStatus(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE support_tickets SET status = $1")).
		WithArgs("fechado", fixedNow, "TK000001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateTicketStatus(context.Background(), "TK000001", models.TicketStatusClosed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTicketStatus_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE support_tickets").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateTicketStatus(context.Background(), "TK404", models.TicketStatusClosed)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestUpdateTicketStatus_InvalidStatus(t *testing.T) {
	repo, mock := newRepo(t)

	err := repo.UpdateTicketStatus(context.Background(), "TK1", models.TicketStatus("lost"))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTicket(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM support_ticket_messages").WithArgs("TK1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM support_tickets").WithArgs("TK1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteTicket(context.Background(), "TK1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTicket_RollsBack(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM support_ticket_messages").WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.DeleteTicket(context.Background(), "TK1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessage(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("INSERT INTO support_ticket_messages").
		WithArgs("TK1", "user", "Olá", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	msg := &models.TicketMessage{TicketNumber: "TK1", Sender: "user", Text: "Olá"}
	require.NoError(t, repo.AppendMessage(context.Background(), msg))
	assert.Equal(t, int64(42), msg.ID)
	assert.Equal(t, fixedNow, msg.CreatedAt)
}

func TestListMessages(t *testing.T) {
	repo, mock := newRepo(t)
	rows := sqlmock.NewRows([]string{"id", "ticket_number", "sender", "text", "created_at"}).
		AddRow(1, "TK1", "user", "Oi", fixedNow).
		AddRow(2, "TK1", "bot", "Olá!", fixedNow.Add(time.Second))
	mock.ExpectQuery("SELECT id, ticket_number, sender, text, created_at").WithArgs("TK1").WillReturnRows(rows)

	msgs, err := repo.ListMessages(context.Background(), "TK1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Sender)
	assert.Equal(t, "Olá!", msgs[1].Text)
}

func TestListMessages_Empty(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT id, ticket_number").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_number", "sender", "text", "created_at"}))

	msgs, err := repo.ListMessages(context.Background(), "TK1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
