package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-workers/internal/common/config"
)

// ==========================
// Postgres
// ==========================

func TestWithTx_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM support_ticket_messages").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	client := NewPostgresFromDB(db)
	err = client.WithTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM support_ticket_messages WHERE ticket_number = $1", "TK1")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_Rollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewPostgresFromDB(db).WithTx(context.Background(), func(*sql.Tx) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	client := NewPostgresFromDB(db)
	assert.NoError(t, client.Ping(context.Background()))

	mock.ExpectClose()
	assert.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{Host: "localhost", Port: 5432, Database: "support", User: "u", SSLMode: "disable", MaxConnections: 2, MaxIdle: 1})
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

// ==========================
// Redis
// ==========================

func TestRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

// ==========================
// Elasticsearch
// ==========================

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func esResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}, "Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestElasticsearch_EnsureIndex(t *testing.T) {
	var calls []string
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodHead:
			return esResponse(http.StatusNotFound, ""), nil
		case http.MethodPut:
			return esResponse(http.StatusOK, `{"acknowledged":true}`), nil
		}
		return esResponse(http.StatusOK, `{}`), nil
	})

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://es:9200"}}, transport)
	require.NoError(t, err)

	require.NoError(t, client.EnsureIndex(context.Background(), "support-transcripts", `{"mappings":{}}`))
	assert.Equal(t, []string{"HEAD /support-transcripts", "PUT /support-transcripts"}, calls)
}

func TestElasticsearch_EnsureIndexExists(t *testing.T) {
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodHead, r.Method)
		return esResponse(http.StatusOK, ""), nil
	})

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://es:9200"}}, transport)
	require.NoError(t, err)
	assert.NoError(t, client.EnsureIndex(context.Background(), "support-transcripts", `{}`))
}

func TestElasticsearch_Ping(t *testing.T) {
	status := http.StatusOK
	transport := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return esResponse(status, ""), nil
	})

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://es:9200"}}, transport)
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))

	status = http.StatusServiceUnavailable
	assert.Error(t, client.Ping(context.Background()))
}
