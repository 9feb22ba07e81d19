package archive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-workers/internal/common/config"
	"support-workers/internal/common/database"
	"support-workers/internal/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func esResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}, "Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newStore(t *testing.T, fn roundTripFunc) *Store {
	t.Helper()
	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://es:9200"}}, fn)
	require.NoError(t, err)
	return NewStore(es.Client, "")
}

var created = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleTranscript() Transcript {
	ticket := &models.Ticket{
		TicketNumber: "TK000001",
		SessionID:    "sess-1",
		UserName:     "Maria",
		Description:  "upload falha",
		Status:       models.TicketStatusClosed,
		CreatedAt:    created,
	}
	msgs := []models.TicketMessage{
		{Sender: "user", Text: "o upload falha", CreatedAt: created},
		{Sender: "agent", Text: "tente de novo", CreatedAt: created.Add(time.Minute)},
	}
	return NewTranscript(ticket, msgs, created.Add(time.Hour))
}

func TestNewTranscript(t *testing.T) {
	tr := sampleTranscript()
	assert.Equal(t, "fechado", tr.Status)
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, "agent", tr.Messages[1].Sender)
	assert.Equal(t, created.Add(time.Hour), tr.ArchivedAt)
}

func TestPut(t *testing.T) {
	var method, path string
	var doc Transcript
	store := newStore(t, func(r *http.Request) (*http.Response, error) {
		method, path = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		return esResponse(http.StatusCreated, `{"result":"created"}`), nil
	})

	require.NoError(t, store.Put(context.Background(), sampleTranscript()))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/support-transcripts/_doc/TK000001", path)
	assert.Equal(t, "Maria", doc.UserName)
	assert.Len(t, doc.Messages, 2)
}

func TestPut_Error(t *testing.T) {
	store := newStore(t, func(*http.Request) (*http.Response, error) {
		return esResponse(http.StatusBadRequest, `{"error":"mapper_parsing_exception"}`), nil
	})

	err := store.Put(context.Background(), sampleTranscript())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TK000001")
}

func TestSearch(t *testing.T) {
	var sent map[string]interface{}
	store := newStore(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/support-transcripts/_search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		return esResponse(http.StatusOK, `{
			"took": 4,
			"hits": {
				"total": {"value": 1},
				"hits": [{"_score": 2.5, "_source": {"ticketNumber": "TK000001", "userName": "Maria", "status": "fechado"}}]
			}
		}`), nil
	})

	res, err := store.Search(context.Background(), Query{Text: "upload", Status: "fechado", Size: 500})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, int64(4), res.Took)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 2.5, res.Hits[0].Score)
	assert.Equal(t, "TK000001", res.Hits[0].Transcript.TicketNumber)

	assert.Equal(t, float64(maxPageSize), sent["size"])
	boolQuery := sent["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Len(t, boolQuery["filter"], 1)
}

func TestSearch_EmptyText(t *testing.T) {
	store := newStore(t, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	_, err := store.Search(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_ServerError(t *testing.T) {
	store := newStore(t, func(*http.Request) (*http.Response, error) {
		return esResponse(http.StatusNotFound, `{"error":"index_not_found_exception"}`), nil
	})

	_, err := store.Search(context.Background(), Query{Text: "x"})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Query{Text: "a", From: 0, Size: defaultPageSize}, normalize(Query{Text: "a", From: -3}))
	assert.Equal(t, 7, normalize(Query{Size: 7}).Size)
}
