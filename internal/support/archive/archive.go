// Package archive indexes closed ticket transcripts into Elasticsearch so
// agents can search past conversations.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"support-workers/internal/models"
)

const DefaultIndex = "support-transcripts"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var ErrEmptyQuery = errors.New("EMPTY_QUERY")

// IndexMapping is applied when the transcript index is created.
const IndexMapping = `{
	"mappings": {
		"properties": {
			"ticketNumber": {"type": "keyword"},
			"sessionId":    {"type": "keyword"},
			"userName":     {"type": "text"},
			"description":  {"type": "text"},
			"status":       {"type": "keyword"},
			"createdAt":    {"type": "date"},
			"archivedAt":   {"type": "date"},
			"messages": {
				"properties": {
					"sender":    {"type": "keyword"},
					"text":      {"type": "text"},
					"createdAt": {"type": "date"}
				}
			}
		}
	}
}`

type Line struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transcript is the archived form of a ticket and its conversation.
type Transcript struct {
	TicketNumber string    `json:"ticketNumber"`
	SessionID    string    `json:"sessionId,omitempty"`
	UserName     string    `json:"userName"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	ArchivedAt   time.Time `json:"archivedAt"`
	Messages     []Line    `json:"messages"`
}

func NewTranscript(ticket *models.Ticket, messages []models.TicketMessage, archivedAt time.Time) Transcript {
	lines := make([]Line, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, Line{Sender: m.Sender, Text: m.Text, CreatedAt: m.CreatedAt})
	}
	return Transcript{
		TicketNumber: ticket.TicketNumber,
		SessionID:    ticket.SessionID,
		UserName:     ticket.UserName,
		Description:  ticket.Description,
		Status:       string(ticket.Status),
		CreatedAt:    ticket.CreatedAt,
		ArchivedAt:   archivedAt.UTC(),
		Messages:     lines,
	}
}

type Store struct {
	client *elasticsearch.Client
	index  string
}

func NewStore(client *elasticsearch.Client, index string) *Store {
	if index == "" {
		index = DefaultIndex
	}
	return &Store{client: client, index: index}
}

func (s *Store) Index() string { return s.index }

// Put indexes a transcript under its ticket number, replacing any earlier copy.
func (s *Store) Put(ctx context.Context, t Transcript) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transcript %s: %w", t.TicketNumber, err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: t.TicketNumber,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index transcript %s: %w", t.TicketNumber, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index transcript %s: %s", t.TicketNumber, res.String())
	}
	return nil
}

type Query struct {
	Text   string
	Status string
	From   int
	Size   int
}

type Hit struct {
	Score      float64    `json:"score"`
	Transcript Transcript `json:"transcript"`
}

type Result struct {
	Total int64 `json:"total"`
	Took  int64 `json:"took"`
	Hits  []Hit `json:"hits"`
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64    `json:"_score"`
			Source Transcript `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildQuery(q Query) map[string]interface{} {
	must := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"ticketNumber^3", "userName^2", "description^2", "messages.text"},
			},
		},
	}
	boolQuery := map[string]interface{}{"must": must}
	if q.Status != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"status": q.Status}},
		}
	}
	return map[string]interface{}{
		"from":  q.From,
		"size":  q.Size,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"archivedAt": map[string]interface{}{"order": "desc"}},
		},
	}
}

func normalize(q Query) Query {
	if q.From < 0 {
		q.From = 0
	}
	if q.Size < 1 {
		q.Size = defaultPageSize
	}
	if q.Size > maxPageSize {
		q.Size = maxPageSize
	}
	return q
}

func (s *Store) Search(ctx context.Context, q Query) (*Result, error) {
	if q.Text == "" {
		return nil, ErrEmptyQuery
	}
	q = normalize(q)

	body, err := json.Marshal(buildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search transcripts: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search transcripts: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &Result{
		Total: r.Hits.Total.Value,
		Took:  r.Took,
		Hits:  make([]Hit, 0, len(r.Hits.Hits)),
	}
	for _, h := range r.Hits.Hits {
		result.Hits = append(result.Hits, Hit{Score: h.Score, Transcript: h.Source})
	}
	return result, nil
}
