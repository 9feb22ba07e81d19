// internal/workers/support/search-transcripts/models.go
package searchtranscripts

import (
	"context"
	"time"

	"support-workers/internal/support/archive"
)

type Input struct {
	Query  string `json:"query"`
	Status string `json:"status,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type Match struct {
	TicketNumber string         `json:"ticketNumber"`
	UserName     string         `json:"userName"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	Score        float64        `json:"score"`
	ArchivedAt   time.Time      `json:"archivedAt"`
	Messages     []archive.Line `json:"messages,omitempty"`
}

type Output struct {
	Total   int64   `json:"total"`
	TookMs  int64   `json:"tookMs"`
	Matches []Match `json:"matches"`
}

type Searcher interface {
	Search(ctx context.Context, q archive.Query) (*archive.Result, error)
}
