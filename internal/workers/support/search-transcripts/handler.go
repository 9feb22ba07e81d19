// internal/workers/support/search-transcripts/handler.go
package searchtranscripts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"support-workers/internal/common/camunda"
	apperrors "support-workers/internal/common/errors"
	"support-workers/internal/common/logger"
	"support-workers/internal/common/observability"
	"support-workers/internal/support/archive"
)

const (
	TaskType = "support-search-transcripts"
)

type Handler struct {
	config       *Config
	searcher     Searcher
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := observability.Tracer().Start(ctx, TaskType)
	defer span.End()

	input, err := parseInput(job.Variables)
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}
	span.SetAttributes(attribute.Int64("search.total", output.Total))

	camunda.CompleteJob(ctx, client, job, output, h.logger)
}

func parseInput(variables string) (*Input, error) {
	result, err := inputSchema.ValidateJSON([]byte(variables))
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input is required")
	}

	query := archive.Query{
		Text:   strings.TrimSpace(input.Query),
		Status: input.Status,
		From:   input.Offset,
		Size:   input.Limit,
	}

	result, err := h.searcher.Search(ctx, query)
	if errors.Is(err, archive.ErrEmptyQuery) {
		return nil, apperrors.NewInvalidInputError("query must not be blank")
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("elasticsearch", err)
		}
		return nil, apperrors.NewSearchQueryFailedError(err)
	}

	output := &Output{
		Total:   result.Total,
		TookMs:  result.Took,
		Matches: make([]Match, 0, len(result.Hits)),
	}
	for _, hit := range result.Hits {
		t := hit.Transcript
		m := Match{
			TicketNumber: t.TicketNumber,
			UserName:     t.UserName,
			Description:  t.Description,
			Status:       t.Status,
			Score:        hit.Score,
			ArchivedAt:   t.ArchivedAt,
		}
		if h.config.IncludeMessages {
			m.Messages = t.Messages
		}
		output.Matches = append(output.Matches, m)
	}

	h.logger.Info("transcripts searched", map[string]interface{}{
		"query":   query.Text,
		"total":   output.Total,
		"matches": len(output.Matches),
	})
	return output, nil
}
