// internal/workers/chatbot/resolve-intent/handler.go
package resolveintent

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"support-workers/internal/chatbot/intent"
	"support-workers/internal/chatbot/knowledge"
	"support-workers/internal/chatbot/textnorm"
	"support-workers/internal/common/camunda"
	apperrors "support-workers/internal/common/errors"
	"support-workers/internal/common/logger"
	"support-workers/internal/common/metrics"
	"support-workers/internal/common/observability"
)

const (
	TaskType = "support-resolve-intent"
)

type Handler struct {
	config       *Config
	catalog      *knowledge.Catalog
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, catalog *knowledge.Catalog, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		catalog:      catalog,
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

	span.SetAttributes(
		attribute.String("topic.id", output.TopicID),
		attribute.Bool("topic.fallback", output.Fallback),
	)
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

// Execute resolves the utterance. It never fails for a valid input: an
// utterance nothing matches yields the catalog fallback.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("resolver", err)
	}

	result := intent.Resolve(input.Utterance, h.catalog)
	metrics.IntentResolutions.WithLabelValues(result.Topic.ID, result.Kind.String()).Inc()

	h.logger.Debug("utterance resolved", map[string]interface{}{
		"tokens":  len(textnorm.Tokens(input.Utterance)),
		"topicId": result.Topic.ID,
		"score":   result.Score,
	})

	output := &Output{
		TopicID:      result.Topic.ID,
		Fallback:     !result.Matched(),
		Score:        result.Score,
		Response:     result.Text(),
		QuickReplies: result.QuickReplies(),
	}
	if output.QuickReplies == nil {
		output.QuickReplies = []string{}
	}

	if h.config.IncludeRanking {
		for _, r := range intent.Rank(input.Utterance, h.catalog) {
			output.Ranking = append(output.Ranking, RankedTopic{TopicID: r.TopicID, Score: r.Score})
		}
	}
	return output, nil
}
