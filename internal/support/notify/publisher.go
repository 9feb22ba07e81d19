// Package notify announces support events to the admin side over whichever
// channels are configured.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"support-workers/internal/common/logger"
	"support-workers/internal/common/metrics"
	"support-workers/internal/models"
)

// Publisher delivers a support event over one channel.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event models.SupportEvent) error
}

// Fanout publishes every event to all of its channels. A failing channel
// does not stop the others; the failures are combined into one error.
type Fanout struct {
	publishers []Publisher
	logger     logger.Logger
}

func NewFanout(log logger.Logger, publishers ...Publisher) *Fanout {
	return &Fanout{
		publishers: publishers,
		logger:     log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

func (f *Fanout) Name() string {
	names := make([]string, 0, len(f.publishers))
	for _, p := range f.publishers {
		names = append(names, p.Name())
	}
	return "fanout(" + strings.Join(names, ",") + ")"
}

// Len reports how many channels are configured.
func (f *Fanout) Len() int {
	return len(f.publishers)
}

func (f *Fanout) Publish(ctx context.Context, event models.SupportEvent) error {
	var errs error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			metrics.NotificationsFailed.WithLabelValues(p.Name(), string(event.Type)).Inc()
			f.logger.Warn("support event not delivered", map[string]interface{}{
				"channel":      p.Name(),
				"event":        event.Type,
				"ticketNumber": event.TicketNumber,
				"error":        err.Error(),
			})
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		f.logger.Debug("support event delivered", map[string]interface{}{
			"channel": p.Name(),
			"event":   event.Type,
			"eventId": event.ID,
		})
	}
	return errs
}

func encode(event models.SupportEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode support event: %w", err)
	}
	return data, nil
}
