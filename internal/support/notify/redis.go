package notify

import (
	"context"

	"github.com/redis/go-redis/v9"

	"support-workers/internal/models"
)

const DefaultRedisChannel = "support:events"

// RedisPublisher pushes events onto a pub/sub channel the admin panel
// subscribes to.
type RedisPublisher struct {
	client  redis.Cmdable
	channel string
}

func NewRedisPublisher(client redis.Cmdable, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Publish(ctx context.Context, event models.SupportEvent) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}
