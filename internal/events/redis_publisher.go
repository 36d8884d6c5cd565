package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher forwards events to a Redis pub/sub channel so other
// services can react to ticket changes.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher returns nil when no client is configured.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if client == nil || channel == "" {
		return nil
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Channel returns the pub/sub channel name.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Forward serializes the event as JSON and publishes it.
func (p *RedisPublisher) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
