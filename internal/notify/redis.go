package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// DefaultChannel is the Redis channel used when none is configured.
const DefaultChannel = "solarops:changes"

// Publisher is the subset of the Redis client used to publish events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes each committed change as a JSON event on a Redis
// channel.
type RedisPublisher struct {
	client  Publisher
	channel string
	now     func() time.Time
}

// NewRedisPublisher wraps client. An empty channel uses DefaultChannel.
func NewRedisPublisher(client Publisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		client:  client,
		channel: channel,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Channel returns the channel events are published on.
func (p *RedisPublisher) Channel() string { return p.channel }

// Notify implements Notifier.
func (p *RedisPublisher) Notify(ctx context.Context, changes []domain.Change) error {
	for _, ev := range EventsFromChanges(changes, p.now()) {
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode change event: %w", err)
		}
		if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
			return fmt.Errorf("publish change event to %s: %w", p.channel, err)
		}
	}
	return nil
}

// OpenRedis parses a redis:// URL and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
