// Package realtime publishes events to tenant-, order- and user-scoped
// channels over Redis Pub/Sub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher delivers an event payload to one channel. exceptSocket names
// the originating realtime connection; subscribers carrying that socket id
// drop the message so an actor never receives its own echo.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any, exceptSocket string) error
}

// envelope is the wire frame written to the channel. Redis Pub/Sub has no
// server-side connection exclusion, so the excluded socket travels in the
// frame and the edge servers filter on it.
type envelope struct {
	Event  string `json:"event"`
	Data   any    `json:"data"`
	Except string `json:"except,omitempty"`
}

// RedisPublisher implements Publisher on a Redis client.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel, event string, payload any, exceptSocket string) error {
	frame, err := json.Marshal(envelope{Event: event, Data: payload, Except: exceptSocket})
	if err != nil {
		return fmt.Errorf("marshal realtime frame: %w", err)
	}
	if err := p.rdb.Publish(ctx, channel, frame).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event, channel, err)
	}
	return nil
}

// NoopPublisher is used when no realtime transport is configured; polling
// clients still see changes through the poll marker.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _, _ string, _ any, _ string) error { return nil }
