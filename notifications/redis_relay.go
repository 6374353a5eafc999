package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	redis "github.com/redis/go-redis/v9"
)

// RedisRelay publishes events on a Redis channel so every API replica can
// push them to its own websocket hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
}

func NewRedisRelay(client *redis.Client, channel string) *RedisRelay {
	if channel == "" {
		channel = "fundlink:notifications"
	}
	return &RedisRelay{client: client, channel: channel}
}

func (r *RedisRelay) Deliver(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

// Run forwards every event received on the channel to local until ctx is done.
func (r *RedisRelay) Run(ctx context.Context, local Sink) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Printf("[notify] bad payload on %s: %v", r.channel, err)
				continue
			}
			if err := local.Deliver(ctx, e); err != nil {
				log.Printf("[notify] local delivery of %s failed: %v", e.ID, err)
			}
		}
	}
}
