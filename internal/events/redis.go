package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "progress:"

// RedisBus publishes events over Redis pub/sub so every replica's websocket
// clients see them
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus wraps an existing client
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func channel(userAddress string) string {
	return channelPrefix + userAddress
}

// Publish sends the event on the learner's channel
func (b *RedisBus) Publish(ctx context.Context, ev ProgressEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channel(ev.UserAddress), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the learner's channel. It returns once Redis has
// confirmed the subscription.
func (b *RedisBus) Subscribe(ctx context.Context, userAddress string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel(userAddress))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan ProgressEvent, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("invalid progress event payload", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case out <- ev:
			default:
				slog.Warn("dropping progress event for slow subscriber", "address", userAddress)
			}
		}
	}()

	return &Subscription{
		C: out,
		closeFn: func() {
			if err := pubsub.Close(); err != nil {
				slog.Debug("failed to close pubsub", "error", err)
			}
		},
	}, nil
}

// Close is a no-op; the Redis client is owned by the caller
func (b *RedisBus) Close() error {
	return nil
}
