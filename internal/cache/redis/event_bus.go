package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// streamMaxLen is the approximate length kept for the ingest stream via
// XADD MAXLEN ~.
const streamMaxLen int64 = 1000

// EventBus implements domain.EventBus. Events go out on a Pub/Sub channel
// for live subscribers and into a capped stream as history.
type EventBus struct {
	client *Client
}

// NewEventBus creates an EventBus backed by the given Client.
func NewEventBus(c *Client) *EventBus {
	return &EventBus{client: c}
}

func (eb *EventBus) channel() string { return eb.client.key("events", "ingest") }
func (eb *EventBus) stream() string  { return eb.client.key("stream", "ingest") }

// PublishIngest appends ev to the stream and notifies subscribers.
func (eb *EventBus) PublishIngest(ctx context.Context, ev domain.IngestEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis: marshal ingest event: %w", err)
	}

	rdb := eb.client.Underlying()
	if err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: eb.stream(),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"payload": payload},
	}).Err(); err != nil {
		return fmt.Errorf("redis: stream append ingest: %w", err)
	}
	if err := rdb.Publish(ctx, eb.channel(), payload).Err(); err != nil {
		return fmt.Errorf("redis: publish ingest: %w", err)
	}
	return nil
}

// SubscribeIngest returns a channel of ingest events that is closed when ctx
// is cancelled. Undecodable payloads are dropped.
func (eb *EventBus) SubscribeIngest(ctx context.Context) (<-chan domain.IngestEvent, error) {
	pubsub := eb.client.Underlying().Subscribe(ctx, eb.channel())

	// Wait for the subscription confirmation so no publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe ingest: %w", err)
	}

	out := make(chan domain.IngestEvent, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev domain.IngestEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// RecentIngests returns up to count events, newest first.
func (eb *EventBus) RecentIngests(ctx context.Context, count int) ([]domain.IngestEvent, error) {
	msgs, err := eb.client.Underlying().XRevRangeN(ctx, eb.stream(), "+", "-", int64(count)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: stream read ingest: %w", err)
	}

	events := make([]domain.IngestEvent, 0, len(msgs))
	for _, msg := range msgs {
		var data []byte
		switch v := msg.Values["payload"].(type) {
		case string:
			data = []byte(v)
		case []byte:
			data = v
		default:
			continue
		}
		var ev domain.IngestEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

var _ domain.EventBus = (*EventBus)(nil)
