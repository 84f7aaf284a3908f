// Package presence tracks remote collaborators' cursors and section locks
// for a content id over a publish/subscribe channel.
package presence

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Handler receives raw payloads published to a topic.
type Handler func(payload []byte)

// Bus is the generic message channel the coordinator runs on, so it carries
// no dependency on a specific real-time backend.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe registers a handler and returns an unsubscribe function.
	Subscribe(ctx context.Context, topic string, handler Handler) (func(), error)
}

// RedisBus implements Bus over Redis pub/sub.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string, handler Handler) (func(), error) {
	pubsub := b.client.Subscribe(ctx, topic)
	// Wait for the subscription to be confirmed so callers do not miss
	// messages published right after Subscribe returns.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	done := make(chan struct{})
	var once sync.Once
	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	unsubscribe := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return unsubscribe, nil
}
