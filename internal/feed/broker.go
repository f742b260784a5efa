package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Topic names a collection whose changes are broadcast.
type Topic string

const (
	TopicProducts Topic = "products"
	TopicOrders   Topic = "orders"
	TopicReviews  Topic = "reviews"
)

// Broker carries change signals between service instances.
type Broker interface {
	// Publish announces that topic changed.
	Publish(ctx context.Context, topic Topic) error

	// Listen delivers change signals until ctx is done, then closes the channel.
	Listen(ctx context.Context, topics ...Topic) (<-chan Topic, error)
}

type redisPubSub interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisBroker broadcasts change signals over Redis pub/sub so every replica
// refreshes its subscriptions.
type RedisBroker struct {
	client redisPubSub
	prefix string
}

// NewRedisBroker creates a broker publishing on "<prefix>:feed:<topic>".
func NewRedisBroker(client redisPubSub, prefix string) *RedisBroker {
	return &RedisBroker{client: client, prefix: prefix}
}

func (b *RedisBroker) channel(topic Topic) string {
	return b.prefix + ":feed:" + string(topic)
}

func (b *RedisBroker) topic(channel string) Topic {
	return Topic(strings.TrimPrefix(channel, b.prefix+":feed:"))
}

// Publish announces that topic changed.
func (b *RedisBroker) Publish(ctx context.Context, topic Topic) error {
	if err := b.client.Publish(ctx, b.channel(topic), string(topic)).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Listen subscribes to the topics' channels.
func (b *RedisBroker) Listen(ctx context.Context, topics ...Topic) (<-chan Topic, error) {
	channels := make([]string, 0, len(topics))
	for _, t := range topics {
		channels = append(channels, b.channel(t))
	}

	pubsub := b.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe feed: %w", err)
	}

	out := make(chan Topic)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- b.topic(msg.Channel):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// LocalBroker delivers change signals inside a single process.
type LocalBroker struct {
	mu        sync.Mutex
	listeners map[chan Topic]map[Topic]struct{}
}

// NewLocalBroker creates an in-process broker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{listeners: make(map[chan Topic]map[Topic]struct{})}
}

// Publish announces that topic changed.
func (b *LocalBroker) Publish(ctx context.Context, topic Topic) error {
	b.mu.Lock()
	targets := make([]chan Topic, 0, len(b.listeners))
	for ch, topics := range b.listeners {
		if _, ok := topics[topic]; ok {
			targets = append(targets, ch)
		}
	}
	b.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- topic:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Listen registers a listener for the topics.
func (b *LocalBroker) Listen(ctx context.Context, topics ...Topic) (<-chan Topic, error) {
	set := make(map[Topic]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}

	buffered := make(chan Topic, 64)
	b.mu.Lock()
	b.listeners[buffered] = set
	b.mu.Unlock()

	out := make(chan Topic)
	go func() {
		defer close(out)
		defer func() {
			b.mu.Lock()
			delete(b.listeners, buffered)
			b.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-buffered:
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
