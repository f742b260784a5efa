package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hub turns change signals into refreshed query results for subscribers.
type Hub struct {
	broker  Broker
	timeout time.Duration
	logger  zerolog.Logger

	mu   sync.Mutex
	subs map[Topic]map[*subscription]struct{}
}

type subscription struct {
	signal chan struct{}
}

// NewHub creates a hub. Run must be called for remote signals to arrive.
func NewHub(broker Broker, logger zerolog.Logger) *Hub {
	return &Hub{
		broker:  broker,
		timeout: 10 * time.Second,
		logger:  logger.With().Str("component", "feed").Logger(),
		subs:    make(map[Topic]map[*subscription]struct{}),
	}
}

// Run relays broker signals to subscribers until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	signals, err := h.broker.Listen(ctx, TopicProducts, TopicOrders, TopicReviews)
	if err != nil {
		return err
	}

	h.logger.Info().Msg("change feed listening")
	for topic := range signals {
		h.signal(topic)
	}
	h.logger.Info().Msg("change feed stopped")

	return nil
}

// Notify announces a committed change to every replica. When the broker is
// unreachable the local subscribers are still refreshed.
func (h *Hub) Notify(ctx context.Context, topic Topic) {
	if err := h.broker.Publish(ctx, topic); err != nil {
		h.logger.Warn().Err(err).Str("topic", string(topic)).Msg("failed to publish change, refreshing locally")
		h.signal(topic)
	}
}

func (h *Hub) signal(topic Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[topic] {
		// A pending signal already covers this change.
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) add(topic Topic, sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
}

func (h *Hub) remove(topic Topic, sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[topic], sub)
}

// Subscribers returns how many live subscriptions topic has.
func (h *Hub) Subscribers(topic Topic) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs[topic])
}

// Subscribe delivers the result of fetch to onData once immediately and again
// after every change to topic. Deliveries for one subscription never overlap
// and arrive in fetch order. The returned function cancels the subscription
// and returns once no callback is running; it is safe to call more than once
// but must not be called from inside onData or onError.
func Subscribe[T any](h *Hub, topic Topic, fetch func(context.Context) (T, error), onData func(T), onError func(error)) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{signal: make(chan struct{}, 1)}
	sub.signal <- struct{}{}
	h.add(topic, sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.signal:
			}

			fetchCtx, fetchCancel := context.WithTimeout(ctx, h.timeout)
			data, err := fetch(fetchCtx)
			fetchCancel()

			if ctx.Err() != nil {
				return
			}
			if err != nil {
				h.logger.Warn().Err(err).Str("topic", string(topic)).Msg("subscription refresh failed")
				if onError != nil {
					onError(err)
				}
				continue
			}
			onData(data)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.remove(topic, sub)
			cancel()
			<-done
		})
	}
}
