package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"capriccio/internal/feed"
	"capriccio/internal/metrics"
	"capriccio/internal/model"

	"github.com/rs/zerolog"
)

// Streamer serves change-feed subscriptions as server-sent events.
type Streamer struct {
	hub       *feed.Hub
	metrics   *metrics.Metrics
	keepAlive time.Duration
	logger    zerolog.Logger
}

// NewStreamer creates a streamer backed by hub.
func NewStreamer(hub *feed.Hub, m *metrics.Metrics, logger zerolog.Logger) *Streamer {
	return &Streamer{
		hub:       hub,
		metrics:   m,
		keepAlive: 25 * time.Second,
		logger:    logger.With().Str("handler", "stream").Logger(),
	}
}

type streamEvent struct {
	name string
	data interface{}
}

// serveStream writes one "snapshot" event per fetch result until the client
// goes away. A failed refresh is sent as an "error" event and the stream
// stays open.
func serveStream[T any](s *Streamer, w http.ResponseWriter, r *http.Request, topic feed.Topic, fetch func(context.Context) (T, error)) {
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Error().Err(err).Msg("response does not support streaming")
		return
	}

	events := make(chan streamEvent, 1)
	push := func(ev streamEvent) {
		// Only the latest result matters to a slow client.
		select {
		case <-events:
		default:
		}
		select {
		case events <- ev:
		default:
		}
	}

	closeGauge := s.metrics.StreamOpened(string(topic))
	defer closeGauge()

	unsubscribe := feed.Subscribe(s.hub, topic, fetch,
		func(data T) { push(streamEvent{name: "snapshot", data: data}) },
		func(err error) {
			push(streamEvent{name: "error", data: model.ErrorResponse{
				Error:   model.ErrCodeBackendUnavailable,
				Message: "No se pudieron actualizar los datos en vivo.",
			}})
		},
	)
	defer unsubscribe()

	s.logger.Debug().Str("topic", string(topic)).Msg("stream opened")

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug().Str("topic", string(topic)).Msg("stream closed")
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case ev := <-events:
			payload, err := json.Marshal(ev.data)
			if err != nil {
				s.logger.Error().Err(err).Msg("failed to encode stream event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, payload); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
