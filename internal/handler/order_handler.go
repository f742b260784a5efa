package handler

import (
	"context"
	"net/http"

	"capriccio/internal/analytics"
	"capriccio/internal/feed"
	"capriccio/internal/model"
	"capriccio/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles the admin order dashboard.
type OrderHandler struct {
	service     service.OrderService
	streamer    *Streamer
	topProducts int
	logger      zerolog.Logger
}

// NewOrderHandler creates a new order handler. topProducts is the ranking
// size used when the request does not set one.
func NewOrderHandler(service service.OrderService, streamer *Streamer, topProducts int, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:     service,
		streamer:    streamer,
		topProducts: topProducts,
		logger:      logger.With().Str("handler", "order").Logger(),
	}
}

type clearConfirmation struct {
	Range string `json:"range"`
}

// List handles GET /api/admin/orders?range= requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Stream handles GET /api/admin/orders/stream?range= requests.
func (h *OrderHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rangeName := r.URL.Query().Get("range")
	if _, err := analytics.ParseRange(rangeName); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	serveStream(h.streamer, w, r, feed.TopicOrders, func(ctx context.Context) ([]model.Order, error) {
		return h.service.List(ctx, rangeName)
	})
}

// Metrics handles GET /api/admin/metrics?range=&top= requests.
func (h *OrderHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context(), r.URL.Query().Get("range"), queryInt(r, "top", h.topProducts))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// UpdateStatus handles PATCH /api/admin/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), model.ErrOrderNotFound, h.logger)
	if !ok {
		return
	}

	var req model.OrderStatusUpdate
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	n, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Notification{"notification": n})
}

// RequestClear handles POST /api/admin/orders/clear-requests requests. It
// returns the single-use token that DELETE /api/admin/orders requires.
func (h *OrderHandler) RequestClear(w http.ResponseWriter, r *http.Request) {
	var req clearConfirmation
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	clear, err := h.service.RequestClear(r.Context(), req.Range)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, clear)
}

// ConfirmClear handles DELETE /api/admin/orders?range=&token= requests.
func (h *OrderHandler) ConfirmClear(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.ConfirmClear(r.Context(), q.Get("range"), q.Get("token"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
