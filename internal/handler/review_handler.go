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

// ReviewHandler handles product reviews and their moderation.
type ReviewHandler struct {
	service  service.ReviewService
	streamer *Streamer
	logger   zerolog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service service.ReviewService, streamer *Streamer, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		streamer: streamer,
		logger:   logger.With().Str("handler", "review").Logger(),
	}
}

type reviewCreated struct {
	Review       *model.Review      `json:"review"`
	Notification model.Notification `json:"notification"`
}

// Approved handles GET /api/products/{id}/reviews requests.
func (h *ReviewHandler) Approved(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.Approved(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// Create handles POST /api/products/{id}/reviews requests.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	var form model.ReviewForm
	if !decodeJSON(w, r, &form, h.logger) {
		return
	}

	review, n, err := h.service.Create(r.Context(), identity, chi.URLParam(r, "id"), form)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, reviewCreated{Review: review, Notification: n})
}

// List handles GET /api/admin/reviews?range= requests.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.List(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// Stream handles GET /api/admin/reviews/stream?range= requests.
func (h *ReviewHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rangeName := r.URL.Query().Get("range")
	if _, err := analytics.ParseRange(rangeName); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	serveStream(h.streamer, w, r, feed.TopicReviews, func(ctx context.Context) ([]model.Review, error) {
		return h.service.List(ctx, rangeName)
	})
}

// SetStatus handles PATCH /api/admin/reviews/{id}/status requests.
func (h *ReviewHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), model.ErrReviewNotFound, h.logger)
	if !ok {
		return
	}

	var req model.ReviewStatusUpdate
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	n, err := h.service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Notification{"notification": n})
}

// Delete handles DELETE /api/admin/reviews/{id} requests.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), model.ErrReviewNotFound, h.logger)
	if !ok {
		return
	}

	n, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Notification{"notification": n})
}
