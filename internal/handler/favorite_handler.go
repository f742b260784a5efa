package handler

import (
	"net/http"

	"capriccio/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// FavoriteHandler handles the favorites of the session user.
type FavoriteHandler struct {
	service service.FavoriteService
	logger  zerolog.Logger
}

// NewFavoriteHandler creates a new favorites handler.
func NewFavoriteHandler(service service.FavoriteService, logger zerolog.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		service: service,
		logger:  logger.With().Str("handler", "favorite").Logger(),
	}
}

// List handles GET /api/favorites requests. With ?ids=true only the raw
// ids are returned.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	if r.URL.Query().Get("ids") == "true" {
		ids, err := h.service.IDs(r.Context(), identity.UserID)
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, ids)
		return
	}

	products, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Toggle handles POST /api/favorites/{id} requests.
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Toggle(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
