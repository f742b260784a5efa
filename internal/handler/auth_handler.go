package handler

import (
	"net/http"
	"strconv"

	"capriccio/internal/model"
	"capriccio/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler handles sign-in, sign-out and the current identity.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// Anonymous handles POST /api/auth/anonymous requests.
func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.SignInAnonymous(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Login handles POST /api/auth/login requests. With ?admin=true only admin
// accounts are let in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	admin, _ := strconv.ParseBool(r.URL.Query().Get("admin"))
	session, err := h.service.Login(r.Context(), req, admin)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Token handles POST /api/auth/token requests.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req model.CustomTokenRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	session, err := h.service.SignInWithToken(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Logout handles POST /api/auth/logout requests.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	n, err := h.service.SignOut(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Notification{"notification": n})
}

// Me handles GET /api/auth/me requests.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.service.Me(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
