package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"capriccio/internal/middleware"
	"capriccio/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxJSONBody = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// The status line is already out.
		return
	}
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, resp model.ErrorResponse, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", resp.Error).Int("status", status).Msg("handler error")
	writeJSON(w, status, resp)
}

// writeDomainError maps err to its HTTP status and response body.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var (
		verr *model.ValidationError
		serr *model.InsufficientStockError
		uerr *model.UploadError
		derr *model.DomainError
		perr *model.PersistenceError
	)

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "Por favor, revisa los datos ingresados.",
			Fields:  verr.Fields,
		}, logger)

	case errors.As(err, &serr):
		n := serr.Notification()
		available := serr.Available
		writeError(w, http.StatusConflict, model.ErrorResponse{
			Error:        model.ErrCodeInsufficientStock,
			Message:      serr.Error(),
			Available:    &available,
			Notification: &n,
		}, logger)

	case errors.As(err, &uerr):
		logger.Error().Err(err).Msg("image upload failed")
		writeError(w, http.StatusBadGateway, model.ErrorResponse{
			Error:   model.ErrCodeUploadFailed,
			Message: uerr.Error(),
		}, logger)

	case errors.As(err, &derr):
		writeError(w, domainStatus(derr.Code), model.ErrorResponse{
			Error:   derr.Code,
			Message: derr.Message,
		}, logger)

	case errors.As(err, &perr):
		logger.Error().Err(err).Str("category", string(perr.Category)).Msg("persistence failure")
		writeError(w, persistenceStatus(perr.Category), model.ErrorResponse{
			Error:   model.ErrCodePersistence,
			Message: persistenceMessage(perr.Category),
		}, logger)

	default:
		logger.Error().Err(err).Msg("unexpected error")
		writeError(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "Error interno del servidor",
		}, logger)
	}
}

func domainStatus(code string) int {
	switch code {
	case model.ErrCodeProductNotFound, model.ErrCodeOrderNotFound,
		model.ErrCodeReviewNotFound, model.ErrCodeCartLineNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidJSON, model.ErrCodeInvalidQuantity, model.ErrCodeInvalidStatus,
		model.ErrCodeInvalidRange, model.ErrCodeInvalidEmail:
		return http.StatusBadRequest
	case model.ErrCodeEmptyCart, model.ErrCodeInvalidStage, model.ErrCodeInvalidConfirmation:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials, model.ErrCodeInvalidToken, model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeAccountDisabled, model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case model.ErrCodeBackendUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func persistenceStatus(category model.PersistenceCategory) int {
	switch category {
	case model.PersistencePermission:
		return http.StatusForbidden
	case model.PersistenceUnavailable, model.PersistenceQuota:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func persistenceMessage(category model.PersistenceCategory) string {
	switch category {
	case model.PersistencePermission:
		return "Error: Permisos insuficientes."
	case model.PersistenceUnavailable:
		return model.ErrBackendUnavailable.Message
	case model.PersistenceQuota:
		return "Error: Límite de cuota excedido. Por favor, inténtalo de nuevo más tarde."
	}
	return "Error al acceder a la base de datos."
}

// decodeJSON reads a JSON body into dst. It writes a 400 and returns false
// when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeInvalidJSON,
			Message: "Cuerpo de la solicitud inválido",
		}, logger)
		return false
	}
	return true
}

// requireIdentity returns the identity set by the auth middleware.
func requireIdentity(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (model.Identity, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeDomainError(w, model.ErrUnauthorised, logger)
	}
	return identity, ok
}

func parseUUID(w http.ResponseWriter, raw string, notFound error, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeDomainError(w, notFound, logger)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
