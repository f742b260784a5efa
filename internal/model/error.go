package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error        string            `json:"error"`
	Message      string            `json:"message"`
	Fields       map[string]string `json:"fields,omitempty"`
	Available    *int              `json:"available,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeReviewNotFound      = "REVIEW_NOT_FOUND"
	ErrCodeCartLineNotFound    = "CART_LINE_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeInvalidStage        = "INVALID_CHECKOUT_STAGE"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeInvalidRange        = "INVALID_TIME_RANGE"
	ErrCodeInvalidConfirmation = "INVALID_CONFIRMATION"
	ErrCodeBackendUnavailable  = "BACKEND_UNAVAILABLE"
	ErrCodePersistence         = "PERSISTENCE_FAILED"
	ErrCodeUploadFailed        = "UPLOAD_FAILED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidEmail        = "INVALID_EMAIL"
	ErrCodeAccountDisabled     = "ACCOUNT_DISABLED"
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "Producto no encontrado")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Pedido no encontrado")
	ErrReviewNotFound      = NewDomainError(ErrCodeReviewNotFound, "Reseña no encontrada")
	ErrCartLineNotFound    = NewDomainError(ErrCodeCartLineNotFound, "El producto no está en el carrito")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "La cantidad debe ser mayor a cero")
	ErrEmptyCart           = NewDomainError(ErrCodeEmptyCart, "El carrito está vacío. Añade productos antes de hacer un pedido.")
	ErrInvalidStage        = NewDomainError(ErrCodeInvalidStage, "Acción no disponible en este paso del pedido")
	ErrInvalidStatus       = NewDomainError(ErrCodeInvalidStatus, "Estado inválido")
	ErrInvalidRange        = NewDomainError(ErrCodeInvalidRange, "Rango de tiempo inválido")
	ErrInvalidConfirmation = NewDomainError(ErrCodeInvalidConfirmation, "La confirmación expiró o no es válida")
	ErrBackendUnavailable  = NewDomainError(ErrCodeBackendUnavailable, "Base de datos no disponible. Intenta recargar la página.")
	ErrInvalidCredentials  = NewDomainError(ErrCodeInvalidCredentials, "Credenciales incorrectas. Verifica tu email y contraseña.")
	ErrInvalidEmail        = NewDomainError(ErrCodeInvalidEmail, "Formato de correo electrónico inválido.")
	ErrAccountDisabled     = NewDomainError(ErrCodeAccountDisabled, "Este usuario ha sido deshabilitado.")
	ErrTooManyRequests     = NewDomainError(ErrCodeTooManyRequests, "Demasiados intentos fallidos. Por favor, intenta de nuevo más tarde.")
	ErrInvalidToken        = NewDomainError(ErrCodeInvalidToken, "Token de autenticación inválido.")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "Sesión no válida")
	ErrNotAdmin            = NewDomainError(ErrCodeForbidden, "Acceso denegado: Este usuario no es un administrador.")
)

// InsufficientStockError rejects a cart mutation that would exceed the
// current catalog stock. Available carries the true stock count.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
	Increment bool
}

func (e *InsufficientStockError) Error() string {
	if e.Increment {
		return fmt.Sprintf("No hay suficiente stock para añadir más de %s. Stock disponible: %d", e.Name, e.Available)
	}
	return fmt.Sprintf("No hay suficiente stock para añadir %d unidad(es) de %s. Stock disponible: %d",
		e.Requested, e.Name, e.Available)
}

// Notification returns the error notification shown for the rejection.
func (e *InsufficientStockError) Notification() Notification {
	d := 3 * time.Second
	if e.Increment {
		d = 2 * time.Second
	}
	return NewNotification(LevelError, e.Error(), d)
}

// UploadError wraps an image host failure. The host message is shown as is.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return "Error al subir imagen: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field message, keeping the first one per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// PersistenceCategory classifies why a backend write or read failed.
type PersistenceCategory string

const (
	PersistencePermission  PersistenceCategory = "permission"
	PersistenceUnavailable PersistenceCategory = "unavailable"
	PersistenceQuota       PersistenceCategory = "quota"
	PersistenceUnknown     PersistenceCategory = "unknown"
)

// PersistenceError wraps a backend failure with its category.
type PersistenceError struct {
	Op       string
	Category PersistenceCategory
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Category, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CategoryOf returns the persistence category of err, or PersistenceUnknown.
func CategoryOf(err error) PersistenceCategory {
	var perr *PersistenceError
	if errors.As(err, &perr) {
		return perr.Category
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return PersistenceUnavailable
	}
	return PersistenceUnknown
}

// OrderPersistenceMessage returns the customer-facing message shown when an
// order could not be saved.
func OrderPersistenceMessage(category PersistenceCategory) string {
	switch category {
	case PersistencePermission:
		return "Error: Permisos insuficientes para guardar el pedido."
	case PersistenceUnavailable:
		return "Error de conexión con la base de datos. Por favor, revisa tu conexión a internet e inténtalo de nuevo."
	case PersistenceQuota:
		return "Error: Límite de cuota excedido. Por favor, inténtalo de nuevo más tarde."
	default:
		return "Error al guardar el pedido. Por favor, inténtalo de nuevo."
	}
}
