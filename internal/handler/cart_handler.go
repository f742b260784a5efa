package handler

import (
	"context"
	"net/http"

	"capriccio/internal/model"
	"capriccio/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CartHandler handles the cart and checkout flow of the session user.
type CartHandler struct {
	cart     service.CartService
	checkout service.CheckoutService
	logger   zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cart service.CartService, checkout service.CheckoutService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		cart:     cart,
		checkout: checkout,
		logger:   logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.cart.Get)
}

// Add handles POST /api/cart/items requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	h.respond(w, r, func(ctx context.Context, userID string) (model.CartView, error) {
		return h.cart.Add(ctx, userID, req)
	})
}

// Increase handles POST /api/cart/items/{id}/increase requests.
func (h *CartHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.line(r, h.cart.Increase))
}

// Decrease handles POST /api/cart/items/{id}/decrease requests.
func (h *CartHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.line(r, h.cart.Decrease))
}

// Remove handles DELETE /api/cart/items/{id} requests.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.line(r, h.cart.Remove))
}

// Clear handles DELETE /api/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.cart.Clear)
}

// Next handles POST /api/checkout/next requests.
func (h *CartHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.cart.Next)
}

// Back handles POST /api/checkout/back requests.
func (h *CartHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.cart.Back)
}

// Submit handles POST /api/checkout/submit requests. A saved order answers
// 201; an order that only reached the WhatsApp handoff answers 202.
func (h *CartHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	var form model.CheckoutForm
	if !decodeJSON(w, r, &form, h.logger) {
		return
	}

	result, err := h.checkout.Submit(r.Context(), identity, form)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	status := http.StatusAccepted
	if result.Persisted {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (h *CartHandler) line(r *http.Request, op func(context.Context, string, string) (model.CartView, error)) func(context.Context, string) (model.CartView, error) {
	productID := chi.URLParam(r, "id")
	return func(ctx context.Context, userID string) (model.CartView, error) {
		return op(ctx, userID, productID)
	}
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (model.CartView, error)) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	view, err := op(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
