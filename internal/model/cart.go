package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine pairs a product snapshot with a quantity.
type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     *string         `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CheckoutStage is a step of the linear checkout flow.
type CheckoutStage string

const (
	StageCart      CheckoutStage = "cart"
	StageSummary   CheckoutStage = "summary"
	StageForm      CheckoutStage = "form"
	StageSubmitted CheckoutStage = "submitted"
)

// CartSession is the persisted per-user cart and checkout position.
type CartSession struct {
	Lines     []CartLine    `json:"lines"`
	Stage     CheckoutStage `json:"stage"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CartView is the cart as returned to clients.
type CartView struct {
	Lines        []CartLine    `json:"lines"`
	Stage        CheckoutStage `json:"stage"`
	ItemCount    int           `json:"itemCount"`
	Total        int64         `json:"total"`
	Notification *Notification `json:"notification,omitempty"`
}

// AddToCartRequest is the body of an add-to-cart call.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}
