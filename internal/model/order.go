package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the kitchen lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:        "Pendiente",
	OrderStatusPreparing:      "Preparando",
	OrderStatusOutForDelivery: "En camino",
	OrderStatusDelivered:      "Entregado",
	OrderStatusCancelled:      "Cancelado",
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Label returns the storefront display name.
func (s OrderStatus) Label() string {
	return orderStatusLabels[s]
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentMercadoPago PaymentMethod = "mercadopago"
)

// DeliveryMethod is how the order reaches the customer.
type DeliveryMethod string

const (
	DeliveryHomeDelivery DeliveryMethod = "delivery"
	DeliveryPickup       DeliveryMethod = "pickup"
)

// OrderType distinguishes immediate orders from reservations.
type OrderType string

const (
	OrderTypeImmediate OrderType = "immediate"
	OrderTypeReserved  OrderType = "reserved"
)

// OrderItem is a denormalized snapshot of a cart line at order time.
type OrderItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Subtotal returns price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CustomerInfo holds the contact data captured at checkout.
type CustomerInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Order represents a placed customer order.
type Order struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	UserID         string              `json:"userId" db:"user_id"`
	Items          []OrderItem         `json:"items" db:"items"`
	Total          decimal.NullDecimal `json:"total" db:"total"`
	Customer       CustomerInfo        `json:"customerInfo" db:"customer_info"`
	PaymentMethod  PaymentMethod       `json:"paymentMethod" db:"payment_method"`
	CashAmount     decimal.NullDecimal `json:"cashAmount" db:"cash_amount"`
	Change         decimal.NullDecimal `json:"change" db:"change_due"`
	DeliveryMethod DeliveryMethod      `json:"deliveryMethod" db:"delivery_method"`
	OrderType      OrderType           `json:"orderType" db:"order_type"`
	OrderTime      time.Time           `json:"orderTime" db:"order_time"`
	Notes          string              `json:"notes" db:"notes"`
	Status         OrderStatus         `json:"status" db:"status"`
	CreatedAt      time.Time           `json:"createdAt" db:"created_at"`
}

// ItemsTotal returns the unfloored sum of the snapshot subtotals.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// EffectiveTotal returns the stored total, or the snapshot sum when the
// order carries no total.
func (o Order) EffectiveTotal() decimal.Decimal {
	if o.Total.Valid {
		return o.Total.Decimal
	}
	return ItemsTotal(o.Items)
}

// OrderStatusUpdate is the admin request body for a status change.
type OrderStatusUpdate struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// ClearRequest is the first step of a bulk order deletion.
type ClearRequest struct {
	Token     string    `json:"token"`
	Range     string    `json:"range"`
	Orders    int       `json:"orders"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ClearResult reports a confirmed bulk order deletion.
type ClearResult struct {
	Deleted      int64        `json:"deleted"`
	Notification Notification `json:"notification"`
}
