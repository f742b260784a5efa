package model

import "github.com/google/uuid"

// CheckoutForm is the customer-supplied checkout data.
type CheckoutForm struct {
	Name              string         `json:"name" validate:"required"`
	Phone             string         `json:"phone" validate:"required,number,min=8"`
	Address           string         `json:"address" validate:"required_if=DeliveryMethod delivery"`
	PaymentMethod     PaymentMethod  `json:"paymentMethod" validate:"required,oneof=cash mercadopago"`
	CashAmount        FormValue      `json:"cashAmount" validate:"required_if=PaymentMethod cash"`
	DeliveryMethod    DeliveryMethod `json:"deliveryMethod" validate:"required,oneof=delivery pickup"`
	OrderType         OrderType      `json:"orderType" validate:"required,oneof=immediate reserved"`
	OrderTime         string         `json:"orderTime" validate:"required_if=OrderType reserved"`
	Notes             string         `json:"notes" validate:"max=500"`
	ProofAcknowledged bool           `json:"proofAcknowledged" validate:"required_if=PaymentMethod mercadopago"`
}

// CheckoutResult reports the outcome of a submission. HandoffURL is always
// set once validation passes, whether or not the order was persisted.
type CheckoutResult struct {
	OrderID       *uuid.UUID     `json:"orderId,omitempty"`
	Persisted     bool           `json:"persisted"`
	Total         int64          `json:"total"`
	Change        *int64         `json:"change,omitempty"`
	Message       string         `json:"message"`
	HandoffURL    string         `json:"handoffUrl"`
	Notifications []Notification `json:"notifications"`
	Cart          CartView       `json:"cart"`
}
