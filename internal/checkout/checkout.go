// Package checkout validates checkout forms and assembles orders and the
// WhatsApp handoff message.
package checkout

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"capriccio/internal/model"
	"capriccio/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const localTimeLayout = "2006-01-02T15:04"

// Config holds the store settings the assembler needs.
type Config struct {
	WhatsAppNumber string
	PickupAddress  string
	Location       *time.Location
	LeadTime       time.Duration
}

// Details are the typed values of a validated checkout form.
type Details struct {
	Form       model.CheckoutForm
	Total      int64
	CashAmount decimal.Decimal
	Change     int64
	OrderTime  time.Time
}

// Assembler turns a cart and a checkout form into an order record and a
// handoff message.
type Assembler struct {
	cfg Config
}

// NewAssembler creates an assembler. A nil location means UTC.
func NewAssembler(cfg Config) *Assembler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Assembler{cfg: cfg}
}

func normalize(form model.CheckoutForm) model.CheckoutForm {
	form.Name = strings.TrimSpace(form.Name)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Address = strings.TrimSpace(form.Address)
	form.OrderTime = strings.TrimSpace(form.OrderTime)
	form.Notes = strings.TrimSpace(form.Notes)
	return form
}

// Validate checks the form against a cart total and returns its typed values.
// Every failing field is reported in a single *model.ValidationError.
func (a *Assembler) Validate(form model.CheckoutForm, total int64, now time.Time) (Details, error) {
	form = normalize(form)
	insufficient := fmt.Sprintf("El monto debe ser igual o mayor al total del pedido ($%d).", total)

	verr := &model.ValidationError{}
	if err := validation.Struct(form, validation.Messages{
		"name":              "El nombre es obligatorio.",
		"phone.required":    "El teléfono es obligatorio.",
		"phone.number":      "El teléfono debe contener solo números.",
		"phone.min":         "El teléfono debe tener al menos 8 dígitos.",
		"address":           "La dirección es obligatoria.",
		"cashAmount":        insufficient,
		"paymentMethod":     "Selecciona un método de pago.",
		"deliveryMethod":    "Selecciona un método de entrega.",
		"orderType":         "Selecciona el tipo de pedido.",
		"orderTime":         "Indica la fecha y hora de la reserva.",
		"notes":             "Las notas no pueden superar los 500 caracteres.",
		"proofAcknowledged": "Confirma que enviarás el comprobante de pago.",
	}); err != nil {
		structErr, ok := err.(*model.ValidationError)
		if !ok {
			return Details{}, err
		}
		verr = structErr
	}

	details := Details{Form: form, Total: total, OrderTime: now}

	if form.PaymentMethod == model.PaymentCash && verr.Fields["cashAmount"] == "" {
		amount, err := form.CashAmount.Decimal()
		if err != nil || amount.LessThan(decimal.NewFromInt(total)) {
			verr.Add("cashAmount", insufficient)
		} else {
			details.CashAmount = amount
			details.Change = amount.Sub(decimal.NewFromInt(total)).Floor().IntPart()
		}
	}

	if form.OrderType == model.OrderTypeReserved && verr.Fields["orderTime"] == "" {
		at, err := a.parseTime(form.OrderTime)
		switch {
		case err != nil:
			verr.Add("orderTime", "Fecha de reserva inválida.")
		case at.Before(now.Add(a.cfg.LeadTime)):
			verr.Add("orderTime", "La reserva debe ser al menos 1 minuto posterior a la hora actual.")
		default:
			details.OrderTime = at
		}
	}

	if !verr.Empty() {
		return Details{}, verr
	}
	return details, nil
}

func (a *Assembler) parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localTimeLayout, s, a.cfg.Location)
}

// Order builds the pending order record with a frozen item snapshot.
func (a *Assembler) Order(userID string, lines []model.CartLine, d Details, now time.Time) model.Order {
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			ID:       l.ProductID,
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.Price,
		})
	}

	order := model.Order{
		ID:     uuid.New(),
		UserID: userID,
		Items:  items,
		Total:  decimal.NewNullDecimal(decimal.NewFromInt(d.Total)),
		Customer: model.CustomerInfo{
			Name:    d.Form.Name,
			Address: d.Form.Address,
			Phone:   d.Form.Phone,
		},
		PaymentMethod:  d.Form.PaymentMethod,
		DeliveryMethod: d.Form.DeliveryMethod,
		OrderType:      d.Form.OrderType,
		OrderTime:      d.OrderTime.UTC(),
		Notes:          d.Form.Notes,
		Status:         model.OrderStatusPending,
		CreatedAt:      now.UTC(),
	}

	if d.Form.PaymentMethod == model.PaymentCash {
		order.CashAmount = decimal.NewNullDecimal(d.CashAmount)
		order.Change = decimal.NewNullDecimal(decimal.NewFromInt(d.Change))
	}

	return order
}

// Message formats the plain-text order summary sent to the store.
func (a *Assembler) Message(lines []model.CartLine, d Details) string {
	var b strings.Builder

	b.WriteString("*--- CAPRICCIO APP ---*\n\n")
	b.WriteString("*Datos del Cliente:*\n")
	fmt.Fprintf(&b, "Nombre: %s\n", d.Form.Name)
	fmt.Fprintf(&b, "Teléfono: %s\n", d.Form.Phone)

	switch d.Form.DeliveryMethod {
	case model.DeliveryPickup:
		fmt.Fprintf(&b, "*Método de Entrega:* Retiro en el local (%s)\n", a.cfg.PickupAddress)
	case model.DeliveryHomeDelivery:
		fmt.Fprintf(&b, "*Método de Entrega:* Delivery a domicilio (sin cargo)\n*Dirección:* %s\n", d.Form.Address)
	}

	switch d.Form.OrderType {
	case model.OrderTypeImmediate:
		b.WriteString("*Tipo de Pedido:* Inmediato\n")
	case model.OrderTypeReserved:
		fmt.Fprintf(&b, "*Tipo de Pedido:* Reserva para el %s\n", d.OrderTime.In(a.cfg.Location).Format("2/1/2006, 15:04:05"))
	}

	if d.Form.Notes != "" {
		fmt.Fprintf(&b, "*Notas:* %s\n", d.Form.Notes)
	}

	b.WriteString("\n*Detalle del Pedido:*\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "%dx %s ($%d c/u)\n", l.Quantity, l.Name, l.Price.Floor().IntPart())
	}

	fmt.Fprintf(&b, "\n*Total a Pagar:* $%d\n\n", d.Total)

	switch d.Form.PaymentMethod {
	case model.PaymentCash:
		fmt.Fprintf(&b, "*Método de Pago:* Efectivo\n*Abona con:* $%d\n*Vuelto:* $%d\n",
			d.CashAmount.Floor().IntPart(), d.Change)
	case model.PaymentMercadoPago:
		b.WriteString("*Método de Pago:* Mercado Pago\n_(Se requiere comprobante para confirmar)_\n")
	}

	b.WriteString("\n¡Gracias por tu pedido!")

	return strings.TrimSpace(b.String())
}

// HandoffURL returns the WhatsApp deep link carrying message.
func (a *Assembler) HandoffURL(message string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + a.cfg.WhatsAppNumber + "?text=" + encoded
}
