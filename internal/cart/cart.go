// Package cart enforces stock-bounded quantities on a session's cart lines.
package cart

import (
	"fmt"
	"time"

	"capriccio/internal/model"

	"github.com/shopspring/decimal"
)

// StockSource reports the current stock of a product.
type StockSource interface {
	Stock(productID string) (int, bool)
}

// Engine mutates an ordered list of cart lines. Every stock check reads the
// StockSource at call time, never a value cached in the line.
type Engine struct {
	lines []model.CartLine
	stock StockSource
}

// New creates an engine over lines. The slice is copied.
func New(lines []model.CartLine, stock StockSource) *Engine {
	cp := make([]model.CartLine, len(lines))
	copy(cp, lines)
	return &Engine{lines: cp, stock: stock}
}

// Lines returns a copy of the cart lines in insertion order.
func (e *Engine) Lines() []model.CartLine {
	out := make([]model.CartLine, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *Engine) find(productID string) int {
	for i, l := range e.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) available(productID string) int {
	n, ok := e.stock.Stock(productID)
	if !ok {
		return 0
	}
	return n
}

// Add merges quantity units of p into the cart. It fails without mutating
// the cart when the line would exceed the current stock.
func (e *Engine) Add(p model.Product, quantity int) (model.Notification, error) {
	if quantity <= 0 {
		return model.Notification{}, model.ErrInvalidQuantity
	}

	i := e.find(p.ID)
	existing := 0
	if i >= 0 {
		existing = e.lines[i].Quantity
	}

	available := e.available(p.ID)
	if existing+quantity > available {
		err := &model.InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: quantity,
			Available: available,
		}
		return err.Notification(), err
	}

	if i >= 0 {
		e.lines[i].Quantity += quantity
		return model.NewNotification(model.LevelInfo,
			fmt.Sprintf("%s +%d unidad(es)", p.Name, quantity), 1500*time.Millisecond), nil
	}

	e.lines = append(e.lines, model.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  quantity,
	})
	return model.NewNotification(model.LevelSuccess,
		fmt.Sprintf("\"%s\" añadido al carrito", p.Name), 2*time.Second), nil
}

// Increase adds one unit to a line if the current stock allows it.
func (e *Engine) Increase(productID string) (model.Notification, error) {
	i := e.find(productID)
	if i < 0 {
		return model.Notification{}, model.ErrCartLineNotFound
	}

	line := e.lines[i]
	available := e.available(productID)
	if line.Quantity+1 > available {
		err := &model.InsufficientStockError{
			ProductID: productID,
			Name:      line.Name,
			Requested: 1,
			Available: available,
			Increment: true,
		}
		return err.Notification(), err
	}

	e.lines[i].Quantity++
	return model.NewNotification(model.LevelInfo,
		fmt.Sprintf("%s +1 unidad(es)", line.Name), 1500*time.Millisecond), nil
}

// Decrease removes one unit from a line, never going below one.
func (e *Engine) Decrease(productID string) (model.Notification, error) {
	i := e.find(productID)
	if i < 0 {
		return model.Notification{}, model.ErrCartLineNotFound
	}

	if e.lines[i].Quantity > 1 {
		e.lines[i].Quantity--
	}
	return model.NewNotification(model.LevelInfo,
		fmt.Sprintf("%s: %d unidad(es)", e.lines[i].Name, e.lines[i].Quantity), 1500*time.Millisecond), nil
}

// Remove deletes a line unconditionally.
func (e *Engine) Remove(productID string) model.Notification {
	if i := e.find(productID); i >= 0 {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
	}
	return model.NewNotification(model.LevelError, "Producto eliminado del carrito", 2*time.Second)
}

// Clear empties the cart.
func (e *Engine) Clear() model.Notification {
	e.lines = []model.CartLine{}
	return model.NewNotification(model.LevelError, "Carrito vaciado", 2*time.Second)
}

// ItemCount returns the number of units in the cart.
func (e *Engine) ItemCount() int {
	n := 0
	for _, l := range e.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal returns the exact, untruncated sum of the lines.
func (e *Engine) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Total returns the cart total truncated to whole currency units.
func (e *Engine) Total() int64 {
	return Floor(e.Subtotal())
}

// Floor truncates a non-negative amount to whole currency units.
func Floor(d decimal.Decimal) int64 {
	return d.Floor().IntPart()
}
