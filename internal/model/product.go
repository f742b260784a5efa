package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// UncategorizedLabel groups products without a category.
const UncategorizedLabel = "Sin categoría"

// Product represents a sellable item in the catalog.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Category    *string         `json:"category" db:"category"`
	Image       *string         `json:"image" db:"image"`
	Reviews     []Review        `json:"reviews,omitempty" db:"-"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// CategoryName returns the display category, defaulting to UncategorizedLabel.
func (p Product) CategoryName() string {
	if p.Category == nil || *p.Category == "" {
		return UncategorizedLabel
	}
	return *p.Category
}

// ProductForm is the raw admin product form. Price and Stock arrive as
// strings or numbers and are parsed before any arithmetic.
type ProductForm struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Price       FormValue `json:"price" validate:"required"`
	Stock       FormValue `json:"stock"`
	Category    string    `json:"category" validate:"required"`
	Image       string    `json:"image" validate:"omitempty,url"`
}

// ProductInput is a parsed ProductForm.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    *string
	Image       *string
}

// MaxPrice is the largest price the products table can hold. Prices carry at
// most two decimals.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// MaxStock is the largest stock the products table can hold.
const MaxStock = math.MaxInt32

// ClampStock returns n clamped to [0, MaxStock].
func ClampStock(n int) int {
	switch {
	case n < 0:
		return 0
	case n > MaxStock:
		return MaxStock
	}
	return n
}

// CategoryGroup is one category section of the storefront.
type CategoryGroup struct {
	Category string    `json:"category"`
	Products []Product `json:"products"`
}

// CatalogPage is the storefront view of the live catalog.
type CatalogPage struct {
	Loaded     bool            `json:"loaded"`
	Products   []Product       `json:"products"`
	Groups     []CategoryGroup `json:"groups"`
	Categories []string        `json:"categories"`
}

// FavoriteToggle reports the outcome of a favorite toggle.
type FavoriteToggle struct {
	ProductID    string       `json:"productId"`
	Favorite     bool         `json:"favorite"`
	Notification Notification `json:"notification"`
}

// StockUpdate is the admin request body for a stock overwrite.
type StockUpdate struct {
	Stock FormValue `json:"stock"`
}

// ProductResult wraps a product mutation with its notification.
type ProductResult struct {
	Product      *Product     `json:"product,omitempty"`
	Notification Notification `json:"notification"`
}

// ImageUpload is the result of an image upload.
type ImageUpload struct {
	URL          string       `json:"url"`
	Notification Notification `json:"notification"`
}
