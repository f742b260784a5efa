package repository

import (
	"context"
	"time"

	"capriccio/internal/model"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List retrieves every product ordered by name.
	List(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// Update replaces the editable fields of a product.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product and its reviews.
	Delete(ctx context.Context, id string) error

	// SetStock overwrites the stock of a product. Last write wins.
	SetStock(ctx context.Context, id string, stock int) error

	// DecrementStock subtracts quantity from the stock, floored at zero,
	// and returns the new stock.
	DecrementStock(ctx context.Context, id string, quantity int) (int, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, order *model.Order) error

	// ListSince retrieves orders created at or after since, newest first.
	// A nil since returns every order.
	ListSince(ctx context.Context, since *time.Time) ([]model.Order, error)

	// UpdateStatus changes the status of an order.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error

	// DeleteSince removes orders created at or after since and returns how
	// many were deleted. A nil since removes every order.
	DeleteSince(ctx context.Context, since *time.Time) (int64, error)
}

// ReviewRepository defines the interface for review data access operations.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *model.Review) error

	// ListByProduct retrieves reviews of a product with the given status,
	// newest first.
	ListByProduct(ctx context.Context, productID string, status model.ReviewStatus) ([]model.Review, error)

	// ListSince retrieves reviews created at or after since, newest first.
	ListSince(ctx context.Context, since *time.Time) ([]model.Review, error)

	// UpdateStatus changes the moderation status of a review.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReviewStatus) error

	// Delete removes a review.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for profile and credential access.
type UserRepository interface {
	// GetProfile retrieves a profile. Returns nil when absent.
	GetProfile(ctx context.Context, id string) (*model.UserProfile, error)

	// CreateProfile inserts a profile unless one already exists and returns
	// the stored profile.
	CreateProfile(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error)

	// SetRole changes the role of an existing profile.
	SetRole(ctx context.Context, id string, role model.Role) error

	// GetCredentialByEmail retrieves a credential. Returns nil when absent.
	GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error)

	// UpsertCredential creates or replaces the credential of a profile.
	UpsertCredential(ctx context.Context, credential *model.Credential) error
}

// Repositories bundles the data access layer.
type Repositories struct {
	Products ProductRepository
	Orders   OrderRepository
	Reviews  ReviewRepository
	Users    UserRepository
}
