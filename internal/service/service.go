package service

import (
	"context"
	"time"

	"capriccio/internal/analytics"
	"capriccio/internal/feed"
	"capriccio/internal/model"
	"capriccio/internal/upload"

	"github.com/google/uuid"
)

// CartService defines the per-session cart and checkout flow operations.
type CartService interface {
	// Get returns the current cart of a user.
	Get(ctx context.Context, userID string) (model.CartView, error)

	// Add puts quantity units of a product into the cart.
	Add(ctx context.Context, userID string, req model.AddToCartRequest) (model.CartView, error)

	// Increase adds one unit to a cart line.
	Increase(ctx context.Context, userID, productID string) (model.CartView, error)

	// Decrease removes one unit from a cart line, never below one.
	Decrease(ctx context.Context, userID, productID string) (model.CartView, error)

	// Remove deletes a cart line.
	Remove(ctx context.Context, userID, productID string) (model.CartView, error)

	// Clear empties the cart and resets the checkout flow.
	Clear(ctx context.Context, userID string) (model.CartView, error)

	// Next advances the checkout flow by one stage.
	Next(ctx context.Context, userID string) (model.CartView, error)

	// Back returns the checkout flow to the previous stage.
	Back(ctx context.Context, userID string) (model.CartView, error)
}

// CheckoutService defines order submission.
type CheckoutService interface {
	// Submit validates the form, records the order and builds the WhatsApp
	// handoff. The handoff is produced even when the order cannot be saved.
	Submit(ctx context.Context, identity model.Identity, form model.CheckoutForm) (*model.CheckoutResult, error)
}

// ProductService defines catalog browsing and product administration.
type ProductService interface {
	// Browse searches the live catalog and groups the result by category.
	Browse(query, category string) model.CatalogPage

	// Live builds the storefront page from the repository, for streams.
	Live(ctx context.Context, query, category string) (model.CatalogPage, error)

	// Featured returns the featured products.
	Featured() []model.Product

	// Get returns a product with its approved reviews.
	Get(ctx context.Context, id string) (*model.Product, error)

	// Create parses the form and inserts a new product.
	Create(ctx context.Context, form model.ProductForm) (*model.ProductResult, error)

	// Update parses the form and replaces a product.
	Update(ctx context.Context, id string, form model.ProductForm) (*model.ProductResult, error)

	// Delete removes a product.
	Delete(ctx context.Context, id string) (model.Notification, error)

	// SetStock overwrites the stock of a product with the clamped value.
	SetStock(ctx context.Context, id string, value model.FormValue) (*model.ProductResult, error)

	// UploadImage stores a product image and returns its URL.
	UploadImage(ctx context.Context, file upload.File) (*model.ImageUpload, error)
}

// OrderService defines the admin order operations.
type OrderService interface {
	// List returns the orders of a time range, newest first.
	List(ctx context.Context, rangeName string) ([]model.Order, error)

	// Report returns metrics and top products of a time range.
	Report(ctx context.Context, rangeName string, top int) (analytics.Report, error)

	// UpdateStatus changes the status of an order.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (model.Notification, error)

	// RequestClear issues the confirmation token for a bulk deletion.
	RequestClear(ctx context.Context, rangeName string) (*model.ClearRequest, error)

	// ConfirmClear deletes the orders of a range once the token matches.
	ConfirmClear(ctx context.Context, rangeName, token string) (*model.ClearResult, error)
}

// ReviewService defines product review operations.
type ReviewService interface {
	// Create records a pending review.
	Create(ctx context.Context, identity model.Identity, productID string, form model.ReviewForm) (*model.Review, model.Notification, error)

	// Approved returns the approved reviews of a product, newest first.
	Approved(ctx context.Context, productID string) ([]model.Review, error)

	// List returns the reviews of a time range for moderation.
	List(ctx context.Context, rangeName string) ([]model.Review, error)

	// SetStatus moderates a review.
	SetStatus(ctx context.Context, id uuid.UUID, status model.ReviewStatus) (model.Notification, error)

	// Delete removes a review.
	Delete(ctx context.Context, id uuid.UUID) (model.Notification, error)
}

// FavoriteService defines the per-session favorites.
type FavoriteService interface {
	// List returns the favorite products still in the catalog.
	List(ctx context.Context, userID string) ([]model.Product, error)

	// IDs returns the raw favorite ids.
	IDs(ctx context.Context, userID string) ([]string, error)

	// Toggle adds or removes a product from the favorites.
	Toggle(ctx context.Context, userID, productID string) (*model.FavoriteToggle, error)
}

// AuthService defines sign-in, sign-out and token verification.
type AuthService interface {
	// SignInAnonymous issues a session for a fresh anonymous identity.
	SignInAnonymous(ctx context.Context) (*model.Session, error)

	// Login verifies email and password. With admin set, non-admin
	// accounts are denied.
	Login(ctx context.Context, req model.LoginRequest, admin bool) (*model.Session, error)

	// SignInWithToken exchanges an externally signed token for a session,
	// falling back to an anonymous identity when the token is rejected.
	SignInWithToken(ctx context.Context, req model.CustomTokenRequest) (*model.Session, error)

	// SignOut revokes the session token.
	SignOut(ctx context.Context, identity model.Identity) (model.Notification, error)

	// Me returns the profile of the identity.
	Me(ctx context.Context, identity model.Identity) (*model.Session, error)

	// Authenticate verifies a bearer token.
	Authenticate(ctx context.Context, token string) (model.Identity, error)
}

// CartStore persists cart sessions.
type CartStore interface {
	LoadCart(ctx context.Context, userID string) (model.CartSession, error)
	SaveCart(ctx context.Context, userID string, sess model.CartSession) error
}

// FavoriteStore persists favorite sets.
type FavoriteStore interface {
	Favorites(ctx context.Context, userID string) ([]string, error)
	ToggleFavorite(ctx context.Context, userID, productID string) (bool, error)
}

// ConfirmationStore issues and consumes single-use tokens.
type ConfirmationStore interface {
	IssueConfirmation(ctx context.Context, scope string, ttl time.Duration) (string, error)
	ConsumeConfirmation(ctx context.Context, token, scope string) error
}

// SessionGuard holds sign-in rate limits and revoked tokens.
type SessionGuard interface {
	AllowAttempt(ctx context.Context, scope string, limit int64, window time.Duration) (bool, error)
	ResetAttempts(ctx context.Context, scope string) error
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Notifier announces committed changes on the change feed.
type Notifier interface {
	Notify(ctx context.Context, topic feed.Topic)
}

// Catalog is the read side of the live product snapshot.
type Catalog interface {
	Product(id string) (model.Product, bool)
	Stock(id string) (int, bool)
	Status() (loaded bool, syncedAt time.Time, lastErr error)
	Search(query, category string) []model.Product
	Featured() []model.Product
	Favorites(ids []string) []model.Product
	Categories() []string
}
