package repository

import (
	"context"
	"time"

	"capriccio/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewOffline returns repositories for running without a database. Reads
// yield empty results and writes fail as unavailable, so the storefront
// still renders and checkout still hands off to WhatsApp.
func NewOffline(logger zerolog.Logger) Repositories {
	o := &offline{logger: logger.With().Str("repository", "offline").Logger()}
	return Repositories{
		Products: offlineProducts{o},
		Orders:   offlineOrders{o},
		Reviews:  offlineReviews{o},
		Users:    offlineUsers{o},
	}
}

type offline struct {
	logger zerolog.Logger
}

func (o *offline) fail(op string) error {
	o.logger.Warn().Str("op", op).Msg("backend not configured")
	return &model.PersistenceError{
		Op:       op,
		Category: model.PersistenceUnavailable,
		Err:      model.ErrBackendUnavailable,
	}
}

type offlineProducts struct{ *offline }

func (offlineProducts) List(context.Context) ([]model.Product, error) {
	return []model.Product{}, nil
}

func (offlineProducts) GetByID(context.Context, string) (*model.Product, error) {
	return nil, nil
}

func (p offlineProducts) Create(context.Context, *model.Product) error {
	return p.fail("create product")
}

func (p offlineProducts) Update(context.Context, *model.Product) error {
	return p.fail("update product")
}

func (p offlineProducts) Delete(context.Context, string) error {
	return p.fail("delete product")
}

func (p offlineProducts) SetStock(context.Context, string, int) error {
	return p.fail("set stock")
}

func (p offlineProducts) DecrementStock(context.Context, string, int) (int, error) {
	return 0, p.fail("decrement stock")
}

type offlineOrders struct{ *offline }

func (o offlineOrders) Create(context.Context, *model.Order) error {
	return o.fail("create order")
}

func (offlineOrders) ListSince(context.Context, *time.Time) ([]model.Order, error) {
	return []model.Order{}, nil
}

func (o offlineOrders) UpdateStatus(context.Context, uuid.UUID, model.OrderStatus) error {
	return o.fail("update order status")
}

func (o offlineOrders) DeleteSince(context.Context, *time.Time) (int64, error) {
	return 0, o.fail("delete orders")
}

type offlineReviews struct{ *offline }

func (r offlineReviews) Create(context.Context, *model.Review) error {
	return r.fail("create review")
}

func (offlineReviews) ListByProduct(context.Context, string, model.ReviewStatus) ([]model.Review, error) {
	return []model.Review{}, nil
}

func (offlineReviews) ListSince(context.Context, *time.Time) ([]model.Review, error) {
	return []model.Review{}, nil
}

func (r offlineReviews) UpdateStatus(context.Context, uuid.UUID, model.ReviewStatus) error {
	return r.fail("update review status")
}

func (r offlineReviews) Delete(context.Context, uuid.UUID) error {
	return r.fail("delete review")
}

type offlineUsers struct{ *offline }

func (u offlineUsers) GetProfile(context.Context, string) (*model.UserProfile, error) {
	return nil, u.fail("get profile")
}

func (u offlineUsers) CreateProfile(context.Context, *model.UserProfile) (*model.UserProfile, error) {
	return nil, u.fail("create profile")
}

func (u offlineUsers) SetRole(context.Context, string, model.Role) error {
	return u.fail("set role")
}

func (offlineUsers) GetCredentialByEmail(context.Context, string) (*model.Credential, error) {
	return nil, nil
}

func (u offlineUsers) UpsertCredential(context.Context, *model.Credential) error {
	return u.fail("upsert credential")
}
