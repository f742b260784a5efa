package service

import (
	"context"
	"errors"
	"fmt"

	"capriccio/internal/cart"
	"capriccio/internal/checkout"
	"capriccio/internal/metrics"
	"capriccio/internal/model"

	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	carts   CartStore
	catalog Catalog
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts CartStore, catalog Catalog, m *metrics.Metrics, logger zerolog.Logger) CartService {
	return &cartService{
		carts:   carts,
		catalog: catalog,
		metrics: m,
		logger:  logger.With().Str("service", "cart").Logger(),
	}
}

// Get returns the current cart of a user.
func (s *cartService) Get(ctx context.Context, userID string) (model.CartView, error) {
	sess, err := s.carts.LoadCart(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load cart")
		return model.CartView{}, fmt.Errorf("failed to load cart: %w", err)
	}
	return viewOf(sess, cart.New(sess.Lines, s.catalog), nil), nil
}

// Add puts quantity units of a product into the cart. A zero quantity means one.
func (s *cartService) Add(ctx context.Context, userID string, req model.AddToCartRequest) (model.CartView, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	product, ok := s.catalog.Product(req.ProductID)
	if !ok {
		return model.CartView{}, model.ErrProductNotFound
	}

	return s.mutate(ctx, userID, func(e *cart.Engine) (model.Notification, error) {
		return e.Add(product, quantity)
	})
}

// Increase adds one unit to a cart line.
func (s *cartService) Increase(ctx context.Context, userID, productID string) (model.CartView, error) {
	return s.mutate(ctx, userID, func(e *cart.Engine) (model.Notification, error) {
		return e.Increase(productID)
	})
}

// Decrease removes one unit from a cart line.
func (s *cartService) Decrease(ctx context.Context, userID, productID string) (model.CartView, error) {
	return s.mutate(ctx, userID, func(e *cart.Engine) (model.Notification, error) {
		return e.Decrease(productID)
	})
}

// Remove deletes a cart line.
func (s *cartService) Remove(ctx context.Context, userID, productID string) (model.CartView, error) {
	return s.mutate(ctx, userID, func(e *cart.Engine) (model.Notification, error) {
		return e.Remove(productID), nil
	})
}

// Clear empties the cart and resets the checkout flow.
func (s *cartService) Clear(ctx context.Context, userID string) (model.CartView, error) {
	sess, err := s.carts.LoadCart(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load cart")
		return model.CartView{}, fmt.Errorf("failed to load cart: %w", err)
	}

	engine := cart.New(sess.Lines, s.catalog)
	n := engine.Clear()
	sess.Lines = engine.Lines()
	sess.Stage = model.StageCart

	if err := s.carts.SaveCart(ctx, userID, sess); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to save cart")
		return model.CartView{}, fmt.Errorf("failed to save cart: %w", err)
	}
	return viewOf(sess, engine, &n), nil
}

// Next advances the checkout flow by one stage.
func (s *cartService) Next(ctx context.Context, userID string) (model.CartView, error) {
	return s.move(ctx, userID, func(stage model.CheckoutStage, items int) (model.CheckoutStage, error) {
		return checkout.Next(stage, items)
	})
}

// Back returns the checkout flow to the previous stage.
func (s *cartService) Back(ctx context.Context, userID string) (model.CartView, error) {
	return s.move(ctx, userID, func(stage model.CheckoutStage, _ int) (model.CheckoutStage, error) {
		return checkout.Back(stage)
	})
}

// mutate applies op to the stored cart and saves it when op succeeds.
// Rejected mutations leave the stored cart untouched.
func (s *cartService) mutate(ctx context.Context, userID string, op func(*cart.Engine) (model.Notification, error)) (model.CartView, error) {
	sess, err := s.carts.LoadCart(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load cart")
		return model.CartView{}, fmt.Errorf("failed to load cart: %w", err)
	}

	engine := cart.New(sess.Lines, s.catalog)
	n, err := op(engine)
	if err != nil {
		var stockErr *model.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.metrics.CartRejected("insufficient_stock")
			s.logger.Debug().
				Str("user_id", userID).
				Str("product_id", stockErr.ProductID).
				Int("available", stockErr.Available).
				Msg("cart mutation rejected")
		}
		return model.CartView{}, err
	}

	sess.Lines = engine.Lines()
	if len(sess.Lines) == 0 {
		sess.Stage = model.StageCart
	}

	if err := s.carts.SaveCart(ctx, userID, sess); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to save cart")
		return model.CartView{}, fmt.Errorf("failed to save cart: %w", err)
	}

	return viewOf(sess, engine, &n), nil
}

func (s *cartService) move(ctx context.Context, userID string, step func(model.CheckoutStage, int) (model.CheckoutStage, error)) (model.CartView, error) {
	sess, err := s.carts.LoadCart(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load cart")
		return model.CartView{}, fmt.Errorf("failed to load cart: %w", err)
	}

	engine := cart.New(sess.Lines, s.catalog)
	next, err := step(sess.Stage, engine.ItemCount())
	if err != nil {
		return model.CartView{}, err
	}
	sess.Stage = next

	if err := s.carts.SaveCart(ctx, userID, sess); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to save cart")
		return model.CartView{}, fmt.Errorf("failed to save cart: %w", err)
	}

	return viewOf(sess, engine, nil), nil
}

func viewOf(sess model.CartSession, engine *cart.Engine, n *model.Notification) model.CartView {
	return model.CartView{
		Lines:        engine.Lines(),
		Stage:        sess.Stage,
		ItemCount:    engine.ItemCount(),
		Total:        engine.Total(),
		Notification: n,
	}
}
