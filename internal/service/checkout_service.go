package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capriccio/internal/cart"
	"capriccio/internal/checkout"
	"capriccio/internal/events"
	"capriccio/internal/feed"
	"capriccio/internal/metrics"
	"capriccio/internal/model"
	"capriccio/internal/repository"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

const eventTimeout = 5 * time.Second

// checkoutService implements CheckoutService.
type checkoutService struct {
	carts       CartStore
	catalog     Catalog
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	assembler   *checkout.Assembler
	publisher   events.Publisher
	notifier    Notifier
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts CartStore,
	catalog Catalog,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	assembler *checkout.Assembler,
	publisher events.Publisher,
	notifier Notifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		carts:       carts,
		catalog:     catalog,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		assembler:   assembler,
		publisher:   publisher,
		notifier:    notifier,
		metrics:     m,
		now:         time.Now,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// Submit validates the form, records the order and builds the handoff.
// Once the form is valid the handoff and the cart reset always happen; a
// failed save only changes the notifications and the Persisted flag.
func (s *checkoutService) Submit(ctx context.Context, identity model.Identity, form model.CheckoutForm) (*model.CheckoutResult, error) {
	sess, err := s.carts.LoadCart(ctx, identity.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to load cart")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	engine := cart.New(sess.Lines, s.catalog)
	if engine.ItemCount() == 0 {
		return nil, model.ErrEmptyCart
	}
	if sess.Stage != model.StageForm {
		return nil, model.ErrInvalidStage
	}

	now := s.now()
	lines := engine.Lines()
	details, err := s.assembler.Validate(form, engine.Total(), now)
	if err != nil {
		return nil, err
	}

	order := s.assembler.Order(identity.UserID, lines, details, now)
	result := &model.CheckoutResult{Total: details.Total}
	if details.Form.PaymentMethod == model.PaymentCash {
		change := details.Change
		result.Change = &change
	}

	saveErr := s.orderRepo.Create(ctx, &order)
	result.Persisted = saveErr == nil

	if result.Persisted {
		id := order.ID
		result.OrderID = &id
		result.Notifications = append(result.Notifications, s.decrementStock(ctx, order)...)
		result.Notifications = append(result.Notifications,
			model.NewNotification(model.LevelSuccess, "Pedido guardado y enviado a WhatsApp!", 3*time.Second))

		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("user_id", identity.UserID).
			Int("item_count", len(order.Items)).
			Int64("total", details.Total).
			Msg("order saved")
	} else {
		category := model.CategoryOf(saveErr)
		result.Notifications = append(result.Notifications,
			model.NewNotification(model.LevelError, model.OrderPersistenceMessage(category), 7*time.Second))

		s.logger.Error().
			Err(saveErr).
			Str("user_id", identity.UserID).
			Str("category", string(category)).
			Msg("failed to save order, continuing with handoff")
	}

	result.Message = s.assembler.Message(lines, details)
	result.HandoffURL = s.assembler.HandoffURL(result.Message)

	s.publish(ctx, order, result.Persisted, now)

	cleared := model.CartSession{Lines: []model.CartLine{}, Stage: model.StageCart}
	if err := s.carts.SaveCart(ctx, identity.UserID, cleared); err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to reset cart after submission")
	}
	result.Cart = model.CartView{Lines: []model.CartLine{}, Stage: model.StageSubmitted}

	s.metrics.OrderSubmitted(result.Persisted)
	if result.Persisted {
		s.notifier.Notify(ctx, feed.TopicOrders)
		s.notifier.Notify(ctx, feed.TopicProducts)
	}

	return result, nil
}

// decrementStock lowers the stock of every ordered product. Failures are
// reported per item and never undo the order.
func (s *checkoutService) decrementStock(ctx context.Context, order model.Order) []model.Notification {
	var (
		errs     error
		warnings []model.Notification
	)

	for _, item := range order.Items {
		_, err := s.productRepo.DecrementStock(ctx, item.ID, item.Quantity)
		switch {
		case err == nil:
		case errors.Is(err, model.ErrProductNotFound):
			// Deleted since it was added to the cart; nothing to tell the customer.
			s.logger.Warn().
				Str("order_id", order.ID.String()).
				Str("product_id", item.ID).
				Msg("ordered product no longer exists, stock not updated")
		default:
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", item.ID, err))
			warnings = append(warnings, model.NewNotification(model.LevelWarning,
				fmt.Sprintf("Advertencia: No se pudo actualizar el stock de %s.", item.Name), 5*time.Second))
		}
	}

	if errs != nil {
		failed := len(multierr.Errors(errs))
		s.metrics.StockDecrementFailed(failed)
		s.logger.Warn().
			Err(errs).
			Str("order_id", order.ID.String()).
			Int("failed_items", failed).
			Msg("stock update incomplete after order")
	}

	return warnings
}

func (s *checkoutService) publish(ctx context.Context, order model.Order, persisted bool, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	event := events.OrderPlaced{Order: order, Persisted: persisted, PlacedAt: now.UTC()}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("user_id", order.UserID).Msg("failed to publish order event")
	}
}
