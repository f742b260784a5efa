package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capriccio/internal/analytics"
	"capriccio/internal/feed"
	"capriccio/internal/model"
	"capriccio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const clearScopePrefix = "clear-orders:"

// orderService implements OrderService.
type orderService struct {
	orderRepo       repository.OrderRepository
	confirmations   ConfirmationStore
	notifier        Notifier
	confirmationTTL time.Duration
	now             func() time.Time
	logger          zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	confirmations ConfirmationStore,
	notifier Notifier,
	confirmationTTL time.Duration,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:       orderRepo,
		confirmations:   confirmations,
		notifier:        notifier,
		confirmationTTL: confirmationTTL,
		now:             time.Now,
		logger:          logger.With().Str("service", "order").Logger(),
	}
}

// List returns the orders of a time range, newest first.
func (s *orderService) List(ctx context.Context, rangeName string) ([]model.Order, error) {
	r, err := analytics.ParseRange(rangeName)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, r)
}

// Report returns metrics and top products of a time range.
func (s *orderService) Report(ctx context.Context, rangeName string, top int) (analytics.Report, error) {
	r, err := analytics.ParseRange(rangeName)
	if err != nil {
		return analytics.Report{}, err
	}

	orders, err := s.load(ctx, r)
	if err != nil {
		return analytics.Report{}, err
	}

	return analytics.BuildReport(r, orders, top), nil
}

// UpdateStatus changes the status of an order.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (model.Notification, error) {
	if !status.IsValid() {
		return model.Notification{}, model.ErrInvalidStatus
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return model.Notification{}, err
		}
		s.logger.Error().Err(err).Str("order_id", id.String()).Str("status", string(status)).Msg("failed to update order status")
		return model.Notification{}, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info().Str("order_id", id.String()).Str("status", string(status)).Msg("order status updated")
	s.notifier.Notify(ctx, feed.TopicOrders)

	return model.NewNotification(model.LevelSuccess,
		fmt.Sprintf("Estado del pedido %s... actualizado a \"%s\"", id.String()[:6], status), 0), nil
}

// RequestClear issues the confirmation token for deleting the orders of a
// range. Nothing is deleted until ConfirmClear is called with the token.
func (s *orderService) RequestClear(ctx context.Context, rangeName string) (*model.ClearRequest, error) {
	r, err := analytics.ParseRange(rangeName)
	if err != nil {
		return nil, err
	}

	orders, err := s.load(ctx, r)
	if err != nil {
		return nil, err
	}

	token, err := s.confirmations.IssueConfirmation(ctx, clearScopePrefix+string(r), s.confirmationTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("range", string(r)).Msg("failed to issue clear confirmation")
		return nil, fmt.Errorf("failed to issue confirmation: %w", err)
	}

	return &model.ClearRequest{
		Token:     token,
		Range:     string(r),
		Orders:    len(orders),
		ExpiresAt: s.now().Add(s.confirmationTTL).UTC(),
	}, nil
}

// ConfirmClear deletes the orders of a range once token matches the range.
func (s *orderService) ConfirmClear(ctx context.Context, rangeName, token string) (*model.ClearResult, error) {
	r, err := analytics.ParseRange(rangeName)
	if err != nil {
		return nil, err
	}

	if err := s.confirmations.ConsumeConfirmation(ctx, token, clearScopePrefix+string(r)); err != nil {
		return nil, err
	}

	deleted, err := s.orderRepo.DeleteSince(ctx, r.Cutoff(s.now()))
	if err != nil {
		s.logger.Error().Err(err).Str("range", string(r)).Msg("failed to clear orders")
		return nil, fmt.Errorf("failed to clear orders: %w", err)
	}

	s.logger.Warn().Str("range", string(r)).Int64("deleted", deleted).Msg("orders cleared")
	s.notifier.Notify(ctx, feed.TopicOrders)

	return &model.ClearResult{
		Deleted: deleted,
		Notification: model.NewNotification(model.LevelSuccess,
			fmt.Sprintf("¡Éxito! Se eliminaron %d pedidos.", deleted), 0),
	}, nil
}

func (s *orderService) load(ctx context.Context, r analytics.Range) ([]model.Order, error) {
	now := s.now()
	orders, err := s.orderRepo.ListSince(ctx, r.Cutoff(now))
	if err != nil {
		s.logger.Error().Err(err).Str("range", string(r)).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return analytics.FilterByRange(orders, r, now), nil
}
