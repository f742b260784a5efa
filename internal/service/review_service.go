package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"capriccio/internal/analytics"
	"capriccio/internal/feed"
	"capriccio/internal/model"
	"capriccio/internal/repository"
	"capriccio/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var reviewFormMessages = validation.Messages{
	"rating":  "La calificación debe estar entre 1 y 5.",
	"comment": "El comentario no puede superar los 1000 caracteres.",
}

// reviewService implements ReviewService.
type reviewService struct {
	reviewRepo repository.ReviewRepository
	catalog    Catalog
	notifier   Notifier
	now        func() time.Time
	logger     zerolog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviewRepo repository.ReviewRepository, catalog Catalog, notifier Notifier, logger zerolog.Logger) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		catalog:    catalog,
		notifier:   notifier,
		now:        time.Now,
		logger:     logger.With().Str("service", "review").Logger(),
	}
}

// Create records a pending review. It becomes public once approved.
func (s *reviewService) Create(ctx context.Context, identity model.Identity, productID string, form model.ReviewForm) (*model.Review, model.Notification, error) {
	if _, ok := s.catalog.Product(productID); !ok {
		return nil, model.Notification{}, model.ErrProductNotFound
	}

	form.Comment = strings.TrimSpace(form.Comment)
	if err := validation.Struct(form, reviewFormMessages); err != nil {
		return nil, model.Notification{}, err
	}

	review := &model.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    identity.UserID,
		Rating:    form.Rating,
		Comment:   form.Comment,
		Status:    model.ReviewPending,
		CreatedAt: s.now().UTC(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Str("user_id", identity.UserID).Msg("failed to create review")
		return nil, model.Notification{}, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info().Str("review_id", review.ID.String()).Str("product_id", productID).Msg("review submitted")
	s.notifier.Notify(ctx, feed.TopicReviews)

	return review, model.NewNotification(model.LevelSuccess,
		"¡Reseña enviada con éxito! Estará visible una vez sea aprobada por un administrador.", 5*time.Second), nil
}

// Approved returns the approved reviews of a product, newest first.
func (s *reviewService) Approved(ctx context.Context, productID string) ([]model.Review, error) {
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID, model.ReviewApproved)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// List returns the reviews of a time range, newest first.
func (s *reviewService) List(ctx context.Context, rangeName string) ([]model.Review, error) {
	r, err := analytics.ParseRange(rangeName)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListSince(ctx, r.Cutoff(s.now()))
	if err != nil {
		s.logger.Error().Err(err).Str("range", string(r)).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// SetStatus moderates a review.
func (s *reviewService) SetStatus(ctx context.Context, id uuid.UUID, status model.ReviewStatus) (model.Notification, error) {
	if !status.IsValid() {
		return model.Notification{}, model.ErrInvalidStatus
	}

	if err := s.reviewRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, model.ErrReviewNotFound) {
			return model.Notification{}, err
		}
		s.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to update review status")
		return model.Notification{}, fmt.Errorf("failed to update review status: %w", err)
	}

	s.logger.Info().Str("review_id", id.String()).Str("status", string(status)).Msg("review moderated")
	s.notifier.Notify(ctx, feed.TopicReviews)

	return model.NewNotification(model.LevelSuccess,
		fmt.Sprintf("Estado de la reseña %s... actualizado a \"%s\"", id.String()[:6], status), 0), nil
}

// Delete removes a review.
func (s *reviewService) Delete(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrReviewNotFound) {
			return model.Notification{}, err
		}
		s.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to delete review")
		return model.Notification{}, fmt.Errorf("failed to delete review: %w", err)
	}

	s.logger.Info().Str("review_id", id.String()).Msg("review deleted")
	s.notifier.Notify(ctx, feed.TopicReviews)

	return model.NewNotification(model.LevelSuccess, "¡Reseña eliminada exitosamente!", 0), nil
}
