package service

import (
	"context"
	"fmt"
	"time"

	"capriccio/internal/model"

	"github.com/rs/zerolog"
)

// favoriteService implements FavoriteService.
type favoriteService struct {
	favorites FavoriteStore
	catalog   Catalog
	logger    zerolog.Logger
}

// NewFavoriteService creates a new favorites service.
func NewFavoriteService(favorites FavoriteStore, catalog Catalog, logger zerolog.Logger) FavoriteService {
	return &favoriteService{
		favorites: favorites,
		catalog:   catalog,
		logger:    logger.With().Str("service", "favorite").Logger(),
	}
}

// List returns the favorite products still in the catalog, sorted by name.
func (s *favoriteService) List(ctx context.Context, userID string) ([]model.Product, error) {
	ids, err := s.IDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.Favorites(ids), nil
}

// IDs returns the raw favorite ids, including deleted products.
func (s *favoriteService) IDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.favorites.Favorites(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load favorites")
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	return ids, nil
}

// Toggle adds a product to the favorites, or removes it when present.
func (s *favoriteService) Toggle(ctx context.Context, userID, productID string) (*model.FavoriteToggle, error) {
	added, err := s.favorites.ToggleFavorite(ctx, userID, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("product_id", productID).Msg("failed to toggle favorite")
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	n := model.NewNotification(model.LevelError, "Producto removido de favoritos", 1500*time.Millisecond)
	if added {
		n = model.NewNotification(model.LevelSuccess, "Producto añadido a favoritos", 1500*time.Millisecond)
	}

	return &model.FavoriteToggle{ProductID: productID, Favorite: added, Notification: n}, nil
}
