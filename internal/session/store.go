package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"capriccio/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	cartPrefix         = "cart"
	favoritesPrefix    = "favorites"
	confirmationPrefix = "confirm"
	rateLimitPrefix    = "rate_limit"
	revokedPrefix      = "revoked"

	confirmationTokenBytes = 24
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	SAdd(context.Context, string, ...any) *redis.IntCmd
	SRem(context.Context, string, ...any) *redis.IntCmd
	SMembers(context.Context, string) *redis.StringSliceCmd
	SIsMember(context.Context, string, any) *redis.BoolCmd
}

// Store keeps per-user session state in Redis: the cart and checkout stage,
// favorites, bulk-clear confirmations, sign-in counters and revoked tokens.
type Store struct {
	store   cmdable
	prefix  string
	cartTTL time.Duration
	logger  zerolog.Logger
}

// NewStore creates a session store on top of a Redis client.
func NewStore(client cmdable, prefix string, cartTTL time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		store:   client,
		prefix:  prefix,
		cartTTL: cartTTL,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.store.Ping(ctx).Err()
}

// LoadCart returns the stored cart session of a user, or an empty one at the
// cart stage.
func (s *Store) LoadCart(ctx context.Context, userID string) (model.CartSession, error) {
	raw, err := s.store.Get(ctx, s.key(cartPrefix, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.CartSession{Lines: []model.CartLine{}, Stage: model.StageCart}, nil
		}
		return model.CartSession{}, fmt.Errorf("load cart: %w", err)
	}

	var sess model.CartSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("discarding unreadable cart session")
		return model.CartSession{Lines: []model.CartLine{}, Stage: model.StageCart}, nil
	}
	if sess.Stage == "" {
		sess.Stage = model.StageCart
	}
	if sess.Lines == nil {
		sess.Lines = []model.CartLine{}
	}

	return sess, nil
}

// SaveCart stores the cart session and refreshes its TTL.
func (s *Store) SaveCart(ctx context.Context, userID string, sess model.CartSession) error {
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.Set(ctx, s.key(cartPrefix, userID), data, s.cartTTL).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// DeleteCart drops the cart session of a user.
func (s *Store) DeleteCart(ctx context.Context, userID string) error {
	if err := s.store.Del(ctx, s.key(cartPrefix, userID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// Favorites returns the favorite product ids of a user, sorted.
func (s *Store) Favorites(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.store.SMembers(ctx, s.key(favoritesPrefix, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsFavorite reports whether productID is in the user's favorites.
func (s *Store) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	ok, err := s.store.SIsMember(ctx, s.key(favoritesPrefix, userID), productID).Result()
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return ok, nil
}

// ToggleFavorite adds productID to the favorites, or removes it when it was
// already present. It reports whether the id ended up added.
func (s *Store) ToggleFavorite(ctx context.Context, userID, productID string) (bool, error) {
	key := s.key(favoritesPrefix, userID)

	added, err := s.store.SAdd(ctx, key, productID).Result()
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	if added == 1 {
		return true, nil
	}

	if err := s.store.SRem(ctx, key, productID).Err(); err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	return false, nil
}

// IssueConfirmation stores a single-use token bound to scope.
func (s *Store) IssueConfirmation(ctx context.Context, scope string, ttl time.Duration) (string, error) {
	buf := make([]byte, confirmationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating confirmation token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	ok, err := s.store.SetNX(ctx, s.key(confirmationPrefix, token), scope, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store confirmation: %w", err)
	}
	if !ok {
		return "", errors.New("confirmation token collision")
	}

	return token, nil
}

// ConsumeConfirmation checks the token was issued for scope and deletes it.
// A token can be consumed at most once; a scope mismatch leaves it in place.
func (s *Store) ConsumeConfirmation(ctx context.Context, token, scope string) error {
	if strings.TrimSpace(token) == "" {
		return model.ErrInvalidConfirmation
	}

	key := s.key(confirmationPrefix, token)
	stored, err := s.store.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrInvalidConfirmation
		}
		return fmt.Errorf("consume confirmation: %w", err)
	}
	if stored != scope {
		return model.ErrInvalidConfirmation
	}

	// Only the caller that actually deletes the key consumes it.
	deleted, err := s.store.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("consume confirmation: %w", err)
	}
	if deleted == 0 {
		return model.ErrInvalidConfirmation
	}

	return nil
}

// AllowAttempt applies a fixed-window rate limit to scope.
func (s *Store) AllowAttempt(ctx context.Context, scope string, limit int64, window time.Duration) (bool, error) {
	key := s.key(rateLimitPrefix, scope)

	count, err := s.store.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	if window > 0 && count == 1 {
		if err := s.store.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	return count <= limit, nil
}

// ResetAttempts clears the rate-limit counter of scope.
func (s *Store) ResetAttempts(ctx context.Context, scope string) error {
	return s.store.Del(ctx, s.key(rateLimitPrefix, scope)).Err()
}

// Revoke marks a token id as signed out until it would have expired anyway.
func (s *Store) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.store.Set(ctx, s.key(revokedPrefix, tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id was signed out.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.store.Get(ctx, s.key(revokedPrefix, tokenID)).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, fmt.Errorf("check revocation: %w", err)
}

func (s *Store) key(parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	if s.prefix != "" {
		clean = append(clean, s.prefix)
	}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
