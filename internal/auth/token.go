// Package auth issues and verifies session tokens and password hashes.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"capriccio/internal/config"
	"capriccio/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingMethod = jwt.SigningMethodHS256

// Claims are the session token claims.
type Claims struct {
	Role      model.Role `json:"role"`
	Anonymous bool       `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

// Tokens mints and parses session tokens and verifies custom sign-in tokens.
type Tokens struct {
	secret       []byte
	customSecret []byte
	issuer       string
	ttl          time.Duration
}

// NewTokens creates a token service from the auth configuration.
func NewTokens(cfg config.AuthConfig) (*Tokens, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("jwt issuer is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}

	return &Tokens{
		secret:       []byte(cfg.JWTSecret),
		customSecret: []byte(cfg.CustomTokenSecret),
		issuer:       cfg.Issuer,
		ttl:          cfg.TokenTTL,
	}, nil
}

// Mint issues a signed session token for identity. The token id and expiry
// are written back into the returned identity.
func (t *Tokens) Mint(now time.Time, identity model.Identity) (string, model.Identity, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return "", identity, errors.New("user id is required")
	}
	if !identity.Role.IsValid() {
		return "", identity, fmt.Errorf("invalid role %q", identity.Role)
	}

	identity.TokenID = uuid.NewString()
	identity.ExpiresAt = now.Add(t.ttl).Truncate(time.Second)

	claims := Claims{
		Role:      identity.Role,
		Anonymous: identity.Anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
			ID:        identity.TokenID,
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(t.secret)
	if err != nil {
		return "", identity, fmt.Errorf("signing jwt: %w", err)
	}
	return signed, identity, nil
}

// Parse validates a session token and returns its identity.
func (t *Tokens) Parse(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if token.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return model.Identity{}, model.ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.IsValid() {
		return model.Identity{}, model.ErrInvalidToken
	}

	identity := model.Identity{
		UserID:    claims.Subject,
		Role:      claims.Role,
		Anonymous: claims.Anonymous,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// VerifyCustomToken validates an externally signed sign-in token and
// returns its subject. Custom tokens never carry a role.
func (t *Tokens) VerifyCustomToken(tokenString string) (string, error) {
	if len(t.customSecret) == 0 {
		return "", model.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return t.customSecret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || strings.TrimSpace(claims.Subject) == "" {
		return "", model.ErrInvalidToken
	}
	return claims.Subject, nil
}
