package repository

import (
	"context"
	"errors"

	"capriccio/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// userRepository stores profiles and their optional credentials.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func (r *userRepository) GetProfile(ctx context.Context, id string) (*model.UserProfile, error) {
	var p model.UserProfile
	var role string
	err := r.pool.QueryRow(ctx, `SELECT id, role, created_at FROM users WHERE id = $1`, id).
		Scan(&p.ID, &role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id).Msg("failed to get profile")
		return nil, classify("get profile", err)
	}

	p.Role = model.Role(role)
	return &p, nil
}

// CreateProfile is idempotent: a concurrent first session for the same user
// ends with a single row and both callers read it back.
func (r *userRepository) CreateProfile(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, role, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, profile.ID, string(profile.Role), profile.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", profile.ID).Msg("failed to create profile")
		return nil, classify("create profile", err)
	}

	stored, err := r.GetProfile(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, classify("create profile", pgx.ErrNoRows)
	}

	return stored, nil
}

func (r *userRepository) SetRole(ctx context.Context, id string, role model.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id).Msg("failed to set role")
		return classify("set role", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUnauthorised
	}
	return nil
}

func (r *userRepository) GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error) {
	var c model.Credential
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, email, password_hash, disabled, created_at
		FROM credentials
		WHERE lower(email) = lower($1)
	`, email).Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.Disabled, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to get credential")
		return nil, classify("get credential", err)
	}

	return &c, nil
}

func (r *userRepository) UpsertCredential(ctx context.Context, credential *model.Credential) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO credentials (user_id, email, password_hash, disabled, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    password_hash = EXCLUDED.password_hash,
		    disabled = EXCLUDED.disabled
	`, credential.UserID, credential.Email, credential.PasswordHash, credential.Disabled, credential.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", credential.UserID).Msg("failed to upsert credential")
		return classify("upsert credential", err)
	}
	return nil
}
