package repository

import (
	"context"
	"time"

	"capriccio/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const reviewColumns = `id, product_id, user_id, rating, comment, status, created_at`

type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `INSERT INTO reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Comment,
		string(review.Status),
		review.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", review.ProductID).Msg("failed to create review")
		return classify("create review", err)
	}

	return nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID string, status model.ReviewStatus) ([]model.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1 AND status = $2
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list product reviews", query, productID, string(status))
}

func (r *reviewRepository) ListSince(ctx context.Context, since *time.Time) ([]model.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE $1::timestamptz IS NULL OR created_at >= $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list reviews", query, since)
}

func (r *reviewRepository) list(ctx context.Context, op, query string, args ...any) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("op", op).Msg("failed to query reviews")
		return nil, classify(op, err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		var status string
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &status, &rv.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan review row")
			return nil, classify(op, err)
		}
		rv.Status = model.ReviewStatus(status)
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}

	return reviews, nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReviewStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reviews SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to update review status")
		return classify("update review status", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to delete review")
		return classify("delete review", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}
