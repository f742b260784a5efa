package repository

import (
	"context"
	"time"

	"capriccio/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, user_id, items, total, customer_info, payment_method, cash_amount, change_due,
	delivery_method, order_type, order_time, notes, status, created_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	var status, payment, delivery, orderType string
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Items,
		&o.Total,
		&o.Customer,
		&payment,
		&o.CashAmount,
		&o.Change,
		&delivery,
		&orderType,
		&o.OrderTime,
		&o.Notes,
		&status,
		&o.CreatedAt,
	)
	o.Status = model.OrderStatus(status)
	o.PaymentMethod = model.PaymentMethod(payment)
	o.DeliveryMethod = model.DeliveryMethod(delivery)
	o.OrderType = model.OrderType(orderType)
	return o, err
}

// Create inserts a new order. Items and customer info are stored as JSONB
// snapshots.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Items,
		order.Total,
		order.Customer,
		string(order.PaymentMethod),
		order.CashAmount,
		order.Change,
		string(order.DeliveryMethod),
		string(order.OrderType),
		order.OrderTime,
		order.Notes,
		string(order.Status),
		order.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return classify("create order", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return nil
}

// ListSince retrieves orders created at or after since, newest first.
func (r *orderRepository) ListSince(ctx context.Context, since *time.Time) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE $1::timestamptz IS NULL OR created_at >= $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, classify("list orders", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, classify("scan order", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, classify("list orders", err)
	}

	return orders, nil
}

// UpdateStatus changes the status of an order.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return classify("update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// DeleteSince removes orders created at or after since.
func (r *orderRepository) DeleteSince(ctx context.Context, since *time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE $1::timestamptz IS NULL OR created_at >= $1`, since)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to delete orders")
		return 0, classify("delete orders", err)
	}

	r.logger.Info().Int64("deleted", tag.RowsAffected()).Msg("orders deleted")
	return tag.RowsAffected(), nil
}
