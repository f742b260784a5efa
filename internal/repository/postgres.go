package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// New wires every PostgreSQL repository to the same pool.
func New(pool *pgxpool.Pool, logger zerolog.Logger) Repositories {
	return Repositories{
		Products: NewProductRepository(pool, logger),
		Orders:   NewOrderRepository(pool, logger),
		Reviews:  NewReviewRepository(pool, logger),
		Users:    NewUserRepository(pool, logger),
	}
}
