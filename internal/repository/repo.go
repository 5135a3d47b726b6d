// Package repository is the pgx-backed implementation of the stream store,
// withdrawal request ledger, employee directory and payroll history sink.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type Repo struct {
	pool        *pgxpool.Pool
	redisClient *redis.Client
}

// New builds a Repo. The redis client is optional; without it employee
// lookups always hit Postgres.
func New(pool *pgxpool.Pool, rdb *redis.Client) *Repo {
	return &Repo{pool: pool, redisClient: rdb}
}

// overWithdrawTolerance allows for cent rounding when checking settlements
// against the accrued ceiling.
var overWithdrawTolerance = decimal.New(1, -2)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
