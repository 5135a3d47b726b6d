package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"tempopayroll/internal/model"
)

const employeeCacheTTL = 10 * time.Minute

func employeeCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("employee:%s", id)
}

// GetEmployee resolves a directory record, preferring the redis cache and
// warming it from Postgres on a miss.
func (r *Repo) GetEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	key := employeeCacheKey(id)

	if r.redisClient != nil {
		data, err := r.redisClient.Get(ctx, key).Bytes()
		if err == nil {
			var e model.Employee
			if err := json.Unmarshal(data, &e); err == nil {
				return &e, nil
			}
			// poisoned entry, fall through to the database
		} else if !errors.Is(err, redis.Nil) {
			slog.Warn("employee cache read failed", "employee_id", id, "error", err)
		}
	}

	var e model.Employee
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, name, email, wallet_address, status, created_at
		FROM employees
		WHERE id = $1
	`, id).Scan(&e.ID, &e.BusinessID, &e.Name, &e.Email, &e.WalletAddress, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	if r.redisClient != nil {
		if data, err := json.Marshal(&e); err == nil {
			if err := r.redisClient.Set(ctx, key, data, employeeCacheTTL).Err(); err != nil {
				slog.Warn("employee cache write failed", "employee_id", id, "error", err)
			}
		}
	}

	return &e, nil
}

// InsertEmployee adds a directory record. Wallet addresses are stored
// lower-cased so on-chain address comparisons stay case-insensitive.
func (r *Repo) InsertEmployee(ctx context.Context, e *model.Employee) (*model.Employee, error) {
	e.WalletAddress = strings.ToLower(e.WalletAddress)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (id, business_id, name, email, wallet_address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.BusinessID, e.Name, e.Email, e.WalletAddress, e.Status).Scan(&e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
