package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tempopayroll/internal/model"
)

const streamColumns = `id, business_id, employee_id, annual_salary, stream_rate_per_second,
		start_date, status, total_withdrawn, last_withdrawal_at, created_at`

func scanStream(row pgx.Row) (*model.Stream, error) {
	var s model.Stream
	err := row.Scan(
		&s.ID,
		&s.BusinessID,
		&s.EmployeeID,
		&s.AnnualSalary,
		&s.RatePerSecond,
		&s.StartDate,
		&s.Status,
		&s.TotalWithdrawn,
		&s.LastWithdrawalAt,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// InsertStream persists a new stream. A partial unique index on
// (business_id, employee_id) WHERE status = 'active' enforces the
// one-active-stream-per-employee invariant.
func (r *Repo) InsertStream(ctx context.Context, s *model.Stream) (*model.Stream, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payroll_streams
			(id, business_id, employee_id, annual_salary, stream_rate_per_second, start_date, status, total_withdrawn)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, s.ID, s.BusinessID, s.EmployeeID, s.AnnualSalary, s.RatePerSecond, s.StartDate, s.Status, s.TotalWithdrawn,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("employee %s already has an active stream: %w", s.EmployeeID, model.ErrConflict)
		}
		return nil, err
	}
	return s, nil
}

func (r *Repo) GetActiveStream(ctx context.Context, id uuid.UUID) (*model.Stream, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+streamColumns+`
		FROM payroll_streams
		WHERE id = $1 AND status = $2
	`, id, model.StreamActive)
	return scanStream(row)
}

// ListStreams returns active streams matching the filter, newest first.
func (r *Repo) ListStreams(ctx context.Context, f model.StreamFilter) ([]model.Stream, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+streamColumns+`
		FROM payroll_streams
		WHERE status = $1
			AND ($2::uuid IS NULL OR business_id = $2)
			AND ($3::uuid IS NULL OR employee_id = $3)
		ORDER BY created_at DESC
	`, model.StreamActive, f.BusinessID, f.EmployeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var streams []model.Stream
	for rows.Next() {
		s, err := scanStream(rows)
		if err != nil {
			return nil, err
		}
		streams = append(streams, *s)
	}
	return streams, rows.Err()
}
