package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"tempopayroll/internal/accrual"
	"tempopayroll/internal/model"
)

// InsertRequest appends a pending withdrawal request. The owning stream row
// is locked for the duration of the insert and the caller's total_withdrawn
// snapshot is re-checked under the lock, so an availability figure computed
// against a stale total is rejected with ErrConflict instead of being
// written.
func (r *Repo) InsertRequest(ctx context.Context, streamID uuid.UUID, amount, expectedWithdrawn decimal.Decimal) (*model.WithdrawalRequest, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT total_withdrawn FROM payroll_streams
		WHERE id = $1 AND status = $2
		FOR UPDATE
	`, streamID, model.StreamActive).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if !current.Equal(expectedWithdrawn) {
		return nil, fmt.Errorf("stream %s total_withdrawn moved from %s to %s: %w",
			streamID, expectedWithdrawn, current, model.ErrConflict)
	}

	req := &model.WithdrawalRequest{
		ID:       uuid.New(),
		StreamID: streamID,
		Amount:   amount,
		Status:   model.RequestPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (id, stream_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, req.ID, req.StreamID, req.Amount, req.Status).Scan(&req.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *Repo) GetRequest(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	var req model.WithdrawalRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, stream_id, amount, status, tx_hash, created_at
		FROM withdrawal_requests
		WHERE id = $1
	`, id).Scan(&req.ID, &req.StreamID, &req.Amount, &req.Status, &req.TxHash, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListPendingByBusiness returns pending requests whose stream belongs to the
// business, oldest first. The inner join drops requests whose stream no
// longer resolves, matching the listing contract.
func (r *Repo) ListPendingByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.PendingWithdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.stream_id, r.amount, r.status, r.created_at, s.employee_id
		FROM withdrawal_requests r
		JOIN payroll_streams s ON s.id = r.stream_id
		WHERE r.status = $1 AND s.business_id = $2
		ORDER BY r.created_at ASC
	`, model.RequestPending, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []model.PendingWithdrawal
	for rows.Next() {
		var p model.PendingWithdrawal
		if err := rows.Scan(&p.ID, &p.StreamID, &p.Amount, &p.Status, &p.CreatedAt, &p.EmployeeID); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// ApplySettlement marks a pending request paid and advances the stream's
// total in one transaction, so a crash can never leave the request paid
// without the stream reflecting it (or vice versa).
//
// An already-paid or unknown request surfaces ErrNotFound, which is what
// makes duplicate completion calls safe to reject. A settlement that would
// push total_withdrawn past what the stream has accrued is rejected with
// ErrConflict; that can only happen when pending requests were approved
// against overlapping availability.
func (r *Repo) ApplySettlement(ctx context.Context, requestID, businessID uuid.UUID, txHash string, now time.Time) (*model.Settlement, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var req model.WithdrawalRequest
	err = tx.QueryRow(ctx, `
		SELECT id, stream_id, amount, status, created_at
		FROM withdrawal_requests
		WHERE id = $1 AND status = $2
		FOR UPDATE
	`, requestID, model.RequestPending).Scan(&req.ID, &req.StreamID, &req.Amount, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	var s model.Stream
	err = tx.QueryRow(ctx, `
		SELECT id, business_id, employee_id, stream_rate_per_second, start_date, total_withdrawn
		FROM payroll_streams
		WHERE id = $1
		FOR UPDATE
	`, req.StreamID).Scan(&s.ID, &s.BusinessID, &s.EmployeeID, &s.RatePerSecond, &s.StartDate, &s.TotalWithdrawn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if s.BusinessID != businessID {
		// ownership mismatch is presented the same as a missing stream
		return nil, model.ErrNotFound
	}

	newTotal := s.TotalWithdrawn.Add(req.Amount)
	earned := accrual.Earned(s.RatePerSecond, s.StartDate, now)
	if newTotal.Sub(earned).GreaterThan(overWithdrawTolerance) {
		return nil, fmt.Errorf("settlement of %s would exceed accrued %s on stream %s: %w",
			req.Amount, earned.StringFixed(2), s.ID, model.ErrConflict)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE withdrawal_requests SET status = $1, tx_hash = $2 WHERE id = $3
	`, model.RequestPaid, txHash, req.ID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE payroll_streams SET total_withdrawn = $1, last_withdrawal_at = $2 WHERE id = $3
	`, newTotal, now, s.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &model.Settlement{
		RequestID:      req.ID,
		StreamID:       s.ID,
		BusinessID:     s.BusinessID,
		EmployeeID:     s.EmployeeID,
		Amount:         req.Amount,
		TxHash:         txHash,
		TotalWithdrawn: newTotal,
		SettledAt:      now,
	}, nil
}
