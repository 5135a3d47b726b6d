package repository

import (
	"context"

	"github.com/google/uuid"

	"tempopayroll/internal/model"
)

// InsertPayrollTransaction records a settled withdrawal in the payroll
// history. The unique request_id makes redelivered settlement events a
// no-op.
func (r *Repo) InsertPayrollTransaction(ctx context.Context, ev model.SettlementEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payroll_transactions
			(id, business_id, employee_id, request_id, amount, currency, tx_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (request_id) DO NOTHING
	`, uuid.New(), ev.BusinessID, ev.EmployeeID, ev.RequestID, ev.Amount,
		model.DefaultCurrency, ev.TxHash, "confirmed", ev.SettledAt)
	return err
}
