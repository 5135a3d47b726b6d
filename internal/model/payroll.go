package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StreamActive   = "active"
	StreamInactive = "inactive"

	RequestPending = "pending"
	RequestPaid    = "paid"

	DefaultCurrency = "USDC"
)

// Stream is one employee's continuously accruing salary arrangement.
// total_withdrawn only ever grows, and only through a settlement.
type Stream struct {
	ID               uuid.UUID       `json:"id"`
	BusinessID       uuid.UUID       `json:"business_id"`
	EmployeeID       uuid.UUID       `json:"employee_id"`
	AnnualSalary     decimal.Decimal `json:"annual_salary"`
	RatePerSecond    decimal.Decimal `json:"stream_rate_per_second"`
	StartDate        time.Time       `json:"start_date"`
	Status           string          `json:"status"`
	TotalWithdrawn   decimal.Decimal `json:"total_withdrawn"`
	LastWithdrawalAt *time.Time      `json:"last_withdrawal_at"`
	CreatedAt        time.Time       `json:"created_at"`
}

// WithdrawalRequest is a claim against a stream's available balance.
// The amount is snapshotted at creation and never recomputed.
type WithdrawalRequest struct {
	ID        uuid.UUID       `json:"id"`
	StreamID  uuid.UUID       `json:"stream_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	TxHash    *string         `json:"tx_hash"`
	CreatedAt time.Time       `json:"created_at"`
}

// PendingWithdrawal is a pending request enriched with the owning stream's
// employee and that employee's directory record.
type PendingWithdrawal struct {
	ID            uuid.UUID       `json:"id"`
	StreamID      uuid.UUID       `json:"stream_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	EmployeeID    uuid.UUID       `json:"employee_id"`
	EmployeeName  string          `json:"employee_name"`
	WalletAddress string          `json:"wallet_address"`
}

// StreamBalance is the read-only accrual projection polled by clients.
type StreamBalance struct {
	StreamID       uuid.UUID       `json:"stream_id"`
	RatePerSecond  decimal.Decimal `json:"stream_rate_per_second"`
	Earned         decimal.Decimal `json:"earned"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	Available      decimal.Decimal `json:"available"`
	AsOf           time.Time       `json:"as_of"`
}

// Employee is the directory record used to enrich pending withdrawals.
type Employee struct {
	ID            uuid.UUID `json:"id"`
	BusinessID    uuid.UUID `json:"business_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	WalletAddress string    `json:"wallet_address"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Settlement is the outcome of completing a withdrawal request.
type Settlement struct {
	RequestID      uuid.UUID       `json:"request_id"`
	StreamID       uuid.UUID       `json:"stream_id"`
	BusinessID     uuid.UUID       `json:"business_id"`
	EmployeeID     uuid.UUID       `json:"employee_id"`
	Amount         decimal.Decimal `json:"amount"`
	TxHash         string          `json:"tx_hash"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	SettledAt      time.Time       `json:"settled_at"`
}

// SettlementEvent is published after a settlement commits and is consumed
// by the payroll-history worker.
type SettlementEvent struct {
	RequestID  uuid.UUID       `json:"request_id"`
	StreamID   uuid.UUID       `json:"stream_id"`
	BusinessID uuid.UUID       `json:"business_id"`
	EmployeeID uuid.UUID       `json:"employee_id"`
	Amount     decimal.Decimal `json:"amount"`
	TxHash     string          `json:"tx_hash"`
	SettledAt  time.Time       `json:"settled_at"`
}

type CreateStreamRequest struct {
	BusinessID   uuid.UUID       `json:"business_id"`
	EmployeeID   uuid.UUID       `json:"employee_id"`
	AnnualSalary decimal.Decimal `json:"annual_salary"`
	StartDate    *time.Time      `json:"start_date"`
}

type CreateWithdrawalRequest struct {
	StreamID uuid.UUID       `json:"stream_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type CompleteWithdrawalRequest struct {
	RequestID  uuid.UUID `json:"request_id"`
	BusinessID uuid.UUID `json:"business_id"`
	TxHash     string    `json:"tx_hash"`
}

// StreamFilter selects active streams by owner. At least one side must be set.
type StreamFilter struct {
	BusinessID *uuid.UUID
	EmployeeID *uuid.UUID
}
