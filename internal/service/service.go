package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tempopayroll/internal/model"
)

// TopicWithdrawalSettled carries settlement events to the payroll-history
// worker.
const TopicWithdrawalSettled = "withdrawals.settled"

// PayrollService defines the business operations of the streaming payroll
// engine. All transport layers depend on this interface, not on the
// concrete implementation.
type PayrollService interface {
	CreateStream(ctx context.Context, req model.CreateStreamRequest) (*model.Stream, error)
	ListStreams(ctx context.Context, f model.StreamFilter) ([]model.Stream, error)
	StreamBalance(ctx context.Context, streamID uuid.UUID) (*model.StreamBalance, error)
	CreateWithdrawal(ctx context.Context, req model.CreateWithdrawalRequest) (*model.WithdrawalRequest, error)
	ListPendingWithdrawals(ctx context.Context, businessID uuid.UUID) ([]model.PendingWithdrawal, error)
	CompleteWithdrawal(ctx context.Context, req model.CompleteWithdrawalRequest) (*model.Settlement, error)
	RecordSettlement(ctx context.Context, ev model.SettlementEvent) error
}

// Storage is the durable store behind the engine: stream store, withdrawal
// request ledger, employee directory and payroll history.
type Storage interface {
	InsertStream(ctx context.Context, s *model.Stream) (*model.Stream, error)
	GetActiveStream(ctx context.Context, id uuid.UUID) (*model.Stream, error)
	ListStreams(ctx context.Context, f model.StreamFilter) ([]model.Stream, error)
	InsertRequest(ctx context.Context, streamID uuid.UUID, amount, expectedWithdrawn decimal.Decimal) (*model.WithdrawalRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error)
	ListPendingByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.PendingWithdrawal, error)
	ApplySettlement(ctx context.Context, requestID, businessID uuid.UUID, txHash string, now time.Time) (*model.Settlement, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	InsertPayrollTransaction(ctx context.Context, ev model.SettlementEvent) error
}

// MessageBus publishes events to whatever broker is configured.
type MessageBus interface {
	Publish(topic string, data []byte) error
}
