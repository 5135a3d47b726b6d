// Package service implements the streaming payroll engine: stream
// provisioning, withdrawal requests against real-time accrual, and
// settlement of externally executed payments.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"tempopayroll/internal/accrual"
	"tempopayroll/internal/model"
)

type Payroll struct {
	store Storage
	bus   MessageBus
	now   func() time.Time
}

// New builds the payroll service. bus may be nil, in which case settlement
// events are not published.
func New(store Storage, bus MessageBus) *Payroll {
	return &Payroll{
		store: store,
		bus:   bus,
		now:   time.Now,
	}
}

// CreateStream provisions a continuous salary stream. The start date
// defaults to now; the per-second rate is derived once at creation and
// stored with the stream.
func (p *Payroll) CreateStream(ctx context.Context, req model.CreateStreamRequest) (*model.Stream, error) {
	if req.BusinessID == uuid.Nil || req.EmployeeID == uuid.Nil {
		return nil, model.Validationf("business_id and employee_id are required")
	}
	if req.AnnualSalary.Sign() <= 0 {
		return nil, model.Validationf("annual_salary must be positive")
	}

	start := p.now().UTC()
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}

	stream := &model.Stream{
		ID:             uuid.New(),
		BusinessID:     req.BusinessID,
		EmployeeID:     req.EmployeeID,
		AnnualSalary:   req.AnnualSalary,
		RatePerSecond:  accrual.RatePerSecond(req.AnnualSalary),
		StartDate:      start,
		Status:         model.StreamActive,
		TotalWithdrawn: decimal.Zero,
	}

	created, err := p.store.InsertStream(ctx, stream)
	if err != nil {
		return nil, err
	}

	slog.Info("stream created",
		"stream_id", created.ID,
		"business_id", created.BusinessID,
		"employee_id", created.EmployeeID,
		"annual_salary", created.AnnualSalary)
	return created, nil
}

func (p *Payroll) ListStreams(ctx context.Context, f model.StreamFilter) ([]model.Stream, error) {
	if f.BusinessID == nil && f.EmployeeID == nil {
		return nil, model.Validationf("business_id or employee_id is required")
	}
	return p.store.ListStreams(ctx, f)
}

// StreamBalance is the read-only accrual projection behind the live-balance
// display. It never mutates state and is safe to poll every second.
func (p *Payroll) StreamBalance(ctx context.Context, streamID uuid.UUID) (*model.StreamBalance, error) {
	stream, err := p.store.GetActiveStream(ctx, streamID)
	if err != nil {
		return nil, err
	}

	now := p.now()
	return &model.StreamBalance{
		StreamID:       stream.ID,
		RatePerSecond:  stream.RatePerSecond,
		Earned:         accrual.Earned(stream.RatePerSecond, stream.StartDate, now).Round(2),
		TotalWithdrawn: stream.TotalWithdrawn,
		Available:      accrual.Available(stream.RatePerSecond, stream.StartDate, stream.TotalWithdrawn, now),
		AsOf:           now,
	}, nil
}

// CreateWithdrawal validates the requested amount against availability at
// the current instant and appends a pending request. The amount is fixed
// here and never recomputed, even though more will have accrued by the time
// the request settles.
//
// A concurrent settlement can move total_withdrawn between our availability
// check and the insert; the store rejects that with ErrConflict and the
// whole check is re-run against fresh state, a bounded number of times.
func (p *Payroll) CreateWithdrawal(ctx context.Context, req model.CreateWithdrawalRequest) (*model.WithdrawalRequest, error) {
	if req.Amount.Sign() <= 0 {
		return nil, model.Validationf("amount must be positive")
	}
	if req.StreamID == uuid.Nil {
		return nil, model.Validationf("stream_id is required")
	}

	var created *model.WithdrawalRequest
	backoff := retry.WithMaxRetries(3, retry.NewConstant(25*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		stream, err := p.store.GetActiveStream(ctx, req.StreamID)
		if err != nil {
			return err
		}

		available := accrual.Available(stream.RatePerSecond, stream.StartDate, stream.TotalWithdrawn, p.now())
		if req.Amount.GreaterThan(available) {
			return &model.InsufficientAvailableError{Available: available}
		}

		created, err = p.store.InsertRequest(ctx, stream.ID, req.Amount, stream.TotalWithdrawn)
		if errors.Is(err, model.ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("withdrawal requested",
		"request_id", created.ID,
		"stream_id", created.StreamID,
		"amount", created.Amount)
	return created, nil
}

// ListPendingWithdrawals returns the business's pending requests oldest
// first, enriched with each employee's name and payment address. Requests
// whose employee cannot be resolved are skipped rather than failing the
// whole listing.
func (p *Payroll) ListPendingWithdrawals(ctx context.Context, businessID uuid.UUID) ([]model.PendingWithdrawal, error) {
	if businessID == uuid.Nil {
		return nil, model.Validationf("business_id is required")
	}

	rows, err := p.store.ListPendingByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	pending := make([]model.PendingWithdrawal, 0, len(rows))
	for _, row := range rows {
		employee, err := p.store.GetEmployee(ctx, row.EmployeeID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				slog.Warn("pending withdrawal skipped, employee not in directory",
					"request_id", row.ID, "employee_id", row.EmployeeID)
				continue
			}
			return nil, err
		}
		row.EmployeeName = employee.Name
		row.WalletAddress = employee.WalletAddress
		pending = append(pending, row)
	}
	return pending, nil
}

// CompleteWithdrawal records that an externally executed payment settled a
// pending request. The payment itself has already happened; this closes the
// request and advances the stream's withdrawn total in one atomic step,
// then publishes the settlement for the history worker.
func (p *Payroll) CompleteWithdrawal(ctx context.Context, req model.CompleteWithdrawalRequest) (*model.Settlement, error) {
	if req.RequestID == uuid.Nil || req.BusinessID == uuid.Nil {
		return nil, model.Validationf("request_id and business_id are required")
	}
	if strings.TrimSpace(req.TxHash) == "" {
		return nil, model.Validationf("tx_hash is required")
	}

	settlement, err := p.store.ApplySettlement(ctx, req.RequestID, req.BusinessID, req.TxHash, p.now())
	if err != nil {
		return nil, err
	}

	slog.Info("withdrawal settled",
		"request_id", settlement.RequestID,
		"stream_id", settlement.StreamID,
		"amount", settlement.Amount,
		"tx_hash", settlement.TxHash)

	p.publishSettled(settlement)
	return settlement, nil
}

// RecordSettlement syncs a settlement event into the payroll transaction
// history. Redelivered events are a no-op at the storage layer.
func (p *Payroll) RecordSettlement(ctx context.Context, ev model.SettlementEvent) error {
	return p.store.InsertPayrollTransaction(ctx, ev)
}

// publishSettled is best-effort: the settlement is already durable, so a
// publish failure only delays the history row until the event is replayed
// or backfilled.
func (p *Payroll) publishSettled(s *model.Settlement) {
	if p.bus == nil {
		return
	}
	ev := model.SettlementEvent{
		RequestID:  s.RequestID,
		StreamID:   s.StreamID,
		BusinessID: s.BusinessID,
		EmployeeID: s.EmployeeID,
		Amount:     s.Amount,
		TxHash:     s.TxHash,
		SettledAt:  s.SettledAt,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal settlement event", "request_id", s.RequestID, "error", err)
		return
	}
	if err := p.bus.Publish(TopicWithdrawalSettled, data); err != nil {
		slog.Error("failed to publish settlement event", "request_id", s.RequestID, "error", err)
	}
}
