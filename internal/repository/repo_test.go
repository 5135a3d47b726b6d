package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tempopayroll/internal/accrual"
	"tempopayroll/internal/model"
)

func setupRepo(t *testing.T) (*Repo, context.Context) {
	t.Helper()

	dsn := os.Getenv("PAYSTREAM_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PAYSTREAM_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	if err := RunMigrations(ctx, dsn, "up"); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("db connection: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE payroll_transactions, withdrawal_requests, payroll_streams, employees
	`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return New(pool, nil), ctx
}

func seedStream(t *testing.T, repo *Repo, ctx context.Context, businessID, employeeID uuid.UUID, start time.Time) *model.Stream {
	t.Helper()
	salary := decimal.NewFromInt(31_557_600) // accrues 1.00/s
	s, err := repo.InsertStream(ctx, &model.Stream{
		ID:             uuid.New(),
		BusinessID:     businessID,
		EmployeeID:     employeeID,
		AnnualSalary:   salary,
		RatePerSecond:  accrual.RatePerSecond(salary),
		StartDate:      start,
		Status:         model.StreamActive,
		TotalWithdrawn: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("insert stream: %v", err)
	}
	return s
}

func TestInsertStreamEnforcesSingleActive(t *testing.T) {
	repo, ctx := setupRepo(t)
	businessID, employeeID := uuid.New(), uuid.New()
	start := time.Now().UTC().Add(-time.Hour)

	seedStream(t, repo, ctx, businessID, employeeID, start)

	_, err := repo.InsertStream(ctx, &model.Stream{
		ID:             uuid.New(),
		BusinessID:     businessID,
		EmployeeID:     employeeID,
		AnnualSalary:   decimal.NewFromInt(90000),
		RatePerSecond:  accrual.RatePerSecond(decimal.NewFromInt(90000)),
		StartDate:      start,
		Status:         model.StreamActive,
		TotalWithdrawn: decimal.Zero,
	})
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestInsertRequestRejectsStaleSnapshot(t *testing.T) {
	repo, ctx := setupRepo(t)
	stream := seedStream(t, repo, ctx, uuid.New(), uuid.New(), time.Now().UTC().Add(-time.Hour))

	_, err := repo.InsertRequest(ctx, stream.ID, decimal.NewFromInt(10), decimal.NewFromInt(999))
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale total_withdrawn, got %v", err)
	}

	if _, err := repo.InsertRequest(ctx, stream.ID, decimal.NewFromInt(10), decimal.Zero); err != nil {
		t.Fatalf("insert with fresh snapshot: %v", err)
	}
}

func TestApplySettlementLifecycle(t *testing.T) {
	repo, ctx := setupRepo(t)
	businessID := uuid.New()
	stream := seedStream(t, repo, ctx, businessID, uuid.New(), time.Now().UTC().Add(-time.Hour))

	req, err := repo.InsertRequest(ctx, stream.ID, decimal.NewFromInt(60), decimal.Zero)
	if err != nil {
		t.Fatalf("insert request: %v", err)
	}

	now := time.Now().UTC()
	settlement, err := repo.ApplySettlement(ctx, req.ID, businessID, "0xabc", now)
	if err != nil {
		t.Fatalf("apply settlement: %v", err)
	}
	if !settlement.TotalWithdrawn.Equal(decimal.NewFromInt(60)) {
		t.Errorf("total withdrawn = %s, want 60", settlement.TotalWithdrawn)
	}

	paid, err := repo.GetRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if paid.Status != model.RequestPaid || paid.TxHash == nil || *paid.TxHash != "0xabc" {
		t.Errorf("request = %+v, want paid with tx 0xabc", paid)
	}

	updated, err := repo.GetActiveStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("get stream: %v", err)
	}
	if !updated.TotalWithdrawn.Equal(decimal.NewFromInt(60)) {
		t.Errorf("stream total = %s, want 60", updated.TotalWithdrawn)
	}
	if updated.LastWithdrawalAt == nil {
		t.Error("last_withdrawal_at not set")
	}

	// second completion of the same request must fail and change nothing
	if _, err := repo.ApplySettlement(ctx, req.ID, businessID, "0xabc", now); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("duplicate settlement: expected ErrNotFound, got %v", err)
	}
	again, _ := repo.GetActiveStream(ctx, stream.ID)
	if !again.TotalWithdrawn.Equal(decimal.NewFromInt(60)) {
		t.Errorf("stream total after duplicate = %s, want 60", again.TotalWithdrawn)
	}
}

func TestApplySettlementChecksOwnershipAndCeiling(t *testing.T) {
	repo, ctx := setupRepo(t)
	businessID := uuid.New()
	// stream started 100s ago, so roughly 100.00 accrued
	stream := seedStream(t, repo, ctx, businessID, uuid.New(), time.Now().UTC().Add(-100*time.Second))

	req, err := repo.InsertRequest(ctx, stream.ID, decimal.NewFromInt(80), decimal.Zero)
	if err != nil {
		t.Fatalf("insert request: %v", err)
	}

	if _, err := repo.ApplySettlement(ctx, req.ID, uuid.New(), "0x1", time.Now().UTC()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("foreign business: expected ErrNotFound, got %v", err)
	}

	// two requests approved against the same availability cannot both settle
	second, err := repo.InsertRequest(ctx, stream.ID, decimal.NewFromInt(80), decimal.Zero)
	if err != nil {
		t.Fatalf("insert second request: %v", err)
	}
	if _, err := repo.ApplySettlement(ctx, req.ID, businessID, "0x1", time.Now().UTC()); err != nil {
		t.Fatalf("first settlement: %v", err)
	}
	if _, err := repo.ApplySettlement(ctx, second.ID, businessID, "0x2", time.Now().UTC()); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("over-withdrawing settlement: expected ErrConflict, got %v", err)
	}
}

func TestListPendingByBusinessOrder(t *testing.T) {
	repo, ctx := setupRepo(t)
	businessID := uuid.New()
	stream := seedStream(t, repo, ctx, businessID, uuid.New(), time.Now().UTC().Add(-time.Hour))

	var ids []uuid.UUID
	for _, amount := range []int64{5, 10, 15} {
		req, err := repo.InsertRequest(ctx, stream.ID, decimal.NewFromInt(amount), decimal.Zero)
		if err != nil {
			t.Fatalf("insert request %d: %v", amount, err)
		}
		ids = append(ids, req.ID)
	}

	pending, err := repo.ListPendingByBusiness(ctx, businessID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != len(ids) {
		t.Fatalf("pending = %d, want %d", len(pending), len(ids))
	}
	for i := range pending {
		if pending[i].ID != ids[i] {
			t.Errorf("pending[%d] = %s, want %s (creation order)", i, pending[i].ID, ids[i])
		}
	}
}

func TestEmployeeDirectoryAndPayrollHistory(t *testing.T) {
	repo, ctx := setupRepo(t)
	businessID := uuid.New()

	emp, err := repo.InsertEmployee(ctx, &model.Employee{
		ID:            uuid.New(),
		BusinessID:    businessID,
		Name:          "Ada",
		Email:         "ada@example.com",
		WalletAddress: "0xABCDEF0000000000000000000000000000000001",
		Status:        "active",
	})
	if err != nil {
		t.Fatalf("insert employee: %v", err)
	}
	if emp.WalletAddress != "0xabcdef0000000000000000000000000000000001" {
		t.Errorf("wallet address not lower-cased: %s", emp.WalletAddress)
	}

	got, err := repo.GetEmployee(ctx, emp.ID)
	if err != nil {
		t.Fatalf("get employee: %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("name = %s, want Ada", got.Name)
	}

	if _, err := repo.GetEmployee(ctx, uuid.New()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("unknown employee: expected ErrNotFound, got %v", err)
	}

	ev := model.SettlementEvent{
		RequestID:  uuid.New(),
		StreamID:   uuid.New(),
		BusinessID: businessID,
		EmployeeID: emp.ID,
		Amount:     decimal.NewFromInt(60),
		TxHash:     "0xabc",
		SettledAt:  time.Now().UTC(),
	}
	if err := repo.InsertPayrollTransaction(ctx, ev); err != nil {
		t.Fatalf("insert payroll tx: %v", err)
	}
	// redelivery is a no-op
	if err := repo.InsertPayrollTransaction(ctx, ev); err != nil {
		t.Fatalf("reinsert payroll tx: %v", err)
	}
}
