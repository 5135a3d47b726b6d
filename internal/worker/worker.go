// Package worker consumes settlement events and records them in the
// payroll transaction history.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"tempopayroll/internal/model"
	"tempopayroll/internal/service"
)

// SettlementWorker listens for settled withdrawals and writes the payroll
// history row for each. QueueSubscribe keeps redundant API replicas from
// double-processing a message; the storage layer additionally ignores
// redeliveries of an already-recorded request.
type SettlementWorker struct {
	svc      service.PayrollService
	natsConn *nats.Conn
}

func NewSettlementWorker(svc service.PayrollService, nc *nats.Conn) *SettlementWorker {
	return &SettlementWorker{svc: svc, natsConn: nc}
}

// Start subscribes and blocks until ctx is cancelled.
func (w *SettlementWorker) Start(ctx context.Context) error {
	sub, err := w.natsConn.QueueSubscribe(service.TopicWithdrawalSettled, "payroll_workers", func(m *nats.Msg) {
		var ev model.SettlementEvent
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			slog.Error("worker: failed to unmarshal settlement event", "error", err)
			return
		}
		if err := w.svc.RecordSettlement(ctx, ev); err != nil {
			slog.Error("worker: failed to record settlement",
				"request_id", ev.RequestID, "error", err)
			return
		}
		slog.Info("worker: settlement recorded",
			"request_id", ev.RequestID, "stream_id", ev.StreamID)
	})
	if err != nil {
		return err
	}

	slog.Info("settlement worker is running")
	<-ctx.Done()

	_ = sub.Drain()
	return nil
}

func (w *SettlementWorker) Stop(ctx context.Context) error {
	return nil
}
