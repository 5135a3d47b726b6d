package infrastructure

import (
	"context"
	"log/slog"

	"tempopayroll/internal/config"
	"tempopayroll/internal/repository"
	"tempopayroll/internal/service"
	transportHTTP "tempopayroll/internal/transport/http"
	transportNATS "tempopayroll/internal/transport/nats"
	"tempopayroll/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the
// application. Returns the App, a cleanup function, or an error.
func Bootstrap(ctx context.Context) (*App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	pool, err := connectPostgres(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	cleanupFns = append(cleanupFns, pool.Close)

	rdb, err := connectRedis(ctx, cfg.RedisAddr())
	if err != nil {
		return nil, runCleanup(cleanupFns), err
	}
	cleanupFns = append(cleanupFns, func() { _ = rdb.Close() })

	repo := repository.New(pool, rdb)

	var bus service.MessageBus
	var servers []Server

	var svc service.PayrollService
	if cfg.EventsEnabled() {
		nc, err := connectNats(cfg.NatsAddr())
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		cleanupFns = append(cleanupFns, nc.Close)
		bus = transportNATS.NewBus(nc)

		svc = service.New(repo, bus)
		servers = append(servers, worker.NewSettlementWorker(svc, nc))
	} else {
		slog.Info("NATS not configured, settlement events disabled")
		svc = service.New(repo, nil)
	}

	if addr, apiErr := cfg.ApiAddr(); apiErr == nil {
		servers = append(servers, transportHTTP.NewServer(addr, svc))
	} else {
		slog.Info("HTTP API not started", "reason", apiErr)
	}

	return NewApp(servers), runCleanup(cleanupFns), nil
}

// runCleanup returns a single function that calls all cleanup functions in
// reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
