package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claim_intake_backend/internal/claims/repository"
	claimsservice "claim_intake_backend/internal/claims/service"
	"claim_intake_backend/internal/events"
	"claim_intake_backend/internal/metrics/cache"
	"claim_intake_backend/internal/scheduler"
	"claim_intake_backend/platform/config"
	"claim_intake_backend/platform/db"
	"claim_intake_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	claims := claimsservice.New(repository.New(pool), eventBus, log)

	// Reviews applied here change the portfolio, so the API's cached snapshot
	// is dropped from this process as well.
	if rdb, err := cache.NewRedisClient(cfg.GetRedisURL()); err != nil {
		log.Warn("metrics cache not reachable from worker", "error", err)
	} else {
		defer func() { _ = rdb.Close() }()
		snapshots := cache.New(rdb, cfg.GetMetricsCacheTTL())
		invalidate := events.HandlerFunc(func(ctx context.Context, _ events.Event) error {
			return snapshots.Invalidate(ctx)
		})
		eventBus.Subscribe(events.DamageReviewed{}.EventName(), invalidate)
	}

	worker, err := scheduler.NewWorker(cfg, claims, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
