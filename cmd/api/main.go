package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claim_intake_backend/internal/adapters"
	"claim_intake_backend/internal/adapters/storage"
	"claim_intake_backend/internal/claims"
	"claim_intake_backend/internal/events"
	apphttp "claim_intake_backend/internal/http"
	"claim_intake_backend/internal/http/router"
	"claim_intake_backend/internal/intake"
	"claim_intake_backend/internal/metrics"
	metricscache "claim_intake_backend/internal/metrics/cache"
	metricsservice "claim_intake_backend/internal/metrics/service"
	"claim_intake_backend/internal/scheduler"
	"claim_intake_backend/migrations"
	"claim_intake_backend/platform/config"
	"claim_intake_backend/platform/db"
	"claim_intake_backend/platform/logger"
	"claim_intake_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, migrations.FS, ".")
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	claimsModule := claims.NewModule(pool, eventBus, val, cfg.GetDefaultActor(), log)

	reviewQueue, closeQueue := initReviewQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}
	if reviewQueue != nil {
		claimsModule.Service().SetReviewEnqueuer(reviewQueue)
	}

	metricsModule := metrics.NewModule(claimsModule.Repository(), initMetricsCache(ctx, cfg, log), eventBus, log)

	intakeOpts := intake.Options{
		Records:       adapters.NewIntakeRecords(claimsModule.Service(), log),
		MaxUploadSize: cfg.GetMinIOMaxFileSize(),
	}
	if photos := initPhotoStore(ctx, cfg, log); photos != nil {
		intakeOpts.Photos = photos
	}
	intakeModule, err := intake.NewModule(ctx, cfg, intakeOpts, val, log)
	if err != nil {
		log.Error("failed to initialize intake module", "error", err)
		panic("failed to initialize intake module: " + err.Error())
	}
	defer intakeModule.Shutdown()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			claimsModule,
			intakeModule,
			metricsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReviewQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; damage reviews are applied inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize review queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initMetricsCache returns a nil interface when Redis is not configured or
// unreachable, never a typed nil.
func initMetricsCache(ctx context.Context, cfg config.MetricsConfig, log *logger.Logger) metricsservice.SnapshotCache {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; metrics are computed on every request")
		return nil
	}

	rdb, err := metricscache.NewRedisClient(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to initialize metrics cache", "error", err)
		return nil
	}
	cache := metricscache.New(rdb, cfg.GetMetricsCacheTTL())

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn("metrics cache unreachable; continuing without it", "error", err)
		_ = rdb.Close()
		return nil
	}
	log.Info("metrics cache initialized", "ttl", cfg.GetMetricsCacheTTL())
	return cache
}

// initPhotoStore wires MinIO for damage photos. A nil store leaves uploads
// unavailable.
func initPhotoStore(ctx context.Context, cfg *config.Config, log *logger.Logger) *storage.PhotoStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; damage photo uploads disabled")
		return nil
	}

	objects, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	photos := storage.NewPhotoStore(objects, cfg.GetMinioBucketDamagePhotos(), cfg.GetMinIOPublicBaseURL(), cfg.GetMinIOMaxFileSize(), log)
	if err := withRetry(ctx, log, "ensure damage-photos bucket", 5, 2*time.Second, func() error {
		return photos.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketDamagePhotos())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "damagePhotosBucket", cfg.GetMinioBucketDamagePhotos())
	return photos
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
