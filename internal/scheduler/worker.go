package scheduler

import (
	"context"
	"fmt"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/config"
	"claim_intake_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ReviewApplier records a review decision through the damage lifecycle.
type ReviewApplier interface {
	ApplyReview(ctx context.Context, id uuid.UUID, status domain.Status, reviewer string, reason, comment *string) (domain.Damage, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	reviews ReviewApplier
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reviews ReviewApplier, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		reviews: reviews,
		log:     log,
	}

	mux.HandleFunc(TaskDamageReview, w.handleDamageReview)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleDamageReview applies a queued decision. Decisions the lifecycle
// refuses are dropped; store failures are retried.
func (w *Worker) handleDamageReview(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDamageReviewPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	damageID, err := uuid.Parse(payload.DamageID)
	if err != nil {
		return fmt.Errorf("%w: invalid damage id %q", asynq.SkipRetry, payload.DamageID)
	}

	damage, err := w.reviews.ApplyReview(ctx, damageID, domain.Status(payload.Status), payload.Reviewer, payload.RefusalReason, payload.RefusalComment)
	if err != nil {
		switch apperr.GetKind(err) {
		case apperr.KindNotFound, apperr.KindConflict, apperr.KindValidation:
			w.log.WithContext(ctx).Warn("review decision dropped", "damageId", payload.DamageID, "status", payload.Status, "error", err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	w.log.WithContext(ctx).Info("review decision applied", "damageId", damage.ID, "status", string(damage.Status), "reviewer", payload.Reviewer)
	return nil
}
