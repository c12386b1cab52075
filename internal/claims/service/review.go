package service

import (
	"context"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/claims/transport"
	"claim_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

// ReviewEnqueuer hands review decisions to the background worker.
type ReviewEnqueuer interface {
	EnqueueDamageReview(ctx context.Context, damageID uuid.UUID, status, reviewer string, reason, comment *string) error
}

// SetReviewEnqueuer routes SubmitReview through the review queue. Without one,
// reviews are applied inline.
func (s *Service) SetReviewEnqueuer(q ReviewEnqueuer) {
	s.reviews = q
}

// SubmitReview validates a review decision and queues it, or applies it
// directly when no queue is configured.
func (s *Service) SubmitReview(ctx context.Context, id uuid.UUID, req transport.ReviewDamageRequest, reviewer string) (transport.ReviewAcceptedResponse, error) {
	status := domain.Status(req.Status)
	if err := ValidateReview(status, req.RefusalReason); err != nil {
		return transport.ReviewAcceptedResponse{}, err
	}

	current, err := s.repo.GetDamage(ctx, id)
	if err != nil {
		return transport.ReviewAcceptedResponse{}, s.storeErr(ctx, "get damage", err)
	}
	if !domain.CanTransition(current.Status, status) {
		return transport.ReviewAcceptedResponse{}, apperr.Conflict("damage cannot move from " + string(current.Status) + " to " + string(status))
	}

	if s.reviews == nil {
		damage, err := s.ApplyReview(ctx, id, status, reviewer, req.RefusalReason, req.RefusalComment)
		if err != nil {
			return transport.ReviewAcceptedResponse{}, err
		}
		return transport.ReviewAcceptedResponse{DamageID: damage.ID, Status: string(damage.Status)}, nil
	}

	if err := s.reviews.EnqueueDamageReview(ctx, id, req.Status, reviewer, req.RefusalReason, req.RefusalComment); err != nil {
		s.log.WithContext(ctx).CollaboratorFailure("review_queue", "enqueue review", err)
		return transport.ReviewAcceptedResponse{}, apperr.Unavailable("review queue unavailable", err)
	}
	return transport.ReviewAcceptedResponse{DamageID: id, Status: req.Status, Queued: true}, nil
}
