package service

import (
	"context"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/claims/repository"
	"claim_intake_backend/internal/claims/transport"
	"claim_intake_backend/internal/events"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/sanitize"

	"github.com/google/uuid"
)

const maxSources = 3

// GetDamage returns the persisted damage.
func (s *Service) GetDamage(ctx context.Context, id uuid.UUID) (domain.Damage, error) {
	damage, err := s.repo.GetDamage(ctx, id)
	if err != nil {
		return domain.Damage{}, s.storeErr(ctx, "get damage", err)
	}
	return damage, nil
}

// ListDamagesByClaim returns a claim's damages oldest first.
func (s *Service) ListDamagesByClaim(ctx context.Context, claimID uuid.UUID) ([]transport.DamageResponse, error) {
	if _, err := s.repo.GetClaim(ctx, claimID); err != nil {
		return nil, s.storeErr(ctx, "get claim", err)
	}
	damages, err := s.repo.ListDamagesByClaim(ctx, claimID)
	if err != nil {
		return nil, s.storeErr(ctx, "list damages", err)
	}
	out := make([]transport.DamageResponse, 0, len(damages))
	for _, d := range damages {
		out = append(out, ToDamageResponse(d))
	}
	return out, nil
}

// CreateDamage writes a pending damage and appends its created event.
func (s *Service) CreateDamage(ctx context.Context, claimID uuid.UUID, fields repository.DamageFields, actor string) (domain.Damage, error) {
	fields, err := normalizeFields(fields)
	if err != nil {
		return domain.Damage{}, err
	}
	if _, err := s.repo.GetClaim(ctx, claimID); err != nil {
		return domain.Damage{}, s.storeErr(ctx, "get claim", err)
	}

	damage, err := s.repo.CreateDamage(ctx, repository.CreateDamageParams{ClaimID: claimID, DamageFields: fields})
	if err != nil {
		return domain.Damage{}, s.storeErr(ctx, "create damage", err)
	}

	s.appendHistory(ctx, domain.NewCreatedEvent(damage.ID, actor, s.now().UTC()))

	s.publish(ctx, events.DamageCreated{
		BaseEvent:     events.NewBaseEvent(),
		DamageID:      damage.ID,
		ClaimID:       damage.ClaimID,
		EffectiveCost: damage.EffectiveCost(),
		CreatedBy:     actor,
	})

	s.log.WithContext(ctx).Info("damage created", "id", damage.ID, "claimId", claimID, "effectiveCost", damage.EffectiveCost())
	return damage, nil
}

// ResubmitDamage rewrites a refused damage under the same identity, moves it to
// resubmitted and appends the resubmitted event.
func (s *Service) ResubmitDamage(ctx context.Context, id uuid.UUID, fields repository.DamageFields, actor string) (domain.Damage, error) {
	fields, err := normalizeFields(fields)
	if err != nil {
		return domain.Damage{}, err
	}

	current, err := s.repo.GetDamage(ctx, id)
	if err != nil {
		return domain.Damage{}, s.storeErr(ctx, "get damage", err)
	}
	if !domain.CanTransition(current.Status, domain.StatusResubmitted) {
		return domain.Damage{}, apperr.Conflict("only refused damages can be resubmitted")
	}

	damage, err := s.repo.ResubmitDamage(ctx, repository.ResubmitDamageParams{ID: id, DamageFields: fields})
	if err != nil {
		return domain.Damage{}, s.storeErr(ctx, "resubmit damage", err)
	}

	s.appendHistory(ctx, domain.NewTransitionEvent(damage.ID, domain.StatusResubmitted, actor, s.now().UTC(), nil, nil))

	s.publish(ctx, events.DamageResubmitted{
		BaseEvent:     events.NewBaseEvent(),
		DamageID:      damage.ID,
		ClaimID:       damage.ClaimID,
		EffectiveCost: damage.EffectiveCost(),
		CreatedBy:     actor,
	})

	s.log.WithContext(ctx).Info("damage resubmitted", "id", damage.ID, "claimId", damage.ClaimID)
	return damage, nil
}

// ValidateReview checks a review decision before it is queued or applied.
func ValidateReview(status domain.Status, reason *string) error {
	if !domain.IsReviewDecision(status) {
		return apperr.Validation("review status must be approved or refused")
	}
	if status == domain.StatusRefused && (reason == nil || sanitize.Text(*reason) == "") {
		return apperr.Validation("a refusal requires a reason")
	}
	return nil
}

// ApplyReview records an external approval or refusal.
func (s *Service) ApplyReview(ctx context.Context, id uuid.UUID, status domain.Status, reviewer string, reason, comment *string) (domain.Damage, error) {
	if err := ValidateReview(status, reason); err != nil {
		return domain.Damage{}, err
	}

	current, err := s.repo.GetDamage(ctx, id)
	if err != nil {
		return domain.Damage{}, s.storeErr(ctx, "get damage", err)
	}
	if !domain.CanTransition(current.Status, status) {
		return domain.Damage{}, apperr.Conflict("damage cannot move from " + string(current.Status) + " to " + string(status))
	}

	damage, err := s.repo.SetDamageStatus(ctx, id, current.Status, status)
	if err != nil {
		return domain.Damage{}, s.storeErr(ctx, "set damage status", err)
	}

	if status == domain.StatusRefused {
		reason = sanitize.TextPtr(reason)
		comment = sanitize.TextPtr(comment)
	}
	s.appendHistory(ctx, domain.NewTransitionEvent(damage.ID, status, reviewer, s.now().UTC(), reason, comment))

	s.publish(ctx, events.DamageReviewed{
		BaseEvent: events.NewBaseEvent(),
		DamageID:  damage.ID,
		ClaimID:   damage.ClaimID,
		Status:    string(status),
		Reviewer:  reviewer,
	})

	s.log.WithContext(ctx).Info("damage reviewed", "id", damage.ID, "status", status)
	return damage, nil
}

// DamageTimeline returns a damage's history oldest first.
func (s *Service) DamageTimeline(ctx context.Context, id uuid.UUID) (transport.TimelineResponse, error) {
	damage, err := s.repo.GetDamage(ctx, id)
	if err != nil {
		return transport.TimelineResponse{}, s.storeErr(ctx, "get damage", err)
	}
	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return transport.TimelineResponse{}, s.storeErr(ctx, "list history", err)
	}

	domain.SortTimeline(history)
	if err := domain.ValidateTimeline(history); err != nil {
		s.log.WithContext(ctx).Warn("damage timeline is incomplete", "damageId", id, "error", err)
	}

	resp := transport.TimelineResponse{
		DamageID: damage.ID,
		Status:   string(damage.Status),
		Events:   make([]transport.TimelineEntry, 0, len(history)),
	}
	for _, ev := range history {
		resp.Events = append(resp.Events, toTimelineEntry(ev))
	}
	return resp, nil
}

// appendHistory writes one audit entry. The primary write has already landed,
// so a failure here is logged and not returned.
func (s *Service) appendHistory(ctx context.Context, event domain.HistoryEvent) {
	if _, err := s.repo.AppendHistory(ctx, event); err != nil {
		s.log.WithContext(ctx).HistoryInconsistency(event.DamageID.String(), string(event.EventType), err)
	}
}

func normalizeFields(fields repository.DamageFields) (repository.DamageFields, error) {
	fields.VehiclePart = sanitize.Text(fields.VehiclePart)
	fields.Description = sanitize.Text(fields.Description)
	fields.OverrideComment = sanitize.TextPtr(fields.OverrideComment)
	if fields.OverrideComment != nil && *fields.OverrideComment == "" {
		fields.OverrideComment = nil
	}

	switch {
	case fields.VehiclePart == "":
		return fields, apperr.Validation("vehicle part is required")
	case fields.Description == "":
		return fields, apperr.Validation("damage description is required")
	case len(fields.Photos) == 0:
		return fields, apperr.Validation("at least one photo is required")
	case fields.EstimatedAmountCents <= 0:
		return fields, apperr.Validation("estimated amount must be positive")
	case len(fields.Sources) == 0 || len(fields.Sources) > maxSources:
		return fields, apperr.Validation("an estimate needs between one and three sources")
	}
	if err := domain.ValidateOverride(fields.OverrideAmountCents, fields.OverrideComment); err != nil {
		return fields, apperr.Validation(err.Error())
	}
	for _, src := range fields.Sources {
		if err := src.Validate(); err != nil {
			return fields, apperr.Validation(err.Error())
		}
	}
	return fields, nil
}
