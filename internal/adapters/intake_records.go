package adapters

import (
	"context"

	"github.com/google/uuid"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/claims/repository"
	claimsvc "claim_intake_backend/internal/claims/service"
	"claim_intake_backend/internal/claims/transport"
	"claim_intake_backend/internal/intake/session"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/logger"
)

// IntakeRecords adapts the claims service for the intake sessions.
// It implements intake/session.Records using interface-segregation.
type IntakeRecords struct {
	claims *claimsvc.Service
	log    *logger.Logger
}

// NewIntakeRecords creates a new records adapter.
func NewIntakeRecords(claims *claimsvc.Service, log *logger.Logger) *IntakeRecords {
	return &IntakeRecords{claims: claims, log: log}
}

// ClaimExists reports whether a claim can take new damages.
func (a *IntakeRecords) ClaimExists(ctx context.Context, claimID uuid.UUID) (bool, error) {
	if _, err := a.claims.GetClaim(ctx, claimID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateClaim writes a submitted claim draft.
func (a *IntakeRecords) CreateClaim(ctx context.Context, draft session.ClaimDraft, actor string) (uuid.UUID, error) {
	claim, err := a.claims.CreateClaim(ctx, transport.CreateClaimRequest{
		UserID:      draft.UserID,
		PolicyID:    draft.PolicyID,
		Location:    draft.Location,
		Description: draft.Description,
	})
	if err != nil {
		return uuid.Nil, err
	}
	a.log.WithContext(ctx).Debug("claim written from intake", "claimId", claim.ID, "actor", actor)
	return claim.ID, nil
}

// GetDamage loads a damage for resubmission.
func (a *IntakeRecords) GetDamage(ctx context.Context, damageID uuid.UUID) (domain.Damage, error) {
	return a.claims.GetDamage(ctx, damageID)
}

// CreateDamage writes a submitted damage in pending status.
func (a *IntakeRecords) CreateDamage(ctx context.Context, claimID uuid.UUID, sub session.DamageSubmission, actor string) (domain.Damage, error) {
	return a.claims.CreateDamage(ctx, claimID, damageFields(sub), actor)
}

// ResubmitDamage rewrites a refused damage and moves it to resubmitted.
func (a *IntakeRecords) ResubmitDamage(ctx context.Context, damageID uuid.UUID, sub session.DamageSubmission, actor string) (domain.Damage, error) {
	return a.claims.ResubmitDamage(ctx, damageID, damageFields(sub), actor)
}

func damageFields(sub session.DamageSubmission) repository.DamageFields {
	return repository.DamageFields{
		VehiclePart:          sub.VehiclePart,
		Description:          sub.Description,
		Photos:               sub.Photos,
		EstimatedAmountCents: sub.EstimateCents,
		OverrideAmountCents:  sub.OverrideAmount,
		OverrideComment:      sub.OverrideComment,
		Sources:              sub.Sources,
	}
}

// Compile-time check that IntakeRecords implements intake/session.Records.
var _ session.Records = (*IntakeRecords)(nil)
