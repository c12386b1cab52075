package repository

import (
	"context"

	"claim_intake_backend/internal/claims/domain"

	"github.com/google/uuid"
)

// CreateClaimParams contains parameters for creating a claim.
type CreateClaimParams struct {
	UserID      uuid.UUID
	PolicyID    uuid.UUID
	Location    string
	Description string
}

// DamageFields are the agent-editable fields written on create and resubmit.
type DamageFields struct {
	VehiclePart          string
	Description          string
	Photos               []string
	EstimatedAmountCents int64
	OverrideAmountCents  *int64
	OverrideComment      *string
	Sources              []domain.Source
}

// CreateDamageParams contains parameters for creating a damage in pending status.
type CreateDamageParams struct {
	ClaimID uuid.UUID
	DamageFields
}

// ResubmitDamageParams rewrites a refused damage and moves it to resubmitted.
type ResubmitDamageParams struct {
	ID uuid.UUID
	DamageFields
}

// PartyReader provides read access to users and policies.
type PartyReader interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	ListPolicies(ctx context.Context) ([]domain.Policy, error)
	ListPoliciesByUser(ctx context.Context, userID uuid.UUID) ([]domain.Policy, error)
	GetPolicy(ctx context.Context, id uuid.UUID) (domain.Policy, error)
}

// ClaimReader provides read access to claims and damages.
type ClaimReader interface {
	GetClaim(ctx context.Context, id uuid.UUID) (domain.Claim, error)
	ListClaims(ctx context.Context) ([]domain.Claim, error)
	GetDamage(ctx context.Context, id uuid.UUID) (domain.Damage, error)
	ListDamages(ctx context.Context) ([]domain.Damage, error)
	ListDamagesByClaim(ctx context.Context, claimID uuid.UUID) ([]domain.Damage, error)
}

// ClaimWriter provides write access to claims and damages.
type ClaimWriter interface {
	CreateClaim(ctx context.Context, params CreateClaimParams) (domain.Claim, error)
	CreateDamage(ctx context.Context, params CreateDamageParams) (domain.Damage, error)
	ResubmitDamage(ctx context.Context, params ResubmitDamageParams) (domain.Damage, error)
	// SetDamageStatus moves a damage from one status to another; it fails with
	// a conflict when the stored status is no longer from.
	SetDamageStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (domain.Damage, error)
}

// HistoryStore is the append-only damage history.
type HistoryStore interface {
	AppendHistory(ctx context.Context, event domain.HistoryEvent) (domain.HistoryEvent, error)
	// ListHistory returns a damage's events by created_at ascending, then insertion order.
	ListHistory(ctx context.Context, damageID uuid.UUID) ([]domain.HistoryEvent, error)
}

// Repository is the full record store surface.
type Repository interface {
	PartyReader
	ClaimReader
	ClaimWriter
	HistoryStore
}
