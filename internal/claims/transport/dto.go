package transport

import (
	"time"

	"github.com/google/uuid"
)

// Users & policies

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
}

type PolicyResponse struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Make   string    `json:"make"`
	Model  string    `json:"model"`
	Year   int       `json:"year"`
	VIN    string    `json:"vin"`
}

// Claims

type CreateClaimRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	PolicyID    uuid.UUID `json:"policy_id" validate:"required"`
	Location    string    `json:"location" validate:"required,notblank,max=500"`
	Description string    `json:"description" validate:"required,notblank,max=5000"`
}

type ClaimResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	PolicyID    uuid.UUID `json:"policy_id"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClaimOverview is one row of the claims list: the claim with its parties,
// damages and per-claim figures.
type ClaimOverview struct {
	ClaimResponse
	User               *UserResponse    `json:"user,omitempty"`
	Policy             *PolicyResponse  `json:"policy,omitempty"`
	Damages            []DamageResponse `json:"damages"`
	TotalAmountInCents int64            `json:"total_amount_in_cents"`
	ApprovalRate       int              `json:"approval_rate"`
}

// Damages

type SourceResponse struct {
	Type            string  `json:"type"`
	SimilarityScore float64 `json:"similarity_score"`
	ClaimID         string  `json:"claim_id,omitempty"`
	Description     string  `json:"description"`
}

type DamageResponse struct {
	ID                     uuid.UUID        `json:"id"`
	ClaimID                uuid.UUID        `json:"claim_id"`
	VehiclePart            string           `json:"vehicle_part"`
	DamageDescription      string           `json:"damage_description"`
	Photos                 []string         `json:"photos"`
	EstimatedAmountInCents int64            `json:"estimated_amount_in_cents"`
	OverrideAmountInCents  *int64           `json:"override_amount_in_cents"`
	OverrideComment        *string          `json:"override_comment"`
	EffectiveCostInCents   int64            `json:"effective_cost_in_cents"`
	Sources                []SourceResponse `json:"sources"`
	Status                 string           `json:"status"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

// ReviewDamageRequest records an external approval or refusal.
type ReviewDamageRequest struct {
	Status         string  `json:"status" validate:"required,oneof=approved refused"`
	RefusalReason  *string `json:"refusal_reason,omitempty" validate:"omitempty,max=100"`
	RefusalComment *string `json:"refusal_comment,omitempty" validate:"omitempty,max=2000"`
}

// ReviewAcceptedResponse is returned when a review is queued for the worker.
type ReviewAcceptedResponse struct {
	DamageID uuid.UUID `json:"damage_id"`
	Status   string    `json:"status"`
	Queued   bool      `json:"queued"`
}

// Timeline

type TimelineEntry struct {
	ID             uuid.UUID `json:"id"`
	EventType      string    `json:"event_type"`
	Status         string    `json:"status"`
	Title          string    `json:"title"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	RefusalReason  *string   `json:"refusal_reason,omitempty"`
	RefusalComment *string   `json:"refusal_comment,omitempty"`
}

type TimelineResponse struct {
	DamageID uuid.UUID       `json:"damage_id"`
	Status   string          `json:"status"`
	Events   []TimelineEntry `json:"events"`
}
