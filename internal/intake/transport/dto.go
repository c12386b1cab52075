package transport

import "github.com/google/uuid"

// Claim form

type EditClaimRequest struct {
	UserID      *uuid.UUID `json:"user_id"`
	PolicyID    *uuid.UUID `json:"policy_id"`
	Location    *string    `json:"location" validate:"omitempty,max=500"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
}

// Damage form

type OpenDamageRequest struct {
	ClaimID uuid.UUID `json:"claim_id" validate:"required"`
}

type OpenResubmissionRequest struct {
	DamageID uuid.UUID `json:"damage_id" validate:"required"`
}

type EditDamageRequest struct {
	VehiclePart *string `json:"vehicle_part" validate:"omitempty,max=100"`
	Description *string `json:"damage_description" validate:"omitempty,max=2000"`
}

type OverrideRequest struct {
	AmountCents *int64  `json:"override_amount_in_cents" validate:"omitempty,gt=0"`
	Comment     *string `json:"override_comment" validate:"omitempty,max=1000"`
}
