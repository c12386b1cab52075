// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"claim_intake_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Claim Domain Events
// =============================================================================

// ClaimCreated is published after a claim record is written.
type ClaimCreated struct {
	BaseEvent
	ClaimID  uuid.UUID `json:"claimId"`
	UserID   uuid.UUID `json:"userId"`
	PolicyID uuid.UUID `json:"policyId"`
}

func (e ClaimCreated) EventName() string { return "claims.claim.created" }

// DamageCreated is published after a damage record is written in pending status.
type DamageCreated struct {
	BaseEvent
	DamageID      uuid.UUID `json:"damageId"`
	ClaimID       uuid.UUID `json:"claimId"`
	EffectiveCost int64     `json:"effectiveCost"`
	CreatedBy     string    `json:"createdBy"`
}

func (e DamageCreated) EventName() string { return "claims.damage.created" }

// DamageResubmitted is published after a refused damage is edited and sent back.
type DamageResubmitted struct {
	BaseEvent
	DamageID      uuid.UUID `json:"damageId"`
	ClaimID       uuid.UUID `json:"claimId"`
	EffectiveCost int64     `json:"effectiveCost"`
	CreatedBy     string    `json:"createdBy"`
}

func (e DamageResubmitted) EventName() string { return "claims.damage.resubmitted" }

// DamageReviewed is published after an external approval or refusal is recorded.
type DamageReviewed struct {
	BaseEvent
	DamageID uuid.UUID `json:"damageId"`
	ClaimID  uuid.UUID `json:"claimId"`
	Status   string    `json:"status"`
	Reviewer string    `json:"reviewer"`
}

func (e DamageReviewed) EventName() string { return "claims.damage.reviewed" }
