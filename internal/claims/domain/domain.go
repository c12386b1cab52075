// Package domain holds the claim and damage records, the damage lifecycle
// state machine, and the audit timeline rules.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a policy holder.
type User struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Policy insures one vehicle for one user.
type Policy struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Make   string    `json:"make"`
	Model  string    `json:"model"`
	Year   int       `json:"year"`
	VIN    string    `json:"vin"`
}

// Claim is immutable once created.
type Claim struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	PolicyID    uuid.UUID `json:"policy_id"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Damage is one itemized damage on a claim. Status is a cached projection of
// the latest history event.
type Damage struct {
	ID                   uuid.UUID `json:"id"`
	ClaimID              uuid.UUID `json:"claim_id"`
	VehiclePart          string    `json:"vehicle_part"`
	Description          string    `json:"damage_description"`
	Photos               []string  `json:"photos"`
	EstimatedAmountCents int64     `json:"estimated_amount_in_cents"`
	OverrideAmountCents  *int64    `json:"override_amount_in_cents"`
	OverrideComment      *string   `json:"override_comment"`
	Sources              []Source  `json:"sources"`
	Status               Status    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// EffectiveCost is the override amount when present, else the engine estimate.
func (d Damage) EffectiveCost() int64 {
	if d.OverrideAmountCents != nil {
		return *d.OverrideAmountCents
	}
	return d.EstimatedAmountCents
}

// HasOverride reports whether an agent override is recorded.
func (d Damage) HasOverride() bool {
	return d.OverrideAmountCents != nil
}

// ErrOverridePair is returned when only one of amount and comment is set.
var ErrOverridePair = errors.New("override amount and comment must be set together")

// ValidateOverride enforces the both-or-neither rule and a strictly positive amount.
func ValidateOverride(amount *int64, comment *string) error {
	hasAmount := amount != nil
	hasComment := comment != nil && strings.TrimSpace(*comment) != ""
	if hasAmount != hasComment {
		return ErrOverridePair
	}
	if hasAmount && *amount <= 0 {
		return fmt.Errorf("override amount must be positive, got %d", *amount)
	}
	return nil
}

// HistoryEvent is one append-only audit entry for a damage.
type HistoryEvent struct {
	ID             uuid.UUID `json:"id"`
	Seq            int64     `json:"-"`
	DamageID       uuid.UUID `json:"damage_id"`
	EventType      EventType `json:"event_type"`
	Status         Status    `json:"status"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	RefusalReason  *string   `json:"refusal_reason"`
	RefusalComment *string   `json:"refusal_comment"`
}
