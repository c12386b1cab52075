// Package session holds the claim and damage form sessions of the intake
// workflow. Session state lives on a single event loop; every mutation is a
// callback on that loop and every read returns an immutable view.
package session

import (
	"context"
	"io"
	"time"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/intake/evaluation"
	"claim_intake_backend/platform/sanitize"

	"github.com/google/uuid"
)

// blank reports whether text is empty once sanitized for storage.
func blank(text string) bool {
	return sanitize.Text(text) == ""
}

// Records is the record store as seen by the intake workflow.
type Records interface {
	ClaimExists(ctx context.Context, claimID uuid.UUID) (bool, error)
	CreateClaim(ctx context.Context, draft ClaimDraft, actor string) (uuid.UUID, error)
	GetDamage(ctx context.Context, damageID uuid.UUID) (domain.Damage, error)
	CreateDamage(ctx context.Context, claimID uuid.UUID, sub DamageSubmission, actor string) (domain.Damage, error)
	ResubmitDamage(ctx context.Context, damageID uuid.UUID, sub DamageSubmission, actor string) (domain.Damage, error)
}

// PhotoStore persists uploaded photos and returns their public reference.
type PhotoStore interface {
	Upload(ctx context.Context, upload PhotoUpload) (StoredPhoto, error)
	Delete(ctx context.Context, key string) error
}

// PhotoUpload is one file handed to the photo store.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredPhoto is a durably stored photo.
type StoredPhoto struct {
	Key          string
	URL          string
	OriginalName string
	CapturedAt   *time.Time
}

// ClaimDraft is the working state of the claim form.
type ClaimDraft struct {
	UserID      uuid.UUID `json:"user_id"`
	PolicyID    uuid.UUID `json:"policy_id"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// DamageSubmission is what a damage session writes on submit.
type DamageSubmission struct {
	VehiclePart     string
	Description     string
	Photos          []string
	EstimateCents   int64
	Severity        evaluation.Severity
	Sources         []domain.Source
	OverrideAmount  *int64
	OverrideComment *string
}

// Submission gates. A session can submit only when none is open.
const (
	GateUserRequired         = "user_required"
	GatePolicyRequired       = "policy_required"
	GateLocationRequired     = "location_required"
	GateDescriptionRequired  = "description_required"
	GateValidationPending    = "validation_pending"
	GateAddressFlag          = "address_flag"
	GateComplianceFlag       = "compliance_flag"
	GateVehiclePartRequired  = "vehicle_part_required"
	GatePhotoRequired        = "photo_required"
	GatePhotoIssues          = "photo_issues"
	GateEvaluationPending    = "evaluation_pending"
	GateEvaluationFailed     = "evaluation_failed"
	GateDecisionRequired     = "decision_required"
	GateOverrideIncomplete   = "override_incomplete"
	GateSubmissionInProgress = "submission_in_progress"
)

// Timer keys inside one session.
const (
	claimTriggerKey  = "claim-fields"
	damageTriggerKey = "damage-fields"
)
