package session

import (
	"time"

	"claim_intake_backend/internal/intake/debounce"
	"claim_intake_backend/internal/intake/loop"
	"claim_intake_backend/internal/intake/rules"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/logger"

	"github.com/google/uuid"
)

// ClaimStage is where the claim check stands.
type ClaimStage string

const (
	ClaimIdle       ClaimStage = "idle"
	ClaimSettling   ClaimStage = "settling"
	ClaimEvaluating ClaimStage = "evaluating"
	ClaimChecked    ClaimStage = "checked"
)

type claimFields struct {
	Location    string
	Description string
}

// ClaimEdit changes some fields of a claim draft; nil fields are untouched.
type ClaimEdit struct {
	UserID      *uuid.UUID
	PolicyID    *uuid.UUID
	Location    *string
	Description *string
}

type claimSession struct {
	id             uuid.UUID
	draft          ClaimDraft
	stage          ClaimStage
	classification rules.Classification
	submitting     bool

	timers  *loop.Timers
	watcher *debounce.Watcher[claimFields]
	checker *rules.ClaimChecker
	evalFor time.Duration
	log     *logger.Logger
}

func newClaimSession(l *loop.Loop, checker *rules.ClaimChecker, quiet, evalFor time.Duration, log *logger.Logger) *claimSession {
	s := &claimSession{
		id:      uuid.New(),
		stage:   ClaimIdle,
		timers:  loop.NewTimers(l),
		checker: checker,
		evalFor: evalFor,
		log:     log,
	}
	s.watcher = debounce.New(s.timers, claimTriggerKey, quiet, s.settled)
	return s
}

func (s *claimSession) edit(e ClaimEdit) error {
	if s.submitting {
		return apperr.Conflict("claim is being submitted")
	}

	if e.UserID != nil && *e.UserID != s.draft.UserID {
		s.draft.UserID = *e.UserID
		s.draft.PolicyID = uuid.Nil
	}
	if e.PolicyID != nil {
		if s.draft.UserID == uuid.Nil && *e.PolicyID != uuid.Nil {
			return apperr.Validation("select a user before choosing a policy")
		}
		s.draft.PolicyID = *e.PolicyID
	}
	if e.Location != nil {
		s.draft.Location = *e.Location
	}
	if e.Description != nil {
		s.draft.Description = *e.Description
	}

	s.observe()
	return nil
}

// observe feeds the text fields to the watcher. Any change voids the current
// classification.
func (s *claimSession) observe() {
	wasEvaluating := s.stage == ClaimEvaluating
	if !s.watcher.Observe(claimFields{Location: s.draft.Location, Description: s.draft.Description}) {
		return
	}
	if wasEvaluating {
		s.log.StageCancelled(s.id.String(), "claim_evaluation")
	}
	s.classification = ""
	if s.watcher.Active() {
		s.stage = ClaimSettling
	} else {
		s.stage = ClaimIdle
	}
}

// settled runs when the text fields have been quiet long enough. The check
// itself reuses the trigger key, so a later edit cancels it too.
func (s *claimSession) settled(f claimFields) {
	s.stage = ClaimEvaluating
	s.classification = ""
	s.timers.Schedule(claimTriggerKey, s.evalFor, func() {
		s.classification = s.checker.Classify(f.Location, f.Description)
		s.stage = ClaimChecked
		s.log.EvaluationCompleted(s.id.String(), "claim_evaluation", string(s.classification))
	})
}

func (s *claimSession) gates() []string {
	gates := make([]string, 0)
	if s.draft.UserID == uuid.Nil {
		gates = append(gates, GateUserRequired)
	}
	if s.draft.PolicyID == uuid.Nil {
		gates = append(gates, GatePolicyRequired)
	}
	if blank(s.draft.Location) {
		gates = append(gates, GateLocationRequired)
	}
	if blank(s.draft.Description) {
		gates = append(gates, GateDescriptionRequired)
	}
	switch s.classification {
	case rules.AddressFlag:
		gates = append(gates, GateAddressFlag)
	case rules.ComplianceFlag:
		gates = append(gates, GateComplianceFlag)
	case rules.ClassificationClear:
	default:
		gates = append(gates, GateValidationPending)
	}
	if s.submitting {
		gates = append(gates, GateSubmissionInProgress)
	}
	return gates
}

func (s *claimSession) close() {
	s.timers.Stop()
}
