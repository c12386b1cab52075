package session

import (
	"context"
	"slices"
	"time"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/intake/debounce"
	"claim_intake_backend/internal/intake/evaluation"
	"claim_intake_backend/internal/intake/loop"
	"claim_intake_backend/internal/intake/rules"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/logger"

	"github.com/google/uuid"
)

// DamageMode tells a fresh damage from the resubmission of a refused one.
type DamageMode string

const (
	ModeCreate   DamageMode = "create"
	ModeResubmit DamageMode = "resubmit"
)

// EvaluationStage is where the damage evaluation stands.
type EvaluationStage string

const (
	EvaluationIdle       EvaluationStage = "idle"
	EvaluationEvaluating EvaluationStage = "evaluating"
	EvaluationReady      EvaluationStage = "ready"
	EvaluationFailed     EvaluationStage = "failed"
)

// Photo is one photo in the working set. Issue is set when the intake check
// flagged the upload; it goes away with the photo.
type Photo struct {
	ID           uuid.UUID
	Key          string
	URL          string
	OriginalName string
	CapturedAt   *time.Time
	Issue        *rules.Issue
}

// DamageEdit changes some text fields of a damage draft; nil fields are untouched.
type DamageEdit struct {
	VehiclePart *string
	Description *string
}

// damageFields is the evaluation trigger. Photos count by number only, and
// only accepted photos (no open issue) count, so adding or removing a flagged
// photo does not re-trigger.
type damageFields struct {
	VehiclePart string
	Description string
	PhotoCount  int
}

func (f damageFields) ready() bool {
	return !blank(f.VehiclePart) && !blank(f.Description) && f.PhotoCount > 0
}

type damageSession struct {
	id       uuid.UUID
	claimID  uuid.UUID
	damageID uuid.UUID
	mode     DamageMode

	vehiclePart string
	description string
	photos      []Photo

	stage      EvaluationStage
	result     *evaluation.Result
	failure    string
	decision   override
	submitting bool

	// evalSeq identifies the running estimate; a result is applied only while
	// it still matches.
	evalSeq    uint64
	cancelEval context.CancelFunc
	closed     bool

	ctx       context.Context
	loop      *loop.Loop
	timers    *loop.Timers
	watcher   *debounce.Watcher[damageFields]
	estimator evaluation.Estimator
	inspector *rules.PhotoInspector
	log       *logger.Logger
}

func newDamageSession(ctx context.Context, l *loop.Loop, claimID uuid.UUID, estimator evaluation.Estimator, inspector *rules.PhotoInspector, evalFor time.Duration, log *logger.Logger) *damageSession {
	s := &damageSession{
		id:        uuid.New(),
		claimID:   claimID,
		mode:      ModeCreate,
		photos:    make([]Photo, 0),
		stage:     EvaluationIdle,
		ctx:       ctx,
		loop:      l,
		timers:    loop.NewTimers(l),
		estimator: estimator,
		inspector: inspector,
		log:       log,
	}
	s.decision.reset()
	s.watcher = debounce.New(s.timers, damageTriggerKey, evalFor, s.evaluate).WithActive(damageFields.ready)
	return s
}

// prefill loads a refused damage into the form. The stored estimate counts as
// already decided: accepted, or rejected with its override when one exists.
func (s *damageSession) prefill(d domain.Damage) {
	s.mode = ModeResubmit
	s.damageID = d.ID
	s.vehiclePart = d.VehiclePart
	s.description = d.Description
	for _, url := range d.Photos {
		s.photos = append(s.photos, Photo{ID: uuid.New(), URL: url})
	}

	s.result = &evaluation.Result{
		Severity:      evaluation.SeverityForAmount(d.EstimatedAmountCents),
		EstimateCents: d.EstimatedAmountCents,
		Sources:       slices.Clone(d.Sources),
	}
	s.stage = EvaluationReady
	if d.HasOverride() {
		s.decision.decision = DecisionRejected
		amount := *d.OverrideAmountCents
		s.decision.amount = &amount
		if d.OverrideComment != nil {
			s.decision.comment = *d.OverrideComment
		}
	} else {
		s.decision.accept()
	}

	s.watcher.Prime(s.fields())
}

func (s *damageSession) fields() damageFields {
	return damageFields{VehiclePart: s.vehiclePart, Description: s.description, PhotoCount: len(s.acceptedPhotos())}
}

func (s *damageSession) acceptedPhotos() []string {
	urls := make([]string, 0, len(s.photos))
	for _, p := range s.photos {
		if p.Issue == nil {
			urls = append(urls, p.URL)
		}
	}
	return urls
}

func (s *damageSession) guard() error {
	if s.submitting {
		return apperr.Conflict("damage is being submitted")
	}
	return nil
}

func (s *damageSession) edit(e DamageEdit) error {
	if err := s.guard(); err != nil {
		return err
	}
	if e.VehiclePart != nil {
		s.vehiclePart = *e.VehiclePart
	}
	if e.Description != nil {
		s.description = *e.Description
	}
	s.observe()
	return nil
}

func (s *damageSession) addPhoto(stored StoredPhoto) (Photo, error) {
	if err := s.guard(); err != nil {
		return Photo{}, err
	}
	photo := Photo{
		ID:           uuid.New(),
		Key:          stored.Key,
		URL:          stored.URL,
		OriginalName: stored.OriginalName,
		CapturedAt:   stored.CapturedAt,
	}
	if issue, ok := s.inspector.Inspect(stored.OriginalName); ok {
		photo.Issue = &issue
	}
	s.photos = append(s.photos, photo)
	s.observe()
	return photo, nil
}

func (s *damageSession) removePhoto(photoID uuid.UUID) error {
	if err := s.guard(); err != nil {
		return err
	}
	idx := slices.IndexFunc(s.photos, func(p Photo) bool { return p.ID == photoID })
	if idx < 0 {
		return apperr.NotFound("photo not found")
	}
	s.photos = slices.Delete(s.photos, idx, idx+1)
	s.observe()
	return nil
}

// observe feeds the trigger fields to the watcher. A changed trigger discards
// the result and the decision; evaluation restarts if the trigger still holds.
func (s *damageSession) observe() {
	wasEvaluating := s.stage == EvaluationEvaluating
	if !s.watcher.Observe(s.fields()) {
		return
	}
	if wasEvaluating {
		s.log.StageCancelled(s.id.String(), "damage_evaluation")
	}
	s.discardResult()
	if s.watcher.Active() {
		s.stage = EvaluationEvaluating
	}
}

func (s *damageSession) discardResult() {
	s.abandonEstimate()
	s.result = nil
	s.failure = ""
	s.stage = EvaluationIdle
	s.decision.reset()
}

// reevaluate runs the engine again on unchanged fields.
func (s *damageSession) reevaluate() error {
	if err := s.guard(); err != nil {
		return err
	}
	if !s.watcher.Active() {
		return apperr.Validation("vehicle part, description and at least one accepted photo are required for an evaluation")
	}
	if s.stage == EvaluationEvaluating {
		s.log.StageCancelled(s.id.String(), "damage_evaluation")
	}
	s.discardResult()
	s.watcher.Restart()
	s.stage = EvaluationEvaluating
	return nil
}

// evaluate runs when the trigger fields have held for the evaluation delay.
// The estimator is called off the loop; its result is posted back and dropped
// if the session moved on in the meantime.
func (s *damageSession) evaluate(f damageFields) {
	s.abandonEstimate()
	seq := s.evalSeq
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelEval = cancel
	in := evaluation.Input{
		VehiclePart: f.VehiclePart,
		Description: f.Description,
		Photos:      s.acceptedPhotos(),
	}

	go func() {
		res, err := s.estimator.Estimate(ctx, in)
		posted := s.loop.Post(func() {
			if s.closed || seq != s.evalSeq {
				return
			}
			s.cancelEval = nil
			cancel()
			s.applyEstimate(res, err)
		})
		if !posted {
			cancel()
		}
	}()
}

// abandonEstimate invalidates the running estimate, if any.
func (s *damageSession) abandonEstimate() {
	s.evalSeq++
	if s.cancelEval != nil {
		s.cancelEval()
		s.cancelEval = nil
	}
}

func (s *damageSession) applyEstimate(res evaluation.Result, err error) {
	s.decision.reset()
	if err != nil {
		s.result = nil
		s.failure = "the damage could not be evaluated, try again"
		s.stage = EvaluationFailed
		s.log.CollaboratorFailure("estimator", "estimate damage", err)
		return
	}
	s.result = &res
	s.failure = ""
	s.stage = EvaluationReady
	s.log.EvaluationCompleted(s.id.String(), "damage_evaluation", string(res.Severity))
}

func (s *damageSession) accept() error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.result == nil {
		return apperr.Conflict("no estimate to accept")
	}
	s.decision.accept()
	return nil
}

func (s *damageSession) reject(in OverrideInput) error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.result == nil {
		return apperr.Conflict("no estimate to reject")
	}
	return s.decision.reject(in)
}

func (s *damageSession) setOverride(in OverrideInput) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.decision.update(in)
}

func (s *damageSession) openIssues() int {
	n := 0
	for _, p := range s.photos {
		if p.Issue != nil {
			n++
		}
	}
	return n
}

func (s *damageSession) gates() []string {
	gates := make([]string, 0)
	if blank(s.vehiclePart) {
		gates = append(gates, GateVehiclePartRequired)
	}
	if blank(s.description) {
		gates = append(gates, GateDescriptionRequired)
	}
	if len(s.photos) == 0 {
		gates = append(gates, GatePhotoRequired)
	}
	if s.openIssues() > 0 {
		gates = append(gates, GatePhotoIssues)
	}
	switch s.stage {
	case EvaluationReady:
		switch s.decision.decision {
		case DecisionNone:
			gates = append(gates, GateDecisionRequired)
		case DecisionRejected:
			if !s.decision.complete() {
				gates = append(gates, GateOverrideIncomplete)
			}
		}
	case EvaluationFailed:
		gates = append(gates, GateEvaluationFailed)
	default:
		gates = append(gates, GateEvaluationPending)
	}
	if s.submitting {
		gates = append(gates, GateSubmissionInProgress)
	}
	return gates
}

// submission builds the record written on submit. Call only with no gates open.
func (s *damageSession) submission() DamageSubmission {
	photos := make([]string, 0, len(s.photos))
	for _, p := range s.photos {
		photos = append(photos, p.URL)
	}
	sub := DamageSubmission{
		VehiclePart:   s.vehiclePart,
		Description:   s.description,
		Photos:        photos,
		EstimateCents: s.result.EstimateCents,
		Severity:      s.result.Severity,
		Sources:       slices.Clone(s.result.Sources),
	}
	if s.decision.decision == DecisionRejected {
		amount := *s.decision.amount
		comment := s.decision.comment
		sub.OverrideAmount = &amount
		sub.OverrideComment = &comment
	}
	return sub
}

func (s *damageSession) close() {
	s.closed = true
	s.abandonEstimate()
	s.timers.Stop()
}
