package session

import (
	"context"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

// DamageSubmitted is the outcome of a successful damage submission.
type DamageSubmitted struct {
	DamageID      uuid.UUID     `json:"damage_id"`
	ClaimID       uuid.UUID     `json:"claim_id"`
	Status        domain.Status `json:"status"`
	EffectiveCost int64         `json:"effective_cost_in_cents"`
}

// OpenDamageSession starts an empty damage form on an existing claim.
func (m *Manager) OpenDamageSession(ctx context.Context, claimID uuid.UUID) (DamageView, error) {
	exists, err := m.records.ClaimExists(ctx, claimID)
	if err != nil {
		return DamageView{}, m.collaboratorErr(ctx, recordStore, "load claim", err)
	}
	if !exists {
		return DamageView{}, apperr.NotFound("claim not found")
	}

	var view DamageView
	err = m.do(ctx, func() {
		s := newDamageSession(m.ctx, m.loop, claimID, m.estimator, m.rules.Photos, m.cfg.DamageEvaluationDelay, m.log)
		m.damages[s.id] = s
		m.touch(s.id)
		view = s.view()
	})
	return view, err
}

// OpenResubmission loads a refused damage into a new form. Its estimate is
// treated as already decided until the agent re-evaluates or changes the
// evaluated fields.
func (m *Manager) OpenResubmission(ctx context.Context, damageID uuid.UUID) (DamageView, error) {
	damage, err := m.records.GetDamage(ctx, damageID)
	if err != nil {
		return DamageView{}, m.collaboratorErr(ctx, recordStore, "load damage", err)
	}
	if !domain.CanTransition(damage.Status, domain.StatusResubmitted) {
		return DamageView{}, apperr.Conflict("only refused damages can be edited and resubmitted")
	}

	var view DamageView
	err = m.do(ctx, func() {
		s := newDamageSession(m.ctx, m.loop, damage.ClaimID, m.estimator, m.rules.Photos, m.cfg.DamageEvaluationDelay, m.log)
		s.prefill(damage)
		m.damages[s.id] = s
		m.touch(s.id)
		view = s.view()
	})
	return view, err
}

// GetDamageSession returns the current view of a damage form.
func (m *Manager) GetDamageSession(ctx context.Context, id uuid.UUID) (DamageView, error) {
	return m.withDamage(ctx, id, nil)
}

// EditDamageDraft applies a text edit.
func (m *Manager) EditDamageDraft(ctx context.Context, id uuid.UUID, edit DamageEdit) (DamageView, error) {
	return m.withDamage(ctx, id, func(s *damageSession) error {
		return s.edit(edit)
	})
}

// UploadPhoto stores a photo, then adds it to the working set and runs the
// photo check. The store call happens off the loop. If the session is gone
// or busy by the time the upload lands, the stored object is deleted.
func (m *Manager) UploadPhoto(ctx context.Context, id uuid.UUID, upload PhotoUpload) (DamageView, error) {
	if m.photos == nil {
		return DamageView{}, apperr.Unavailable("photo storage is not configured", nil)
	}
	if _, err := m.withDamage(ctx, id, func(s *damageSession) error { return s.guard() }); err != nil {
		return DamageView{}, err
	}

	stored, err := m.photos.Upload(ctx, upload)
	if err != nil {
		return DamageView{}, m.collaboratorErr(ctx, photoStore, "upload photo", err)
	}

	view, err := m.withDamage(ctx, id, func(s *damageSession) error {
		_, err := s.addPhoto(stored)
		return err
	})
	if err != nil {
		if delErr := m.photos.Delete(context.WithoutCancel(ctx), stored.Key); delErr != nil {
			m.log.WithContext(ctx).CollaboratorFailure(photoStore, "delete orphaned photo", delErr)
		}
		return DamageView{}, err
	}
	return view, nil
}

// RemovePhoto drops a photo and any issue raised for it.
func (m *Manager) RemovePhoto(ctx context.Context, id, photoID uuid.UUID) (DamageView, error) {
	return m.withDamage(ctx, id, func(s *damageSession) error {
		return s.removePhoto(photoID)
	})
}

// AcceptEstimate takes the engine estimate as the damage cost.
func (m *Manager) AcceptEstimate(ctx context.Context, id uuid.UUID) (DamageView, error) {
	return m.withDamage(ctx, id, func(s *damageSession) error {
		return s.accept()
	})
}

// RejectEstimate switches to a manual estimate. Amount and comment may follow
// later through SetOverride.
func (m *Manager) RejectEstimate(ctx context.Context, id uuid.UUID, in OverrideInput) (DamageView, error) {
	return m.withDamage(ctx, id, func(s *damageSession) error {
		return s.reject(in)
	})
}

// SetOverride updates the manual estimate of a rejected evaluation.
func (m *Manager) SetOverride(ctx context.Context, id uuid.UUID, in OverrideInput) (DamageView, error) {
	return m.withDamage(ctx, id, func(s *damageSession) error {
		return s.setOverride(in)
	})
}

// Reevaluate discards the current estimate and runs the engine again.
func (m *Manager) Reevaluate(ctx context.Context, id uuid.UUID) (DamageView, error) {
	return m.withDamage(ctx, id, func(s *damageSession) error {
		return s.reevaluate()
	})
}

// SubmitDamage writes the damage when every gate is satisfied and then closes
// the session. On a record store failure the session stays open for a retry.
func (m *Manager) SubmitDamage(ctx context.Context, id uuid.UUID, actor string) (DamageSubmitted, error) {
	var (
		sub      DamageSubmission
		mode     DamageMode
		claimID  uuid.UUID
		damageID uuid.UUID
		opErr    error
	)
	if err := m.reserve(ctx, func() bool {
		s, err := m.damageSession(id)
		if err != nil {
			opErr = err
			return false
		}
		m.touch(id)
		if gates := s.gates(); len(gates) > 0 {
			opErr = apperr.Blocked("damage cannot be submitted yet", gates)
			return false
		}
		s.submitting = true
		sub = s.submission()
		mode, claimID, damageID = s.mode, s.claimID, s.damageID
		return true
	}, func() {
		if s, ok := m.damages[id]; ok {
			s.submitting = false
		}
	}); err != nil {
		return DamageSubmitted{}, err
	}
	if opErr != nil {
		return DamageSubmitted{}, opErr
	}

	var (
		damage   domain.Damage
		writeErr error
		op       = "create damage"
	)
	if mode == ModeResubmit {
		op = "resubmit damage"
		damage, writeErr = m.records.ResubmitDamage(ctx, damageID, sub, actor)
	} else {
		damage, writeErr = m.records.CreateDamage(ctx, claimID, sub, actor)
	}

	_ = m.do(context.WithoutCancel(ctx), func() {
		s, ok := m.damages[id]
		if !ok {
			return
		}
		s.submitting = false
		if writeErr == nil {
			m.closeSession(id)
		}
	})
	if writeErr != nil {
		return DamageSubmitted{}, m.collaboratorErr(ctx, recordStore, op, writeErr)
	}

	m.log.WithContext(ctx).Info("damage submitted", "session", id.String(), "damageId", damage.ID, "mode", string(mode))
	return DamageSubmitted{
		DamageID:      damage.ID,
		ClaimID:       damage.ClaimID,
		Status:        damage.Status,
		EffectiveCost: damage.EffectiveCost(),
	}, nil
}

// CloseDamageSession discards the form and cancels its pending evaluation.
func (m *Manager) CloseDamageSession(ctx context.Context, id uuid.UUID) error {
	var opErr error
	err := m.do(ctx, func() {
		if _, ok := m.damages[id]; !ok {
			opErr = m.missing(id)
			return
		}
		m.closeSession(id)
	})
	if err != nil {
		return err
	}
	return opErr
}
