package session

import (
	"context"

	"claim_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

// ClaimSubmitted is the outcome of a successful claim submission.
type ClaimSubmitted struct {
	ClaimID uuid.UUID `json:"claim_id"`
}

// OpenClaimSession starts an empty claim form.
func (m *Manager) OpenClaimSession(ctx context.Context) (ClaimView, error) {
	var view ClaimView
	err := m.do(ctx, func() {
		s := newClaimSession(m.loop, m.rules.Claims, m.cfg.ClaimQuietPeriod, m.cfg.ClaimEvaluationDelay, m.log)
		m.claims[s.id] = s
		m.touch(s.id)
		view = s.view()
	})
	return view, err
}

// GetClaimSession returns the current view of a claim form.
func (m *Manager) GetClaimSession(ctx context.Context, id uuid.UUID) (ClaimView, error) {
	return m.withClaim(ctx, id, nil)
}

// EditClaimDraft applies an edit. Changing the user clears the policy; text
// edits restart the claim check.
func (m *Manager) EditClaimDraft(ctx context.Context, id uuid.UUID, edit ClaimEdit) (ClaimView, error) {
	return m.withClaim(ctx, id, func(s *claimSession) error {
		return s.edit(edit)
	})
}

// SubmitClaim writes the claim when every gate is satisfied and then closes
// the session. On a record store failure the session stays open for a retry.
func (m *Manager) SubmitClaim(ctx context.Context, id uuid.UUID, actor string) (ClaimSubmitted, error) {
	var draft ClaimDraft
	var opErr error
	if err := m.reserve(ctx, func() bool {
		s, err := m.claimSession(id)
		if err != nil {
			opErr = err
			return false
		}
		m.touch(id)
		if gates := s.gates(); len(gates) > 0 {
			opErr = apperr.Blocked("claim cannot be submitted yet", gates)
			return false
		}
		s.submitting = true
		draft = s.draft
		return true
	}, func() {
		if s, ok := m.claims[id]; ok {
			s.submitting = false
		}
	}); err != nil {
		return ClaimSubmitted{}, err
	}
	if opErr != nil {
		return ClaimSubmitted{}, opErr
	}

	claimID, writeErr := m.records.CreateClaim(ctx, draft, actor)

	_ = m.do(context.WithoutCancel(ctx), func() {
		s, ok := m.claims[id]
		if !ok {
			return
		}
		s.submitting = false
		if writeErr == nil {
			m.closeSession(id)
		}
	})
	if writeErr != nil {
		return ClaimSubmitted{}, m.collaboratorErr(ctx, recordStore, "create claim", writeErr)
	}

	m.log.WithContext(ctx).Info("claim submitted", "session", id.String(), "claimId", claimID)
	return ClaimSubmitted{ClaimID: claimID}, nil
}

// CloseClaimSession discards the form and cancels its pending stages.
func (m *Manager) CloseClaimSession(ctx context.Context, id uuid.UUID) error {
	var opErr error
	err := m.do(ctx, func() {
		if _, ok := m.claims[id]; !ok {
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
