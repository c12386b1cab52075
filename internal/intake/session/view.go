package session

import (
	"slices"
	"time"

	"claim_intake_backend/internal/intake/evaluation"
	"claim_intake_backend/internal/intake/rules"

	"github.com/google/uuid"
)

// ClaimView is an immutable snapshot of a claim session.
type ClaimView struct {
	SessionID      uuid.UUID            `json:"session_id"`
	Draft          ClaimDraft           `json:"draft"`
	Stage          ClaimStage           `json:"stage"`
	Classification rules.Classification `json:"classification,omitempty"`
	Gates          []string             `json:"gates"`
	CanSubmit      bool                 `json:"can_submit"`
}

// PhotoView is one photo of a damage session.
type PhotoView struct {
	ID           uuid.UUID    `json:"id"`
	URL          string       `json:"url"`
	OriginalName string       `json:"original_name,omitempty"`
	CapturedAt   *time.Time   `json:"captured_at,omitempty"`
	Issue        *rules.Issue `json:"issue,omitempty"`
}

// IssueView is an outstanding photo validation issue.
type IssueView struct {
	PhotoID  uuid.UUID       `json:"photo_id"`
	PhotoURL string          `json:"photo_url"`
	Kind     rules.IssueKind `json:"kind"`
	Message  string          `json:"message"`
}

// SourceView is a corroborating source with its display sentence.
type SourceView struct {
	Type            string  `json:"type"`
	SimilarityScore float64 `json:"similarity_score"`
	ClaimID         string  `json:"claim_id,omitempty"`
	Description     string  `json:"description"`
}

// ResultView is the engine result held by the session.
type ResultView struct {
	Severity      evaluation.Severity `json:"severity"`
	EstimateCents int64               `json:"estimated_amount_in_cents"`
	Sources       []SourceView        `json:"sources"`
}

// DamageView is an immutable snapshot of a damage session.
type DamageView struct {
	SessionID       uuid.UUID       `json:"session_id"`
	ClaimID         uuid.UUID       `json:"claim_id"`
	DamageID        *uuid.UUID      `json:"damage_id,omitempty"`
	Mode            DamageMode      `json:"mode"`
	VehiclePart     string          `json:"vehicle_part"`
	Description     string          `json:"damage_description"`
	Photos          []PhotoView     `json:"photos"`
	Issues          []IssueView     `json:"photo_issues"`
	Stage           EvaluationStage `json:"evaluation_stage"`
	Failure         string          `json:"evaluation_failure,omitempty"`
	Result          *ResultView     `json:"result,omitempty"`
	Decision        Decision        `json:"decision"`
	OverrideAmount  *int64          `json:"override_amount_in_cents,omitempty"`
	OverrideComment string          `json:"override_comment,omitempty"`
	EffectiveCost   *int64          `json:"effective_cost_in_cents,omitempty"`
	Gates           []string        `json:"gates"`
	CanSubmit       bool            `json:"can_submit"`
}

func (s *claimSession) view() ClaimView {
	gates := s.gates()
	return ClaimView{
		SessionID:      s.id,
		Draft:          s.draft,
		Stage:          s.stage,
		Classification: s.classification,
		Gates:          gates,
		CanSubmit:      len(gates) == 0,
	}
}

func (s *damageSession) view() DamageView {
	gates := s.gates()
	v := DamageView{
		SessionID:       s.id,
		ClaimID:         s.claimID,
		Mode:            s.mode,
		VehiclePart:     s.vehiclePart,
		Description:     s.description,
		Photos:          make([]PhotoView, 0, len(s.photos)),
		Issues:          make([]IssueView, 0),
		Stage:           s.stage,
		Failure:         s.failure,
		Decision:        s.decision.decision,
		OverrideComment: s.decision.comment,
		Gates:           gates,
		CanSubmit:       len(gates) == 0,
	}
	if s.mode == ModeResubmit {
		id := s.damageID
		v.DamageID = &id
	}
	for _, p := range s.photos {
		pv := PhotoView{ID: p.ID, URL: p.URL, OriginalName: p.OriginalName, CapturedAt: p.CapturedAt}
		if p.Issue != nil {
			issue := *p.Issue
			pv.Issue = &issue
			v.Issues = append(v.Issues, IssueView{PhotoID: p.ID, PhotoURL: p.URL, Kind: issue.Kind, Message: issue.Message})
		}
		v.Photos = append(v.Photos, pv)
	}
	if s.decision.amount != nil {
		amount := *s.decision.amount
		v.OverrideAmount = &amount
	}
	if s.result != nil {
		v.Result = resultView(*s.result)
		if cost, ok := s.decision.effective(s.result.EstimateCents); ok {
			v.EffectiveCost = &cost
		}
	}
	return v
}

func resultView(r evaluation.Result) *ResultView {
	sources := make([]SourceView, 0, len(r.Sources))
	for _, src := range slices.Clone(r.Sources) {
		sources = append(sources, SourceView{
			Type:            string(src.Type),
			SimilarityScore: src.SimilarityScore,
			ClaimID:         src.ClaimID,
			Description:     src.Describe(),
		})
	}
	return &ResultView{Severity: r.Severity, EstimateCents: r.EstimateCents, Sources: sources}
}
