package session

import (
	"claim_intake_backend/platform/apperr"
)

// Decision is the agent's verdict on an engine estimate.
type Decision string

const (
	DecisionNone     Decision = "none"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// OverrideInput carries a manual estimate; nil fields are untouched.
type OverrideInput struct {
	AmountCents *int64
	Comment     *string
}

// override holds the decision and the manual estimate that goes with a
// rejection. Only one decision is active at a time.
type override struct {
	decision Decision
	amount   *int64
	comment  string
}

func (o *override) reset() {
	o.decision = DecisionNone
	o.amount = nil
	o.comment = ""
}

func (o *override) accept() {
	o.decision = DecisionAccepted
	o.amount = nil
	o.comment = ""
}

func (o *override) reject(in OverrideInput) error {
	if err := checkOverrideInput(in); err != nil {
		return err
	}
	o.decision = DecisionRejected
	o.apply(in)
	return nil
}

func (o *override) update(in OverrideInput) error {
	if o.decision != DecisionRejected {
		return apperr.Conflict("reject the estimate before entering a manual amount")
	}
	if err := checkOverrideInput(in); err != nil {
		return err
	}
	o.apply(in)
	return nil
}

func (o *override) apply(in OverrideInput) {
	if in.AmountCents != nil {
		amount := *in.AmountCents
		o.amount = &amount
	}
	if in.Comment != nil {
		o.comment = *in.Comment
	}
}

// complete reports whether a rejection carries a positive amount and a
// justification that survives sanitizing.
func (o *override) complete() bool {
	return o.amount != nil && *o.amount > 0 && !blank(o.comment)
}

// effective returns the estimate that would be written on submit.
func (o *override) effective(estimate int64) (int64, bool) {
	switch o.decision {
	case DecisionAccepted:
		return estimate, true
	case DecisionRejected:
		if o.complete() {
			return *o.amount, true
		}
	}
	return 0, false
}

func checkOverrideInput(in OverrideInput) error {
	if in.AmountCents != nil && *in.AmountCents <= 0 {
		return apperr.Validation("override amount must be a positive number of cents")
	}
	return nil
}
