// Package evaluation defines the damage evaluation engine contract and a
// randomized stand-in that respects the tier ranges.
package evaluation

import (
	"context"
	"errors"
	"fmt"

	"claim_intake_backend/internal/claims/domain"
)

// Input is what the engine sees of the damage form.
type Input struct {
	VehiclePart string
	Description string
	Photos      []string
}

// Result is an engine verdict held by the form session until the agent
// accepts or overrides it.
type Result struct {
	Severity      Severity        `json:"severity"`
	EstimateCents int64           `json:"estimated_amount_in_cents"`
	Sources       []domain.Source `json:"sources"`
}

// Estimator produces a Result for a damage.
type Estimator interface {
	Estimate(ctx context.Context, in Input) (Result, error)
}

// EstimatorFunc adapts a function to Estimator.
type EstimatorFunc func(ctx context.Context, in Input) (Result, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(ctx context.Context, in Input) (Result, error) {
	return f(ctx, in)
}

// MaxSources bounds the corroborating sources on one result.
const MaxSources = 3

// Validate checks the result against its tier and the source rules.
func (r Result) Validate() error {
	tier, ok := TierFor(r.Severity)
	if !ok {
		return fmt.Errorf("unknown severity %q", r.Severity)
	}
	if !tier.Contains(r.EstimateCents) {
		return fmt.Errorf("estimate %d outside %s range [%d, %d]", r.EstimateCents, r.Severity, tier.MinCents, tier.MaxCents)
	}
	if len(r.Sources) == 0 || len(r.Sources) > MaxSources {
		return errors.New("result must carry between one and three sources")
	}
	for _, src := range r.Sources {
		if err := src.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validated wraps an estimator and rejects results that break the contract.
func Validated(next Estimator) Estimator {
	return EstimatorFunc(func(ctx context.Context, in Input) (Result, error) {
		res, err := next.Estimate(ctx, in)
		if err != nil {
			return Result{}, err
		}
		if err := res.Validate(); err != nil {
			return Result{}, fmt.Errorf("estimator returned invalid result: %w", err)
		}
		return res, nil
	})
}
