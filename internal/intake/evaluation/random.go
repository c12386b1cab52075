package evaluation

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"

	"claim_intake_backend/internal/claims/domain"
)

const (
	priorClaimMin  = 1000
	priorClaimSpan = 10000
)

// RandomEstimator picks a tier, an amount inside it and one to three sources
// at random. It stands in for a real model.
type RandomEstimator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomEstimator uses src for every draw; pass a fixed-seed source for
// reproducible output.
func NewRandomEstimator(src rand.Source) *RandomEstimator {
	return &RandomEstimator{rng: rand.New(src)}
}

// NewSeededEstimator is a RandomEstimator on a PCG source seeded with seed.
func NewSeededEstimator(seed uint64) *RandomEstimator {
	return NewRandomEstimator(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Estimate implements Estimator. The input only gates whether an estimate is
// produced; it does not influence the draw.
func (e *RandomEstimator) Estimate(ctx context.Context, _ Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tier := Tiers[e.rng.IntN(len(Tiers))]
	res := Result{
		Severity:      tier.Severity,
		EstimateCents: tier.MinCents + e.rng.Int64N(tier.MaxCents-tier.MinCents+1),
	}

	n := 1 + e.rng.IntN(MaxSources)
	res.Sources = make([]domain.Source, 0, n)
	for i := 0; i < n; i++ {
		res.Sources = append(res.Sources, e.source())
	}
	return res, nil
}

func (e *RandomEstimator) source() domain.Source {
	src := domain.Source{
		Type:            domain.SourceTypes[e.rng.IntN(len(domain.SourceTypes))],
		SimilarityScore: e.similarity(),
	}
	if src.Type == domain.SourcePriorClaim {
		src.ClaimID = strconv.Itoa(priorClaimMin + e.rng.IntN(priorClaimSpan))
	}
	return src
}

// similarity draws a score in [0.75, 0.99] at two decimals.
func (e *RandomEstimator) similarity() float64 {
	raw := domain.MinSimilarity + e.rng.Float64()*(domain.MaxSimilarity-domain.MinSimilarity)
	score := math.Round(raw*100) / 100
	return math.Min(math.Max(score, domain.MinSimilarity), domain.MaxSimilarity)
}
