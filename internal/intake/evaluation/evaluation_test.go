package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claim_intake_backend/internal/claims/domain"
)

func TestRandomEstimator_StaysInsideTierRanges(t *testing.T) {
	est := NewSeededEstimator(42)
	seen := make(map[Severity]bool)

	for i := 0; i < 2000; i++ {
		res, err := est.Estimate(context.Background(), Input{VehiclePart: "Front Bumper", Description: "Dent", Photos: []string{"p"}})
		require.NoError(t, err)
		require.NoError(t, res.Validate(), "iteration %d", i)
		seen[res.Severity] = true
	}

	for _, tier := range Tiers {
		assert.True(t, seen[tier.Severity], "tier %s never drawn", tier.Severity)
	}
}

func TestRandomEstimator_SourcesShape(t *testing.T) {
	est := NewSeededEstimator(7)
	counts := make(map[int]bool)

	for i := 0; i < 500; i++ {
		res, err := est.Estimate(context.Background(), Input{})
		require.NoError(t, err)
		counts[len(res.Sources)] = true
		for _, src := range res.Sources {
			assert.GreaterOrEqual(t, src.SimilarityScore, domain.MinSimilarity)
			assert.LessOrEqual(t, src.SimilarityScore, domain.MaxSimilarity)
			if src.Type == domain.SourcePriorClaim {
				assert.NotEmpty(t, src.ClaimID)
			} else {
				assert.Empty(t, src.ClaimID)
			}
		}
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, counts)
}

func TestRandomEstimator_SameSeedSameOutput(t *testing.T) {
	a, err := NewSeededEstimator(99).Estimate(context.Background(), Input{})
	require.NoError(t, err)
	b, err := NewSeededEstimator(99).Estimate(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRandomEstimator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSeededEstimator(1).Estimate(ctx, Input{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTiers_OverlapAtBoundaries(t *testing.T) {
	for i := 1; i < len(Tiers); i++ {
		lower, upper := Tiers[i-1], Tiers[i]
		assert.Less(t, upper.MinCents, lower.MaxCents, "%s and %s must overlap", lower.Severity, upper.Severity)
	}
}

func TestSeverityForAmount(t *testing.T) {
	tests := []struct {
		cents int64
		want  Severity
	}{
		{5000, SeverityLow},
		{8999, SeverityLow},
		{9000, SeverityModerate},
		{11999, SeverityModerate},
		{12000, SeveritySevere},
		{98999, SeveritySevere},
		{99000, SeverityCritical},
		{500000, SeverityCritical},
	}
	for _, tt := range tests {
		if got := SeverityForAmount(tt.cents); got != tt.want {
			t.Fatalf("SeverityForAmount(%d) = %s, want %s", tt.cents, got, tt.want)
		}
	}
}

func TestResultValidate(t *testing.T) {
	valid := Result{
		Severity:      SeverityModerate,
		EstimateCents: 9500,
		Sources:       []domain.Source{{Type: domain.SourcePublicData, SimilarityScore: 0.8}},
	}
	require.NoError(t, valid.Validate())

	outOfRange := valid
	outOfRange.EstimateCents = 15000
	assert.Error(t, outOfRange.Validate())

	noSources := valid
	noSources.Sources = nil
	assert.Error(t, noSources.Validate())

	badSource := valid
	badSource.Sources = []domain.Source{{Type: domain.SourcePriorClaim, SimilarityScore: 0.8}}
	assert.Error(t, badSource.Validate())
}

func TestValidated_RejectsContractBreaks(t *testing.T) {
	broken := EstimatorFunc(func(context.Context, Input) (Result, error) {
		return Result{Severity: SeverityLow, EstimateCents: 1}, nil
	})
	_, err := Validated(broken).Estimate(context.Background(), Input{})
	assert.Error(t, err)

	failing := EstimatorFunc(func(context.Context, Input) (Result, error) {
		return Result{}, errors.New("model offline")
	})
	_, err = Validated(failing).Estimate(context.Background(), Input{})
	assert.EqualError(t, err, "model offline")
}
