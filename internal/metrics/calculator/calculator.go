// Package calculator derives portfolio and per-claim statistics from the
// current claim and damage collections. Every function is pure.
package calculator

import (
	"math"

	"claim_intake_backend/internal/claims/domain"

	"github.com/google/uuid"
)

// Portfolio holds the figures shown above the claims list.
type Portfolio struct {
	TotalClaims               int     `json:"total_claims"`
	TotalDamages              int     `json:"total_damages"`
	AverageClaimAmountInCents int64   `json:"average_claim_amount_in_cents"`
	DamagesPerClaim           float64 `json:"damages_per_claim"`
	ApprovalRate              int     `json:"approval_rate"`
}

// ClaimFigures holds the figures shown on one claim row.
type ClaimFigures struct {
	ClaimID            uuid.UUID `json:"claim_id"`
	DamageCount        int       `json:"damage_count"`
	TotalAmountInCents int64     `json:"total_amount_in_cents"`
	ApprovalRate       int       `json:"approval_rate"`
}

// Compute derives the portfolio figures. Damages that reference a claim not in
// claims still count towards the damage totals.
func Compute(claims []domain.Claim, damages []domain.Damage) Portfolio {
	p := Portfolio{
		TotalClaims:  len(claims),
		TotalDamages: len(damages),
		ApprovalRate: ApprovalRate(damages),
	}
	if len(claims) == 0 {
		return p
	}

	totals := TotalsByClaim(damages)
	var sum int64
	for _, c := range claims {
		sum += totals[c.ID]
	}
	p.AverageClaimAmountInCents = int64(math.Round(float64(sum) / float64(len(claims))))
	p.DamagesPerClaim = roundOneDecimal(float64(len(damages)) / float64(len(claims)))
	return p
}

// ForClaim derives the per-claim figures from that claim's damages.
func ForClaim(claimID uuid.UUID, damages []domain.Damage) ClaimFigures {
	own := make([]domain.Damage, 0, len(damages))
	for _, d := range damages {
		if d.ClaimID == claimID {
			own = append(own, d)
		}
	}
	return ClaimFigures{
		ClaimID:            claimID,
		DamageCount:        len(own),
		TotalAmountInCents: TotalCost(own),
		ApprovalRate:       ApprovalRate(own),
	}
}

// TotalCost sums the effective cost of damages.
func TotalCost(damages []domain.Damage) int64 {
	var total int64
	for _, d := range damages {
		total += d.EffectiveCost()
	}
	return total
}

// TotalsByClaim sums effective cost per claim.
func TotalsByClaim(damages []domain.Damage) map[uuid.UUID]int64 {
	totals := make(map[uuid.UUID]int64)
	for _, d := range damages {
		totals[d.ClaimID] += d.EffectiveCost()
	}
	return totals
}

// ApprovalRate is the whole-number percentage of approved damages, 0 when
// there are none.
func ApprovalRate(damages []domain.Damage) int {
	if len(damages) == 0 {
		return 0
	}
	approved := 0
	for _, d := range damages {
		if d.Status == domain.StatusApproved {
			approved++
		}
	}
	return int(math.Round(float64(approved) * 100 / float64(len(damages))))
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
