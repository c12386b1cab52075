package domain

import (
	"fmt"
	"math"
)

// SourceType tags the corroboration behind an estimate.
type SourceType string

const (
	SourcePriorClaim        SourceType = "preexisting_claim"
	SourceMerchantBenchmark SourceType = "merchant_benchmark"
	SourcePublicData        SourceType = "public_data"
)

// SourceTypes lists every source type in a stable order.
var SourceTypes = []SourceType{SourcePriorClaim, SourceMerchantBenchmark, SourcePublicData}

// Similarity bounds, inclusive.
const (
	MinSimilarity = 0.75
	MaxSimilarity = 0.99
)

// Source is a corroborating data point. ClaimID is set only for prior-claim sources.
type Source struct {
	Type            SourceType `json:"type"`
	SimilarityScore float64    `json:"similarity_score"`
	ClaimID         string     `json:"claim_id,omitempty"`
}

// Validate checks the variant shape and the score range.
func (s Source) Validate() error {
	switch s.Type {
	case SourcePriorClaim:
		if s.ClaimID == "" {
			return fmt.Errorf("prior-claim source requires a claim reference")
		}
	case SourceMerchantBenchmark, SourcePublicData:
		if s.ClaimID != "" {
			return fmt.Errorf("%s source cannot carry a claim reference", s.Type)
		}
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	if s.SimilarityScore < MinSimilarity || s.SimilarityScore > MaxSimilarity {
		return fmt.Errorf("similarity %.2f outside [%.2f, %.2f]", s.SimilarityScore, MinSimilarity, MaxSimilarity)
	}
	return nil
}

// Describe renders the sentence shown next to a source.
func (s Source) Describe() string {
	score := int(math.Round(s.SimilarityScore * 100))
	switch s.Type {
	case SourcePriorClaim:
		return fmt.Sprintf("Based on %d%% similarity to a previous claim (Claim #%s), this damage assessment aligns with historical patterns observed in comparable incidents.", score, s.ClaimID)
	case SourceMerchantBenchmark:
		return fmt.Sprintf("Industry repair cost data from certified auto body shops shows %d%% correlation with this type of damage, indicating the estimate falls within standard market pricing.", score)
	case SourcePublicData:
		return fmt.Sprintf("Public insurance databases and repair statistics demonstrate %d%% consistency with similar damage reports, validating the cost assessment through aggregate industry data.", score)
	default:
		return fmt.Sprintf("Data source with %d%% confidence level supports this damage evaluation.", score)
	}
}
