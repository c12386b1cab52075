package evaluation

import "fmt"

// Severity is the damage classification that bounds the cost range.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityCritical Severity = "Critical"
)

// Tier is an inclusive cost range in cents. Adjacent ranges overlap.
type Tier struct {
	Severity Severity `json:"severity"`
	MinCents int64    `json:"min_cents"`
	MaxCents int64    `json:"max_cents"`
}

// Tiers lists the severity tiers from least to most severe.
var Tiers = []Tier{
	{Severity: SeverityLow, MinCents: 5000, MaxCents: 10000},
	{Severity: SeverityModerate, MinCents: 9000, MaxCents: 14000},
	{Severity: SeveritySevere, MinCents: 12000, MaxCents: 100000},
	{Severity: SeverityCritical, MinCents: 99000, MaxCents: 500000},
}

// TierFor returns the tier of s.
func TierFor(s Severity) (Tier, bool) {
	for _, t := range Tiers {
		if t.Severity == s {
			return t, true
		}
	}
	return Tier{}, false
}

// Contains reports whether cents lies in the tier's inclusive range.
func (t Tier) Contains(cents int64) bool {
	return cents >= t.MinCents && cents <= t.MaxCents
}

// SeverityForAmount labels an existing estimate, e.g. when a refused damage is
// reopened. Overlaps resolve to the higher tier.
func SeverityForAmount(cents int64) Severity {
	switch {
	case cents >= 99000:
		return SeverityCritical
	case cents >= 12000:
		return SeveritySevere
	case cents >= 9000:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// ParseSeverity accepts the exact tier names.
func ParseSeverity(s string) (Severity, error) {
	if _, ok := TierFor(Severity(s)); !ok {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return Severity(s), nil
}
