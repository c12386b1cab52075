package rules

// ClaimChecker classifies a settled claim draft.
type ClaimChecker struct {
	addresses    map[string]struct{}
	descriptions map[string]struct{}
}

// NewClaimChecker builds a checker from exact-match lists.
func NewClaimChecker(restrictedAddresses, prohibitedDescriptions []string) *ClaimChecker {
	c := &ClaimChecker{
		addresses:    make(map[string]struct{}, len(restrictedAddresses)),
		descriptions: make(map[string]struct{}, len(prohibitedDescriptions)),
	}
	for _, a := range restrictedAddresses {
		c.addresses[a] = struct{}{}
	}
	for _, d := range prohibitedDescriptions {
		c.descriptions[d] = struct{}{}
	}
	return c
}

// Classify returns exactly one classification. The address check runs first,
// so a draft matching both lists is an address flag.
func (c *ClaimChecker) Classify(location, description string) Classification {
	if _, ok := c.addresses[location]; ok {
		return AddressFlag
	}
	if _, ok := c.descriptions[description]; ok {
		return ComplianceFlag
	}
	return ClassificationClear
}
