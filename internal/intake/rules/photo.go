package rules

import "strings"

// PhotoInspector flags known-bad uploads by their original file name.
type PhotoInspector struct {
	byName map[string]Issue
}

// Inspect returns the issue for originalName, if any.
func (p *PhotoInspector) Inspect(originalName string) (Issue, bool) {
	issue, ok := p.byName[strings.ToLower(strings.TrimSpace(originalName))]
	return issue, ok
}
