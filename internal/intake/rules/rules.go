// Package rules holds the claim and photo checks run by the intake workflow.
// The rule set ships embedded and can be replaced by a YAML file.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Classification is the terminal outcome of the claim check.
type Classification string

const (
	ClassificationClear Classification = "clear"
	AddressFlag         Classification = "address_flag"
	ComplianceFlag      Classification = "compliance_flag"
)

// Blocks reports whether the classification forbids submission.
func (c Classification) Blocks() bool {
	return c == AddressFlag || c == ComplianceFlag
}

// IssueKind tags a photo validation issue.
type IssueKind string

const (
	IssueLowLight          IssueKind = "low_light"
	IssuePreexistingDamage IssueKind = "preexisting_damage"
	IssueWrongVehicle      IssueKind = "wrong_vehicle"
)

func (k IssueKind) valid() bool {
	switch k {
	case IssueLowLight, IssuePreexistingDamage, IssueWrongVehicle:
		return true
	}
	return false
}

// Issue is the advisory raised for a known-bad photo.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// File is the YAML layout of a rule set.
type File struct {
	Claim struct {
		RestrictedAddresses    []string `yaml:"restricted_addresses"`
		ProhibitedDescriptions []string `yaml:"prohibited_descriptions"`
	} `yaml:"claim"`
	Photos []PhotoRule `yaml:"photos"`
}

// PhotoRule flags uploads whose original file name equals Name.
type PhotoRule struct {
	Name    string    `yaml:"name"`
	Kind    IssueKind `yaml:"kind"`
	Message string    `yaml:"message"`
}

// Rules is a parsed, validated rule set.
type Rules struct {
	Claims *ClaimChecker
	Photos *PhotoInspector
}

// Default returns the embedded rule set.
func Default() (*Rules, error) {
	return Parse(defaultRules)
}

// Load reads the rule set at path, or the embedded one when path is empty.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intake rules: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML rule set.
func Parse(data []byte) (*Rules, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode intake rules: %w", err)
	}

	photos := make(map[string]Issue, len(f.Photos))
	for i, rule := range f.Photos {
		name := strings.ToLower(strings.TrimSpace(rule.Name))
		switch {
		case name == "":
			return nil, fmt.Errorf("photo rule %d: name is required", i)
		case !rule.Kind.valid():
			return nil, fmt.Errorf("photo rule %d: unknown kind %q", i, rule.Kind)
		case strings.TrimSpace(rule.Message) == "":
			return nil, fmt.Errorf("photo rule %d: message is required", i)
		}
		if _, dup := photos[name]; dup {
			return nil, fmt.Errorf("photo rule %d: duplicate name %q", i, rule.Name)
		}
		photos[name] = Issue{Kind: rule.Kind, Message: rule.Message}
	}

	if len(f.Claim.RestrictedAddresses) == 0 && len(f.Claim.ProhibitedDescriptions) == 0 && len(photos) == 0 {
		return nil, errors.New("intake rules are empty")
	}

	return &Rules{
		Claims: NewClaimChecker(f.Claim.RestrictedAddresses, f.Claim.ProhibitedDescriptions),
		Photos: &PhotoInspector{byName: photos},
	}, nil
}
