package rules

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	restrictedAddress = "1600 Pennsylvania Avenue NW in Washington, DC"
	drunkDriving      = "I was driving drunk and crashed my car with a light post"
)

func mustDefault(t *testing.T) *Rules {
	t.Helper()
	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return r
}

func TestClassify(t *testing.T) {
	r := mustDefault(t)

	tests := []struct {
		name        string
		location    string
		description string
		want        Classification
	}{
		{"clean", "Main St 1", "Rear-ended at a light", ClassificationClear},
		{"restricted address", restrictedAddress, "Rear-ended at a light", AddressFlag},
		{"illegal activity", "Main St 1", drunkDriving, ComplianceFlag},
		{"both strings prefer address", restrictedAddress, drunkDriving, AddressFlag},
		{"near miss is clear", restrictedAddress + ".", drunkDriving + " ", ClassificationClear},
		{"case matters", "1600 pennsylvania avenue nw in washington, dc", "", ClassificationClear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Claims.Classify(tt.location, tt.description); got != tt.want {
				t.Fatalf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassificationBlocks(t *testing.T) {
	if ClassificationClear.Blocks() {
		t.Fatalf("clear must not block")
	}
	if !AddressFlag.Blocks() || !ComplianceFlag.Blocks() {
		t.Fatalf("flags must block")
	}
}

func TestInspect(t *testing.T) {
	r := mustDefault(t)

	tests := []struct {
		name     string
		filename string
		want     IssueKind
		flagged  bool
	}{
		{"low light", "low_light.jpg", IssueLowLight, true},
		{"upper case name", "LOW_LIGHT.JPG", IssueLowLight, true},
		{"preexisting", "preexisting_damage.jpeg", IssuePreexistingDamage, true},
		{"wrong vehicle", "wrong_vehicle.jpg", IssueWrongVehicle, true},
		{"different extension", "wrong_vehicle.png", "", false},
		{"ordinary photo", "bumper.png", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue, ok := r.Photos.Inspect(tt.filename)
			if ok != tt.flagged {
				t.Fatalf("Inspect(%q) flagged = %v, want %v", tt.filename, ok, tt.flagged)
			}
			if ok && (issue.Kind != tt.want || issue.Message == "") {
				t.Fatalf("Inspect(%q) = %+v, want kind %s with a message", tt.filename, issue, tt.want)
			}
		})
	}
}

func TestLoadOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
claim:
  restricted_addresses: ["Area 51"]
photos:
  - name: blurry.png
    kind: low_light
    message: "Too blurry"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := r.Claims.Classify("Area 51", ""); got != AddressFlag {
		t.Fatalf("Classify() = %s, want %s", got, AddressFlag)
	}
	if got := r.Claims.Classify(restrictedAddress, ""); got != ClassificationClear {
		t.Fatalf("override must replace defaults, got %s", got)
	}
	if _, ok := r.Photos.Inspect("blurry.png"); !ok {
		t.Fatalf("expected blurry.png to be flagged")
	}
}

func TestParseRejectsBadRules(t *testing.T) {
	tests := map[string]string{
		"unknown kind":  "photos:\n  - {name: a.jpg, kind: smudge, message: x}\n",
		"empty message": "photos:\n  - {name: a.jpg, kind: low_light, message: \"\"}\n",
		"duplicate":     "photos:\n  - {name: a.jpg, kind: low_light, message: x}\n  - {name: A.JPG, kind: wrong_vehicle, message: y}\n",
		"empty":         "claim: {}\n",
		"not yaml":      "photos: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(content)); err == nil {
				t.Fatalf("Parse() expected error")
			}
		})
	}
}
