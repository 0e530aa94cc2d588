package validate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validGenesis() map[string]any {
	commitment := func(extra map[string]any) map[string]any {
		m := map[string]any{"enabled": true}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}
	return map[string]any{
		"genesisTime":     "2026-01-01T00:00:00Z",
		"initiator":       "gena",
		"rootIdentityKey": "ROOT-0001",
		"stateManagement": map[string]any{"file": "state.json"},
		"commitments": map[string]any{
			"immutableCommitHistory": commitment(nil),
			"ethicalEvolution": commitment(map[string]any{
				"ethicalGuidelines": []string{"transparency", "reversibility", "consent"},
			}),
			"multiDimensionalSynthesis": commitment(map[string]any{
				"dimensions": []string{"temporal", "spatial", "conceptual"},
			}),
			"recursiveContextualAnalysis": commitment(nil),
			"ownershipProtocol":           commitment(nil),
		},
	}
}

func writeGenesis(t *testing.T, doc map[string]any) string {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestValidator(t *testing.T, doc map[string]any) *Validator {
	t.Helper()
	v := New(writeGenesis(t, doc), nil)
	v.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return v
}

func levels(results []Result) map[string]int {
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Level]++
	}
	return counts
}

func TestRun_ValidGenesis(t *testing.T) {
	v := newTestValidator(t, validGenesis())

	if !v.Run() {
		t.Fatalf("valid genesis should pass, results: %+v", v.Results())
	}
	counts := levels(v.Results())
	if counts[LevelError] != 0 {
		t.Errorf("errors = %d, want 0", counts[LevelError])
	}
	// Without a repository the history check warns.
	if counts[LevelWarning] != 1 {
		t.Errorf("warnings = %d, want 1 (no repository), results: %+v", counts[LevelWarning], v.Results())
	}
}

func TestRun_MissingFile(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), "nope.json"), nil)
	if v.Run() {
		t.Fatal("missing genesis file should fail")
	}
	if v.ErrorCount() != 1 {
		t.Errorf("ErrorCount = %d, want 1", v.ErrorCount())
	}
}

func TestRun_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	v := New(path, nil)
	if v.Run() {
		t.Fatal("malformed genesis should fail")
	}
}

func TestRun_MissingRequiredField(t *testing.T) {
	doc := validGenesis()
	delete(doc, "stateManagement")
	v := newTestValidator(t, doc)

	if v.Run() {
		t.Fatal("genesis missing stateManagement should fail")
	}
	found := false
	for _, r := range v.Results() {
		if r.Level == LevelError && strings.Contains(r.Message, "stateManagement") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error naming the missing field, got %+v", v.Results())
	}
}

func TestRun_MissingCommitment(t *testing.T) {
	doc := validGenesis()
	delete(doc["commitments"].(map[string]any), "ownershipProtocol")
	v := newTestValidator(t, doc)

	if v.Run() {
		t.Fatal("genesis missing a commitment should fail")
	}
	found := false
	for _, r := range v.Results() {
		if r.Level == LevelError && strings.Contains(r.Message, "ownershipProtocol") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error naming the missing commitment, got %+v", v.Results())
	}
}

func TestRun_DisabledCommitmentWarns(t *testing.T) {
	doc := validGenesis()
	doc["commitments"].(map[string]any)["recursiveContextualAnalysis"] = map[string]any{"enabled": false}
	v := newTestValidator(t, doc)

	if !v.Run() {
		t.Fatal("disabled commitment is a warning, not an error")
	}
	found := false
	for _, r := range v.Results() {
		if r.Level == LevelWarning && strings.Contains(r.Message, "recursiveContextualAnalysis") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning about disabled commitment, got %+v", v.Results())
	}
}

func TestRun_IdentityKeyFormatWarns(t *testing.T) {
	doc := validGenesis()
	doc["rootIdentityKey"] = "key-0001"
	v := newTestValidator(t, doc)

	if !v.Run() {
		t.Fatal("odd identity key format is a warning, not an error")
	}
	found := false
	for _, r := range v.Results() {
		if r.Level == LevelWarning && strings.Contains(r.Message, "identity key") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected identity key warning, got %+v", v.Results())
	}
}

func TestRun_ThinGuidelinesAndDimensionsWarn(t *testing.T) {
	doc := validGenesis()
	commitments := doc["commitments"].(map[string]any)
	commitments["ethicalEvolution"] = map[string]any{
		"enabled":           true,
		"ethicalGuidelines": []string{"transparency"},
	}
	commitments["multiDimensionalSynthesis"] = map[string]any{
		"enabled":    true,
		"dimensions": []string{"temporal", "spatial"},
	}
	v := newTestValidator(t, doc)

	if !v.Run() {
		t.Fatal("thin guidelines and dimensions warn but do not fail")
	}
	counts := levels(v.Results())
	// no-repo warning plus guideline and dimension warnings
	if counts[LevelWarning] != 3 {
		t.Errorf("warnings = %d, want 3, results: %+v", counts[LevelWarning], v.Results())
	}
}

func TestReport(t *testing.T) {
	v := newTestValidator(t, validGenesis())
	v.Run()

	report := v.Report()
	for _, want := range []string{
		"GENESIS COMMITMENT VALIDATION REPORT",
		"Timestamp: 2026-03-14T09:26:53Z",
		"SUMMARY",
		"✗ Errors:    0",
		"DETAILS",
		"✓ [SUCCESS] Genesis configuration structure is valid",
		"⚠ [WARNING] No repository available; commit history not validated",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}
}
