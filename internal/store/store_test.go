package store

import (
	"os"
	"path/filepath"
	"testing"
)

func setupWorkspace(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	if err := Init(Dir(root), false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestInitAndLoad(t *testing.T) {
	s := setupWorkspace(t)

	if s.Config.Analyzer.MaxDepth != 5 {
		t.Errorf("max_depth = %d, want 5", s.Config.Analyzer.MaxDepth)
	}
	if s.Config.State.File != "state.json" {
		t.Errorf("state file = %q, want state.json", s.Config.State.File)
	}
	if got, want := s.StatePath(), filepath.Join(s.Dir, "state.json"); got != want {
		t.Errorf("StatePath = %q, want %q", got, want)
	}
	if got, want := s.GenesisPath(), filepath.Join(s.Root, "genesis.json"); got != want {
		t.Errorf("GenesisPath = %q, want %q", got, want)
	}
}

func TestInit_ExistingWithoutForce(t *testing.T) {
	root := t.TempDir()
	if err := Init(Dir(root), false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(Dir(root), false); err == nil {
		t.Fatal("expected error when workspace exists")
	}
	if err := Init(Dir(root), true); err != nil {
		t.Fatalf("Init --force: %v", err)
	}
}

func TestLoad_MissingWorkspace(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for uninitialized workspace")
	}
}

func TestLoad_PartialConfigFilledFromDefaults(t *testing.T) {
	root := t.TempDir()
	dir := Dir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("version: \"1\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Config.Analyzer.MaxDepth != 5 {
		t.Errorf("max_depth = %d, want default 5", s.Config.Analyzer.MaxDepth)
	}
	if s.Config.State.File != "state.json" {
		t.Errorf("state file = %q, want default state.json", s.Config.State.File)
	}
}

func TestSetConfigValue(t *testing.T) {
	s := setupWorkspace(t)

	cases := []struct {
		key, value string
		wantErr    bool
	}{
		{"analyzer.max_depth", "3", false},
		{"analyzer.max_depth", "-1", true},
		{"analyzer.max_depth", "abc", true},
		{"state.file", "evolution.json", false},
		{"state.file", "", true},
		{"genesis.file", "config/genesis.json", false},
		{"unknown.key", "x", true},
	}
	for _, tc := range cases {
		err := s.SetConfigValue(tc.key, tc.value)
		if tc.wantErr && err == nil {
			t.Errorf("SetConfigValue(%q, %q): expected error", tc.key, tc.value)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("SetConfigValue(%q, %q): %v", tc.key, tc.value, err)
		}
	}

	// Changes persist across loads.
	reloaded, err := Load(s.Root)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Config.Analyzer.MaxDepth != 3 {
		t.Errorf("max_depth = %d, want 3", reloaded.Config.Analyzer.MaxDepth)
	}
	if reloaded.Config.State.File != "evolution.json" {
		t.Errorf("state file = %q, want evolution.json", reloaded.Config.State.File)
	}
}

func TestCheckHealth(t *testing.T) {
	s := setupWorkspace(t)
	if issues := CheckHealth(s.Dir); len(issues) != 0 {
		t.Errorf("healthy workspace reported issues: %+v", issues)
	}

	if issues := CheckHealth(filepath.Join(t.TempDir(), "missing")); len(issues) == 0 {
		t.Error("missing workspace should report issues")
	}

	// Corrupt config.
	if err := os.WriteFile(filepath.Join(s.Dir, "config.yaml"), []byte("analyzer: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if issues := CheckHealth(s.Dir); len(issues) == 0 {
		t.Error("corrupt config should report issues")
	}
}

func TestCheckStateIntegrity(t *testing.T) {
	s := setupWorkspace(t)

	// No state file yet is healthy.
	if issues := CheckStateIntegrity(s.StatePath()); len(issues) != 0 {
		t.Errorf("missing state reported issues: %+v", issues)
	}

	if err := os.WriteFile(s.StatePath(), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	issues := CheckStateIntegrity(s.StatePath())
	if len(issues) != 1 || issues[0].Severity != "error" {
		t.Errorf("corrupt state should report one error, got %+v", issues)
	}

	// Valid JSON missing expected keys warns.
	if err := os.WriteFile(s.StatePath(), []byte(`{"version":"1.0.0"}`), 0644); err != nil {
		t.Fatal(err)
	}
	issues = CheckStateIntegrity(s.StatePath())
	if len(issues) == 0 {
		t.Error("state missing keys should report warnings")
	}
	for _, issue := range issues {
		if issue.Severity != "warning" {
			t.Errorf("expected warnings only, got %+v", issue)
		}
	}
}

func TestFixIssues(t *testing.T) {
	root := t.TempDir()
	dir := Dir(root)

	fixed := FixIssues(dir)
	if len(fixed) != 2 {
		t.Errorf("fixed = %v, want directory and config recreated", fixed)
	}
	if issues := CheckHealth(dir); len(issues) != 0 {
		t.Errorf("workspace should be healthy after fix, got %+v", issues)
	}
}

func TestDir_EnvOverride(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("GENA_DIR", custom)
	if got := Dir("/some/repo"); got != custom {
		t.Errorf("Dir = %q, want %q", got, custom)
	}
}
