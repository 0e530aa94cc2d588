package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AnalyzerConfig holds pattern analyzer settings.
type AnalyzerConfig struct {
	MaxDepth int      `yaml:"max_depth"`
	Markers  []string `yaml:"markers,omitempty"`
}

// StateConfig holds state tracker settings.
type StateConfig struct {
	File string `yaml:"file"`
}

// GenesisConfig holds validator settings.
type GenesisConfig struct {
	File string `yaml:"file"`
}

// Config holds gena configuration.
type Config struct {
	Version  string         `yaml:"version"`
	Analyzer AnalyzerConfig `yaml:"analyzer,omitempty"`
	State    StateConfig    `yaml:"state,omitempty"`
	Genesis  GenesisConfig  `yaml:"genesis,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Analyzer: AnalyzerConfig{
			MaxDepth: 5,
			Markers:  []string{"genesis.json", "GENESIS.md"},
		},
		State: StateConfig{
			File: "state.json",
		},
		Genesis: GenesisConfig{
			File: "genesis.json",
		},
	}
}

// Store represents a loaded gena workspace: the .gena directory inside a
// repository, holding config.yaml and the state document.
type Store struct {
	Root   string // repository root
	Dir    string // workspace directory
	Config Config
}

// Issue represents a health check finding.
type Issue struct {
	Severity string // "warning" or "error"
	Message  string
}

// Dir returns the workspace directory for a repository root, respecting the
// GENA_DIR env var.
func Dir(root string) string {
	if d := os.Getenv("GENA_DIR"); d != "" {
		return d
	}
	return filepath.Join(root, ".gena")
}

// Init creates the workspace directory with a default config.
func Init(dir string, force bool) error {
	if _, err := os.Stat(dir); err == nil && !force {
		return fmt.Errorf("workspace already exists at %s (use --force to reinitialize)", dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Load reads an existing workspace. Missing config fields are filled from
// defaults.
func Load(root string) (*Store, error) {
	dir := Dir(root)
	cfgPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read workspace config at %s: %w", cfgPath, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config.yaml: %w", err)
	}
	return &Store{Root: root, Dir: dir, Config: cfg}, nil
}

// SaveConfig writes the current config to config.yaml.
func (s *Store) SaveConfig() error {
	data, err := yaml.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	cfgPath := filepath.Join(s.Dir, "config.yaml")
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetConfigValue sets a config value by dot-path key (e.g. "analyzer.max_depth").
func (s *Store) SetConfigValue(key, value string) error {
	switch key {
	case "analyzer.max_depth":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n < 0 {
			return fmt.Errorf("analyzer.max_depth must be a non-negative integer")
		}
		s.Config.Analyzer.MaxDepth = n
	case "state.file":
		if value == "" {
			return fmt.Errorf("state.file must not be empty")
		}
		s.Config.State.File = value
	case "genesis.file":
		if value == "" {
			return fmt.Errorf("genesis.file must not be empty")
		}
		s.Config.Genesis.File = value
	default:
		return fmt.Errorf("unknown config key: %s\nValid keys: analyzer.max_depth, state.file, genesis.file", key)
	}
	return s.SaveConfig()
}

// StatePath returns the path of the persisted state document.
func (s *Store) StatePath() string {
	return filepath.Join(s.Dir, s.Config.State.File)
}

// GenesisPath returns the path of the genesis configuration file, resolved
// against the repository root.
func (s *Store) GenesisPath() string {
	if filepath.IsAbs(s.Config.Genesis.File) {
		return s.Config.Genesis.File
	}
	return filepath.Join(s.Root, s.Config.Genesis.File)
}

// Path resolves a path within the workspace directory.
func (s *Store) Path(parts ...string) string {
	all := append([]string{s.Dir}, parts...)
	return filepath.Join(all...)
}

// CheckHealth verifies workspace structure integrity.
func CheckHealth(dir string) []Issue {
	var issues []Issue

	info, err := os.Stat(dir)
	if err != nil {
		issues = append(issues, Issue{"error", fmt.Sprintf("missing workspace directory: %s", dir)})
		return issues
	}
	if !info.IsDir() {
		issues = append(issues, Issue{"error", fmt.Sprintf("expected directory but found file: %s", dir)})
		return issues
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		issues = append(issues, Issue{"error", fmt.Sprintf("cannot read config.yaml: %v", err)})
	} else {
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			issues = append(issues, Issue{"error", fmt.Sprintf("config.yaml is not valid YAML: %v", err)})
		}
	}

	return issues
}

// CheckStateIntegrity validates the persisted state document, if present.
// The document schema is the state package's concern; this only verifies the
// file parses and carries the expected top-level keys.
func CheckStateIntegrity(statePath string) []Issue {
	var issues []Issue

	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return issues // no state yet is healthy
		}
		issues = append(issues, Issue{"error", fmt.Sprintf("cannot read state file: %v", err)})
		return issues
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		issues = append(issues, Issue{"error", fmt.Sprintf("state file is not valid JSON: %v", err)})
		return issues
	}

	for _, key := range []string{"version", "currentState", "stateHistory", "patterns", "dimensions"} {
		if _, ok := raw[key]; !ok {
			issues = append(issues, Issue{"warning", fmt.Sprintf("state file is missing %q", key)})
		}
	}

	return issues
}

// FixIssues attempts to repair simple workspace issues.
func FixIssues(dir string) []string {
	var fixed []string

	if _, err := os.Stat(dir); err != nil {
		if err := os.MkdirAll(dir, 0755); err == nil {
			fixed = append(fixed, fmt.Sprintf("recreated missing workspace directory: %s", dir))
		}
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(cfgPath); err != nil {
		cfg := DefaultConfig()
		data, _ := yaml.Marshal(cfg)
		if os.WriteFile(cfgPath, data, 0644) == nil {
			fixed = append(fixed, "recreated missing config.yaml with defaults")
		}
	}

	return fixed
}
