// Package validate checks a genesis configuration document for structural
// integrity and commitment compliance.
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/genaproject/gena/internal/repo"
)

// Result levels.
const (
	LevelError   = "ERROR"
	LevelWarning = "WARNING"
	LevelSuccess = "SUCCESS"
)

// Result is one validation finding.
type Result struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Commitment is one entry of the genesis commitments block. Fields beyond
// the ones checked here are preserved but ignored.
type Commitment struct {
	Enabled           bool     `json:"enabled"`
	EthicalGuidelines []string `json:"ethicalGuidelines,omitempty"`
	Dimensions        []string `json:"dimensions,omitempty"`
}

// genesisDoc is the subset of genesis.json the validator inspects.
type genesisDoc struct {
	GenesisTime     string                `json:"genesisTime"`
	Initiator       string                `json:"initiator"`
	RootIdentityKey string                `json:"rootIdentityKey"`
	Commitments     map[string]Commitment `json:"commitments"`
	StateManagement json.RawMessage       `json:"stateManagement"`
}

// requiredFields must all be present at the top level of genesis.json.
var requiredFields = []string{
	"genesisTime", "initiator", "rootIdentityKey", "commitments", "stateManagement",
}

// requiredCommitments must all be configured and enabled.
var requiredCommitments = []string{
	"immutableCommitHistory",
	"ethicalEvolution",
	"multiDimensionalSynthesis",
	"recursiveContextualAnalysis",
	"ownershipProtocol",
}

// Validator runs all genesis compliance checks and accumulates results.
type Validator struct {
	GenesisPath string
	Repo        *repo.Repo // optional; history check is skipped when nil

	raw     map[string]json.RawMessage
	doc     *genesisDoc
	results []Result
	now     func() time.Time
}

// New returns a Validator for the given genesis file. r may be nil when no
// repository is available.
func New(genesisPath string, r *repo.Repo) *Validator {
	return &Validator{GenesisPath: genesisPath, Repo: r, now: time.Now}
}

func (v *Validator) add(level, message string) {
	v.results = append(v.results, Result{
		Level:     level,
		Message:   message,
		Timestamp: v.now().UTC().Format(time.RFC3339),
	})
}

// Results returns all findings accumulated so far.
func (v *Validator) Results() []Result {
	return v.results
}

// ErrorCount returns the number of ERROR findings.
func (v *Validator) ErrorCount() int {
	n := 0
	for _, r := range v.results {
		if r.Level == LevelError {
			n++
		}
	}
	return n
}

func (v *Validator) load() bool {
	data, err := os.ReadFile(v.GenesisPath)
	if err != nil {
		v.add(LevelError, fmt.Sprintf("Failed to load %s: %v", v.GenesisPath, err))
		return false
	}
	if err := json.Unmarshal(data, &v.raw); err != nil {
		v.add(LevelError, fmt.Sprintf("Failed to parse %s: %v", v.GenesisPath, err))
		return false
	}
	var doc genesisDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		v.add(LevelError, fmt.Sprintf("Failed to parse %s: %v", v.GenesisPath, err))
		return false
	}
	v.doc = &doc
	return true
}

func (v *Validator) validateStructure() bool {
	for _, field := range requiredFields {
		if _, ok := v.raw[field]; !ok {
			v.add(LevelError, "Missing required field: "+field)
			return false
		}
	}
	v.add(LevelSuccess, "Genesis configuration structure is valid")
	return true
}

func (v *Validator) validateIdentity() bool {
	if v.doc.GenesisTime == "" || v.doc.Initiator == "" || v.doc.RootIdentityKey == "" {
		v.add(LevelError, "Incomplete genesis identity parameters")
		return false
	}
	if !strings.HasPrefix(v.doc.RootIdentityKey, "ROOT-") {
		v.add(LevelWarning, "Root identity key doesn't follow expected format")
	}
	v.add(LevelSuccess, "Genesis identity validated: "+v.doc.Initiator)
	return true
}

func (v *Validator) validateCommitments() bool {
	allValid := true
	for _, name := range requiredCommitments {
		c, ok := v.doc.Commitments[name]
		if !ok {
			v.add(LevelError, "Missing commitment: "+name)
			allValid = false
		} else if !c.Enabled {
			v.add(LevelWarning, "Commitment not enabled: "+name)
		}
	}
	if allValid {
		v.add(LevelSuccess, "All Genesis Commitments are configured")
	}
	return allValid
}

func (v *Validator) validateImmutableHistory() bool {
	if v.Repo == nil {
		v.add(LevelWarning, "No repository available; commit history not validated")
		return false
	}
	count, err := v.Repo.CommitCount()
	if err != nil {
		v.add(LevelError, fmt.Sprintf("Failed to validate commit history: %v", err))
		return false
	}
	v.add(LevelSuccess, fmt.Sprintf("Immutable history validated: %d commits", count))
	return true
}

func (v *Validator) validateEthicalGuidelines() bool {
	guidelines := v.doc.Commitments["ethicalEvolution"].EthicalGuidelines
	if len(guidelines) < 3 {
		v.add(LevelWarning, "Less than 3 ethical guidelines defined")
		return false
	}
	v.add(LevelSuccess, fmt.Sprintf("%d ethical guidelines defined", len(guidelines)))
	return true
}

func (v *Validator) validateDimensions() bool {
	dims := v.doc.Commitments["multiDimensionalSynthesis"].Dimensions
	if len(dims) < 3 {
		v.add(LevelWarning, "Less than 3 dimensions defined for synthesis")
		return false
	}
	v.add(LevelSuccess, fmt.Sprintf("%d dimensions configured for synthesis", len(dims)))
	return true
}

// Run executes every validation check. It returns true when no ERROR-level
// finding was produced.
func (v *Validator) Run() bool {
	if !v.load() {
		return false
	}

	checks := []func() bool{
		v.validateStructure,
		v.validateIdentity,
		v.validateCommitments,
		v.validateImmutableHistory,
		v.validateEthicalGuidelines,
		v.validateDimensions,
	}
	for _, check := range checks {
		check()
	}

	return v.ErrorCount() == 0
}

// Report renders the validation report.
func (v *Validator) Report() string {
	const rule = "======================================================================"
	const dash = "----------------------------------------------------------------------"

	var errors, warnings, successes int
	for _, r := range v.results {
		switch r.Level {
		case LevelError:
			errors++
		case LevelWarning:
			warnings++
		case LevelSuccess:
			successes++
		}
	}

	lines := []string{
		rule,
		"GENESIS COMMITMENT VALIDATION REPORT",
		rule,
		"Timestamp: " + v.now().UTC().Format(time.RFC3339),
		"Genesis File: " + v.GenesisPath,
		"",
		"SUMMARY",
		dash,
		fmt.Sprintf("✓ Successes: %d", successes),
		fmt.Sprintf("⚠ Warnings:  %d", warnings),
		fmt.Sprintf("✗ Errors:    %d", errors),
		"",
		"DETAILS",
		dash,
	}

	for _, r := range v.results {
		symbol := "•"
		switch r.Level {
		case LevelSuccess:
			symbol = "✓"
		case LevelWarning:
			symbol = "⚠"
		case LevelError:
			symbol = "✗"
		}
		lines = append(lines, fmt.Sprintf("%s [%s] %s", symbol, r.Level, r.Message))
	}

	lines = append(lines, rule)
	return strings.Join(lines, "\n")
}
