// Package pattern performs recursive contextual analysis of a repository,
// producing confidence-scored observations about its commit history, file
// layout, and documentation posture.
package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/genaproject/gena/internal/repo"
	"github.com/genaproject/gena/internal/ui"
)

// DefaultMaxDepth bounds the recursive commit analysis when no depth is
// configured.
const DefaultMaxDepth = 5

// Pattern is a single detected observation. Depth records the recursion level
// it was produced at; Confidence is in [0, 1].
type Pattern struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Depth       int     `json:"depth"`
	Confidence  float64 `json:"confidence"`
}

// Analyzer runs the three analysis families against one repository.
type Analyzer struct {
	MaxDepth int

	repo    *repo.Repo
	markers []string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxDepth sets the recursion ceiling for commit analysis.
func WithMaxDepth(depth int) Option {
	return func(a *Analyzer) {
		a.MaxDepth = depth
	}
}

// WithMarkers overrides the framework marker files the ethical analysis
// looks for at the repository root.
func WithMarkers(markers []string) Option {
	return func(a *Analyzer) {
		a.markers = markers
	}
}

// New returns an Analyzer over the given repository.
func New(r *repo.Repo, opts ...Option) *Analyzer {
	a := &Analyzer{
		MaxDepth: DefaultMaxDepth,
		repo:     r,
		markers:  []string{"genesis.json", "GENESIS.md"},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// CommitPatterns analyzes commit history recursively. Each level refetches
// the full history and re-derives the same observations tagged with its own
// depth, then appends the next level's output; recursion stops only at
// MaxDepth.
func (a *Analyzer) CommitPatterns(depth int) ([]Pattern, error) {
	if depth >= a.MaxDepth {
		return nil, nil
	}

	commits, err := a.repo.Commits()
	if err != nil {
		return nil, err
	}

	var patterns []Pattern

	if len(commits) > 1 {
		patterns = append(patterns, Pattern{
			Type:        "commit_frequency",
			Description: fmt.Sprintf("Repository has %d commits", len(commits)),
			Depth:       depth,
			Confidence:  1.0,
		})
	}

	authors := make(map[string]bool)
	for _, c := range commits {
		authors[c.Author] = true
	}
	if len(authors) > 0 {
		patterns = append(patterns, Pattern{
			Type:        "author_diversity",
			Description: fmt.Sprintf("%d unique author(s) detected", len(authors)),
			Depth:       depth,
			Confidence:  1.0,
		})
	}

	if kw := topKeywords(commits, 5); len(kw) > 0 {
		patterns = append(patterns, Pattern{
			Type:        "message_patterns",
			Description: "Top keywords: " + strings.Join(kw, ", "),
			Depth:       depth,
			Confidence:  0.8,
		})
	}

	if depth < a.MaxDepth-1 {
		sub, err := a.CommitPatterns(depth + 1)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, sub...)
	}

	return patterns, nil
}

// topKeywords returns the n most frequent message tokens longer than three
// characters, case-folded. Ties keep first-seen order, matching a stable
// sort over insertion order.
func topKeywords(commits []repo.Commit, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, c := range commits {
		for _, word := range strings.Fields(strings.ToLower(c.Message)) {
			if len(word) > 3 {
				if counts[word] == 0 {
					order = append(order, word)
				}
				counts[word]++
			}
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// FilePatterns analyzes the tracked file layout. It is a single pass: the
// depth argument only tags the emitted patterns.
func (a *Analyzer) FilePatterns(depth int) ([]Pattern, error) {
	if depth >= a.MaxDepth {
		return nil, nil
	}

	files, err := a.repo.TrackedFiles("")
	if err != nil {
		return nil, err
	}

	var patterns []Pattern

	types := make(map[string]int)
	for _, f := range files {
		if idx := strings.LastIndex(f, "."); idx >= 0 && idx < len(f)-1 {
			types[f[idx+1:]]++
		}
	}
	if len(types) > 0 {
		patterns = append(patterns, Pattern{
			Type:        "file_types",
			Description: "File types: " + formatHistogram(types),
			Depth:       depth,
			Confidence:  1.0,
		})
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		if d := filepath.Dir(f); d != "." {
			dirs[d] = true
		}
	}
	if len(dirs) > 0 {
		patterns = append(patterns, Pattern{
			Type:        "directory_structure",
			Description: fmt.Sprintf("%d directories detected", len(dirs)),
			Depth:       depth,
			Confidence:  1.0,
		})
	}

	return patterns, nil
}

func formatHistogram(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

// EthicalPatterns checks for documentation and framework marker files.
func (a *Analyzer) EthicalPatterns() ([]Pattern, error) {
	var patterns []Pattern

	docs, err := a.repo.TrackedFiles("*.md")
	if err != nil {
		return nil, err
	}
	if len(docs) > 0 {
		patterns = append(patterns, Pattern{
			Type:        "ethical_documentation",
			Description: fmt.Sprintf("Documentation files present: %d", len(docs)),
			Depth:       0,
			Confidence:  0.9,
		})
	}

	for _, marker := range a.markers {
		p := filepath.Join(a.repo.Root, marker)
		if f, err := os.Open(p); err == nil {
			f.Close()
			patterns = append(patterns, Pattern{
				Type:        "ethical_framework",
				Description: "Genesis framework file found: " + marker,
				Depth:       0,
				Confidence:  1.0,
			})
		}
	}

	return patterns, nil
}

// AnalyzeAll runs every analysis family and concatenates their output in a
// fixed order. A failing family logs a warning and contributes nothing; the
// remaining families still run.
func (a *Analyzer) AnalyzeAll() []Pattern {
	var all []Pattern

	commit, err := a.CommitPatterns(0)
	if err != nil {
		ui.Logger.Warn("commit pattern analysis failed", "err", err)
	}
	all = append(all, commit...)

	file, err := a.FilePatterns(0)
	if err != nil {
		ui.Logger.Warn("file pattern analysis failed", "err", err)
	}
	all = append(all, file...)

	ethical, err := a.EthicalPatterns()
	if err != nil {
		ui.Logger.Warn("ethical pattern analysis failed", "err", err)
	}
	all = append(all, ethical...)

	return all
}
