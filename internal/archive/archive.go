// Package archive persists analysis reports as markdown files with YAML
// frontmatter under the workspace reports directory.
package archive

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/genaproject/gena/internal/store"
)

// Meta contains the YAML frontmatter metadata for an archived report.
type Meta struct {
	Repository string    `yaml:"repository"`
	Head       string    `yaml:"head,omitempty"`
	Patterns   int       `yaml:"patterns"`
	MaxDepth   int       `yaml:"max_depth"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// Report represents a parsed archived report with YAML frontmatter.
type Report struct {
	Frontmatter Meta
	Body        string
	RawContent  string
	FilePath    string
}

// Parse splits a report document into YAML frontmatter and body.
// Frontmatter is delimited by --- lines at the start of the document.
func Parse(raw []byte) (*Report, error) {
	content := string(raw)
	trimmed := strings.TrimSpace(content)

	if !strings.HasPrefix(trimmed, "---") {
		// No frontmatter — treat entire content as body with empty metadata
		return &Report{
			Body:       content,
			RawContent: content,
		}, nil
	}

	// Find the closing ---
	rest := trimmed[3:] // skip opening ---
	rest = strings.TrimLeft(rest, " \t")
	if len(rest) > 0 && rest[0] == '\n' {
		rest = rest[1:]
	} else if len(rest) > 1 && rest[0] == '\r' && rest[1] == '\n' {
		rest = rest[2:]
	}

	endIdx := strings.Index(rest, "\n---")
	if endIdx == -1 {
		return nil, fmt.Errorf("unterminated frontmatter: missing closing ---")
	}

	fmRaw := rest[:endIdx]
	body := rest[endIdx+4:] // skip \n---
	body = strings.TrimLeft(body, "\r\n")

	var meta Meta
	if err := yaml.Unmarshal([]byte(fmRaw), &meta); err != nil {
		return nil, fmt.Errorf("invalid frontmatter YAML: %w", err)
	}

	return &Report{
		Frontmatter: meta,
		Body:        body,
		RawContent:  content,
	}, nil
}

// Filename returns the conventional filename for a report captured at t.
func Filename(t time.Time) string {
	return t.UTC().Format("20060102T150405Z") + ".md"
}

// Save writes a report to the workspace reports directory and returns its path.
func Save(st *store.Store, meta Meta, body string) (string, error) {
	dir := st.Path("reports")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	destPath := filepath.Join(dir, Filename(meta.Timestamp))

	var buf bytes.Buffer
	buf.WriteString("---\n")
	fm, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(body)

	if err := os.WriteFile(destPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return destPath, nil
}

// Load reads a report from a file path.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, err
	}
	r.FilePath = path
	return r, nil
}

// List returns all archived reports, newest first. A missing reports
// directory is not an error.
func List(st *store.Store) ([]Report, error) {
	dir := st.Path("reports")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read reports directory: %w", err)
	}

	var reports []Report
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		r, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		reports = append(reports, *r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Frontmatter.Timestamp.After(reports[j].Frontmatter.Timestamp)
	})
	return reports, nil
}
