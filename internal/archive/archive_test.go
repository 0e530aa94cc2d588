package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/genaproject/gena/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	root := t.TempDir()
	if err := store.Init(store.Dir(root), false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestParse_Frontmatter(t *testing.T) {
	raw := []byte(`---
repository: /tmp/repo
head: abc123
patterns: 6
max_depth: 5
timestamp: 2026-03-14T09:26:53Z
---

# Analysis
body text`)

	r, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Frontmatter.Repository != "/tmp/repo" {
		t.Errorf("repository = %q", r.Frontmatter.Repository)
	}
	if r.Frontmatter.Patterns != 6 {
		t.Errorf("patterns = %d, want 6", r.Frontmatter.Patterns)
	}
	if !strings.HasPrefix(r.Body, "# Analysis") {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse([]byte("just a report body"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Body != "just a report body" {
		t.Errorf("body = %q", r.Body)
	}
	if r.Frontmatter.Patterns != 0 {
		t.Errorf("expected zero metadata, got %+v", r.Frontmatter)
	}
}

func TestParse_UnterminatedFrontmatter(t *testing.T) {
	if _, err := Parse([]byte("---\nrepository: x\nno closing")); err == nil {
		t.Fatal("expected error for unterminated frontmatter")
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := testStore(t)
	meta := Meta{
		Repository: "/tmp/repo",
		Head:       "abc123",
		Patterns:   4,
		MaxDepth:   5,
		Timestamp:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	path, err := Save(s, meta, "# Analysis\n\nreport body\n")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "20260314T092653Z.md" {
		t.Errorf("filename = %q", filepath.Base(path))
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Frontmatter.Head != "abc123" {
		t.Errorf("head = %q", r.Frontmatter.Head)
	}
	if !r.Frontmatter.Timestamp.Equal(meta.Timestamp) {
		t.Errorf("timestamp = %v, want %v", r.Frontmatter.Timestamp, meta.Timestamp)
	}
	if !strings.Contains(r.Body, "report body") {
		t.Errorf("body = %q", r.Body)
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := testStore(t)

	times := []time.Time{
		time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	for _, ts := range times {
		if _, err := Save(s, Meta{Repository: "/r", Timestamp: ts}, "body"); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	reports, err := List(s)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("len = %d, want 3", len(reports))
	}
	for i := 1; i < len(reports); i++ {
		if reports[i].Frontmatter.Timestamp.After(reports[i-1].Frontmatter.Timestamp) {
			t.Errorf("reports out of order at %d", i)
		}
	}
}

func TestList_MissingDirectory(t *testing.T) {
	s := testStore(t)
	reports, err := List(s)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if reports != nil {
		t.Errorf("expected nil for missing reports directory, got %v", reports)
	}
}

func TestList_SkipsUnparseable(t *testing.T) {
	s := testStore(t)
	dir := s.Path("reports")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.md"), []byte("---\nno closing"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Save(s, Meta{Repository: "/r", Timestamp: time.Now()}, "ok"); err != nil {
		t.Fatal(err)
	}

	reports, err := List(s)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("len = %d, want 1 (broken file skipped)", len(reports))
	}
}
