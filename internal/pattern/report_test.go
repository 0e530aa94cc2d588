package pattern

import (
	"strings"
	"testing"
)

func TestReport_GroupsAndIndents(t *testing.T) {
	patterns := []Pattern{
		{Type: "file_types", Description: "File types: go=3", Depth: 0, Confidence: 1.0},
		{Type: "commit_frequency", Description: "Repository has 4 commits", Depth: 0, Confidence: 1.0},
		{Type: "commit_frequency", Description: "Repository has 4 commits", Depth: 1, Confidence: 1.0},
		{Type: "message_patterns", Description: "Top keywords: sync", Depth: 0, Confidence: 0.8},
	}

	report := Report(patterns, 2)

	if !strings.Contains(report, "RECURSIVE PATTERN ANALYSIS REPORT") {
		t.Error("missing report banner")
	}
	if !strings.Contains(report, "Max Recursive Depth: 2") {
		t.Error("missing max depth line")
	}
	if !strings.Contains(report, "Patterns Detected: 4") {
		t.Error("missing pattern count line")
	}

	// Group headings are upper-cased with underscores replaced.
	for _, heading := range []string{"COMMIT FREQUENCY:", "FILE TYPES:", "MESSAGE PATTERNS:"} {
		if !strings.Contains(report, heading) {
			t.Errorf("missing group heading %q", heading)
		}
	}

	// Groups are ordered lexicographically by type.
	ci := strings.Index(report, "COMMIT FREQUENCY:")
	fi := strings.Index(report, "FILE TYPES:")
	mi := strings.Index(report, "MESSAGE PATTERNS:")
	if !(ci < fi && fi < mi) {
		t.Errorf("groups out of order: commit=%d file=%d message=%d", ci, fi, mi)
	}

	// Depth 1 entries are indented one extra unit.
	if !strings.Contains(report, "• Repository has 4 commits (confidence: 100%, depth: 0)") {
		t.Error("missing depth-0 line")
	}
	if !strings.Contains(report, "  • Repository has 4 commits (confidence: 100%, depth: 1)") {
		t.Error("missing indented depth-1 line")
	}

	if !strings.Contains(report, "(confidence: 80%, depth: 0)") {
		t.Error("confidence should render as a rounded percentage")
	}
}

func TestReport_Empty(t *testing.T) {
	report := Report(nil, 5)
	if !strings.Contains(report, "Patterns Detected: 0") {
		t.Error("empty analysis should still render a report")
	}
}
