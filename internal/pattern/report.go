package pattern

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const reportRule = "======================================================================"
const reportDash = "----------------------------------------------------------------------"

// Report renders the grouped textual analysis report. Patterns are grouped by
// type in lexicographic order; within a group the original emission order is
// preserved and each line is indented by its recursion depth.
func Report(patterns []Pattern, maxDepth int) string {
	lines := []string{
		reportRule,
		"RECURSIVE PATTERN ANALYSIS REPORT",
		reportRule,
		"Timestamp: " + time.Now().UTC().Format("2006-01-02T15:04:05.000000"),
		fmt.Sprintf("Max Recursive Depth: %d", maxDepth),
		fmt.Sprintf("Patterns Detected: %d", len(patterns)),
		"",
		"DETECTED PATTERNS",
		reportDash,
	}

	byType := make(map[string][]Pattern)
	for _, p := range patterns {
		byType[p.Type] = append(byType[p.Type], p)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		heading := strings.ToUpper(strings.ReplaceAll(t, "_", " "))
		lines = append(lines, "", heading+":")
		for _, p := range byType[t] {
			indent := strings.Repeat("  ", p.Depth)
			lines = append(lines, fmt.Sprintf("%s• %s (confidence: %.0f%%, depth: %d)",
				indent, p.Description, p.Confidence*100, p.Depth))
		}
	}

	lines = append(lines, "", reportRule)
	return strings.Join(lines, "\n")
}
