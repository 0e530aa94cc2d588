package state

import (
	"fmt"
	"strings"
)

// Summary renders the human-readable state overview.
func (t *Tracker) Summary() (string, error) {
	if err := t.ensureLoaded(); err != nil {
		return "", err
	}
	d := t.doc
	cur := d.CurrentState

	mode := "Inactive"
	if cur.GenaMode {
		mode = "Active"
	}

	var b strings.Builder
	b.WriteString("\nSTATE SUMMARY\n")
	b.WriteString("=============\n")
	fmt.Fprintf(&b, "Current State: %s\n", cur.State)
	fmt.Fprintf(&b, "GENA Mode: %s\n", mode)
	fmt.Fprintf(&b, "Active Commitments: %d/5\n", cur.ActiveCommitments)
	fmt.Fprintf(&b, "Ethical Status: %s\n", cur.EthicalStatus)
	fmt.Fprintf(&b, "Evolutionary Stage: %s\n", cur.EvolutionaryStage)
	fmt.Fprintf(&b, "Last Evaluation: %s\n", cur.LastEvaluation)
	b.WriteString("\nANALYTICS\n")
	b.WriteString("=========\n")
	fmt.Fprintf(&b, "State History Events: %d\n", len(d.StateHistory))
	fmt.Fprintf(&b, "Emergent Patterns Detected: %d\n", len(d.Patterns.Emergent))
	fmt.Fprintf(&b, "Recursive Analysis Depth: %d/%d\n",
		d.Patterns.Recursive.Depth, d.Patterns.Recursive.MaxDepth)
	return b.String(), nil
}

// SummaryMarkdown renders the same overview as markdown, for terminal
// rendering.
func (t *Tracker) SummaryMarkdown() (string, error) {
	if err := t.ensureLoaded(); err != nil {
		return "", err
	}
	d := t.doc
	cur := d.CurrentState

	mode := "Inactive"
	if cur.GenaMode {
		mode = "Active"
	}

	var b strings.Builder
	b.WriteString("# State Summary\n\n")
	fmt.Fprintf(&b, "- **Current State:** %s\n", cur.State)
	fmt.Fprintf(&b, "- **GENA Mode:** %s\n", mode)
	fmt.Fprintf(&b, "- **Active Commitments:** %d/5\n", cur.ActiveCommitments)
	fmt.Fprintf(&b, "- **Ethical Status:** %s\n", cur.EthicalStatus)
	fmt.Fprintf(&b, "- **Evolutionary Stage:** %s\n", cur.EvolutionaryStage)
	fmt.Fprintf(&b, "- **Last Evaluation:** %s\n", cur.LastEvaluation)
	b.WriteString("\n## Analytics\n\n")
	fmt.Fprintf(&b, "- **State History Events:** %d\n", len(d.StateHistory))
	fmt.Fprintf(&b, "- **Emergent Patterns Detected:** %d\n", len(d.Patterns.Emergent))
	fmt.Fprintf(&b, "- **Recursive Analysis Depth:** %d/%d\n",
		d.Patterns.Recursive.Depth, d.Patterns.Recursive.MaxDepth)
	return b.String(), nil
}
