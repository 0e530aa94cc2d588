// Package state tracks repository state evolution in a single persisted JSON
// document: lifecycle transitions, an append-only event history, detected
// emergent patterns, and free-form dimension annotations.
package state

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownDimension is returned for writes to a dimension name the
// document does not declare.
var ErrUnknownDimension = errors.New("unknown dimension")

// ErrDepthCeiling is returned when the recursive depth counter is already at
// its configured maximum.
var ErrDepthCeiling = errors.New("recursive depth ceiling reached")

// Dimensions every new document starts with. Writes are restricted to these.
var DefaultDimensions = []string{"temporal", "spatial", "conceptual", "relational", "ethical"}

// StateInitialized is the lifecycle state of a freshly created document.
const StateInitialized = "initialized"

// CurrentState describes the document's present lifecycle position.
type CurrentState struct {
	State             string `json:"state"`
	GenaMode          bool   `json:"genaMode"`
	ActiveCommitments int    `json:"activeCommitments"`
	LastEvaluation    string `json:"lastEvaluation"`
	EthicalStatus     string `json:"ethicalStatus"`
	EvolutionaryStage string `json:"evolutionaryStage"`
}

// HistoryEntry is one append-only record of a state event. State holds the
// lifecycle state as it was before the event.
type HistoryEntry struct {
	Timestamp         string `json:"timestamp"`
	State             string `json:"state"`
	Event             string `json:"event"`
	EthicalCompliance bool   `json:"ethicalCompliance"`
	Notes             string `json:"notes"`
}

// EmergentPattern is one recorded observation. RecursiveDepth is stamped from
// the document's own depth counter, not from any analyzer argument.
type EmergentPattern struct {
	Timestamp      string  `json:"timestamp"`
	Type           string  `json:"type"`
	Description    string  `json:"description"`
	Confidence     float64 `json:"confidence"`
	RecursiveDepth int     `json:"recursiveDepth"`
}

// RecursiveState is the persisted depth counter and its ceiling.
type RecursiveState struct {
	Depth            int      `json:"depth"`
	MaxDepth         int      `json:"maxDepth"`
	DetectedPatterns []string `json:"detectedPatterns"`
}

// Patterns groups the emergent pattern log with the recursive depth counter.
type Patterns struct {
	Emergent  []EmergentPattern `json:"emergent"`
	Recursive RecursiveState    `json:"recursive"`
}

// Document is the whole persisted state artifact. Mutating methods operate
// purely in memory; persistence is the Tracker's concern.
type Document struct {
	Version      string                    `json:"version"`
	StateHistory []HistoryEntry            `json:"stateHistory"`
	CurrentState CurrentState              `json:"currentState"`
	Patterns     Patterns                  `json:"patterns"`
	Dimensions   map[string]map[string]any `json:"dimensions"`
}

// DefaultDocument returns the initial state structure for a repository that
// has no persisted document yet.
func DefaultDocument(now time.Time) *Document {
	dims := make(map[string]map[string]any, len(DefaultDimensions))
	for _, d := range DefaultDimensions {
		dims[d] = map[string]any{}
	}
	return &Document{
		Version:      "1.0.0",
		StateHistory: []HistoryEntry{},
		CurrentState: CurrentState{
			State:             StateInitialized,
			GenaMode:          true,
			ActiveCommitments: 5,
			LastEvaluation:    stamp(now),
			EthicalStatus:     "compliant",
			EvolutionaryStage: "genesis",
		},
		Patterns: Patterns{
			Emergent: []EmergentPattern{},
			Recursive: RecursiveState{
				Depth:            0,
				MaxDepth:         5,
				DetectedPatterns: []string{},
			},
		},
		Dimensions: dims,
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// AddEvent appends a history entry stamped with the current lifecycle state
// and advances lastEvaluation.
func (d *Document) AddEvent(now time.Time, event, notes string, compliant bool) {
	entry := HistoryEntry{
		Timestamp:         stamp(now),
		State:             d.CurrentState.State,
		Event:             event,
		EthicalCompliance: compliant,
		Notes:             notes,
	}
	d.StateHistory = append(d.StateHistory, entry)
	d.CurrentState.LastEvaluation = entry.Timestamp
}

// Transition moves the document to newState and appends exactly one history
// entry whose State field holds the previous state.
func (d *Document) Transition(now time.Time, newState, reason string) {
	oldState := d.CurrentState.State
	d.CurrentState.State = newState

	event := fmt.Sprintf("State transition: %s → %s", oldState, newState)
	if reason != "" {
		event += fmt.Sprintf(" (%s)", reason)
	}

	// AddEvent stamps the entry with CurrentState.State, which is already
	// the new state here, so build the entry against the old one.
	entry := HistoryEntry{
		Timestamp:         stamp(now),
		State:             oldState,
		Event:             event,
		EthicalCompliance: true,
		Notes:             "",
	}
	d.StateHistory = append(d.StateHistory, entry)
	d.CurrentState.LastEvaluation = entry.Timestamp
}

// AddPattern appends an emergent pattern stamped with the document's current
// recursive depth.
func (d *Document) AddPattern(now time.Time, patternType, description string, confidence float64) {
	d.Patterns.Emergent = append(d.Patterns.Emergent, EmergentPattern{
		Timestamp:      stamp(now),
		Type:           patternType,
		Description:    description,
		Confidence:     confidence,
		RecursiveDepth: d.Patterns.Recursive.Depth,
	})
}

// IncreaseRecursiveDepth bumps the depth counter unless it is already at
// MaxDepth, in which case the document is left untouched.
func (d *Document) IncreaseRecursiveDepth() error {
	if d.Patterns.Recursive.Depth >= d.Patterns.Recursive.MaxDepth {
		return fmt.Errorf("%w: depth %d, max %d", ErrDepthCeiling,
			d.Patterns.Recursive.Depth, d.Patterns.Recursive.MaxDepth)
	}
	d.Patterns.Recursive.Depth++
	return nil
}

// SetDimension upserts key in the named dimension's mapping. Writes to a
// dimension the document does not declare fail without mutation.
func (d *Document) SetDimension(dimension, key string, value any) error {
	dim, ok := d.Dimensions[dimension]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDimension, dimension)
	}
	if dim == nil {
		// A persisted "dimension": null unmarshals to a nil map.
		dim = map[string]any{}
		d.Dimensions[dimension] = dim
	}
	dim[key] = value
	return nil
}
