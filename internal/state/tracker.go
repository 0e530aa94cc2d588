package state

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Tracker owns the persisted state document at a fixed path. Every mutating
// operation loads the document if none is in memory, applies the change, and
// writes the whole document back — single writer, last write wins.
type Tracker struct {
	path string
	doc  *Document
	now  func() time.Time
}

// NewTracker returns a Tracker over the document at path. Nothing is read
// until the first operation.
func NewTracker(path string) *Tracker {
	return &Tracker{path: path, now: time.Now}
}

// Load reads the persisted document. A missing file yields a fresh default
// document in memory without persisting it; a present but unparseable file is
// an error.
func (t *Tracker) Load() (*Document, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			t.doc = DefaultDocument(t.now())
			return t.doc, nil
		}
		return nil, fmt.Errorf("cannot read state file %s: %w", t.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("state file %s is not valid JSON: %w", t.path, err)
	}
	t.doc = &doc
	return t.doc, nil
}

// Save writes the full in-memory document over the persisted file.
func (t *Tracker) Save() error {
	if t.doc == nil {
		return fmt.Errorf("no document loaded")
	}
	data, err := json.MarshalIndent(t.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(t.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

func (t *Tracker) ensureLoaded() error {
	if t.doc != nil {
		return nil
	}
	_, err := t.Load()
	return err
}

// Document returns the in-memory document, loading it first if necessary.
func (t *Tracker) Document() (*Document, error) {
	if err := t.ensureLoaded(); err != nil {
		return nil, err
	}
	return t.doc, nil
}

// RecordEvent appends one history entry and persists the document.
func (t *Tracker) RecordEvent(event, notes string, compliant bool) error {
	if err := t.ensureLoaded(); err != nil {
		return err
	}
	t.doc.AddEvent(t.now(), event, notes, compliant)
	return t.Save()
}

// Transition moves the document to newState, recording a single transition
// event, and persists.
func (t *Tracker) Transition(newState, reason string) error {
	if err := t.ensureLoaded(); err != nil {
		return err
	}
	t.doc.Transition(t.now(), newState, reason)
	return t.Save()
}

// DetectPattern records an emergent pattern and persists.
func (t *Tracker) DetectPattern(patternType, description string, confidence float64) error {
	if err := t.ensureLoaded(); err != nil {
		return err
	}
	t.doc.AddPattern(t.now(), patternType, description, confidence)
	return t.Save()
}

// IncreaseRecursiveDepth bumps the persisted depth counter. At the ceiling
// the document is untouched and ErrDepthCeiling is returned.
func (t *Tracker) IncreaseRecursiveDepth() error {
	if err := t.ensureLoaded(); err != nil {
		return err
	}
	if err := t.doc.IncreaseRecursiveDepth(); err != nil {
		return err
	}
	return t.Save()
}

// SetDimension upserts a key in one of the document's dimensions and
// persists. Unknown dimensions are rejected without mutation.
func (t *Tracker) SetDimension(dimension, key string, value any) error {
	if err := t.ensureLoaded(); err != nil {
		return err
	}
	if err := t.doc.SetDimension(dimension, key, value); err != nil {
		return err
	}
	return t.Save()
}

// Current returns the document's current lifecycle state.
func (t *Tracker) Current() (CurrentState, error) {
	if err := t.ensureLoaded(); err != nil {
		return CurrentState{}, err
	}
	return t.doc.CurrentState, nil
}
