package diffs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Entry is the set of artifact comparisons for one test case.
//
// Each slot is independently optional: a missing slot means the artifact type
// was not produced for this case, not that it matched.
type Entry struct {
	// Case is the test case identifier (the input file base name).
	Case string

	// Summary is the upstream simulation summary, passed through verbatim.
	Summary json.RawMessage

	// Diffs holds one result per compared artifact type.
	Diffs map[Artifact]Result

	// Malformed records slots that were present but could not be decoded,
	// keyed by slot name. Such slots are treated as not compared.
	Malformed map[string]string
}

// NewEntry returns an empty entry for the named case.
func NewEntry(name string) *Entry {
	return &Entry{Case: name, Diffs: make(map[Artifact]Result)}
}

// Get returns the result for an artifact, if present.
func (e *Entry) Get(a Artifact) (Result, bool) {
	if e == nil || e.Diffs == nil {
		return nil, false
	}
	r, ok := e.Diffs[a]
	if !ok || r == nil {
		return nil, false
	}
	return r, true
}

// Set stores the result for an artifact. A nil result clears the slot.
func (e *Entry) Set(a Artifact, r Result) {
	if e.Diffs == nil {
		e.Diffs = make(map[Artifact]Result)
	}
	if r == nil {
		delete(e.Diffs, a)
		return
	}
	e.Diffs[a] = r
}

// Len returns the number of present slots.
func (e *Entry) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Diffs)
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	doc := map[string]any{"basename": e.Case}
	if len(bytes.TrimSpace(e.Summary)) > 0 {
		doc["summary_result"] = e.Summary
	}
	for _, a := range artifacts {
		if r, ok := e.Get(a); ok {
			doc[a.Slot()] = r
		}
	}
	if len(e.Malformed) > 0 {
		doc["malformed_slots"] = e.Malformed
	}
	return json.Marshal(doc)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := Entry{Diffs: make(map[Artifact]Result)}
	if v, ok := raw["basename"]; ok {
		if err := json.Unmarshal(v, &out.Case); err != nil {
			return fmt.Errorf("basename: %w", err)
		}
	}
	if v, ok := raw["summary_result"]; ok && !isNull(v) {
		out.Summary = append(json.RawMessage(nil), v...)
	}

	for _, a := range artifacts {
		v, ok := raw[a.Slot()]
		if !ok || isNull(v) {
			continue
		}
		r := newResult(a.Kind())
		if err := json.Unmarshal(v, r); err != nil {
			out.markMalformed(a.Slot(), err.Error())
			continue
		}
		if td, ok := r.(*TableDiff); ok && (td.BigDiffCount < 0 || td.SmallDiffCount < 0) {
			out.markMalformed(a.Slot(), "negative diff count")
			continue
		}
		out.Diffs[a] = r
	}

	*e = out
	return nil
}

func (e *Entry) markMalformed(slot, reason string) {
	if e.Malformed == nil {
		e.Malformed = make(map[string]string)
	}
	e.Malformed[slot] = reason
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// LoadEntry reads the upstream diff document for one case.
func LoadEntry(path string) (*Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diff document: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("parse diff document %s: %w", path, err)
	}
	return &e, nil
}
