// Package outcome folds per-artifact classifications into the single verdict
// consumed by CI.
package outcome

import (
	"cicompare/internal/classify"
	"cicompare/internal/diffs"
)

// Verdict is the coarse CI state derived from an Outcome.
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictWarn    Verdict = "warn"
	VerdictFail    Verdict = "fail"
)

// Outcome is the aggregated classification of one test case.
type Outcome struct {
	Case          string            `json:"case"`
	HasDiffs      bool              `json:"has_diffs"`
	HasSmallDiffs bool              `json:"has_small_diffs"`
	Success       bool              `json:"success"`
	Results       []classify.Result `json:"results"`
}

// Aggregate classifies every artifact slot of e in canonical artifact order.
//
// Big sets HasDiffs, Small sets HasSmallDiffs, Equal and NotCompared have no
// effect. The flags only ever move from false to true.
func Aggregate(e *diffs.Entry) Outcome {
	o := Outcome{}
	if e != nil {
		o.Case = e.Case
	}

	for _, a := range diffs.Artifacts() {
		var r diffs.Result
		if e != nil {
			r, _ = e.Get(a)
		}
		res := classify.Classify(a, r)
		o.Results = append(o.Results, res)

		switch res.Severity {
		case classify.SeverityBig:
			o.HasDiffs = true
		case classify.SeveritySmall:
			o.HasSmallDiffs = true
		}
	}

	o.Success = !o.HasDiffs
	return o
}

// Messages returns the CI messages of every Small or Big artifact, in order.
func (o Outcome) Messages() []string {
	var msgs []string
	for _, r := range o.Results {
		if r.Severity.IsDiff() && r.Message != "" {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

// NeedsPublication reports whether any artifact differed.
func (o Outcome) NeedsPublication() bool {
	return o.HasDiffs || o.HasSmallDiffs
}

func (o Outcome) Verdict() Verdict {
	switch {
	case o.HasDiffs:
		return VerdictFail
	case o.HasSmallDiffs:
		return VerdictWarn
	default:
		return VerdictSuccess
	}
}

// Counts returns the number of artifacts at each severity.
func (o Outcome) Counts() map[classify.Severity]int {
	counts := map[classify.Severity]int{
		classify.SeverityNotCompared: 0,
		classify.SeverityEqual:       0,
		classify.SeveritySmall:       0,
		classify.SeverityBig:         0,
	}
	for _, r := range o.Results {
		counts[r.Severity]++
	}
	return counts
}

// Result returns the classification of a single artifact.
func (o Outcome) Result(a diffs.Artifact) (classify.Result, bool) {
	for _, r := range o.Results {
		if r.Artifact == a {
			return r, true
		}
	}
	return classify.Result{}, false
}
