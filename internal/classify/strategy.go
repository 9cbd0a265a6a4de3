package classify

import (
	"strings"

	"cicompare/internal/diffs"
)

// Strategy maps one artifact's diff result to a severity.
//
// Strategies never fail: a result of the wrong shape, or with no recorded
// class, is NotCompared.
type Strategy interface {
	Name() string
	Description() string
	Classify(r diffs.Result) Severity
}

const (
	StrategyEquality  = "equality"
	StrategyMagnitude = "magnitude"
	StrategyCounter   = "counter"
)

// equalityStrategy treats any non-equal class as a small diff. These artifacts
// never escalate to big regardless of diff size.
type equalityStrategy struct{}

func (equalityStrategy) Name() string { return StrategyEquality }
func (equalityStrategy) Description() string {
	return "Any class other than Equal is a small diff; never big."
}

func (equalityStrategy) Classify(r diffs.Result) Severity {
	c, ok := r.(diffs.Classed)
	if !ok || c.Class().IsEmpty() {
		return SeverityNotCompared
	}
	if c.Class().IsEqual() {
		return SeverityEqual
	}
	return SeveritySmall
}

// magnitudeStrategy reads the numeric engine's own verdict.
type magnitudeStrategy struct{}

func (magnitudeStrategy) Name() string { return StrategyMagnitude }
func (magnitudeStrategy) Description() string {
	return "'Big Diffs' is big, 'Small Diffs' is small, anything else is equal."
}

func (magnitudeStrategy) Classify(r diffs.Result) Severity {
	c, ok := r.(diffs.Classed)
	if !ok || c.Class().IsEmpty() {
		return SeverityNotCompared
	}
	switch strings.TrimSpace(string(c.Class())) {
	case string(diffs.DiffTypeBigDiffs):
		return SeverityBig
	case string(diffs.DiffTypeSmallDiffs):
		return SeveritySmall
	default:
		return SeverityEqual
	}
}

// counterStrategy classifies from big/small cell counts.
type counterStrategy struct{}

func (counterStrategy) Name() string { return StrategyCounter }
func (counterStrategy) Description() string {
	return "big_diff_count > 0 is big, else small_diff_count > 0 is small, else equal."
}

func (counterStrategy) Classify(r diffs.Result) Severity {
	td, ok := r.(*diffs.TableDiff)
	if !ok || td == nil {
		return SeverityNotCompared
	}
	sev := SeverityEqual
	if td.SmallDiffCount > 0 {
		sev = sev.Max(SeveritySmall)
	}
	if td.BigDiffCount > 0 {
		sev = sev.Max(SeverityBig)
	}
	return sev
}
