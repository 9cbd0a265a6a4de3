package classify

import (
	"fmt"
	"strings"

	"cicompare/internal/diffs"
)

var (
	equality  Strategy = equalityStrategy{}
	magnitude Strategy = magnitudeStrategy{}
	counter   Strategy = counterStrategy{}
)

// policy is the closed severity policy: textual and metadata drift is
// informative only, numeric series may fail the run, and the tabular summary
// is judged by its cell counters.
var policy = map[diffs.Artifact]Strategy{
	diffs.ArtifactAudit:            equality,
	diffs.ArtifactBinaryIndex:      equality,
	diffs.ArtifactDaylightingIn:    equality,
	diffs.ArtifactDaylightingOut:   equality,
	diffs.ArtifactVectorGraphics:   equality,
	diffs.ArtifactEngineeringIO:    equality,
	diffs.ArtifactErrorLog:         equality,
	diffs.ArtifactEnergySeries:     magnitude,
	diffs.ArtifactMeterDictionary:  equality,
	diffs.ArtifactMeterDetails:     equality,
	diffs.ArtifactMeterSeries:      magnitude,
	diffs.ArtifactReportDictionary: equality,
	diffs.ArtifactShading:          equality,
	diffs.ArtifactSizingSystem:     magnitude,
	diffs.ArtifactSizingZone:       magnitude,
	diffs.ArtifactTabularSummary:   counter,
}

// StrategyFor returns the strategy that classifies an artifact.
func StrategyFor(a diffs.Artifact) (Strategy, error) {
	s, ok := policy[a]
	if !ok {
		return nil, fmt.Errorf("no severity policy for artifact: %s", a)
	}
	return s, nil
}

// Classify classifies the result in one artifact slot. A nil result is NotCompared.
func Classify(a diffs.Artifact, r diffs.Result) Result {
	res := Result{Artifact: a, Severity: SeverityNotCompared}
	s, err := StrategyFor(a)
	if err != nil {
		return res
	}
	res.Strategy = s.Name()
	if r == nil {
		return res
	}
	res.Severity = s.Classify(r)
	res.Message = messageFor(a, s, res.Severity)
	return res
}

// messageFor renders the CI annotation for a non-equal artifact.
func messageFor(a diffs.Artifact, s Strategy, sev Severity) string {
	if !sev.IsDiff() {
		return ""
	}
	if s.Name() == StrategyEquality {
		return fmt.Sprintf("%s diffs.", a.Label())
	}
	if sev == SeverityBig {
		return fmt.Sprintf("%s big diffs.", a.Label())
	}
	return fmt.Sprintf("%s small diffs.", a.Label())
}

// Entry describes one row of the severity policy.
type Entry struct {
	Artifact diffs.Artifact
	Strategy Strategy
}

// List returns the policy in canonical artifact order.
func List() []Entry {
	out := make([]Entry, 0, len(policy))
	for _, a := range diffs.Artifacts() {
		if s, ok := policy[a]; ok {
			out = append(out, Entry{Artifact: a, Strategy: s})
		}
	}
	return out
}

// Resolve returns the policy rows for a comma-separated artifact selector.
// An empty selector selects every artifact.
func Resolve(selector string) ([]Entry, error) {
	if selector == "" {
		return List(), nil
	}
	var out []Entry
	for _, name := range strings.Split(selector, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		a, err := diffs.ParseArtifact(name)
		if err != nil {
			return nil, err
		}
		s, err := StrategyFor(a)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Artifact: a, Strategy: s})
	}
	return out, nil
}
