package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"cicompare/internal/diffs"
)

// Severity is the classification of one artifact comparison.
// Values are ordered: NotCompared < Equal < Small < Big.
type Severity int

const (
	SeverityNotCompared Severity = iota
	SeverityEqual
	SeveritySmall
	SeverityBig
)

var severityNames = map[Severity]string{
	SeverityNotCompared: "NOT_COMPARED",
	SeverityEqual:       "EQUAL",
	SeveritySmall:       "SMALL",
	SeverityBig:         "BIG",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Max returns the more severe of s and o.
func (s Severity) Max(o Severity) Severity {
	if o > s {
		return o
	}
	return s
}

// IsDiff reports whether the severity contributes to the outcome.
func (s Severity) IsDiff() bool {
	return s == SeveritySmall || s == SeverityBig
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for k, v := range severityNames {
		if strings.EqualFold(v, name) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown severity: %s", name)
}

// Result is the classification of a single artifact slot.
type Result struct {
	Artifact diffs.Artifact `json:"artifact"`
	Severity Severity       `json:"severity"`
	Strategy string         `json:"strategy"`
	Message  string         `json:"message,omitempty"`
}
