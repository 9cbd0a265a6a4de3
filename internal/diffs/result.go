package diffs

import "strings"

// DiffType is the coarse equality class reported by the upstream diff engine.
type DiffType string

const (
	DiffTypeAllEqual   DiffType = "All Equal"
	DiffTypeSmallDiffs DiffType = "Small Diffs"
	DiffTypeBigDiffs   DiffType = "Big Diffs"

	// Textual comparisons report Equal or Different.
	DiffTypeEqual     DiffType = "Equal"
	DiffTypeDifferent DiffType = "Different"
)

// IsEqual reports whether the class means the artifact matched.
func (d DiffType) IsEqual() bool {
	switch strings.ToLower(strings.TrimSpace(string(d))) {
	case "equal", "all equal":
		return true
	default:
		return false
	}
}

// IsEmpty reports whether no class was recorded.
func (d DiffType) IsEmpty() bool {
	return strings.TrimSpace(string(d)) == ""
}

// Result is the outcome of comparing one artifact type between two runs.
// It is one of *TextDiff, *MathDiff or *TableDiff.
type Result interface {
	Kind() Kind
}

// Classed is implemented by results that carry an equality class.
type Classed interface {
	Class() DiffType
}

// TextDiff is a line-oriented comparison of a textual artifact.
type TextDiff struct {
	DiffType DiffType `json:"diff_type"`
}

func (d *TextDiff) Kind() Kind { return KindText }

func (d *TextDiff) Class() DiffType {
	if d == nil {
		return ""
	}
	return d.DiffType
}

// MathDiff is a numeric comparison of a time-series or sizing artifact.
// DiffType carries the magnitude verdict ("Big Diffs", "Small Diffs", "All Equal").
type MathDiff struct {
	DiffType         DiffType `json:"diff_type"`
	NumRecords       int      `json:"num_records"`
	CountOfBigDiff   int      `json:"count_of_big_diff"`
	CountOfSmallDiff int      `json:"count_of_small_diff"`
}

func (d *MathDiff) Kind() Kind { return KindMath }

func (d *MathDiff) Class() DiffType {
	if d == nil {
		return ""
	}
	return d.DiffType
}

// TableDiff is a cell-by-cell comparison of the tabular summary report.
type TableDiff struct {
	Msg             string `json:"msg,omitempty"`
	TableCount      int    `json:"table_count"`
	BigDiffCount    int    `json:"big_diff_count"`
	SmallDiffCount  int    `json:"small_diff_count"`
	EqualCount      int    `json:"equal_count"`
	StringDiffCount int    `json:"string_diff_count"`
	SizeError       int    `json:"size_error"`
	NotIn1Count     int    `json:"not_in_1_count"`
	NotIn2Count     int    `json:"not_in_2_count"`
}

func (d *TableDiff) Kind() Kind { return KindTable }

func newResult(kind Kind) Result {
	switch kind {
	case KindMath:
		return &MathDiff{}
	case KindTable:
		return &TableDiff{}
	default:
		return &TextDiff{}
	}
}
