package publish

import (
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// DiffStats summarises a unified-diff artifact.
type DiffStats struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

// isUnifiedDiff reports whether an artifact is rendered as a diff.
func isUnifiedDiff(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".diff", ".dif":
		return true
	default:
		return false
	}
}

// diffStats parses body as a multi-file unified diff. It returns nil when the
// body is not a unified diff.
func diffStats(body []byte) *DiffStats {
	fds, err := diff.ParseMultiFileDiff(body)
	if err != nil || len(fds) == 0 {
		return nil
	}
	st := &DiffStats{Files: len(fds)}
	for _, fd := range fds {
		s := fd.Stat()
		// Changed lines are a paired deletion and addition.
		st.Added += int(s.Added + s.Changed)
		st.Deleted += int(s.Deleted + s.Changed)
	}
	return st
}
