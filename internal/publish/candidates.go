package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// candidatePattern matches the diff artifacts left in an output directory,
// e.g. eplusout.err.diff or eplusout.eso.csvdiff.
const candidatePattern = "*.*.*"

// Candidate is a diff artifact eligible for publication.
type Candidate struct {
	Path string
	Name string
	Size int64
}

// FindCandidates lists the diff artifacts in dir, sorted by name.
//
// Non-regular files are skipped. Zero-byte files are never candidates; their
// paths are returned separately so callers can report them.
func FindCandidates(dir string) ([]Candidate, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("list output directory: %w", err)
	}

	var found []Candidate
	var empty []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if ok, _ := filepath.Match(candidatePattern, name); !ok {
			continue
		}
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Size() == 0 {
			empty = append(empty, p)
			continue
		}
		found = append(found, Candidate{Path: p, Name: name, Size: info.Size()})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	sort.Strings(empty)
	return found, empty, nil
}
