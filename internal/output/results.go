package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cicompare/internal/diffs"
)

// WriteResults writes the full entry, every slot detail included, as an
// indented JSON document.
func WriteResults(path string, e *diffs.Entry) error {
	if path == "" {
		return fmt.Errorf("results path required")
	}
	if e == nil {
		return fmt.Errorf("no entry to write")
	}

	b, err := json.MarshalIndent(e, "", "    ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	b = append(b, '\n')

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
