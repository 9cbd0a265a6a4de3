package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cicompare/internal/classify"
	"cicompare/internal/config"
)

// FileSink writes structured output for --out.
//
// json: one indented array of classification results, written on Close.
// ndjson: one Event per line as it happens. Classification results become
// artifact.classified events stamped with the run id and case of the
// preceding run.started event.
type FileSink struct {
	path   string
	format string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex

	runID    string
	caseName string
	results  []classify.Result
}

func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	format, err := config.ResolveOutFormat(path, format)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &FileSink{
		path:   path,
		format: format,
		file:   f,
		enc:    json.NewEncoder(f),
	}, nil
}

func (s *FileSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		if r, ok := v.(classify.Result); ok {
			s.results = append(s.results, r)
		}
		return nil
	}

	switch t := v.(type) {
	case Event:
		if t.Type == EventRunStarted {
			s.runID, s.caseName = t.RunID, t.Case
		}
		return s.enc.Encode(t)
	case classify.Result:
		e := eventFromResult(t)
		e.RunID, e.Case = s.runID, s.caseName
		return s.enc.Encode(e)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.format == "json" {
		results := s.results
		if results == nil {
			results = []classify.Result{}
		}
		s.enc.SetIndent("", "  ")
		err = s.enc.Encode(results)
	}

	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
