package output

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cicompare/internal/classify"
	"cicompare/internal/diffs"
)

func TestNewFileSink_InferFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.json", "out.ndjson", "nested/out.jsonl"} {
		s, err := NewFileSink(filepath.Join(dir, name), "")
		if err != nil {
			t.Fatalf("NewFileSink(%s) error: %v", name, err)
		}
		_ = s.Close()
	}

	_, err := NewFileSink(filepath.Join(dir, "out.unknown"), "")
	if err == nil || !strings.Contains(err.Error(), "cannot infer output format") {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = NewFileSink(filepath.Join(dir, "out.json"), "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewFileSink("", "json"); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestFileSink_JSON_AggregatesResults_AndIgnoresEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	s, err := NewFileSink(path, "json")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}

	_ = s.Write(Event{Type: EventRunStarted})
	_ = s.Write(classify.Classify(diffs.ArtifactAudit, &diffs.TextDiff{DiffType: diffs.DiffTypeDifferent}))
	_ = s.Write(classify.Classify(diffs.ArtifactEnergySeries, &diffs.MathDiff{DiffType: diffs.DiffTypeAllEqual}))
	_ = s.Write(Event{Type: EventRunFinished})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var got []classify.Result
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("output is not a JSON array of results: %v\n%s", err, b)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Severity != classify.SeveritySmall || got[0].Message != "AUD diffs." {
		t.Fatalf("unexpected first result: %#v", got[0])
	}
	if !strings.Contains(string(b), `"severity": "EQUAL"`) {
		t.Fatalf("severity should be encoded by name: %s", b)
	}
}

func TestFileSink_JSON_EmptyRunWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	s, err := NewFileSink(path, "json")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	b, _ := os.ReadFile(path)
	if strings.TrimSpace(string(b)) != "[]" {
		t.Fatalf("expected empty array, got %q", b)
	}
}

func TestFileSink_NDJSON_StreamsEventsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}

	_ = s.Write(Event{Type: EventRunStarted, RunID: "r1", Case: "c"})
	_ = s.Write(classify.Classify(diffs.ArtifactTabularSummary, &diffs.TableDiff{BigDiffCount: 1}))
	_ = s.Write(Event{Type: EventRunFinished, ExitCode: 1})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	var types []string
	var classified map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid ndjson line %q: %v", sc.Text(), err)
		}
		types = append(types, m["type"].(string))
		if m["type"] == EventArtifactClassified {
			classified = m
		}
	}
	want := []string{EventRunStarted, EventArtifactClassified, EventRunFinished}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event order: got %v want %v", types, want)
	}
	if classified["artifact"] != "tabular-summary" || classified["severity"] != "BIG" {
		t.Fatalf("classification fields should be inlined: %v", classified)
	}
	if classified["run_id"] != "r1" || classified["case"] != "c" {
		t.Fatalf("classified event should carry run id and case: %v", classified)
	}
}
