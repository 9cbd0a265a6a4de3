package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelDebug, "text", &buf)

	New("publish").Info("uploaded")

	out := buf.String()
	if !strings.Contains(out, "component=publish") {
		t.Errorf("expected component=publish in output, got: %s", out)
	}
	if !strings.Contains(out, "uploaded") {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelInfo, "JSON", &buf)

	New("engine").Info("run finished")

	out := buf.String()
	if !strings.Contains(out, `"level":"INFO"`) {
		t.Errorf("expected JSON level field, got: %s", out)
	}
	if !strings.Contains(out, `"component":"engine"`) {
		t.Errorf("expected JSON component field, got: %s", out)
	}
}

func TestLevel_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(Level(false), "text", &buf)
	New("gate").Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug record should be suppressed without --verbose")
	}

	buf.Reset()
	Init(Level(true), "text", &buf)
	New("gate").Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug record should appear with --verbose")
	}
}
