package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := New()
	cfg.Invocation = Invocation{
		FileName: "1ZoneUncontrolled.idf",
		BaseDir:  "/tmp/base",
		ModDir:   "/tmp/mod",
		BaseSHA:  "abc123",
		ModSHA:   "def456",
		DeviceID: "ci-runner-1",
	}
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	if cfg.Publish.Backend != BackendS3 || cfg.Publish.Bucket != DefaultBucket || cfg.Publish.Region != DefaultRegion {
		t.Fatalf("unexpected publish defaults: %#v", cfg.Publish)
	}
	if cfg.Publish.Prefix != "regressions" {
		t.Fatalf("unexpected prefix default: %q", cfg.Publish.Prefix)
	}
	if cfg.Output.Results != "results.json" {
		t.Fatalf("unexpected results default: %q", cfg.Output.Results)
	}
	if cfg.Runtime.Timeout <= 0 {
		t.Fatalf("expected positive timeout default")
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
}

func TestValidate_NormalizesEnums(t *testing.T) {
	cfg := validConfig()
	cfg.Publish.Backend = "  GCS "
	cfg.Publish.Prefix = "/regressions/"
	cfg.Runtime.LogFormat = "JSON"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.Publish.Backend != BackendGCS {
		t.Fatalf("backend not normalized: %q", cfg.Publish.Backend)
	}
	if cfg.Publish.Prefix != "regressions" {
		t.Fatalf("prefix not trimmed: %q", cfg.Publish.Prefix)
	}
	if cfg.Runtime.LogFormat != "json" {
		t.Fatalf("log format not normalized: %q", cfg.Runtime.LogFormat)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing device id",
			mutate:  func(c *Config) { c.Invocation.DeviceID = "" },
			wantErr: "missing required argument: device_id",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Publish.Backend = "ftp" },
			wantErr: "unsupported --backend: ftp",
		},
		{
			name:    "dir backend needs root",
			mutate:  func(c *Config) { c.Publish.Backend = BackendDir },
			wantErr: "--root is required",
		},
		{
			name:    "gcs backend needs bucket",
			mutate:  func(c *Config) { c.Publish.Backend = BackendGCS; c.Publish.Bucket = "" },
			wantErr: "--bucket is required",
		},
		{
			name:    "negative upload rate",
			mutate:  func(c *Config) { c.Publish.UploadRate = -1 },
			wantErr: "--upload-rate must be >= 0",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Runtime.Timeout = 0 },
			wantErr: "--timeout must be > 0",
		},
		{
			name:    "github status needs repo",
			mutate:  func(c *Config) { c.GitHub.Status = true },
			wantErr: "--github-repo is required",
		},
		{
			name:    "malformed github repo",
			mutate:  func(c *Config) { c.GitHub.Repo = "NREL" },
			wantErr: "invalid --github-repo value",
		},
		{
			name:    "uninferable out format",
			mutate:  func(c *Config) { c.Output.Out = "events.txt" },
			wantErr: "cannot infer output format",
		},
		{
			name:    "unsupported out format",
			mutate:  func(c *Config) { c.Output.Out = "events.json"; c.Output.OutFormat = "xml" },
			wantErr: "unsupported output format: xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_InfersOutFormat(t *testing.T) {
	for path, want := range map[string]string{
		"out/events.ndjson": "ndjson",
		"out/events.jsonl":  "ndjson",
		"results.JSON":      "json",
	} {
		cfg := validConfig()
		cfg.Output.Out = path
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%s) returned error: %v", path, err)
		}
		if cfg.Output.OutFormat != want {
			t.Fatalf("%s: got format %q want %q", path, cfg.Output.OutFormat, want)
		}
	}
}

func TestDiffsPath(t *testing.T) {
	cfg := validConfig()
	if got := cfg.DiffsPath(); got != "/tmp/mod/diffs.json" {
		t.Fatalf("unexpected default diffs path: %q", got)
	}
	cfg.Invocation.DiffsPath = "/elsewhere/d.json"
	if got := cfg.DiffsPath(); got != "/elsewhere/d.json" {
		t.Fatalf("explicit diffs path ignored: %q", got)
	}
}

func TestLoadFileAndApply_ExplicitFlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cicompare.yaml")
	doc := `
publish:
  backend: gcs
  bucket: from-file
  upload_rate: 2.5
github:
  status: true
  repo: NREL/EnergyPlus
output:
  summary: summary.md
runtime:
  timeout: 90s
  strict_exit: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	cfg := validConfig()
	cfg.Publish.Bucket = "from-flag"
	changed := func(name string) bool { return name == "bucket" }
	if err := cfg.Apply(f, changed); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if cfg.Publish.Bucket != "from-flag" {
		t.Fatalf("explicit flag overridden: %q", cfg.Publish.Bucket)
	}
	if cfg.Publish.Backend != "gcs" || cfg.Publish.UploadRate != 2.5 {
		t.Fatalf("file values not applied: %#v", cfg.Publish)
	}
	if !cfg.GitHub.Status || cfg.GitHub.Repo != "NREL/EnergyPlus" {
		t.Fatalf("github values not applied: %#v", cfg.GitHub)
	}
	if cfg.Output.Summary != "summary.md" {
		t.Fatalf("summary not applied: %q", cfg.Output.Summary)
	}
	if cfg.Runtime.Timeout != 90*time.Second || !cfg.Runtime.StrictExit {
		t.Fatalf("runtime values not applied: %#v", cfg.Runtime)
	}
	if cfg.Publish.Region != DefaultRegion {
		t.Fatalf("absent key must leave default: %q", cfg.Publish.Region)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() after Apply returned error: %v", err)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	_ = os.WriteFile(unknown, []byte("publish:\n  bukket: x\n"), 0o644)
	if _, err := LoadFile(unknown); err == nil {
		t.Fatalf("expected error for unknown key")
	}

	empty := filepath.Join(dir, "empty.yaml")
	_ = os.WriteFile(empty, nil, 0o644)
	if _, err := LoadFile(empty); err != nil {
		t.Fatalf("empty file should load: %v", err)
	}

	badTimeout := filepath.Join(dir, "timeout.yaml")
	_ = os.WriteFile(badTimeout, []byte("runtime:\n  timeout: soon\n"), 0o644)
	f, err := LoadFile(badTimeout)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := New().Apply(f, nil); err == nil {
		t.Fatalf("expected error for invalid timeout")
	}
}
