package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	BackendS3  = "s3"
	BackendGCS = "gcs"
	BackendDir = "dir"
)

const (
	DefaultBucket  = "energyplus-fsec"
	DefaultRegion  = "us-east-1"
	DefaultPrefix  = "regressions"
	DefaultResults = "results.json"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/compare.go
	// - config file keys in file.go
	Invocation Invocation
	Publish    Publish
	GitHub     GitHub
	Output     Output
	Runtime    Runtime
}

// Invocation carries the positional arguments of one comparison run.
type Invocation struct {
	// FileName is the test case identifier.
	FileName string `flag:"file_name" validate:"required"`

	// BaseDir is the base build's output directory for this case.
	BaseDir string `flag:"base_dir" validate:"required"`

	// ModDir is the modified build's output directory for this case.
	// Diff artifacts are published from here.
	ModDir string `flag:"mod_dir" validate:"required"`

	BaseSHA string `flag:"base_sha" validate:"required"`
	ModSHA  string `flag:"mod_sha" validate:"required"`

	// DeviceID identifies the machine that ran the comparison.
	DeviceID string `flag:"device_id" validate:"required"`

	// DiffsPath is the upstream diff document (see --diffs).
	// Empty means {ModDir}/diffs.json.
	DiffsPath string `flag:"diffs"`

	// DryRun suppresses every publication side effect (see --dry-run and the TEST argument).
	DryRun bool
}

type Publish struct {
	// Backend selects the storage backend (see --backend).
	// Allowed values: s3, gcs, dir.
	Backend string `flag:"backend" validate:"oneof=s3 gcs dir"`

	// Bucket is the S3 or GCS bucket (see --bucket).
	Bucket string `flag:"bucket" validate:"required_unless=Backend dir"`

	// Region is the S3 region used for uploads and the website URL (see --region).
	Region string `flag:"region" validate:"required_if=Backend s3"`

	// Prefix is the top-level key prefix (see --prefix).
	Prefix string `flag:"prefix"`

	// Root is the local directory used by the dir backend (see --root).
	Root string `flag:"root" validate:"required_if=Backend dir"`

	// CredentialsFile is an optional GCS service account key (see --credentials-file).
	CredentialsFile string `flag:"credentials-file"`

	// UploadRate limits object uploads per second (see --upload-rate). 0 means unlimited.
	UploadRate float64 `flag:"upload-rate" validate:"gte=0"`

	// MakePublic makes every uploaded object world-readable (make_public argument).
	MakePublic bool
}

type GitHub struct {
	// Status posts a commit status on the modified commit (see --github-status).
	Status bool

	// Repo is the OWNER/REPO receiving the status (see --github-repo).
	Repo string `flag:"github-repo" validate:"required_if=Status true"`
}

type Output struct {
	// Results is the full report path (see --results).
	Results string `flag:"results" validate:"required"`

	// Out writes structured output to this path (see --out).
	Out string `flag:"out"`

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string `flag:"out-format"`

	// Summary writes a Markdown summary to this path (see --summary).
	Summary string `flag:"summary"`

	// MetricsTextfile writes Prometheus metrics in textfile format (see --metrics-textfile).
	MetricsTextfile string `flag:"metrics-textfile"`
}

type Runtime struct {
	// Timeout bounds the whole run, publication included (see --timeout).
	Timeout time.Duration `flag:"timeout" validate:"gt=0"`

	// StrictExit exits 1 when the outcome has big diffs (see --strict-exit).
	StrictExit bool

	// Verbose enables request level diagnostics.
	Verbose bool

	// LogFormat selects the log handler (see --log-format).
	// Allowed values: text, json.
	LogFormat string `flag:"log-format" validate:"oneof=text json"`
}

func New() *Config {
	return &Config{
		Publish: Publish{
			Backend: BackendS3,
			Bucket:  DefaultBucket,
			Region:  DefaultRegion,
			Prefix:  DefaultPrefix,
		},
		Output: Output{
			Results: DefaultResults,
		},
		Runtime: Runtime{
			Timeout:   30 * time.Minute,
			LogFormat: "text",
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("flag")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func (c *Config) Validate() error {
	c.Publish.Backend = normalizeEnumValue(c.Publish.Backend)
	if c.Publish.Backend == "" {
		c.Publish.Backend = BackendS3
	}
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	c.Runtime.LogFormat = normalizeEnumValue(c.Runtime.LogFormat)
	if c.Runtime.LogFormat == "" {
		c.Runtime.LogFormat = "text"
	}
	c.GitHub.Repo = strings.TrimSpace(c.GitHub.Repo)

	if err := validate.Struct(c); err != nil {
		return describeValidationError(err)
	}

	if c.GitHub.Repo != "" {
		if _, _, err := SplitRepo(c.GitHub.Repo); err != nil {
			return fmt.Errorf("invalid --github-repo value: %w", err)
		}
	}

	if c.Output.Out != "" {
		format, err := ResolveOutFormat(c.Output.Out, c.Output.OutFormat)
		if err != nil {
			return err
		}
		c.Output.OutFormat = format
	}

	return nil
}

// DiffsPath returns the upstream diff document for this run.
func (c *Config) DiffsPath() string {
	if c.Invocation.DiffsPath != "" {
		return c.Invocation.DiffsPath
	}
	return strings.TrimRight(c.Invocation.ModDir, "/") + "/diffs.json"
}

// ResolveOutFormat normalizes an explicit format or infers one from the path extension.
func ResolveOutFormat(path, format string) (string, error) {
	format = normalizeEnumValue(format)
	if format != "" {
		if format != "json" && format != "ndjson" {
			return "", fmt.Errorf("unsupported output format: %s", format)
		}
		return format, nil
	}
	ext := ""
	if i := strings.LastIndex(path, "."); i >= 0 && !strings.Contains(path[i:], "/") {
		ext = strings.ToLower(path[i:])
	}
	switch ext {
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "ndjson", nil
	case "":
		return "", errors.New("cannot infer output format from file extension (missing extension); use --out-format")
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
	}
}

// SplitRepo splits an OWNER/REPO string.
func SplitRepo(raw string) (string, string, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%q: expected OWNER/REPO", raw)
	}
	return owner, repo, nil
}

func describeValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var errs []error
	for _, fe := range verrs {
		errs = append(errs, describeFieldError(fe))
	}
	return errors.Join(errs...)
}

func describeFieldError(fe validator.FieldError) error {
	name := fe.Field()
	if strings.Contains(name, "_") {
		// Positional arguments use their syntax-line names.
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("missing required argument: %s", name)
		default:
			return fmt.Errorf("invalid argument %s: %v", name, fe.Value())
		}
	}
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Errorf("--%s is required", name)
	case "oneof":
		return fmt.Errorf("unsupported --%s: %v (must be one of: %s)", name, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Errorf("--%s must be > %s", name, fe.Param())
	case "gte":
		return fmt.Errorf("--%s must be >= %s", name, fe.Param())
	default:
		return fmt.Errorf("invalid --%s value: %v", name, fe.Value())
	}
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
