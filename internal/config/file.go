package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cicompare/internal/flags"
)

// File is the optional YAML configuration file (see --config).
//
// Only deployment settings live here; the positional invocation arguments are
// always taken from the command line. Absent keys leave the value untouched.
type File struct {
	Publish struct {
		Backend         *string  `yaml:"backend"`
		Bucket          *string  `yaml:"bucket"`
		Region          *string  `yaml:"region"`
		Prefix          *string  `yaml:"prefix"`
		Root            *string  `yaml:"root"`
		CredentialsFile *string  `yaml:"credentials_file"`
		UploadRate      *float64 `yaml:"upload_rate"`
	} `yaml:"publish"`
	GitHub struct {
		Status *bool   `yaml:"status"`
		Repo   *string `yaml:"repo"`
	} `yaml:"github"`
	Output struct {
		Results         *string `yaml:"results"`
		Out             *string `yaml:"out"`
		OutFormat       *string `yaml:"out_format"`
		Summary         *string `yaml:"summary"`
		MetricsTextfile *string `yaml:"metrics_textfile"`
	} `yaml:"output"`
	Runtime struct {
		Timeout    *string `yaml:"timeout"`
		StrictExit *bool   `yaml:"strict_exit"`
		LogFormat  *string `yaml:"log_format"`
	} `yaml:"runtime"`
}

// LoadFile reads and decodes a YAML configuration file. Unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var out File
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &out, nil
}

// Apply merges file values into c. A value is skipped when changed reports
// that its flag was set explicitly; explicit flags always win.
func (c *Config) Apply(f *File, changed func(name string) bool) error {
	if f == nil {
		return nil
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	setString(&c.Publish.Backend, f.Publish.Backend, changed(flags.FlagBackend))
	setString(&c.Publish.Bucket, f.Publish.Bucket, changed(flags.FlagBucket))
	setString(&c.Publish.Region, f.Publish.Region, changed(flags.FlagRegion))
	setString(&c.Publish.Prefix, f.Publish.Prefix, changed(flags.FlagPrefix))
	setString(&c.Publish.Root, f.Publish.Root, changed(flags.FlagRoot))
	setString(&c.Publish.CredentialsFile, f.Publish.CredentialsFile, changed(flags.FlagCredentialsFile))
	if f.Publish.UploadRate != nil && !changed(flags.FlagUploadRate) {
		c.Publish.UploadRate = *f.Publish.UploadRate
	}

	if f.GitHub.Status != nil && !changed(flags.FlagGitHubStatus) {
		c.GitHub.Status = *f.GitHub.Status
	}
	setString(&c.GitHub.Repo, f.GitHub.Repo, changed(flags.FlagGitHubRepo))

	setString(&c.Output.Results, f.Output.Results, changed(flags.FlagResults))
	setString(&c.Output.Out, f.Output.Out, changed(flags.FlagOut))
	setString(&c.Output.OutFormat, f.Output.OutFormat, changed(flags.FlagOutFormat))
	setString(&c.Output.Summary, f.Output.Summary, changed(flags.FlagSummary))
	setString(&c.Output.MetricsTextfile, f.Output.MetricsTextfile, changed(flags.FlagMetricsTextfile))

	if f.Runtime.Timeout != nil && !changed(flags.FlagTimeout) {
		d, err := time.ParseDuration(*f.Runtime.Timeout)
		if err != nil {
			return fmt.Errorf("invalid runtime.timeout in config file: %w", err)
		}
		c.Runtime.Timeout = d
	}
	if f.Runtime.StrictExit != nil && !changed(flags.FlagStrictExit) {
		c.Runtime.StrictExit = *f.Runtime.StrictExit
	}
	setString(&c.Runtime.LogFormat, f.Runtime.LogFormat, changed(flags.FlagLogFormat))

	return nil
}

func setString(dst *string, v *string, explicit bool) {
	if v == nil || explicit {
		return
	}
	*dst = *v
}
