package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// config loading. The config file merge consults these names to decide which
// values were set explicitly on the command line.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Publish.Bucket, flags.FlagBucket, "", "...")
//	arg := "--" + flags.FlagBucket
const (
	// Invocation
	FlagDiffs  = "diffs"
	FlagDryRun = "dry-run"

	// Publish
	FlagBackend         = "backend"
	FlagBucket          = "bucket"
	FlagRegion          = "region"
	FlagPrefix          = "prefix"
	FlagRoot            = "root"
	FlagCredentialsFile = "credentials-file"
	FlagUploadRate      = "upload-rate"

	// GitHub
	FlagGitHubStatus = "github-status"
	FlagGitHubRepo   = "github-repo"

	// Output
	FlagResults         = "results"
	FlagOut             = "out"
	FlagOutFormat       = "out-format"
	FlagSummary         = "summary"
	FlagMetricsTextfile = "metrics-textfile"

	// Runtime
	FlagTimeout    = "timeout"
	FlagStrictExit = "strict-exit"
	FlagConfig     = "config"

	// Global
	FlagVerbose   = "verbose"
	FlagLogFormat = "log-format"
)
