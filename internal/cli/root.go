package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cicompare/internal/config"
	"cicompare/internal/flags"
	"cicompare/internal/logging"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "cicompare",
	Short: "Classify a regression comparison and publish its diffs",
	Long: `cicompare turns the per-artifact diffs of one regression comparison into a
CI verdict, writes a report and publishes changed diff artifacts for review.

cicompare does not compute diffs: it reads the diff document produced by the
comparison step (diffs.json in the modified build's output directory).

Examples:
	# Show available commands and global flags
	cicompare --help

	# Classify one case without uploading anything
	cicompare compare 1ZoneUncontrolled.idf base/ mod/ abc123 def456 false runner-1 TEST

	# Show how each artifact type is classified
	cicompare artifacts list

	# Print build info
	cicompare version

Output:
	stdout carries the CI log protocol only. Diagnostics are logged to stderr
	(see --verbose and --log-format).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Level(cfg.Runtime.Verbose), cfg.Runtime.LogFormat, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (debug records, every GitHub API call)")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.LogFormat, flags.FlagLogFormat, cfg.Runtime.LogFormat, "Log format on stderr: text|json (default: text)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
