package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cicompare/internal/config"
	"cicompare/internal/engine"
	"cicompare/internal/flags"
	"cicompare/internal/logging"
)

const syntaxLine = "syntax: %s file_name base_dir mod_dir base_sha mod_sha make_public device_id [test]"

const minCompareArgs = 7

var errSyntax = errors.New("too few arguments")

const compareHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	Uploads use the storage backend's standard credential chain:
	- s3:  AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY, AWS_PROFILE or an instance role
	- gcs: --credentials-file or GOOGLE_APPLICATION_CREDENTIALS

	Commit statuses (--github-status) need a GitHub token.

	Sources (in order):
	1) GITHUB_TOKEN environment variable
	2) GH_TOKEN environment variable
	3) GitHub CLI (gh) authentication via gh auth token (host from GH_HOST)

	The token needs the repo:status scope (classic PAT) or
	Commit statuses: Read and write (fine-grained PAT).
`

// parseInvocation maps the positional arguments onto an Invocation. Unknown
// trailing arguments are ignored.
func parseInvocation(args []string) (config.Invocation, error) {
	if len(args) < minCompareArgs {
		return config.Invocation{}, errSyntax
	}
	inv := config.Invocation{
		FileName: args[0],
		BaseDir:  args[1],
		ModDir:   args[2],
		BaseSHA:  args[3],
		ModSHA:   args[4],
		DeviceID: args[6],
	}
	if len(args) > minCompareArgs && strings.EqualFold(args[7], "test") {
		inv.DryRun = true
	}
	return inv, nil
}

func parseMakePublic(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// runCompare executes one comparison and returns the process exit code.
func runCompare(cmd *cobra.Command, cfg *config.Config, args []string) int {
	inv, err := parseInvocation(args)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), syntaxLine+"\n", rootCmd.Name())
		return 1
	}
	inv.DiffsPath = cfg.Invocation.DiffsPath
	inv.DryRun = inv.DryRun || cfg.Invocation.DryRun
	cfg.Invocation = inv
	cfg.Publish.MakePublic = parseMakePublic(args[5])

	if path, _ := cmd.Flags().GetString(flags.FlagConfig); path != "" {
		f, err := config.LoadFile(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return 1
		}
		if err := cfg.Apply(f, cmd.Flags().Changed); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return 1
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}

	// The config file may change the log format.
	logging.Init(logging.Level(cfg.Runtime.Verbose), cfg.Runtime.LogFormat, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	eng := engine.NewEngine()
	eng.Stdout = cmd.OutOrStdout()
	return eng.Run(ctx, cfg)
}

func newCompareCmd(cfg *config.Config, exit func(int)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare file_name base_dir mod_dir base_sha mod_sha make_public device_id [test]",
		Short: "Classify one regression comparison and publish its diffs",
		Long: `Classify the diffs of one test case between a base and a modified build.

compare reads the diff document (default: {mod_dir}/diffs.json), writes the
full report to results.json, prints the CI log protocol and, when anything
differs, uploads the diff artifacts of mod_dir with a browsable index page.

Arguments:
	file_name    test case identifier (the input file name)
	base_dir     base build output directory for this case
	mod_dir      modified build output directory for this case
	base_sha     base build commit
	mod_sha      modified build commit
	make_public  "true" (any case) makes uploaded objects world-readable
	device_id    machine that ran the comparison
	test         "TEST" (any case) skips uploads and commit statuses (same as --dry-run)

Output (stdout):
	[decent_ci:test_result:message] <msg>    one per differing artifact
	[decent_ci:test_result:warn]             when small diffs were found
	<a href='<url>'>Regression Results</a>   when an index page was published
	Success                                  when there are no big diffs

Exit codes:
	0 = comparison completed (the verdict is in the log protocol)
	1 = malformed invocation, or big diffs with --strict-exit
	3 = fatal error (diff document unreadable, report unwritable)

Examples:
	# Local preview: publish into a directory instead of S3
	cicompare compare 5Zone.idf base/5Zone mod/5Zone abc123 def456 false laptop --backend dir --root ./preview

	# GitHub Actions: fail the step on big diffs and post a commit status
	cicompare compare 5Zone.idf base/5Zone mod/5Zone $BASE $HEAD true gha-1 \
		--strict-exit --github-status --github-repo NREL/EnergyPlus --summary "$GITHUB_STEP_SUMMARY"
`,
		// Argument count is checked by runCompare so the syntax line matches the
		// established CI contract.
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exit(runCompare(cmd, cfg, args))
		},
	}
	cmd.SetHelpTemplate(compareHelpTemplate)

	// MAINTAINER NOTE: keep in sync with config.File keys (internal/config/file.go).

	// Invocation
	cmd.Flags().StringVar(&cfg.Invocation.DiffsPath, flags.FlagDiffs, "", "Diff document to classify (default: {mod_dir}/diffs.json)")
	cmd.Flags().BoolVar(&cfg.Invocation.DryRun, flags.FlagDryRun, false, "Skip uploads and commit statuses (same as the TEST argument)")

	// Publish
	cmd.Flags().StringVar(&cfg.Publish.Backend, flags.FlagBackend, cfg.Publish.Backend, "Storage backend: s3|gcs|dir (default: s3)")
	cmd.Flags().StringVar(&cfg.Publish.Bucket, flags.FlagBucket, cfg.Publish.Bucket, "S3 or GCS bucket")
	cmd.Flags().StringVar(&cfg.Publish.Region, flags.FlagRegion, cfg.Publish.Region, "S3 region (used for uploads and the website URL)")
	cmd.Flags().StringVar(&cfg.Publish.Prefix, flags.FlagPrefix, cfg.Publish.Prefix, "Top-level key prefix")
	cmd.Flags().StringVar(&cfg.Publish.Root, flags.FlagRoot, "", "Local directory for --backend dir")
	cmd.Flags().StringVar(&cfg.Publish.CredentialsFile, flags.FlagCredentialsFile, "", "GCS service account key file (default: application default credentials)")
	cmd.Flags().Float64Var(&cfg.Publish.UploadRate, flags.FlagUploadRate, 0, "Maximum object uploads per second (0 = unlimited)")

	// GitHub
	cmd.Flags().BoolVar(&cfg.GitHub.Status, flags.FlagGitHubStatus, false, "Post a commit status on mod_sha when any artifact differs")
	cmd.Flags().StringVar(&cfg.GitHub.Repo, flags.FlagGitHubRepo, "", "Repository receiving the commit status as OWNER/REPO")

	// Output
	cmd.Flags().StringVar(&cfg.Output.Results, flags.FlagResults, cfg.Output.Results, "Full report path")
	cmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	cmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	cmd.Flags().StringVar(&cfg.Output.Summary, flags.FlagSummary, "", "Write a Markdown summary to this path")
	cmd.Flags().StringVar(&cfg.Output.MetricsTextfile, flags.FlagMetricsTextfile, "", "Write Prometheus metrics in textfile format to this path")

	// Runtime
	cmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout (default: 30m)")
	cmd.Flags().BoolVar(&cfg.Runtime.StrictExit, flags.FlagStrictExit, false, "Exit 1 when big diffs are found")
	cmd.Flags().String(flags.FlagConfig, "", "YAML file with publish, github, output and runtime settings (explicit flags win)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newCompareCmd(cfg, os.Exit))
}
