package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cicompare/internal/classify"
)

var artifactsListQuiet bool
var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List artifact types and how their diffs are classified",
	Long: `List the artifact types a comparison covers.

Each artifact type is classified by one strategy:
  equality   any difference is a small diff; never big
  magnitude  the upstream "Big Diffs"/"Small Diffs" verdict is used as is
  counter    big and small diff counts decide the severity

Examples:
  # List all artifact types
  cicompare artifacts list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifact types",
	Long: `List every artifact type in canonical order.

Examples:
  cicompare artifacts list
  cicompare artifacts list -q

Output:
  A vertical list of artifact types:
    ----------------------------------------
    ARTIFACT: {ID} ({LABEL})
    ----------------------------------------
    Slot:     {DOCUMENT KEY}
    Kind:     {text|math|table}
    Strategy: {STRATEGY}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, e := range classify.List() {
			if artifactsListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), e.Artifact)
			} else {
				printArtifact(cmd.OutOrStdout(), e)
			}
		}
		return nil
	},
}

var artifactsShowCmd = &cobra.Command{
	Use:   "show [artifact]",
	Short: "Show how an artifact type is classified",
	Long: `Show one or more artifact types by ID, document key or label.

Examples:
  cicompare artifacts show energy-series
  cicompare artifacts show aud_diffs,table
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := classify.Resolve(args[0])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("artifact not found: %s", args[0])
		}
		for _, e := range entries {
			printArtifact(cmd.OutOrStdout(), e)
		}
		return nil
	},
}

func printArtifact(w io.Writer, e classify.Entry) {
	bold := color.New(color.Bold)
	strategy := color.New(color.FgCyan)

	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "ARTIFACT: %s (%s)\n", e.Artifact, e.Artifact.Label())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Slot:     %s\n", e.Artifact.Slot())
	fmt.Fprintf(w, "Kind:     %s\n", e.Artifact.Kind())
	fmt.Fprint(w, "Strategy: ")
	strategy.Fprintln(w, e.Strategy.Name())
	fmt.Fprintln(w, e.Strategy.Description())
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(artifactsCmd)
	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsListCmd.Flags().BoolVarP(&artifactsListQuiet, "quiet", "q", false, "Only print artifact IDs")
	artifactsCmd.AddCommand(artifactsShowCmd)
}
