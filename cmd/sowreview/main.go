package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &reviewOptions{}

	rootCmd := &cobra.Command{
		Use:   "sowreview [sow-file]",
		Short: "Multi-agent Statement-of-Work reviewer",
		Long: `sowreview reviews a Statement of Work (Markdown or PDF) with a team of LLM agents.

Architecture, cost, scope and compliance specialists review the document, a
solution architect validates their findings, and the merged report is written
as Markdown and/or PDF.`,
		Example: `  # Review with a local Ollama model
  sowreview proposal.md

  # Amazon Bedrock, PDF output, AWS pricing tools
  sowreview review proposal.pdf --bedrock --profile prod --format both --mcp

  # Let the coordinator delegate the review
  sowreview review proposal.md --mode swarm --verbose`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runReview(cmd, opts, args[0])
		},
	}
	opts.register(rootCmd)

	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newSectionsCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sowreview version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", commit)
		},
	})

	return rootCmd
}
