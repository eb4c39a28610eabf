package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sow-reviewer/internal/domain/sow"
	"sow-reviewer/internal/infrastructure/document"
	"sow-reviewer/internal/infrastructure/logger"
)

func newSectionsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sections <sow-file>",
		Short: "Print the SOW outline and the quick section checks (no LLM)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.NewReader(0, logger.NewNop()).Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			outline := sow.Outline(doc.Content)
			arch := sow.ValidateArchitecture(sectionOrDocument(doc.Content, "architecture"))
			cost := sow.ValidateCost(sectionOrDocument(doc.Content, "cost", "pricing"))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"path":         doc.Path,
					"tokens":       doc.Tokens,
					"sections":     outline,
					"architecture": arch,
					"cost":         cost,
				})
			}

			bold := color.New(color.Bold)
			bold.Fprintf(out, "%s (%d tokens)\n\n", doc.Path, doc.Tokens)
			fmt.Fprint(out, sow.FormatOutline(outline))
			fmt.Fprintln(out)
			printCheck(cmd, "Architecture", arch.Valid, arch.Issues)
			printCheck(cmd, "Cost", cost.Valid, cost.Issues)
			for _, link := range cost.CalculatorLinks {
				fmt.Fprintf(out, "   calculator: %s\n", link)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func sectionOrDocument(content string, names ...string) string {
	for _, name := range names {
		if section := sow.ExtractSection(content, name); section != "" {
			return section
		}
	}
	return content
}

func printCheck(cmd *cobra.Command, name string, valid bool, issues []string) {
	out := cmd.OutOrStdout()
	if valid {
		color.New(color.FgGreen).Fprintf(out, "✓ %s section looks complete\n", name)
		return
	}
	color.New(color.FgRed).Fprintf(out, "❌ %s section: ", name)
	for i, issue := range issues {
		if i > 0 {
			fmt.Fprint(out, "; ")
		}
		fmt.Fprint(out, issue)
	}
	fmt.Fprintln(out)
}
