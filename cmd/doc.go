// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/luthersystems/pycheck/docs"
	"github.com/luthersystems/pycheck/lint"
)

const docWidth = 80

// DocCommand creates the "doc" cobra command.
func DocCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doc [CHECK]",
		Short: "Show the pycheck guide or the documentation of one check",
		Long: `Show documentation.

With no argument, prints the user guide: the checks, name resolution rules,
nolint comments, the complexity estimate, output formats and configuration.
With a check name, prints what that check reports and why.

Examples:
  pycheck doc                       Print the guide
  pycheck doc division-by-zero      Explain one check`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				_, err := fmt.Fprint(out, docs.Guide)
				return err
			}
			a := findAnalyzer(args[0])
			if a == nil {
				return usageError(fmt.Errorf("unknown check %q (available: %s)",
					args[0], strings.Join(lint.AnalyzerNames(), ", ")))
			}
			_, err := fmt.Fprint(out, formatAnalyzerDoc(a))
			return err
		},
	}
}

func findAnalyzer(name string) *lint.Analyzer {
	for _, a := range lint.DefaultAnalyzers() {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func formatAnalyzerDoc(a *lint.Analyzer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", a.Name, a.Severity)
	fmt.Fprintf(&b, "kind: %s\n", a.Kind)
	if raises := a.Kind.Raises(); raises != "" {
		fmt.Fprintf(&b, "raises: %s\n", raises)
	}
	for _, para := range strings.Split(a.Doc, "\n\n") {
		b.WriteString("\n" + wordwrap.String(para, docWidth) + "\n")
	}
	fmt.Fprintf(&b, "\nSuppress with: # nolint:%s\n", a.Name)
	return b.String()
}
