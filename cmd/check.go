// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/pycheck/config"
	"github.com/luthersystems/pycheck/diagnostic"
	"github.com/luthersystems/pycheck/lint"
)

const stdinName = "<stdin>"

type checkOptions struct {
	list           bool
	excludes       []string
	disable        []string
	showComplexity bool
	jobs           int
}

// CheckCommand creates the "check" cobra command. Its --format and --checks
// flags are bound to v so that they override the config file and the
// environment.
func CheckCommand(v *viper.Viper) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check [flags] [files...]",
		Short: "Check Python source files for likely runtime errors",
		Long: `Check Python source files for likely runtime errors.

Each check is an independent analyzer over the parsed source. Findings are
listed per file, grouped by check in a fixed order and then in source order.
A file that does not parse yields a single syntax finding and no complexity
estimate.

With no files, reads from stdin. Directories and patterns ending in "/..."
are expanded to the .py files beneath them.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files, oversized input)

To suppress a specific finding, add a comment on the same line:
  ratio = total / 0  # nolint:division-by-zero

To suppress all checks on a line:
  ratio = total / 0  # nolint

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `Examples:
  pycheck check app.py                          # Check a single file
  pycheck check src/...                         # Check a tree
  pycheck check --format sarif src/ > out.sarif # SARIF for code scanning
  pycheck check --checks=division-by-zero app.py
  pycheck check --disable=none-comparison app.py
  pycheck check --exclude=migrations src/...    # Exclude a directory
  pycheck check --complexity app.py             # Print complexity estimates
  cat app.py | pycheck check                    # Check stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.list {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return runCheck(cmd, v, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("format", "text", "Output format: "+strings.Join(config.Formats, ", ")+".")
	flags.StringSlice("checks", nil, "Comma-separated list of checks to run (default: all).")
	flags.StringSliceVar(&opts.disable, "disable", nil, "Comma-separated list of checks to skip.")
	flags.BoolVar(&opts.list, "list", false, "List available checks and exit.")
	flags.StringArrayVar(&opts.excludes, "exclude", nil, "Glob pattern for files to exclude (may be repeated).")
	flags.BoolVar(&opts.showComplexity, "complexity", false, "Print the complexity estimate of each file.")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Files checked in parallel (default: GOMAXPROCS).")
	flags.StringSlice("globals", nil, "Extra names treated as defined in every file.")

	_ = v.BindPFlag(config.KeyFormat, flags.Lookup("format"))
	_ = v.BindPFlag(config.KeyChecks, flags.Lookup("checks"))
	_ = v.BindPFlag(config.KeyGlobals, flags.Lookup("globals"))

	return cmd
}

// checkInput is one source to check. Sources are read up front so that a
// missing file is reported before any output is written.
type checkInput struct {
	name   string
	source []byte
}

func runCheck(cmd *cobra.Command, v *viper.Viper, args []string, opts checkOptions) error {
	cfg, log, err := loadConfig(cmd, v)
	if err != nil {
		return err
	}
	analyzers, err := lint.SelectAnalyzers(cfg.Checks, opts.disable)
	if err != nil {
		return usageError(err)
	}
	l := &lint.Linter{
		Analyzers: analyzers,
		MaxChars:  cfg.MaxCodeChars,
		Globals:   cfg.Globals,
		Logger:    log.Named("lint"),
	}

	inputs, err := readInputs(cmd.InOrStdin(), args, opts.excludes)
	if err != nil {
		return usageError(err)
	}
	reports, err := checkAll(cmd.Context(), l, inputs, opts.jobs, log)
	if err != nil {
		return usageError(err)
	}

	mode := diagnostic.ParseColorMode(cfg.Color)
	if err := writeReports(cmd, cfg.Format, reports, inputs, opts.showComplexity, mode); err != nil {
		return err
	}
	if len(lint.Findings(reports)) > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func readInputs(stdin io.Reader, args []string, excludes []string) ([]checkInput, error) {
	if len(args) == 0 {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []checkInput{{name: stdinName, source: src}}, nil
	}
	paths, err := expandArgs(args, excludes)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no Python files to check")
	}
	inputs := make([]checkInput, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, checkInput{name: path, source: src})
	}
	return inputs, nil
}

// checkAll checks inputs concurrently. Reports are returned in input order.
func checkAll(ctx context.Context, l *lint.Linter, inputs []checkInput, jobs int, log hclog.Logger) ([]*lint.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	reports := make([]*lint.Report, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, in := range inputs {
		g.Go(func() error {
			report, err := l.Check(ctx, in.source, in.name)
			if err != nil {
				return err
			}
			log.Debug("checked", "file", in.name, "findings", len(report.Findings))
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeReports(cmd *cobra.Command, format string, reports []*lint.Report, inputs []checkInput, showComplexity bool, mode diagnostic.ColorMode) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return lint.FormatJSON(out, reports)
	case "sarif":
		return lint.FormatSARIF(out, reports)
	case "markdown":
		return lint.FormatMarkdown(out, reports)
	}

	errOut := cmd.ErrOrStderr()
	sources := make(map[string][]byte, len(inputs))
	for _, in := range inputs {
		sources[in.name] = in.source
	}
	findings := lint.Findings(reports)
	if err := renderFindings(errOut, findings, sources, mode); err != nil {
		return err
	}
	if len(findings) > 0 {
		if _, err := io.WriteString(errOut, "\n"); err != nil {
			return err
		}
	}
	return renderSummary(errOut, reports, showComplexity, mode)
}
