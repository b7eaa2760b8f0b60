// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple" // stderr backend for glsp's own logging

	"github.com/luthersystems/pycheck/lint"
	"github.com/luthersystems/pycheck/lsp"
)

// LSPCommand creates the "lsp" cobra command. The server checks documents
// with the same limits and globals as the check command.
func LSPCommand(v *viper.Viper) *cobra.Command {
	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the pycheck Language Server Protocol server",
		Long: `Start an LSP server for Python source files.

The server publishes pycheck findings as diagnostics while you edit, explains
them on hover, completes module-level names and builtins, and offers quick
fixes: "is None" rewrites, range(N) for loops over an int, and nolint
comments.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  pycheck lsp                 Start with stdio transport
  pycheck lsp --port 7998     Start with TCP on port 7998

Logs go to stderr; raise --log-level to debug a client session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			commonlog.Configure(commonlogVerbosity(log.GetLevel()), nil)

			srv := lsp.New(
				lsp.WithLinter(&lint.Linter{
					MaxChars: cfg.MaxCodeChars,
					Globals:  cfg.Globals,
					Logger:   log.Named("lint"),
				}),
				lsp.WithLogger(log.Named("lsp")),
			)
			if !stdio && port > 0 {
				err = srv.RunTCP(fmt.Sprintf("localhost:%d", port))
			} else {
				err = srv.RunStdio()
			}
			if err != nil {
				return fmt.Errorf("lsp server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}

// commonlogVerbosity maps an hclog level to the verbosity scale glsp logs
// with: negative is silent, 1 is errors, 5 and up is debug.
func commonlogVerbosity(level hclog.Level) int {
	switch level {
	case hclog.Trace, hclog.Debug:
		return 5
	case hclog.Info:
		return 3
	case hclog.Warn:
		return 2
	case hclog.Error:
		return 1
	default:
		return -1
	}
}
