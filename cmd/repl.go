// Copyright © 2024 The ELPS authors

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/pycheck/diagnostic"
	"github.com/luthersystems/pycheck/lint"
	"github.com/luthersystems/pycheck/repl"
)

// ReplCommand creates the "repl" cobra command.
func ReplCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Check Python statements interactively",
		Long: `Check Python statements as you type them.

Each statement is checked together with the statements entered before it,
so names defined earlier are known. Simple statements are checked when you
press enter; blocks such as "for" or "def" are checked after a blank line.
Statements that do not parse are reported and discarded.

Type :help at the prompt for the available commands. The checks that run
follow the "checks" setting of the config file or PYCHECK_CHECKS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			analyzers, err := lint.SelectAnalyzers(cfg.Checks, nil)
			if err != nil {
				return usageError(err)
			}
			return repl.Run(cmd.Context(),
				repl.WithLinter(&lint.Linter{
					Analyzers: analyzers,
					MaxChars:  cfg.MaxCodeChars,
					Globals:   cfg.Globals,
					Logger:    log.Named("lint"),
				}),
				repl.WithColor(diagnostic.ParseColorMode(cfg.Color)),
			)
		},
	}
}
