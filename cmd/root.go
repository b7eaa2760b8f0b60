// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/pycheck/config"
	"github.com/luthersystems/pycheck/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pycheck",
	Short: "Static checks for Python snippets",
	Long: `pycheck reads Python source without running it and reports likely runtime
errors: names used before they are defined, division by a literal zero and
loops over an integer. It also nudges toward "is None" over "== None" and
gives a rough time and space estimate from loop nesting and recursion.

Getting started:
  pycheck check app.py          Check a file
  pycheck check src/...         Check every .py file under src
  cat app.py | pycheck check    Check source from stdin
  pycheck check --format json   Machine-readable report
  pycheck repl                  Check snippets interactively
  pycheck lsp                   Run as a language server

Configuration is read from $HOME/.pycheck.yaml (or --config) and from
PYCHECK_* environment variables, e.g. PYCHECK_FORMAT=sarif. The source size
limit can also be set with MAX_CODE_CHARS.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code through cobra. A nil err exits
// quietly.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError marks err as a bad invocation (exit status 2).
func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	code := 1
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		err = ee.err
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pycheck:", err)
	}
	os.Exit(code)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pycheck.yaml)")
	flags.String("color", "auto", `Control colored output: "auto", "always", or "never".`)
	flags.String("log-level", "info", "Log level: trace, debug, info, warn, error or off.")
	flags.Bool("log-json", false, "Write logs as JSON.")

	v := viper.GetViper()
	config.SetDefaults(v)
	_ = v.BindPFlag(config.KeyColor, flags.Lookup("color"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogJSON, flags.Lookup("log-json"))

	rootCmd.AddCommand(CheckCommand(v), DocCommand(), LSPCommand(v), ReplCommand(v))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".pycheck")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "pycheck: reading config:", err)
			os.Exit(2)
		}
	}
}

// loadConfig validates the merged configuration and builds the logger the
// command logs to.
func loadConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, hclog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, usageError(err)
	}
	log := logger.New(logger.Options{
		Name:   "pycheck",
		Level:  cfg.LogLevel,
		JSON:   cfg.LogJSON,
		Output: cmd.ErrOrStderr(),
	})
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("using config file", "path", used)
	}
	return cfg, log, nil
}
