// Copyright © 2024 The ELPS authors

// Package logger builds the hclog loggers used by the CLI and the language
// server.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "PYCHECK_LOG_LEVEL"

// Options configures New.
type Options struct {
	Name  string
	Level string
	JSON  bool
	// Output defaults to stderr. Stdout is reserved for reports and for the
	// LSP protocol stream.
	Output io.Writer
}

// New returns a logger for opts. The level comes from EnvLevel if set, then
// opts.Level; an unrecognized level falls back to info with a warning.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	levelStr := opts.Level
	if env := os.Getenv(EnvLevel); env != "" {
		levelStr = env
	}
	level, ok := ParseLevel(levelStr)
	l := hclog.New(&hclog.LoggerOptions{
		Name:        opts.Name,
		Level:       level,
		JSONFormat:  opts.JSON,
		DisableTime: true,
		Output:      out,
	})
	if !ok {
		l.Warn("unrecognized log level, defaulting to info", "level", levelStr)
	}
	return l
}

// ParseLevel converts a level name to an hclog level. The empty string is
// info. The boolean is false for unknown names.
func ParseLevel(s string) (hclog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return hclog.Trace, true
	case "DEBUG":
		return hclog.Debug, true
	case "", "INFO":
		return hclog.Info, true
	case "WARN", "WARNING":
		return hclog.Warn, true
	case "ERROR":
		return hclog.Error, true
	case "OFF":
		return hclog.Off, true
	default:
		return hclog.Info, false
	}
}
