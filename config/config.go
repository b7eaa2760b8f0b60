// Copyright © 2024 The ELPS authors

// Package config holds the settings shared by the pycheck commands. Values
// come from viper, so any of them may be set in the config file, in a
// PYCHECK_ environment variable or by a bound command line flag.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/luthersystems/pycheck/lint"
	"github.com/luthersystems/pycheck/parser"
)

// Keys understood by Load.
const (
	KeyMaxCodeChars = "max_code_chars"
	KeyLogLevel     = "log_level"
	KeyLogJSON      = "log_json"
	KeyColor        = "color"
	KeyFormat       = "format"
	KeyChecks       = "checks"
	KeyGlobals      = "globals"
)

// EnvPrefix is prepended to upper-cased keys when reading the environment.
const EnvPrefix = "PYCHECK"

// Formats accepted for KeyFormat.
var Formats = []string{"text", "json", "sarif", "markdown"}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the validated configuration.
type Config struct {
	MaxCodeChars int
	LogLevel     string
	LogJSON      bool
	Color        string
	Format       string
	// Checks names the analyzers to run. Empty means all of them.
	Checks []string
	// Globals are extra names treated as defined in every module.
	Globals []string
}

// SetDefaults registers defaults and environment bindings on v.
// MAX_CODE_CHARS is honored without the prefix for compatibility with
// existing deployments.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyMaxCodeChars, parser.DefaultMaxChars)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyColor, "auto")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyChecks, []string{})
	v.SetDefault(KeyGlobals, []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv(KeyMaxCodeChars, EnvPrefix+"_MAX_CODE_CHARS", "MAX_CODE_CHARS")
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		MaxCodeChars: v.GetInt(KeyMaxCodeChars),
		LogLevel:     v.GetString(KeyLogLevel),
		LogJSON:      v.GetBool(KeyLogJSON),
		Color:        strings.ToLower(v.GetString(KeyColor)),
		Format:       strings.ToLower(v.GetString(KeyFormat)),
		Checks:       splitList(v.GetStringSlice(KeyChecks)),
		Globals:      splitList(v.GetStringSlice(KeyGlobals)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.MaxCodeChars <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalid, KeyMaxCodeChars, c.MaxCodeChars)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%w: %s must be auto, always or never, got %q", ErrInvalid, KeyColor, c.Color)
	}
	if !contains(Formats, c.Format) {
		return fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalid, KeyFormat, strings.Join(Formats, ", "), c.Format)
	}
	if _, err := lint.SelectAnalyzers(c.Checks, nil); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, KeyChecks, err)
	}
	return nil
}

// splitList accepts both YAML lists and comma separated strings, as a list
// set through the environment arrives as a single string.
func splitList(items []string) []string {
	out := []string{}
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
