// Copyright © 2024 The ELPS authors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pycheck/parser"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("MAX_CODE_CHARS", "")
	t.Setenv("PYCHECK_MAX_CODE_CHARS", "")
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, parser.DefaultMaxChars, cfg.MaxCodeChars)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, "auto", cfg.Color)
	assert.Equal(t, "text", cfg.Format)
	assert.Empty(t, cfg.Checks)
	assert.Empty(t, cfg.Globals)
}

func TestLoad_LegacyMaxCodeChars(t *testing.T) {
	v := newViper(t)
	t.Setenv("MAX_CODE_CHARS", "500")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxCodeChars)
}

func TestLoad_PrefixedEnv(t *testing.T) {
	v := newViper(t)
	t.Setenv("PYCHECK_FORMAT", "SARIF")
	t.Setenv("PYCHECK_CHECKS", "division-by-zero, none-comparison")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sarif", cfg.Format)
	assert.Equal(t, []string{"division-by-zero", "none-comparison"}, cfg.Checks)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pycheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_code_chars: 1000
color: never
globals:
  - spark
  - dbutils
`), 0o600))
	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxCodeChars)
	assert.Equal(t, "never", cfg.Color)
	assert.Equal(t, []string{"spark", "dbutils"}, cfg.Globals)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
	}{
		{KeyMaxCodeChars, 0},
		{KeyColor, "rainbow"},
		{KeyFormat, "xml"},
		{KeyChecks, []string{"no-such-check"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := newViper(t)
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
