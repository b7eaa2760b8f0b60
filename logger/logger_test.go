// Copyright © 2024 The ELPS authors

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		level hclog.Level
		ok    bool
	}{
		{"", hclog.Info, true},
		{"debug", hclog.Debug, true},
		{" WARN ", hclog.Warn, true},
		{"warning", hclog.Warn, true},
		{"off", hclog.Off, true},
		{"loud", hclog.Info, false},
	}
	for _, tt := range tests {
		level, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.level, level, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestNew_Level(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	l := New(Options{Name: "test", Level: "warn", Output: &buf})
	l.Info("hidden")
	l.Warn("shown", "file", "a.py")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "file=a.py")
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLevel, "debug")
	var buf bytes.Buffer
	l := New(Options{Level: "error", Output: &buf})
	assert.True(t, l.IsDebug())
}

func TestNew_UnknownLevel(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	l := New(Options{Level: "chatty", Output: &buf})
	assert.True(t, l.IsInfo())
	assert.False(t, l.IsDebug())
	assert.Contains(t, buf.String(), "unrecognized log level")
}

func TestNew_JSON(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	l := New(Options{Name: "pycheck", JSON: true, Output: &buf})
	l.Info("checked", "findings", 2)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "checked", line["@message"])
	assert.Equal(t, "pycheck", line["@module"])
	assert.EqualValues(t, 2, line["findings"])
}
