// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDoc(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := DocCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDocGuide(t *testing.T) {
	out, err := runDoc(t)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# pycheck guide"))
	assert.Contains(t, out, "# nolint:division-by-zero")
}

func TestDocCheck(t *testing.T) {
	out, err := runDoc(t, "division-by-zero")
	require.NoError(t, err)
	assert.Contains(t, out, "division-by-zero (warning)")
	assert.Contains(t, out, "kind: DivisionByZero")
	assert.Contains(t, out, "raises: ZeroDivisionError")
	assert.Contains(t, out, "Suppress with: # nolint:division-by-zero")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), docWidth, "line too long: %q", line)
	}

	out, err = runDoc(t, "none-comparison")
	require.NoError(t, err)
	assert.Contains(t, out, "none-comparison (info)")
	assert.NotContains(t, out, "raises:")
}

func TestDocUnknownCheck(t *testing.T) {
	_, err := runDoc(t, "no-such-check")
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 2, ee.code)
	assert.Contains(t, err.Error(), "undefined-reference")
}
