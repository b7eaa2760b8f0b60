// Copyright © 2024 The ELPS authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/settings_local.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"settings_local.py"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.py",
		"build/output.py",
		"build/sub/deep.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/test_foo.py",
		"src/test_bar.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"test_*"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.py"}
	assert.Equal(t, paths, filterExcludes(paths, nil))
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("src/main.py", []string{"src/*.py"}))
	assert.False(t, matchesAny("lib/main.py", []string{"src/*.py"}))
	assert.True(t, matchesAny("deep/nested/conftest.py", []string{"conftest.py"}))
	assert.True(t, matchesAny("project/migrations/0001.py", []string{"migrations"}))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c.py"}, splitPath("./a/b/c.py"))
}

func TestExpandArgs(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) string {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x = 1\n"), 0o600))
		return p
	}
	a := write("pkg/a.py")
	b := write("pkg/sub/b.py")
	write("pkg/notes.txt")
	write("pkg/__pycache__/a.py")
	write("pkg/.venv/lib/site.py")
	gen := write("pkg/gen/c.py")

	files, err := expandArgs([]string{filepath.Join(dir, "pkg") + "/..."}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b, gen}, files)

	files, err = expandArgs([]string{filepath.Join(dir, "pkg")}, []string{"gen"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)

	// Plain files and missing paths pass through for the caller to report.
	files, err = expandArgs([]string{a, "missing.py"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a, "missing.py"}, files)
}
