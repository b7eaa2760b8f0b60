// Copyright © 2024 The ELPS authors

package analysis

import (
	"bufio"
	_ "embed"
	"sort"
	"strings"
)

// PythonVersion is the CPython release the builtin table was taken from.
const PythonVersion = "3.11"

//go:embed builtins_py311.txt
var builtinsTable string

var builtins = parseBuiltins(builtinsTable)

// parseBuiltins reads one name per line. Blank lines and lines starting
// with "#" are ignored.
func parseBuiltins(table string) map[string]bool {
	names := make(map[string]bool)
	sc := bufio.NewScanner(strings.NewReader(table))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names[line] = true
	}
	return names
}

// keywordConstants are literal keywords that read like names.
var keywordConstants = map[string]bool{"None": true, "True": true, "False": true}

// IsBuiltin reports whether name is predeclared by the interpreter and
// therefore never undefined.
func IsBuiltin(name string) bool {
	return builtins[name] || keywordConstants[name]
}

// BuiltinNames returns the predeclared names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
