// Copyright © 2024 The ELPS authors

package repl

import (
	"sort"
	"strings"
	"unicode"

	"github.com/luthersystems/pycheck/analysis"
)

var keywords = []string{
	"and", "as", "assert", "async", "await", "break", "class", "continue",
	"def", "del", "elif", "else", "except", "finally", "for", "from",
	"global", "if", "import", "in", "is", "lambda", "nonlocal", "not", "or",
	"pass", "raise", "return", "try", "while", "with", "yield",
}

// nameCompleter implements readline.AutoCompleter over the names defined in
// the session, the builtins and the keywords.
type nameCompleter struct {
	session *Session
}

func (c *nameCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	start := pos
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	if start > 0 && line[start-1] == '.' {
		return nil, 0
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.candidates(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}
	// Each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len([]rune(prefix))
}

func (c *nameCompleter) candidates(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(names []string) {
		for _, name := range names {
			if strings.HasPrefix(name, prefix) && !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}
	add(c.session.Names())
	add(analysis.BuiltinNames())
	add(keywords)
	sort.Strings(result)
	return result
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
