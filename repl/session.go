// Copyright © 2024 The ELPS authors

package repl

import (
	"context"
	"errors"
	"strings"

	"github.com/luthersystems/pycheck/analysis"
	"github.com/luthersystems/pycheck/complexity"
	"github.com/luthersystems/pycheck/lint"
	"github.com/luthersystems/pycheck/parser"
)

const replFile = "<repl>"

// Session accumulates the snippets entered so far. Each snippet is checked
// as a continuation of the earlier ones, so names they define stay visible.
type Session struct {
	linter *lint.Linter
	source string
	lines  int
	names  []string
	last   *complexity.Profile
}

// Result is the outcome of one submitted snippet. Finding lines are
// relative to the snippet.
type Result struct {
	Findings []lint.Finding
	// Accepted is false when the snippet did not parse; it is then not
	// added to the session.
	Accepted bool
}

// NewSession creates an empty session checked by l.
func NewSession(l *lint.Linter) *Session {
	if l == nil {
		l = &lint.Linter{}
	}
	return &Session{linter: l}
}

// Submit checks snippet after the accepted source.
func (s *Session) Submit(ctx context.Context, snippet string) (*Result, error) {
	if !strings.HasSuffix(snippet, "\n") {
		snippet += "\n"
	}
	src := s.source + snippet
	base := s.lines

	mod, err := parser.Parse(ctx, []byte(src), replFile, parser.WithMaxChars(s.linter.MaxChars))
	if err != nil {
		var serr *parser.SyntaxError
		if !errors.As(err, &serr) {
			return nil, err
		}
		return &Result{Findings: rebase(lint.SyntaxErrorReport(serr).Findings, base)}, nil
	}

	report := s.linter.CheckModule(ctx, mod)
	s.source = src
	s.lines += strings.Count(snippet, "\n")
	s.names = analysis.Analyze(mod, &analysis.Config{ExtraGlobals: s.linter.Globals}).Globals()
	s.last = report.Complexity
	return &Result{Findings: rebase(report.Findings, base), Accepted: true}, nil
}

// rebase drops findings on lines at or before base and shifts the rest to
// be relative to base. A syntax error placed in earlier source loses its
// position rather than being dropped.
func rebase(findings []lint.Finding, base int) []lint.Finding {
	out := make([]lint.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Line <= base {
			if f.Kind != lint.KindSyntaxError {
				continue
			}
			f.Line, f.Col = 0, 0
		} else {
			f.Line -= base
		}
		out = append(out, f)
	}
	return out
}

// Names returns the module-level names defined so far, sorted.
func (s *Session) Names() []string {
	return s.names
}

// Source returns the accepted source.
func (s *Session) Source() string {
	return s.source
}

// Complexity returns the estimate for the accepted source, or nil before
// the first snippet.
func (s *Session) Complexity() *complexity.Profile {
	return s.last
}

// Reset forgets every snippet.
func (s *Session) Reset() {
	s.source = ""
	s.lines = 0
	s.names = nil
	s.last = nil
}

// needsMore reports whether the lines typed so far are an incomplete
// statement: an open bracket, a trailing backslash or colon, or an indented
// block that has not been closed by a blank line.
func needsMore(lines []string) bool {
	if len(lines) == 0 {
		return false
	}
	last := strings.TrimRight(lines[len(lines)-1], " \t")
	if strings.HasSuffix(last, ":") || strings.HasSuffix(last, "\\") {
		return true
	}
	if bracketDepth(strings.Join(lines, "\n")) > 0 {
		return true
	}
	return len(lines) > 1
}

// bracketDepth counts unclosed brackets outside string literals and
// comments. Triple-quoted strings are treated as open until closed.
func bracketDepth(src string) int {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case '\'', '"':
			quote := string(c)
			if strings.HasPrefix(src[i:], strings.Repeat(quote, 3)) {
				quote = strings.Repeat(quote, 3)
			}
			end := closingQuote(src, i+len(quote), quote)
			if end < 0 {
				if len(quote) == 3 {
					return depth + 1
				}
				return depth
			}
			i = end + len(quote) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}

// closingQuote returns the index of the quote ending a string whose body
// starts at i, skipping backslash escapes, or -1.
func closingQuote(src string, i int, quote string) int {
	for ; i < len(src); i++ {
		if src[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(src[i:], quote) {
			return i
		}
	}
	return -1
}
