// Copyright © 2024 The ELPS authors

package lint

import (
	"strings"

	parsec "github.com/prataprc/goparsec"

	"github.com/luthersystems/pycheck/pyast"
)

// directive is a parsed "# nolint" comment. A nil checks list suppresses
// every check on the line.
type directive struct {
	checks []string
}

func (d directive) suppresses(check string) bool {
	if d.checks == nil {
		return true
	}
	for _, c := range d.checks {
		if c == check {
			return true
		}
	}
	return false
}

// nolintParser recognizes "nolint" optionally followed by ":" and a comma
// separated list of check names. The leading "#" is stripped by the caller.
func nolintParser() parsec.Parser {
	keyword := parsec.Token(`nolint\b`, "NOLINT")
	colon := parsec.Atom(":", "COLON")
	comma := parsec.Atom(",", "COMMA")
	name := parsec.Token(`[a-z][a-z0-9_-]*`, "NAME")
	names := parsec.Kleene(nil, name, comma)
	return parsec.And(nil, keyword, parsec.Maybe(nil, parsec.And(nil, colon, names)))
}

// parseDirective parses the text of one comment. A comment may hold several
// "#" segments, e.g. "# type: ignore  # nolint"; the first segment that is a
// nolint directive wins.
func parseDirective(text string) (directive, bool) {
	p := nolintParser()
	for _, segment := range strings.Split(text, "#") {
		segment = strings.TrimSpace(segment)
		if !strings.HasPrefix(segment, "nolint") {
			continue
		}
		root, _ := p(parsec.NewScanner([]byte(segment)))
		if root == nil {
			continue
		}
		var d directive
		collectNames(root, &d)
		return d, true
	}
	return directive{}, false
}

func collectNames(node parsec.ParsecNode, d *directive) {
	switch n := node.(type) {
	case *parsec.Terminal:
		if n.Name == "NAME" {
			d.checks = append(d.checks, n.Value)
		}
	case []parsec.ParsecNode:
		for _, child := range n {
			collectNames(child, d)
		}
	}
}

// filterSuppressed removes findings on lines carrying a nolint comment that
// names their check, or names no check at all. Order is preserved.
func filterSuppressed(findings []Finding, comments []*pyast.Comment) []Finding {
	lines := make(map[int]directive)
	for _, c := range comments {
		if d, ok := parseDirective(c.Text); ok {
			lines[c.Start.Line] = d
		}
	}

	filtered := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if d, ok := lines[f.Line]; ok && d.suppresses(f.Check) {
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered
}
