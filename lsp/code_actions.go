// Copyright © 2024 The ELPS authors

package lsp

import (
	"regexp"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pycheck/lint"
)

var (
	eqNoneRe = regexp.MustCompile(`(\s*)(==|!=)(\s*)None\b`)
	noneEqRe = regexp.MustCompile(`\bNone(\s*)(==|!=)(\s*)`)
)

// textDocumentCodeAction returns quick fixes for the findings that overlap
// the requested range. Every finding can be suppressed with a nolint
// comment; none comparisons and loops over an int also get a rewrite.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	if len(params.Context.Only) > 0 && !containsKind(params.Context.Only, protocol.CodeActionKindQuickFix) {
		return nil, nil
	}
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	report := doc.report
	lines := doc.lines
	doc.mu.Unlock()
	if report == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI
	var actions []protocol.CodeAction
	for _, f := range report.Findings {
		if f.Kind == lint.KindSyntaxError {
			continue
		}
		rng := findingRange(f, lines)
		if !rangesOverlap(rng, params.Range) {
			continue
		}
		diag := findingDiagnostic(f, lines)
		if fix, ok := rewriteFinding(f, rng); ok {
			actions = append(actions, quickFix(uri, fix.title, diag, fix.edit, true))
		}
		actions = append(actions, suppressAction(uri, f, diag, lines))
	}
	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

type rewrite struct {
	title string
	edit  protocol.TextEdit
}

// rewriteFinding returns a mechanical repair for f, if the check has one.
func rewriteFinding(f lint.Finding, rng protocol.Range) (rewrite, bool) {
	if strings.Contains(f.Snippet, "\n") {
		return rewrite{}, false
	}
	switch f.Kind {
	case lint.KindIdentityVsEqualityStyle:
		fixed := eqNoneRe.ReplaceAllStringFunc(f.Snippet, func(m string) string {
			sub := eqNoneRe.FindStringSubmatch(m)
			return spaceOr(sub[1]) + identityOp(sub[2]) + spaceOr(sub[3]) + "None"
		})
		fixed = noneEqRe.ReplaceAllStringFunc(fixed, func(m string) string {
			sub := noneEqRe.FindStringSubmatch(m)
			return "None" + spaceOr(sub[1]) + identityOp(sub[2]) + spaceOr(sub[3])
		})
		if fixed == f.Snippet {
			return rewrite{}, false
		}
		return rewrite{
			title: "Compare with None by identity",
			edit:  protocol.TextEdit{Range: rng, NewText: fixed},
		}, true
	case lint.KindNonIterableLoopTarget:
		return rewrite{
			title: "Iterate over range(" + f.Snippet + ")",
			edit:  protocol.TextEdit{Range: rng, NewText: "range(" + f.Snippet + ")"},
		}, true
	}
	return rewrite{}, false
}

func identityOp(op string) string {
	if op == "!=" {
		return "is not"
	}
	return "is"
}

func spaceOr(s string) string {
	if s == "" {
		return " "
	}
	return s
}

// suppressAction appends a nolint comment naming the finding's check to the
// end of its line, or extends an existing one.
func suppressAction(uri string, f lint.Finding, diag protocol.Diagnostic, lines []string) protocol.CodeAction {
	lineNo := f.Line - 1
	line := lineAt(lines, lineNo)
	end := position(lines, lineNo, len(line))

	var edit protocol.TextEdit
	if i := strings.Index(line, "# nolint:"); i >= 0 {
		at := position(lines, lineNo, i+len("# nolint:"))
		edit = protocol.TextEdit{
			Range:   protocol.Range{Start: at, End: at},
			NewText: f.Check + ",",
		}
	} else {
		edit = protocol.TextEdit{
			Range:   protocol.Range{Start: end, End: end},
			NewText: "  # nolint:" + f.Check,
		}
	}
	return quickFix(uri, "Suppress "+f.Check+" on this line", diag, edit, false)
}

func quickFix(uri, title string, diag protocol.Diagnostic, edit protocol.TextEdit, preferred bool) protocol.CodeAction {
	kind := protocol.CodeActionKindQuickFix
	action := protocol.CodeAction{
		Title:       title,
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				uri: {edit},
			},
		},
	}
	if preferred {
		action.IsPreferred = boolPtr(true)
	}
	return action
}

func containsKind(kinds []protocol.CodeActionKind, want protocol.CodeActionKind) bool {
	for _, k := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
