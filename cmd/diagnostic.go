// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"

	"github.com/luthersystems/pycheck/diagnostic"
	"github.com/luthersystems/pycheck/lint"
)

func diagnosticSeverity(s lint.Severity) diagnostic.Severity {
	switch s {
	case lint.SeverityError:
		return diagnostic.SeverityError
	case lint.SeverityInfo:
		return diagnostic.SeverityInfo
	default:
		return diagnostic.SeverityWarning
	}
}

// findingToDiagnostic converts a lint finding to a renderable diagnostic.
// The underline covers the first line of the snippet; syntax errors carry
// the whole source line as snippet, so only the token at the column is
// underlined.
func findingToDiagnostic(f lint.Finding) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnosticSeverity(f.Severity),
		Code:     f.Check,
		Message:  f.Explanation,
		Notes:    append([]string(nil), f.Notes...),
	}
	if f.Line > 0 {
		span := diagnostic.Span{File: f.File, Line: f.Line, Col: f.Col}
		if first := firstLine(f.Snippet); first != "" && f.Col > 0 && f.Kind != lint.KindSyntaxError {
			span.EndCol = f.Col + len(first) - 1
		}
		if f.Raises != "" {
			span.Label = "raises " + f.Raises
		}
		d.Spans = append(d.Spans, span)
	}
	if f.Kind != lint.KindSyntaxError {
		d.Help = "to suppress: add \"# nolint:" + f.Check + "\" as a comment on this line"
	}
	return d
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

// renderFindings writes findings as annotated snippets. sources maps file
// names to their contents so that stdin input can be shown too.
func renderFindings(w io.Writer, findings []lint.Finding, sources map[string][]byte, mode diagnostic.ColorMode) error {
	ds := make([]diagnostic.Diagnostic, 0, len(findings))
	for _, f := range findings {
		ds = append(ds, findingToDiagnostic(f))
	}
	r := &diagnostic.Renderer{Color: mode, Sources: sources}
	return r.RenderAll(w, ds)
}
