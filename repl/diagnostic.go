// Copyright © 2024 The ELPS authors

package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/pycheck/diagnostic"
	"github.com/luthersystems/pycheck/lint"
)

// renderResult shows the findings of one snippet, using the snippet itself
// as the source for the annotated lines.
func renderResult(w io.Writer, res *Result, snippet string, mode diagnostic.ColorMode) {
	if len(res.Findings) == 0 {
		fmt.Fprintln(w, "ok") //nolint:errcheck // best-effort REPL output
		return
	}
	ds := make([]diagnostic.Diagnostic, 0, len(res.Findings))
	for _, f := range res.Findings {
		ds = append(ds, findingToDiag(f, res.Accepted))
	}
	r := &diagnostic.Renderer{
		Color:   mode,
		Sources: map[string][]byte{replFile: []byte(snippet)},
	}
	_ = r.RenderAll(w, ds)
}

// findingToDiag converts a finding to a diagnostic. A rejected snippet gets
// a note saying it was not kept.
func findingToDiag(f lint.Finding, accepted bool) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityWarning,
		Code:     f.Check,
		Message:  f.Explanation,
		Notes:    append([]string(nil), f.Notes...),
	}
	switch f.Severity {
	case lint.SeverityError:
		d.Severity = diagnostic.SeverityError
	case lint.SeverityInfo:
		d.Severity = diagnostic.SeverityInfo
	}
	if f.Line > 0 {
		span := diagnostic.Span{File: replFile, Line: f.Line, Col: f.Col}
		if first, _, _ := strings.Cut(f.Snippet, "\n"); first != "" && f.Col > 0 && f.Kind != lint.KindSyntaxError {
			span.EndCol = f.Col + len(first) - 1
		}
		if f.Raises != "" {
			span.Label = "raises " + f.Raises
		}
		d.Spans = append(d.Spans, span)
	}
	if !accepted {
		d.Help = "the statement was not kept; fix it and enter it again"
	}
	return d
}
