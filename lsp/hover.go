// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pycheck/analysis"
)

// textDocumentHover explains the findings under the cursor, or else the
// definition of the name under it.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()

	var b strings.Builder
	if doc.report != nil {
		for _, f := range doc.report.Findings {
			if !rangeContains(findingRange(f, doc.lines), params.Position) {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n---\n\n")
			}
			fmt.Fprintf(&b, "**%s** `%s`\n", f.Explanation, f.Check)
			if f.Raises != "" {
				fmt.Fprintf(&b, "\nRaises `%s` at runtime.\n", f.Raises)
			}
			for _, n := range f.Notes {
				fmt.Fprintf(&b, "\n- %s", n)
			}
			if len(f.Notes) > 0 {
				b.WriteString("\n")
			}
		}
	}

	line := lineAt(doc.lines, int(params.Position.Line))
	name, start := identifierAt(line, byteOffset(line, int(params.Position.Character)))
	if b.Len() == 0 && name != "" {
		if text := describeName(doc.semantics, name); text != "" {
			b.WriteString(text)
		}
	}
	if b.Len() == 0 {
		return nil, nil
	}

	hover := &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
	if name != "" {
		lineNo := int(params.Position.Line)
		hover.Range = &protocol.Range{
			Start: position(doc.lines, lineNo, start),
			End:   position(doc.lines, lineNo, start+len(name)),
		}
	}
	return hover, nil
}

// describeName renders the first definition of name, or notes that it is a
// builtin.
func describeName(res *analysis.Result, name string) string {
	if res != nil {
		for _, sym := range res.Symbols {
			if sym.Name != name {
				continue
			}
			text := fmt.Sprintf("```python\n(%s) %s\n```\n", sym.Kind, name)
			if sym.Span.Start.Line > 0 {
				text += fmt.Sprintf("\nDefined in %s scope on line %d.\n", sym.Scope.Kind, sym.Span.Start.Line)
			}
			return text
		}
	}
	if analysis.IsBuiltin(name) {
		return fmt.Sprintf("```python\n(builtin) %s\n```\n", name)
	}
	return ""
}
