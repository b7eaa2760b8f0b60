// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pycheck/analysis"
)

var pythonKeywords = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await",
	"break", "class", "continue", "def", "del", "elif", "else", "except",
	"finally", "for", "from", "global", "if", "import", "in", "is",
	"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
	"while", "with", "yield",
}

// textDocumentCompletion offers module-level names, then builtins, then
// keywords, filtered by the identifier prefix before the cursor. Nothing is
// offered after a dot since attributes are not tracked.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	line := lineAt(doc.lines, int(params.Position.Line))
	semantics := doc.semantics
	doc.mu.Unlock()

	off := byteOffset(line, int(params.Position.Character))
	word, start := identifierAt(line[:off], off)
	if start > 0 && line[start-1] == '.' {
		return []protocol.CompletionItem{}, nil
	}
	return completionItems(semantics, word), nil
}

func completionItems(semantics *analysis.Result, prefix string) []protocol.CompletionItem {
	items := []protocol.CompletionItem{}
	seen := make(map[string]bool)
	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		if seen[label] || !strings.HasPrefix(label, prefix) {
			return
		}
		seen[label] = true
		items = append(items, protocol.CompletionItem{
			Label:  label,
			Kind:   &kind,
			Detail: strPtr(detail),
		})
	}

	if semantics != nil && semantics.RootScope != nil {
		for _, name := range semantics.Globals() {
			sym := semantics.RootScope.Symbols[name]
			add(name, completionKind(sym.Kind), sym.Kind.String())
		}
	}
	for _, name := range analysis.BuiltinNames() {
		add(name, protocol.CompletionItemKindFunction, "builtin")
	}
	for _, kw := range pythonKeywords {
		add(kw, protocol.CompletionItemKindKeyword, "keyword")
	}
	return items
}

func completionKind(k analysis.SymbolKind) protocol.CompletionItemKind {
	switch k {
	case analysis.SymFunction:
		return protocol.CompletionItemKindFunction
	case analysis.SymClass:
		return protocol.CompletionItemKindClass
	case analysis.SymImport:
		return protocol.CompletionItemKindModule
	default:
		return protocol.CompletionItemKindVariable
	}
}
