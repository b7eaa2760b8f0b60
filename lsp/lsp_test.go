// Copyright © 2024 The ELPS authors

package lsp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pycheck/lint"
)

const testURI = "file:///work/app.py"

func testServer(opts ...Option) *Server {
	s := New(append([]Option{WithDebounce(10 * time.Millisecond)}, opts...)...)
	s.exitFn = func(int) {}
	return s
}

// publishRecorder collects published diagnostics. Debounced checks publish
// from a timer goroutine, so access is locked.
type publishRecorder struct {
	mu        sync.Mutex
	published []*protocol.PublishDiagnosticsParams
}

func (r *publishRecorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method != protocol.ServerTextDocumentPublishDiagnostics {
				return
			}
			r.mu.Lock()
			r.published = append(r.published, params.(*protocol.PublishDiagnosticsParams))
			r.mu.Unlock()
		},
	}
}

func (r *publishRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.published)
}

func (r *publishRecorder) last(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.published, "nothing published")
	return r.published[len(r.published)-1]
}

func openDoc(t *testing.T, s *Server, rec *publishRecorder, content string) {
	t.Helper()
	err := s.textDocumentDidOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        testURI,
			LanguageID: "python",
			Version:    1,
			Text:       content,
		},
	})
	require.NoError(t, err)
}

func positionParams(line, char int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Position:     protocol.Position{Line: safeUint(line), Character: safeUint(char)},
	}
}

func pos(line, char int) protocol.Position {
	return protocol.Position{Line: safeUint(line), Character: safeUint(char)}
}

// --- Position conversion ---

func TestUTF16Offsets(t *testing.T) {
	line := "aé😀b" // 1 + 2 + 4 + 1 bytes; 1 + 1 + 2 + 1 UTF-16 units
	assert.Equal(t, 0, utf16Offset(line, 0))
	assert.Equal(t, 1, utf16Offset(line, 1))
	assert.Equal(t, 2, utf16Offset(line, 3))
	assert.Equal(t, 4, utf16Offset(line, 7))
	assert.Equal(t, 5, utf16Offset(line, 100))

	assert.Equal(t, 0, byteOffset(line, 0))
	assert.Equal(t, 3, byteOffset(line, 2))
	assert.Equal(t, 7, byteOffset(line, 4))
	assert.Equal(t, len(line), byteOffset(line, 100))
}

func TestFindingRange(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		lines := []string{"x = 1", "ratio = total / 0"}
		r := findingRange(lint.Finding{Line: 2, Col: 9, Snippet: "total / 0"}, lines)
		assert.Equal(t, pos(1, 8), r.Start)
		assert.Equal(t, pos(1, 17), r.End)
	})
	t.Run("multi line", func(t *testing.T) {
		lines := []string{"foo(", "  1)"}
		r := findingRange(lint.Finding{Line: 1, Col: 1, Snippet: "foo(\n  1)"}, lines)
		assert.Equal(t, pos(0, 0), r.Start)
		assert.Equal(t, pos(1, 4), r.End)
	})
	t.Run("non-ascii prefix", func(t *testing.T) {
		lines := []string{"s = 'é' + x / 0"}
		r := findingRange(lint.Finding{Line: 1, Col: 12, Snippet: "x / 0"}, lines)
		assert.Equal(t, pos(0, 10), r.Start)
		assert.Equal(t, pos(0, 15), r.End)
	})
	t.Run("syntax error runs to end of line", func(t *testing.T) {
		lines := []string{"def f(:"}
		r := findingRange(lint.Finding{Kind: lint.KindSyntaxError, Line: 1, Col: 7, Snippet: "def f(:"}, lines)
		assert.Equal(t, pos(0, 6), r.Start)
		assert.Equal(t, pos(0, 7), r.End)
	})
	t.Run("unlocalized", func(t *testing.T) {
		assert.Equal(t, protocol.Range{}, findingRange(lint.Finding{}, nil))
	})
}

func TestIdentifierAt(t *testing.T) {
	name, start := identifierAt("print(total_sum)", 9)
	assert.Equal(t, "total_sum", name)
	assert.Equal(t, 6, start)

	name, _ = identifierAt("a + b", 2)
	assert.Empty(t, name)
}

// --- Lifecycle ---

func TestInitialize(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	result, err := s.initialize(rec.context(), &protocol.InitializeParams{})
	require.NoError(t, err)
	res, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, res.ServerInfo)
	assert.Equal(t, serverName, res.ServerInfo.Name)
	syncOpts, ok := res.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOpts.Change)
	assert.NotNil(t, res.Capabilities.CompletionProvider)
	assert.NotNil(t, res.Capabilities.CodeActionProvider)
}

func TestShutdownAndExit(t *testing.T) {
	s := testServer()
	code := -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.shutdown(nil))
	require.NoError(t, s.exit(nil))
	assert.Equal(t, 0, code)
}

// --- Diagnostics ---

func TestDidOpenPublishesFindings(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "print(missing)\n")

	published := rec.last(t)
	assert.Equal(t, testURI, published.URI)
	require.NotNil(t, published.Version)
	assert.Equal(t, protocol.UInteger(1), *published.Version)
	require.Len(t, published.Diagnostics, 1)

	d := published.Diagnostics[0]
	assert.Equal(t, "undefined-reference", d.Code.Value)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *d.Severity)
	assert.Equal(t, sourceName, *d.Source)
	assert.Contains(t, d.Message, "Variable 'missing' might not be defined before it is used.")
	assert.Equal(t, pos(0, 6), d.Range.Start)
	assert.Equal(t, pos(0, 13), d.Range.End)
}

func TestDidOpenCleanDocument(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "def double(n):\n    return n * 2\n")

	published := rec.last(t)
	require.NotNil(t, published.Diagnostics)
	assert.Empty(t, published.Diagnostics)
}

func TestDidOpenSyntaxError(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "def broken(:\n    pass\n")

	published := rec.last(t)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, "syntax", published.Diagnostics[0].Code.Value)
	assert.Equal(t, protocol.DiagnosticSeverityError, *published.Diagnostics[0].Severity)
}

func TestDidOpenTooLarge(t *testing.T) {
	s := testServer(WithLinter(&lint.Linter{MaxChars: 5}))
	rec := &publishRecorder{}
	openDoc(t, s, rec, "value = 123456\n")

	published := rec.last(t)
	require.Len(t, published.Diagnostics, 1)
	assert.Contains(t, published.Diagnostics[0].Message, "file not checked")
}

func TestDidChangeIsDebounced(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "x = 1\n")
	require.Equal(t, 1, rec.count())

	ctx := rec.context()
	for i, text := range []string{"x = 1 /", "x = 1 / 0", "x = 1 / 0\nfor i in 3:\n    pass\n"} {
		err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
				Version:                protocol.Integer(i + 2),
			},
			ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: text}},
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		p := rec.last(t)
		return p.Version != nil && *p.Version == 4
	}, time.Second, 5*time.Millisecond)
	published := rec.last(t)
	require.Len(t, published.Diagnostics, 2)
	assert.Equal(t, "division-by-zero", published.Diagnostics[0].Code.Value)
	assert.Equal(t, "non-iterable-loop-target", published.Diagnostics[1].Code.Value)
	assert.Equal(t, protocol.UInteger(4), *published.Version)
}

func TestDidSaveCancelsPendingCheck(t *testing.T) {
	s := testServer(WithDebounce(time.Hour))
	rec := &publishRecorder{}
	openDoc(t, s, rec, "x = 1\n")
	ctx := rec.context()
	require.NoError(t, s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "x = y\n"}},
	}))
	require.NoError(t, s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	}))

	assert.Equal(t, 2, rec.count())
	assert.Len(t, rec.last(t).Diagnostics, 1)
	s.debounceMu.Lock()
	assert.Empty(t, s.debounce)
	s.debounceMu.Unlock()
}

func TestStaleDebounceTimerKeepsNewerOne(t *testing.T) {
	s := testServer(WithDebounce(time.Hour))
	rec := &publishRecorder{}
	openDoc(t, s, rec, "x = 1\n")
	require.Equal(t, 1, rec.count())

	s.schedule(testURI)
	s.debounceMu.Lock()
	stale := s.debounce[testURI]
	s.debounceMu.Unlock()
	s.schedule(testURI)
	s.debounceMu.Lock()
	current := s.debounce[testURI]
	s.debounceMu.Unlock()
	require.NotSame(t, stale, current)

	// The replaced timer's callback may already be running.
	s.fire(testURI, stale)
	assert.Equal(t, 1, rec.count(), "a replaced timer must not check")
	s.debounceMu.Lock()
	assert.Same(t, current, s.debounce[testURI])
	s.debounceMu.Unlock()

	s.cancelPending(testURI)
	s.debounceMu.Lock()
	assert.Empty(t, s.debounce)
	s.debounceMu.Unlock()

	s.fire(testURI, current)
	assert.Equal(t, 1, rec.count(), "a canceled timer must not check")
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "print(missing)\n")
	require.NoError(t, s.textDocumentDidClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	}))

	assert.Empty(t, rec.last(t).Diagnostics)
	assert.Nil(t, s.docs.Get(testURI))
	assert.Equal(t, 0, s.docs.Len())
}

// --- Hover ---

func hoverText(t *testing.T, h *protocol.Hover) string {
	t.Helper()
	require.NotNil(t, h)
	content, ok := h.Contents.(protocol.MarkupContent)
	require.True(t, ok, "hover contents should be MarkupContent, got %T", h.Contents)
	return content.Value
}

func TestHover(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "def area(r):\n    return r * r\n\nprint(area(2) / 0)\nn = len([])\n")

	t.Run("finding", func(t *testing.T) {
		h, err := s.textDocumentHover(nil, &protocol.HoverParams{TextDocumentPositionParams: positionParams(3, 15)})
		require.NoError(t, err)
		text := hoverText(t, h)
		assert.Contains(t, text, "This expression can divide by zero.")
		assert.Contains(t, text, "ZeroDivisionError")
	})
	t.Run("definition", func(t *testing.T) {
		h, err := s.textDocumentHover(nil, &protocol.HoverParams{TextDocumentPositionParams: positionParams(0, 5)})
		require.NoError(t, err)
		text := hoverText(t, h)
		assert.Contains(t, text, "(function) area")
		assert.Contains(t, text, "Defined in module scope on line 1.")
		require.NotNil(t, h.Range)
		assert.Equal(t, pos(0, 4), h.Range.Start)
		assert.Equal(t, pos(0, 8), h.Range.End)
	})
	t.Run("builtin", func(t *testing.T) {
		h, err := s.textDocumentHover(nil, &protocol.HoverParams{TextDocumentPositionParams: positionParams(4, 5)})
		require.NoError(t, err)
		assert.Contains(t, hoverText(t, h), "(builtin) len")
	})
	t.Run("whitespace", func(t *testing.T) {
		h, err := s.textDocumentHover(nil, &protocol.HoverParams{TextDocumentPositionParams: positionParams(2, 0)})
		require.NoError(t, err)
		assert.Nil(t, h)
	})
}

// --- Completion ---

func completionLabels(t *testing.T, result any) []string {
	t.Helper()
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "completion result should be []CompletionItem, got %T", result)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func TestCompletion(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "total = 1\ndef tally():\n    pass\nimport os\nto\nos.pa\n")

	result, err := s.textDocumentCompletion(nil, &protocol.CompletionParams{TextDocumentPositionParams: positionParams(4, 2)})
	require.NoError(t, err)
	labels := completionLabels(t, result)
	assert.Contains(t, labels, "total")
	assert.NotContains(t, labels, "tally")

	result, err = s.textDocumentCompletion(nil, &protocol.CompletionParams{TextDocumentPositionParams: positionParams(4, 0)})
	require.NoError(t, err)
	labels = completionLabels(t, result)
	assert.Contains(t, labels, "tally")
	assert.Contains(t, labels, "os")
	assert.Contains(t, labels, "len")
	assert.Contains(t, labels, "lambda")
	assert.Equal(t, "os", labels[0], "module names come first, sorted")

	result, err = s.textDocumentCompletion(nil, &protocol.CompletionParams{TextDocumentPositionParams: positionParams(5, 5)})
	require.NoError(t, err)
	assert.Empty(t, completionLabels(t, result))
}

func TestCompletionKeepsNamesAcrossSyntaxErrors(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "counter = 0\n")

	s.docs.Change(testURI, 2, "counter = 0\nif co\n")
	s.checkAndPublish(s.docs.Get(testURI))

	result, err := s.textDocumentCompletion(nil, &protocol.CompletionParams{TextDocumentPositionParams: positionParams(1, 5)})
	require.NoError(t, err)
	assert.Contains(t, completionLabels(t, result), "counter")
}

// --- Code actions ---

func codeActions(t *testing.T, s *Server, line int) []protocol.CodeAction {
	t.Helper()
	result, err := s.textDocumentCodeAction(nil, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Range:        protocol.Range{Start: pos(line, 0), End: pos(line, 0)},
	})
	require.NoError(t, err)
	if result == nil {
		return nil
	}
	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok)
	return actions
}

func onlyEdit(t *testing.T, a protocol.CodeAction) protocol.TextEdit {
	t.Helper()
	require.NotNil(t, a.Edit)
	edits := a.Edit.Changes[testURI]
	require.Len(t, edits, 1)
	return edits[0]
}

func TestCodeActionNoneComparison(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "x = 1\nif x == None:\n    pass\n")

	actions := codeActions(t, s, 1)
	require.Len(t, actions, 2)

	fix := actions[0]
	assert.Equal(t, "Compare with None by identity", fix.Title)
	require.NotNil(t, fix.IsPreferred)
	edit := onlyEdit(t, fix)
	assert.Equal(t, "x is None", edit.NewText)
	assert.Equal(t, pos(1, 3), edit.Range.Start)
	assert.Equal(t, pos(1, 12), edit.Range.End)

	suppress := actions[1]
	assert.Equal(t, "Suppress none-comparison on this line", suppress.Title)
	edit = onlyEdit(t, suppress)
	assert.Equal(t, "  # nolint:none-comparison", edit.NewText)
	assert.Equal(t, pos(1, 13), edit.Range.Start)
}

func TestCodeActionLoopOverInt(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "for i in 10:\n    print(i)\n")

	actions := codeActions(t, s, 0)
	require.NotEmpty(t, actions)
	assert.Equal(t, "range(10)", onlyEdit(t, actions[0]).NewText)
}

func TestCodeActionExtendsNolint(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "y = missing / 0  # nolint:undefined-reference\n")

	actions := codeActions(t, s, 0)
	require.Len(t, actions, 1)
	edit := onlyEdit(t, actions[0])
	assert.Equal(t, "division-by-zero,", edit.NewText)
	assert.Equal(t, pos(0, 26), edit.Range.Start)
}

func TestCodeActionOutsideRange(t *testing.T) {
	s := testServer()
	rec := &publishRecorder{}
	openDoc(t, s, rec, "x = 1\nprint(x / 0)\n")
	assert.Empty(t, codeActions(t, s, 0))
}

func TestRewriteNoneComparisonSpacing(t *testing.T) {
	cases := map[string]string{
		"x==None":      "x is None",
		"x != None":    "x is not None",
		"None == x":    "None is x",
		"None!=x":      "None is not x",
		"None == None": "None is None",
	}
	for in, want := range cases {
		fix, ok := rewriteFinding(lint.Finding{Kind: lint.KindIdentityVsEqualityStyle, Snippet: in}, protocol.Range{})
		require.True(t, ok, in)
		assert.Equal(t, want, fix.edit.NewText, in)
	}
}
