// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pycheck/lint"
)

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(params.TextDocument.URI, int32(params.TextDocument.Version), params.TextDocument.Text)
	s.checkAndPublish(doc)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}
	doc := s.docs.Change(params.TextDocument.URI, int32(params.TextDocument.Version), content)
	s.schedule(doc.URI)
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelPending(params.TextDocument.URI)
	if doc := s.docs.Get(params.TextDocument.URI); doc != nil {
		s.checkAndPublish(doc)
	}
	return nil
}

func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelPending(params.TextDocument.URI)
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	s.docs.Close(params.TextDocument.URI)
	return nil
}

// schedule checks uri after the debounce delay, replacing any pending check.
func (s *Server) schedule(uri string) {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(s.debounceDelay, func() {
		s.fire(uri, t)
	})
	s.debounce[uri] = t
}

// fire runs the check scheduled by t. A timer that was replaced or canceled
// after it had already fired leaves the map alone and checks nothing.
func (s *Server) fire(uri string, t *time.Timer) {
	s.debounceMu.Lock()
	if s.debounce[uri] != t {
		s.debounceMu.Unlock()
		return
	}
	delete(s.debounce, uri)
	s.debounceMu.Unlock()
	if doc := s.docs.Get(uri); doc != nil {
		s.checkAndPublish(doc)
	}
}

func (s *Server) cancelPending(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// checkAndPublish checks doc and publishes its diagnostics. A panic in the
// checker is logged and publishes nothing.
func (s *Server) checkAndPublish(doc *Document) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("check panicked", "uri", doc.URI, "panic", r)
		}
	}()

	doc.mu.Lock()
	doc.check(context.Background(), s.linter)
	diags := documentDiagnostics(doc)
	version := doc.Version
	uri := doc.URI
	doc.mu.Unlock()

	s.log.Debug("publishing diagnostics", "uri", uri, "version", version, "count", len(diags))
	v := safeUint(int(version))
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     &v,
		Diagnostics: diags,
	})
}

// documentDiagnostics converts the last check of doc. The caller holds
// doc.mu.
func documentDiagnostics(doc *Document) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	if doc.err != nil {
		diags = append(diags, protocol.Diagnostic{
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr(sourceName),
			Message:  fmt.Sprintf("file not checked: %v", doc.err),
		})
		return diags
	}
	if doc.report == nil {
		return diags
	}
	for _, f := range doc.report.Findings {
		diags = append(diags, findingDiagnostic(f, doc.lines))
	}
	return diags
}

func findingDiagnostic(f lint.Finding, lines []string) protocol.Diagnostic {
	msg := f.Explanation
	if len(f.Notes) > 0 {
		msg += "\n" + strings.Join(f.Notes, "\n")
	}
	return protocol.Diagnostic{
		Range:    findingRange(f, lines),
		Severity: severity(mapSeverity(f.Severity)),
		Code:     &protocol.IntegerOrString{Value: f.Check},
		Source:   strPtr(sourceName),
		Message:  msg,
	}
}

func mapSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}
