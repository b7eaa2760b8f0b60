// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"errors"
	"sync"

	"github.com/luthersystems/pycheck/analysis"
	"github.com/luthersystems/pycheck/lint"
	"github.com/luthersystems/pycheck/parser"
)

// Document is an open text document.
type Document struct {
	mu      sync.Mutex
	URI     string
	Version int32
	Content string

	lines  []string
	report *lint.Report
	// semantics survives a syntax error so that completion keeps working
	// while a line is half typed.
	semantics *analysis.Result
	// err is set when the document could not be checked at all.
	err error
}

func (d *Document) setContent(version int32, content string) {
	d.Version = version
	d.Content = content
	d.lines = splitLines(content)
	d.report = nil
	d.err = nil
}

// check parses and checks the document. The caller holds d.mu.
func (d *Document) check(ctx context.Context, l *lint.Linter) {
	filename := uriToPath(d.URI)
	mod, err := parser.Parse(ctx, []byte(d.Content), filename, parser.WithMaxChars(l.MaxChars))
	if err != nil {
		var serr *parser.SyntaxError
		if errors.As(err, &serr) {
			d.report = lint.SyntaxErrorReport(serr)
			return
		}
		d.report = nil
		d.err = err
		return
	}
	d.report = l.CheckModule(ctx, mod)
	d.semantics = analysis.Analyze(mod, &analysis.Config{ExtraGlobals: l.Globals})
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store, replacing any previous version.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{URI: uri}
	doc.setContent(version, content)
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change replaces a document's content. An unknown URI is opened.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.setContent(version, content)
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get returns the document for uri, or nil.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// Len returns the number of open documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
