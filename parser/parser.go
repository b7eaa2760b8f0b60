// Copyright © 2024 The ELPS authors

// Package parser turns Python source into a pyast.Module.
//
// Parsing is done by tree-sitter-python. The concrete syntax tree is converted
// into pyast node types; concrete node kinds without a pyast counterpart are
// dropped (statements) or wrapped in pyast.Opaque (expressions).
package parser

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/luthersystems/pycheck/pyast"
)

// DefaultMaxChars is the default limit on the number of characters accepted
// by Parse.
const DefaultMaxChars = 20000

var (
	// ErrTooLarge is returned when the source exceeds the configured limit.
	ErrTooLarge = errors.New("source too large")
	// ErrInvalidUTF8 is returned when the source is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("source is not valid UTF-8")
)

// SyntaxError describes source that could not be parsed. Line and Col are
// 1-based; Line is 0 when the failure could not be localized.
type SyntaxError struct {
	Filename string
	Line     int
	Col      int
	Msg      string
	// Text is the offending source line with surrounding whitespace removed.
	Text string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Filename, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Col, e.Msg)
}

type config struct {
	maxChars int
}

// Option configures Parse.
type Option func(*config)

// WithMaxChars limits the number of characters (not bytes) Parse accepts.
// Non-positive values leave the default in place.
func WithMaxChars(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// Parse parses src as a Python 3 module. A *SyntaxError is returned when the
// source is malformed. Each call uses its own tree-sitter parser, so Parse is
// safe for concurrent use.
func Parse(ctx context.Context, src []byte, filename string, opts ...Option) (*pyast.Module, error) {
	cfg := config{maxChars: DefaultMaxChars}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, "parse")
	defer span.End()
	span.SetAttributes(
		attribute.String("file", filename),
		attribute.Int("size_bytes", len(src)),
	)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled: %w", err)
	}
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%s: %w", filename, ErrInvalidUTF8)
	}
	if n := utf8.RuneCount(src); n > cfg.maxChars {
		return nil, fmt.Errorf("%s: %w: %d characters exceeds limit %d", filename, ErrTooLarge, n, cfg.maxChars)
	}

	p := tree_sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(tree_sitter.NewLanguage(tree_sitter_python.Language())); err != nil {
		return nil, fmt.Errorf("load python grammar: %w", err)
	}
	tree := p.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("%s: tree-sitter returned no tree", filename)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled: %w", err)
	}

	root := tree.RootNode()
	if serr := findSyntaxError(root, src); serr != nil {
		serr.Filename = filename
		span.SetAttributes(attribute.Int("syntax_error_line", serr.Line))
		return nil, serr
	}

	c := &converter{src: src}
	mod := &pyast.Module{
		Span:     c.span(root),
		Filename: filename,
		Source:   src,
		Body:     c.block(root),
		Comments: c.comments(root),
	}
	span.SetAttributes(attribute.Int("statements", len(mod.Body)))
	return mod, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(src, filename string) (*pyast.Module, error) {
	return Parse(context.Background(), []byte(src), filename)
}

const tracerName = "github.com/luthersystems/pycheck/parser"
