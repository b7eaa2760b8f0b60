// Copyright © 2024 The ELPS authors

// Package lint finds likely bugs and style problems in Python source.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives a parsed module and reports findings. The Linter parses the
// source, resolves names once for all checks, runs the analyzers in a fixed
// order, drops findings suppressed by "# nolint" comments and attaches a
// complexity estimate.
package lint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/luthersystems/pycheck/analysis"
	"github.com/luthersystems/pycheck/complexity"
	"github.com/luthersystems/pycheck/parser"
	"github.com/luthersystems/pycheck/pyast"
)

const tracerName = "github.com/luthersystems/pycheck/lint"

// Severity indicates the severity level of a finding.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity: %q", str)
	}
	return nil
}

// Kind classifies what a finding is about.
type Kind string

const (
	KindUndefinedReference      Kind = "UndefinedReference"
	KindDivisionByZero          Kind = "DivisionByZero"
	KindNonIterableLoopTarget   Kind = "NonIterableLoopTarget"
	KindIdentityVsEqualityStyle Kind = "IdentityVsEqualityStyle"
	KindSyntaxError             Kind = "SyntaxError"
)

// Raises names the exception Python raises when the flagged code runs, or
// "" for style findings.
func (k Kind) Raises() string {
	switch k {
	case KindUndefinedReference:
		return "NameError"
	case KindDivisionByZero:
		return "ZeroDivisionError"
	case KindNonIterableLoopTarget:
		return "TypeError"
	case KindSyntaxError:
		return "SyntaxError"
	default:
		return ""
	}
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "division-by-zero").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Kind is the kind of every finding this analyzer reports.
	Kind Kind

	// Severity is the default severity for findings from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// Module is the parsed source.
	Module *pyast.Module

	// Semantics holds the result of name resolution for Module.
	Semantics *analysis.Result

	findings []Finding
}

// Report records a finding. Unset fields are filled from the analyzer.
func (p *Pass) Report(f Finding) {
	f.Check = p.Analyzer.Name
	if f.Kind == "" {
		f.Kind = p.Analyzer.Kind
	}
	if f.Severity == severityUnset {
		f.Severity = p.Analyzer.Severity
	}
	if f.File == "" {
		f.File = p.Filename
	}
	f.Raises = f.Kind.Raises()
	p.findings = append(p.findings, f)
}

// ReportNode records a finding located at node, with node's source text as
// the snippet.
func (p *Pass) ReportNode(node pyast.Node, explanation string, notes ...string) {
	sp := node.Range()
	p.Report(Finding{
		Line:        sp.Start.Line,
		Col:         sp.Start.Col,
		Snippet:     p.Module.Snippet(node),
		Explanation: explanation,
		Notes:       notes,
	})
}

// Reportf is a convenience for reporting a finding at a node.
func (p *Pass) Reportf(node pyast.Node, format string, args ...interface{}) {
	p.ReportNode(node, fmt.Sprintf(format, args...))
}

// Finding is a single reported problem.
type Finding struct {
	Kind        Kind     `json:"kind"`
	Check       string   `json:"check"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
	Col         int      `json:"col,omitempty"`
	Snippet     string   `json:"snippet"`
	Explanation string   `json:"explanation"`
	Severity    Severity `json:"severity"`
	Raises      string   `json:"raises,omitempty"`
	Notes       []string `json:"notes,omitempty"`
}

// Position identifies a location in source code.
type Position struct {
	File string
	Line int
	Col  int
}

// String returns the position in file:line:col format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Pos returns the location of the finding.
func (f Finding) Pos() Position {
	return Position{File: f.File, Line: f.Line, Col: f.Col}
}

// String returns the finding in go vet style: file:line:col: explanation
// (check) with optional note lines appended.
func (f Finding) String() string {
	s := fmt.Sprintf("%s: %s (%s)", f.Pos(), f.Explanation, f.Check)
	for _, n := range f.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// Report is the result of checking one source file. Complexity is nil when
// the source could not be parsed.
type Report struct {
	File       string              `json:"file,omitempty"`
	Findings   []Finding           `json:"findings"`
	Complexity *complexity.Profile `json:"complexity"`
}

// SyntaxErrorReport is the report for source that failed to parse: a single
// error finding and no complexity estimate.
func SyntaxErrorReport(serr *parser.SyntaxError) *Report {
	f := Finding{
		Kind:        KindSyntaxError,
		Check:       "syntax",
		File:        serr.Filename,
		Line:        serr.Line,
		Col:         serr.Col,
		Snippet:     serr.Text,
		Explanation: serr.Msg,
		Severity:    SeverityError,
		Raises:      KindSyntaxError.Raises(),
	}
	return &Report{File: serr.Filename, Findings: []Finding{f}}
}

// Linter runs a set of analyzers over source files. A Linter is not
// modified by checking and may be shared between goroutines.
type Linter struct {
	// Analyzers run in order. Nil means DefaultAnalyzers.
	Analyzers []*Analyzer

	// MaxChars limits the size of the source accepted by Check. Zero uses
	// parser.DefaultMaxChars.
	MaxChars int

	// Globals are names treated as defined at module level.
	Globals []string

	// Logger receives analyzer failures. Nil discards them.
	Logger hclog.Logger
}

func (l *Linter) analyzers() []*Analyzer {
	if l.Analyzers == nil {
		return DefaultAnalyzers()
	}
	return l.Analyzers
}

func (l *Linter) logger() hclog.Logger {
	if l.Logger == nil {
		return hclog.NewNullLogger()
	}
	return l.Logger
}

// Check parses source and checks it. Source that fails to parse yields a
// report holding one SyntaxError finding rather than an error. Errors are
// returned only when the source cannot be checked at all: it is too large,
// not UTF-8, or ctx was canceled.
func (l *Linter) Check(ctx context.Context, source []byte, filename string) (*Report, error) {
	ctx, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, "check")
	defer span.End()
	span.SetAttributes(attribute.String("file", filename))

	mod, err := parser.Parse(ctx, source, filename, parser.WithMaxChars(l.MaxChars))
	if err != nil {
		var serr *parser.SyntaxError
		if errors.As(err, &serr) {
			return SyntaxErrorReport(serr), nil
		}
		return nil, err
	}
	report := l.CheckModule(ctx, mod)
	span.SetAttributes(attribute.Int("findings", len(report.Findings)))
	return report, nil
}

// CheckModule checks a parsed module. Findings are ordered by analyzer, then
// by traversal order within an analyzer. An analyzer that fails or panics
// contributes nothing; the failure is logged and the others still run.
func (l *Linter) CheckModule(ctx context.Context, mod *pyast.Module) *Report {
	tracer := otel.GetTracerProvider().Tracer(tracerName)

	_, span := tracer.Start(ctx, "analyze")
	semantics := analysis.Analyze(mod, &analysis.Config{ExtraGlobals: l.Globals})
	span.SetAttributes(attribute.Int("unresolved", len(semantics.Unresolved)))
	span.End()

	var all []Finding
	for _, analyzer := range l.analyzers() {
		pass := &Pass{
			Analyzer:  analyzer,
			Filename:  mod.Filename,
			Module:    mod,
			Semantics: semantics,
		}
		if err := runAnalyzer(ctx, pass); err != nil {
			l.logger().Warn("analyzer failed", "analyzer", analyzer.Name, "file", mod.Filename, "error", err)
			continue
		}
		all = append(all, pass.findings...)
	}

	all = filterSuppressed(all, mod.Comments)

	_, span = tracer.Start(ctx, "complexity")
	profile := complexity.Estimate(mod)
	span.SetAttributes(attribute.String("class", profile.Class.String()))
	span.End()

	return &Report{File: mod.Filename, Findings: all, Complexity: profile}
}

func runAnalyzer(ctx context.Context, pass *Pass) (err error) {
	_, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, pass.Analyzer.Name,
		trace.WithAttributes(attribute.String("file", pass.Filename)))
	defer func() { endSpan(span, err) }()
	defer func() {
		if r := recover(); r != nil {
			pass.findings = nil
			err = fmt.Errorf("analyzer %s panicked: %v", pass.Analyzer.Name, r)
		}
	}()
	if err := pass.Analyzer.Run(pass); err != nil {
		return fmt.Errorf("analyzer %s: %w", pass.Analyzer.Name, err)
	}
	return nil
}

// endSpan marks span failed when err is set, then ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
