// Copyright © 2024 The ELPS authors

// Package diagnostic renders findings as annotated source snippets for
// terminal output. It knows nothing about Python or the analyzers so that
// any command can render with it.
package diagnostic

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
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

// Span identifies a region of source code to underline.
type Span struct {
	File   string // key for Renderer.Sources, else a path to read
	Line   int    // 1-based
	Col    int    // 1-based byte column
	EndCol int    // 1-based inclusive byte column; 0 underlines one token
	Label  string
}

// Diagnostic is one rendered problem. Code, when set, is shown in brackets
// after the severity, e.g. "warning[division-by-zero]".
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Spans    []Span
	Notes    []string
	Help     string
}
