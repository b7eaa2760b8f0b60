// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is the column notes are wrapped at when Renderer.Width is 0.
const DefaultWidth = 100

// Renderer formats diagnostics as annotated source snippets:
//
//	warning[division-by-zero]: This expression can divide by zero.
//	  --> app.py:3:9
//	   |
//	 3 |  ratio = total / 0
//	   |          ^^^^^^^^^
//	   |
//	   = note: '/' by zero raises ZeroDivisionError at runtime
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// Sources holds file contents by name. Files not present here are read
	// with SourceReader.
	Sources map[string][]byte

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)

	// Width wraps notes. Zero means DefaultWidth; negative disables wrapping.
	Width int
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, fileFromWriter(w))
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	r.writeHeader(ew, d, p)
	for _, span := range d.Spans {
		r.writeSpan(ew, span, d.Severity, p)
	}
	for _, note := range d.Notes {
		r.writeNote(ew, "note", note, p)
	}
	if d.Help != "" {
		r.writeNote(ew, "help", d.Help, p)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// errWriter captures the first write error and drops everything after it.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	label := d.Severity.String()
	if d.Code != "" {
		label += "[" + d.Code + "]"
	}
	ew.printf("%s%s%s%s: %s%s%s\n",
		p.severity(d.Severity), p.bold, label, p.reset,
		p.bold, d.Message, p.reset)
}

func (r *Renderer) writeNote(ew *errWriter, kind, text string, p palette) {
	prefix := "   = " + kind + ": "
	width := r.Width
	if width == 0 {
		width = DefaultWidth
	}
	if width > 0 && width > len(prefix)+10 {
		text = wordwrap.String(text, width-len(prefix))
	}
	first, rest, wrapped := strings.Cut(text, "\n")
	ew.printf("   %s=%s %s: %s\n", p.boldCyan, p.reset, kind, first)
	if wrapped {
		ew.print(indent.String(rest, uint(len(prefix))) + "\n")
	}
}

func (r *Renderer) writeSpan(ew *errWriter, span Span, sev Severity, p palette) {
	loc := span.File
	if span.Line > 0 {
		loc = fmt.Sprintf("%s:%d", span.File, span.Line)
		if span.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
		}
	}
	ew.printf("  %s-->%s %s\n", p.boldBlue, p.reset, loc)

	source := r.sourceLine(span.File, span.Line)
	if source == "" {
		ew.printf("   %s|%s\n", p.boldBlue, p.reset)
		return
	}

	lineStr := fmt.Sprintf("%d", span.Line)
	pad := strings.Repeat(" ", len(lineStr))

	ew.printf(" %s%s |%s\n", p.boldBlue, pad, p.reset)
	ew.printf(" %s%s |%s  %s\n", p.boldBlue, lineStr, p.reset, strings.ReplaceAll(source, "\t", "    "))

	col := span.Col
	if col <= 0 || col > len(source) {
		col = 1
	}
	endCol := span.EndCol
	if endCol <= 0 {
		endCol = tokenEnd(source, col)
	}
	if endCol > len(source) {
		endCol = len(source)
	}
	if endCol < col {
		endCol = col
	}

	underPad := strings.Repeat(" ", displayWidth(source[:col-1]))
	underline := strings.Repeat("^", max(1, utf8.RuneCountInString(source[col-1:endCol])))
	color := p.severity(sev)
	ew.printf(" %s%s |%s  %s%s%s%s", p.boldBlue, pad, p.reset, underPad, color, underline, p.reset)
	if span.Label != "" {
		ew.printf(" %s%s%s", color, span.Label, p.reset)
	}
	ew.print("\n")
	ew.printf(" %s%s |%s\n", p.boldBlue, pad, p.reset)
}

func (r *Renderer) sourceLine(file string, line int) string {
	if line <= 0 || file == "" {
		return ""
	}
	data, ok := r.Sources[file]
	if !ok {
		reader := r.SourceReader
		if reader == nil {
			reader = func(name string) ([]byte, error) {
				return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
			}
		}
		var err error
		if data, err = reader(file); err != nil {
			return ""
		}
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for i := 1; scanner.Scan(); i++ {
		if i == line {
			return strings.TrimRight(scanner.Text(), "\r")
		}
	}
	return ""
}

// tokenEnd returns the 1-based byte column ending the identifier or number
// that starts at col. Any other character is a token of its own.
func tokenEnd(source string, col int) int {
	if col <= 0 || col > len(source) {
		return col
	}
	end := col - 1
	for end < len(source) {
		ch, size := utf8.DecodeRuneInString(source[end:])
		if !isWordRune(ch) {
			break
		}
		end += size
	}
	if end == col-1 {
		_, size := utf8.DecodeRuneInString(source[end:])
		return end + size
	}
	return end
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// displayWidth returns the display width of a string, expanding tabs to 4 spaces.
func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}

func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
