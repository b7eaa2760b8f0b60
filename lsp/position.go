// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pycheck/lint"
)

// LSP positions count UTF-16 code units; findings carry 1-based byte columns.

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// utf16Offset returns the UTF-16 length of line[:byteOff].
func utf16Offset(line string, byteOff int) int {
	if byteOff > len(line) {
		byteOff = len(line)
	}
	n := 0
	for _, r := range line[:max(byteOff, 0)] {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// byteOffset is the inverse of utf16Offset. Offsets past the end of the
// line clamp to its length.
func byteOffset(line string, char int) int {
	units := 0
	for i, r := range line {
		if units >= char {
			return i
		}
		if l := utf16.RuneLen(r); l > 0 {
			units += l
		} else {
			units++
		}
	}
	return len(line)
}

func lineAt(lines []string, i int) string {
	if i < 0 || i >= len(lines) {
		return ""
	}
	return lines[i]
}

// position converts a 0-based line and byte offset to an LSP position.
func position(lines []string, line, byteOff int) protocol.Position {
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(utf16Offset(lineAt(lines, line), byteOff)),
	}
}

// findingRange returns the range covered by f. Syntax findings cover the
// rest of the line from the reported column; others cover their snippet.
func findingRange(f lint.Finding, lines []string) protocol.Range {
	if f.Line <= 0 {
		return protocol.Range{}
	}
	line := f.Line - 1
	col := max(f.Col-1, 0)
	start := position(lines, line, col)

	if f.Kind == lint.KindSyntaxError || f.Snippet == "" {
		end := position(lines, line, len(lineAt(lines, line)))
		if end.Character < start.Character {
			end = start
		}
		return protocol.Range{Start: start, End: end}
	}

	parts := strings.Split(f.Snippet, "\n")
	endLine := line + len(parts) - 1
	endOff := len(parts[len(parts)-1])
	if len(parts) == 1 {
		endOff += col
	}
	return protocol.Range{Start: start, End: position(lines, endLine, endOff)}
}

func rangeContains(r protocol.Range, p protocol.Position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Character < r.Start.Character {
		return false
	}
	if p.Line == r.End.Line && p.Character > r.End.Character {
		return false
	}
	return true
}

func rangesOverlap(a, b protocol.Range) bool {
	return a.Start.Line <= b.End.Line && b.Start.Line <= a.End.Line
}

// identifierAt returns the identifier surrounding byte offset off of line,
// and the byte offset it starts at.
func identifierAt(line string, off int) (string, int) {
	if off > len(line) {
		off = len(line)
	}
	start := off
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if !isIdentRune(r) {
			break
		}
		start -= size
	}
	end := off
	for end < len(line) {
		r, size := utf8.DecodeRuneInString(line[end:])
		if !isIdentRune(r) {
			break
		}
		end += size
	}
	return line[start:end], start
}

func isIdentRune(r rune) bool {
	return r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= utf8.RuneSelf
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}
