// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/luthersystems/pycheck/complexity"
	"github.com/luthersystems/pycheck/diagnostic"
	"github.com/luthersystems/pycheck/lint"
)

// newStyleRenderer returns a lipgloss renderer for w honoring the color mode.
func newStyleRenderer(w io.Writer, mode diagnostic.ColorMode) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case diagnostic.ColorAlways:
		r.SetColorProfile(termenv.ANSI256)
	case diagnostic.ColorNever:
		r.SetColorProfile(termenv.Ascii)
	default:
		if os.Getenv("NO_COLOR") != "" {
			r.SetColorProfile(termenv.Ascii)
		}
	}
	return r
}

type summaryStyles struct {
	title lipgloss.Style
	file  lipgloss.Style
	dim   lipgloss.Style
	class map[complexity.Class]lipgloss.Style
	clean lipgloss.Style
	dirty lipgloss.Style
}

func newSummaryStyles(r *lipgloss.Renderer) summaryStyles {
	return summaryStyles{
		title: r.NewStyle().Bold(true).Underline(true),
		file:  r.NewStyle().Bold(true),
		dim:   r.NewStyle().Foreground(lipgloss.Color("240")),
		class: map[complexity.Class]lipgloss.Style{
			complexity.Linear:     r.NewStyle().Foreground(lipgloss.Color("42")),
			complexity.Quadratic:  r.NewStyle().Foreground(lipgloss.Color("214")),
			complexity.Polynomial: r.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
			complexity.Recursive:  r.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		},
		clean: r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		dirty: r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// renderSummary writes per-file complexity estimates, when showComplexity
// is set, followed by a one-line count of findings by severity.
func renderSummary(w io.Writer, reports []*lint.Report, showComplexity bool, mode diagnostic.ColorMode) error {
	st := newSummaryStyles(newStyleRenderer(w, mode))
	var b strings.Builder

	if showComplexity {
		b.WriteString(st.title.Render("Complexity") + "\n")
		width := 0
		for _, r := range reports {
			width = max(width, len(r.File))
		}
		for _, r := range reports {
			name := st.file.Render(fmt.Sprintf("%-*s", width, r.File))
			if r.Complexity == nil {
				fmt.Fprintf(&b, "  %s  %s\n", name, st.dim.Render("not estimated (syntax error)"))
				continue
			}
			p := r.Complexity
			class := st.class[p.Class].Render(fmt.Sprintf("%-10s", p.Class))
			detail := fmt.Sprintf("time %s · space %s · loop depth %d", p.Time, p.Space, p.MaxLoopDepth)
			if len(p.RecursiveFuncs) > 0 {
				detail += " · recursive: " + strings.Join(p.RecursiveFuncs, ", ")
			}
			fmt.Fprintf(&b, "  %s  %s %s\n", name, class, st.dim.Render(detail))
		}
		b.WriteString("\n")
	}

	counts := map[lint.Severity]int{}
	total := 0
	for _, f := range lint.Findings(reports) {
		counts[f.Severity]++
		total++
	}
	files := plural(len(reports), "file")
	if total == 0 {
		fmt.Fprintf(&b, "%s %s\n", st.clean.Render("No problems found"), st.dim.Render("in "+files))
	} else {
		detail := fmt.Sprintf("(%d error, %d warning, %d info) in %s",
			counts[lint.SeverityError], counts[lint.SeverityWarning], counts[lint.SeverityInfo], files)
		fmt.Fprintf(&b, "%s %s\n", st.dirty.Render(plural(total, "problem")), st.dim.Render(detail))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
