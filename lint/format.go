// Copyright © 2024 The ELPS authors

package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

const (
	toolName = "pycheck"
	toolURI  = "https://github.com/luthersystems/pycheck"
)

// Findings flattens the findings of several reports, keeping report order.
func Findings(reports []*Report) []Finding {
	var all []Finding
	for _, r := range reports {
		all = append(all, r.Findings...)
	}
	return all
}

// FormatText writes findings in go vet style, one per line.
func FormatText(w io.Writer, findings []Finding) {
	for _, f := range findings {
		fmt.Fprintln(w, f.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes reports as a JSON array.
func FormatJSON(w io.Writer, reports []*Report) error {
	if reports == nil {
		reports = []*Report{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// FormatSARIF writes reports as a SARIF 2.1.0 log with a single run.
func FormatSARIF(w io.Writer, reports []*Report) error {
	sarifLog, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}
	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	for _, f := range Findings(reports) {
		rule := run.AddRule(f.Check).
			WithDescription(checkSummary(f.Check)).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: sarifLevel(f.Severity),
			})

		region := sarif.NewRegion().WithStartLine(f.Line)
		if f.Col > 0 {
			region = region.WithStartColumn(f.Col)
		}
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.File)).
				WithRegion(region),
		)

		message := f.Explanation
		if len(f.Notes) > 0 {
			message += " (" + strings.Join(f.Notes, "; ") + ")"
		}
		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(message)).
			WithLevel(sarifLevel(f.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}
	sarifLog.AddRun(run)
	return sarifLog.PrettyWrite(w)
}

func sarifLevel(s Severity) string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}

// checkSummary is the first line of the named analyzer's doc.
func checkSummary(check string) string {
	for _, a := range DefaultAnalyzers() {
		if a.Name == check {
			summary, _, _ := strings.Cut(a.Doc, "\n")
			return summary
		}
	}
	if check == "syntax" {
		return "Source could not be parsed."
	}
	return check
}

// FormatMarkdown writes a human-readable report per file, suitable for a
// pull request comment.
func FormatMarkdown(w io.Writer, reports []*Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s report\n\n", toolName)
	fmt.Fprintf(&b, "- Files: `%d`\n", len(reports))
	fmt.Fprintf(&b, "- Findings: `%d`\n\n", len(Findings(reports)))

	for _, r := range reports {
		fmt.Fprintf(&b, "## %s\n\n", r.File)
		if r.Complexity != nil {
			fmt.Fprintf(&b, "- Time: %s\n", r.Complexity.Time)
			fmt.Fprintf(&b, "- Space: %s\n", r.Complexity.Space)
			fmt.Fprintf(&b, "- Max loop depth: `%d`\n\n", r.Complexity.MaxLoopDepth)
		}
		if len(r.Findings) == 0 {
			b.WriteString("No findings.\n\n")
			continue
		}
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "### [%s] %s\n\n", strings.ToUpper(f.Severity.String()), f.Explanation)
			fmt.Fprintf(&b, "- Check: `%s`\n", f.Check)
			fmt.Fprintf(&b, "- Line: `%d`\n", f.Line)
			if f.Raises != "" {
				fmt.Fprintf(&b, "- Raises: `%s`\n", f.Raises)
			}
			if f.Snippet != "" {
				fmt.Fprintf(&b, "\n```python\n%s\n```\n", f.Snippet)
			}
			for _, n := range f.Notes {
				fmt.Fprintf(&b, "\n> %s\n", n)
			}
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
