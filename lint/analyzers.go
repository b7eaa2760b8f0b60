// Copyright © 2024 The ELPS authors

package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luthersystems/pycheck/pyast"
)

// AnalyzerUndefinedReference reports names that are read where no
// definition is visible. It relies on the name resolution in Pass.Semantics,
// so a name is reported at most once per line.
var AnalyzerUndefinedReference = &Analyzer{
	Name:     "undefined-reference",
	Doc:      "Report names read before any visible definition.\n\nA name is defined by assignment, a def or class statement, an import, a parameter, a loop or with target, an except clause or a global/nonlocal declaration. Builtins are always defined. Analysis follows source order, so a name used above its first assignment is reported even if it is assigned later in the file.",
	Kind:     KindUndefinedReference,
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		for _, ref := range pass.Semantics.Unresolved {
			pass.ReportNode(ref.Node,
				fmt.Sprintf("Variable '%s' might not be defined before it is used.", ref.Name),
				fmt.Sprintf("check the spelling of '%s', or assign it before line %d", ref.Name, ref.Line()))
		}
		return nil
	},
}

// AnalyzerDivisionByZero reports division, floor division and modulo by a
// literal zero, including the augmented assignment forms.
var AnalyzerDivisionByZero = &Analyzer{
	Name:     "division-by-zero",
	Doc:      "Report /, // and % with a literal zero on the right.\n\nThe right operand must be an int or float literal equal to zero (0, 0.0, 0x0, 0e5). The augmented forms /=, //= and %= are reported too. Zero held in a variable is not tracked.",
	Kind:     KindDivisionByZero,
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		Inspect(pass.Module, func(node pyast.Node) {
			switch n := node.(type) {
			case *pyast.BinOp:
				if n.Op.Divides() && IsZeroLiteral(n.Right) {
					pass.ReportNode(n, "This expression can divide by zero.",
						fmt.Sprintf("'%s' by zero raises ZeroDivisionError at runtime", n.Op))
				}
			case *pyast.AugAssign:
				if n.Op.Divides() && IsZeroLiteral(n.Value) {
					pass.ReportNode(n, "This expression can divide by zero.",
						fmt.Sprintf("'%s=' by zero raises ZeroDivisionError at runtime", n.Op))
				}
			}
		})
		return nil
	},
}

// AnalyzerNonIterableLoopTarget reports for loops and comprehensions that
// iterate over an integer literal.
var AnalyzerNonIterableLoopTarget = &Analyzer{
	Name:     "non-iterable-loop-target",
	Doc:      "Report loops over an integer literal.\n\n`for i in 10:` raises TypeError because int is not iterable. The usual intent is `for i in range(10):`. Comprehension clauses are checked the same way.",
	Kind:     KindNonIterableLoopTarget,
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		check := func(iter pyast.Expr) {
			if !IsIntLiteral(iter) {
				return
			}
			lit := pass.Module.Snippet(iter)
			pass.ReportNode(iter, "You are trying to iterate over an int, which is not iterable.",
				fmt.Sprintf("to repeat something %s times, iterate over range(%s)", lit, lit))
		}
		Inspect(pass.Module, func(node pyast.Node) {
			switch n := node.(type) {
			case *pyast.For:
				check(n.Iter)
			case *pyast.Comprehension:
				check(n.Iter)
			}
		})
		return nil
	},
}

// AnalyzerNoneComparison reports == and != comparisons against None. It is
// a style nudge rather than a bug report.
var AnalyzerNoneComparison = &Analyzer{
	Name:     "none-comparison",
	Doc:      "Suggest `is None` over `== None`.\n\nEquality calls __eq__, which a class may override; identity against the None singleton cannot be fooled. One finding is reported per comparison expression, whichever side None is on.",
	Kind:     KindIdentityVsEqualityStyle,
	Severity: SeverityInfo,
	Run: func(pass *Pass) error {
		Inspect(pass.Module, func(node pyast.Node) {
			cmp, ok := node.(*pyast.Compare)
			if !ok {
				return
			}
			left := cmp.Left
			for i, op := range cmp.Ops {
				if i >= len(cmp.Comparators) {
					break
				}
				right := cmp.Comparators[i]
				if op.IsEquality() && (pyast.IsNone(left) || pyast.IsNone(right)) {
					replacement := "is"
					if op == pyast.NotEq {
						replacement = "is not"
					}
					pass.ReportNode(cmp, "Use `is None` / `is not None` for None checks.",
						fmt.Sprintf("replace '%s' with '%s'", op, replacement))
					return
				}
				left = right
			}
		})
		return nil
	},
}

// DefaultAnalyzers returns the analyzers in the order their findings are
// reported.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerUndefinedReference,
		AnalyzerDivisionByZero,
		AnalyzerNonIterableLoopTarget,
		AnalyzerNoneComparison,
	}
}

// SelectAnalyzers returns the default analyzers whose names appear in
// enable (all of them when enable is empty) and not in disable. The
// default order is kept. Unknown names are an error.
func SelectAnalyzers(enable, disable []string) ([]*Analyzer, error) {
	known := make(map[string]bool)
	for _, a := range DefaultAnalyzers() {
		known[a.Name] = true
	}
	for _, name := range append(append([]string(nil), enable...), disable...) {
		if !known[name] {
			return nil, fmt.Errorf("unknown check %q (available: %s)", name, strings.Join(AnalyzerNames(), ", "))
		}
	}
	selected := []*Analyzer{}
	for _, a := range DefaultAnalyzers() {
		if len(enable) > 0 && !contains(enable, a.Name) {
			continue
		}
		if contains(disable, a.Name) {
			continue
		}
		selected = append(selected, a)
	}
	return selected, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// AnalyzerNames returns a sorted list of all default analyzer names.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s (%s)\n", a.Name, a.Severity)
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}
