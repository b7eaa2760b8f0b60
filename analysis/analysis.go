// Copyright © 2024 The ELPS authors

// Package analysis provides scope-aware name resolution for Python source.
//
// The analyzer walks a parsed module once, in source order, keeping a stack
// of scope frames in step with the lexical structure, and records every name
// read that is neither predeclared nor visible at that point. It is a
// heuristic: names bound later in the file, by wildcard imports or by code
// the walk does not model are reported as unresolved.
package analysis

import (
	"sort"

	"github.com/luthersystems/pycheck/pyast"
)

// Config controls the behavior of the analyzer.
type Config struct {
	// ExtraGlobals are names treated as defined in the module frame, such as
	// names injected by an embedding environment.
	ExtraGlobals []string
}

// Result holds the output of semantic analysis.
type Result struct {
	RootScope  *Scope
	Symbols    []*Symbol
	Unresolved []*UnresolvedRef
}

// Globals returns the names defined in the module frame, sorted.
func (r *Result) Globals() []string {
	if r == nil || r.RootScope == nil {
		return nil
	}
	names := make([]string, 0, len(r.RootScope.Symbols))
	for name := range r.RootScope.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Analyze resolves the names of mod. Unresolved reads are reported once per
// (name, line) pair, in traversal order.
func Analyze(mod *pyast.Module, cfg *Config) *Result {
	if cfg == nil {
		cfg = &Config{}
	}

	root := NewScope(ScopeModule, nil, mod)
	for _, name := range cfg.ExtraGlobals {
		root.Define(&Symbol{Name: name, Kind: SymExternal})
	}

	a := &analyzer{
		result: &Result{RootScope: root},
		seen:   make(map[refKey]bool),
	}
	if mod != nil {
		a.analyzeStmts(mod.Body, root)
	}
	return a.result
}
