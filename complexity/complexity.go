// Copyright © 2024 The ELPS authors

// Package complexity gives a coarse time and space estimate for a module from
// its loop nesting and from direct self-recursion. The labels are
// qualitative buckets, not measured bounds.
package complexity

import (
	"encoding/json"
	"fmt"

	"github.com/luthersystems/pycheck/pyast"
)

// Class is the qualitative time bucket.
type Class int

const (
	Linear Class = iota
	Quadratic
	Polynomial
	Recursive
)

func (c Class) String() string {
	switch c {
	case Linear:
		return "linear"
	case Quadratic:
		return "quadratic"
	case Polynomial:
		return "polynomial"
	case Recursive:
		return "recursive"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the class as its name.
func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a class name.
func (c *Class) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, k := range []Class{Linear, Quadratic, Polynomial, Recursive} {
		if k.String() == s {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown complexity class: %q", s)
}

// Labels shown to users.
const (
	TimeRecursive  = "Depends on recursion depth; often O(2^n) for naive recursion"
	TimeLinear     = "Roughly O(n)"
	TimeQuadratic  = "Approximately O(n^2)"
	TimePolynomial = "Approximately O(n^k), k > 2"

	SpaceRecursive = "O(recursion depth)"
	SpaceDefault   = "O(1) to O(n) typical for this file"
)

// Profile is the estimate for one module.
type Profile struct {
	Time         string `json:"time"`
	Space        string `json:"space"`
	Class        Class  `json:"class"`
	MaxLoopDepth int    `json:"max_loop_depth"`
	Recursive    bool   `json:"recursion"`
	// RecursiveFuncs names the functions that call themselves, in source
	// order.
	RecursiveFuncs []string `json:"recursive_functions,omitempty"`
}

// Estimate computes the profile of mod. A nil module yields the profile of
// an empty one.
func Estimate(mod *pyast.Module) *Profile {
	e := &estimator{}
	if mod != nil {
		e.stmts(mod.Body)
	}
	return classify(e.maxDepth, e.recursive)
}

// classify applies the buckets in order; the first match wins.
func classify(maxDepth int, recursive []string) *Profile {
	p := &Profile{
		Space:          SpaceDefault,
		MaxLoopDepth:   maxDepth,
		Recursive:      len(recursive) > 0,
		RecursiveFuncs: recursive,
	}
	switch {
	case p.Recursive:
		p.Class, p.Time, p.Space = Recursive, TimeRecursive, SpaceRecursive
	case maxDepth <= 1:
		p.Class, p.Time = Linear, TimeLinear
	case maxDepth == 2:
		p.Class, p.Time = Quadratic, TimeQuadratic
	default:
		p.Class, p.Time = Polynomial, TimePolynomial
	}
	return p
}

// estimator tracks loop depth for the function currently being walked.
// Entering a function or lambda body starts a fresh count.
type estimator struct {
	depth     int
	maxDepth  int
	recursive []string
}

func (e *estimator) stmts(body []pyast.Stmt) {
	for _, s := range body {
		e.node(s)
	}
}

func (e *estimator) node(n pyast.Node) {
	switch n := n.(type) {
	case *pyast.For, *pyast.While:
		e.depth++
		if e.depth > e.maxDepth {
			e.maxDepth = e.depth
		}
		e.children(n)
		e.depth--
	case *pyast.FunctionDef:
		if callsItself(n) {
			e.recursive = append(e.recursive, n.Name)
		}
		e.fresh(n)
	case *pyast.Lambda:
		e.fresh(n)
	default:
		e.children(n)
	}
}

func (e *estimator) fresh(n pyast.Node) {
	saved := e.depth
	e.depth = 0
	e.children(n)
	e.depth = saved
}

func (e *estimator) children(n pyast.Node) {
	for _, child := range pyast.Children(n) {
		e.node(child)
	}
}

// callsItself reports whether any call in fn's subtree has fn's bare name as
// its callee. Decorators, defaults, annotations and nested functions count.
func callsItself(fn *pyast.FunctionDef) bool {
	found := false
	pyast.Inspect(fn, func(n pyast.Node) bool {
		if found {
			return false
		}
		if call, ok := n.(*pyast.Call); ok {
			if name, ok := call.Func.(*pyast.Name); ok && name.ID == fn.Name {
				found = true
			}
		}
		return !found
	})
	return found
}
