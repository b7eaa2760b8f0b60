// Copyright © 2024 The ELPS authors

package analysis

import "github.com/luthersystems/pycheck/pyast"

// ScopeKind classifies the kind of scope.
type ScopeKind int

const (
	ScopeModule        ScopeKind = iota // file level
	ScopeFunction                       // def body
	ScopeClass                          // class body
	ScopeLambda                         // lambda body
	ScopeExcept                         // except ... as name: body
	ScopeComprehension                  // list/set/dict comprehension or generator
	ScopeTypeParams                     // generic parameters of a def, class or type alias
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeLambda:
		return "lambda"
	case ScopeExcept:
		return "except"
	case ScopeComprehension:
		return "comprehension"
	case ScopeTypeParams:
		return "type parameter"
	default:
		return "unknown"
	}
}

// Scope is one frame of the scope stack. Frames are linked to their parent,
// so a *Scope also denotes the whole stack from itself down to the module
// frame.
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope
	Symbols  map[string]*Symbol
	Node     pyast.Node // the node that introduced this scope
}

// NewScope creates a new scope of the given kind with the given parent.
func NewScope(kind ScopeKind, parent *Scope, node pyast.Node) *Scope {
	s := &Scope{
		Kind:    kind,
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
		Node:    node,
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Push returns a new empty frame on top of s.
func (s *Scope) Push(kind ScopeKind, node pyast.Node) *Scope {
	return NewScope(kind, s, node)
}

// Pop returns the frame below s. The bottom frame is never removed: popping
// it returns s itself.
func (s *Scope) Pop() *Scope {
	if s.Parent == nil {
		return s
	}
	return s.Parent
}

// Define adds a symbol to this scope. Redefinitions keep the first symbol.
func (s *Scope) Define(sym *Symbol) {
	if _, ok := s.Symbols[sym.Name]; ok {
		return
	}
	sym.Scope = s
	s.Symbols[sym.Name] = sym
}

// DefineName adds a plain variable binding to this scope.
func (s *Scope) DefineName(name string) {
	if name == "" {
		return
	}
	s.Define(&Symbol{Name: name, Kind: SymVariable})
}

// Lookup resolves a symbol by walking the parent chain, innermost first.
// Returns nil if the symbol is not found.
func (s *Scope) Lookup(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym, ok := scope.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal resolves a symbol only in this scope (not parents).
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

// Visible reports whether name is defined in s or any enclosing frame.
func (s *Scope) Visible(name string) bool {
	return s.Lookup(name) != nil
}

// Depth returns the number of frames on the stack ending at s.
func (s *Scope) Depth() int {
	n := 0
	for scope := s; scope != nil; scope = scope.Parent {
		n++
	}
	return n
}
