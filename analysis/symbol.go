// Copyright © 2024 The ELPS authors

package analysis

import "github.com/luthersystems/pycheck/pyast"

// SymbolKind classifies a symbol definition.
type SymbolKind int

const (
	SymVariable  SymbolKind = iota // assignment, loop, with or walrus target
	SymFunction                    // def
	SymClass                       // class
	SymParameter                   // function or lambda parameter
	SymImport                      // import alias
	SymException                   // except ... as name
	SymDeclared                    // global or nonlocal declaration
	SymExternal                    // supplied through Config.ExtraGlobals
	SymTypeParam                   // generic parameter
	SymTypeAlias                   // type statement
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymFunction:
		return "function"
	case SymClass:
		return "class"
	case SymParameter:
		return "parameter"
	case SymImport:
		return "import"
	case SymException:
		return "exception"
	case SymDeclared:
		return "declared"
	case SymExternal:
		return "external"
	case SymTypeParam:
		return "type parameter"
	case SymTypeAlias:
		return "type alias"
	default:
		return "unknown"
	}
}

// Symbol represents a defined name in a scope.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Span  pyast.Span // zero for external symbols
	Scope *Scope
}
