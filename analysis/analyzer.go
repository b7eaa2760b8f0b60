// Copyright © 2024 The ELPS authors

package analysis

import (
	"strings"

	"github.com/luthersystems/pycheck/pyast"
)

type refKey struct {
	name string
	line int
}

// analyzer holds the accumulators of one Analyze call. The current frame is
// passed explicitly to every method; entering a body pushes a frame for the
// duration of the call.
type analyzer struct {
	result *Result
	seen   map[refKey]bool
}

func (a *analyzer) define(scope *Scope, name string, kind SymbolKind, node pyast.Node) {
	if name == "" || scope.LookupLocal(name) != nil {
		return
	}
	sym := &Symbol{Name: name, Kind: kind}
	if node != nil {
		sym.Span = node.Range()
	}
	scope.Define(sym)
	a.result.Symbols = append(a.result.Symbols, sym)
}

func (a *analyzer) analyzeStmts(body []pyast.Stmt, scope *Scope) {
	for _, s := range body {
		a.analyzeStmt(s, scope)
	}
}

func (a *analyzer) analyzeStmt(stmt pyast.Stmt, scope *Scope) {
	switch s := stmt.(type) {
	case *pyast.FunctionDef:
		a.analyzeFunctionDef(s, scope)
	case *pyast.ClassDef:
		a.analyzeClassDef(s, scope)
	case *pyast.Return:
		a.analyzeExpr(s.Value, scope)
	case *pyast.Delete:
		for _, t := range s.Targets {
			a.analyzeDelete(t, scope)
		}
	case *pyast.Assign:
		// Targets are bound before the value is read.
		for _, t := range s.Targets {
			a.bindTarget(t, scope, SymVariable)
		}
		a.analyzeExpr(s.Value, scope)
	case *pyast.AugAssign:
		a.bindTarget(s.Target, scope, SymVariable)
		a.analyzeExpr(s.Value, scope)
	case *pyast.AnnAssign:
		a.bindTarget(s.Target, scope, SymVariable)
		a.analyzeExpr(s.Annotation, scope)
		a.analyzeExpr(s.Value, scope)
	case *pyast.For:
		a.analyzeExpr(s.Iter, scope)
		a.bindTarget(s.Target, scope, SymVariable)
		a.analyzeStmts(s.Body, scope)
		a.analyzeStmts(s.Orelse, scope)
	case *pyast.While:
		a.analyzeExpr(s.Test, scope)
		a.analyzeStmts(s.Body, scope)
		a.analyzeStmts(s.Orelse, scope)
	case *pyast.If:
		a.analyzeExpr(s.Test, scope)
		a.analyzeStmts(s.Body, scope)
		a.analyzeStmts(s.Orelse, scope)
	case *pyast.With:
		for _, item := range s.Items {
			a.analyzeExpr(item.Context, scope)
			a.bindTarget(item.Target, scope, SymVariable)
		}
		a.analyzeStmts(s.Body, scope)
	case *pyast.Raise:
		a.analyzeExpr(s.Exc, scope)
		a.analyzeExpr(s.Cause, scope)
	case *pyast.Try:
		a.analyzeStmts(s.Body, scope)
		for _, h := range s.Handlers {
			a.analyzeHandler(h, scope)
		}
		a.analyzeStmts(s.Orelse, scope)
		a.analyzeStmts(s.Finalbody, scope)
	case *pyast.Assert:
		a.analyzeExpr(s.Test, scope)
		a.analyzeExpr(s.Msg, scope)
	case *pyast.Import:
		for _, alias := range s.Names {
			name := alias.AsName
			if name == "" {
				name, _, _ = strings.Cut(alias.Name, ".")
			}
			a.define(scope, name, SymImport, alias)
		}
	case *pyast.ImportFrom:
		// Wildcard imports cannot be resolved statically; they bind nothing.
		for _, alias := range s.Names {
			name := alias.AsName
			if name == "" {
				name = alias.Name
			}
			a.define(scope, name, SymImport, alias)
		}
	case *pyast.Global:
		for _, name := range s.Names {
			a.define(scope, name, SymDeclared, s)
		}
	case *pyast.Nonlocal:
		for _, name := range s.Names {
			a.define(scope, name, SymDeclared, s)
		}
	case *pyast.ExprStmt:
		a.analyzeExpr(s.Value, scope)
	case *pyast.TypeAlias:
		// Bound first so that recursive aliases resolve.
		if s.Name != nil {
			a.define(scope, s.Name.ID, SymTypeAlias, s.Name)
		}
		a.analyzeExpr(s.Value, a.typeParamScope(s.TypeParams, s, scope))
	case *pyast.Match:
		// Case bodies run in the current frame; captures bind there too.
		a.analyzeExpr(s.Subject, scope)
		for _, mc := range s.Cases {
			a.bindPattern(mc.Pattern, scope)
			a.analyzeExpr(mc.Guard, scope)
			a.analyzeStmts(mc.Body, scope)
		}
	}
}

// analyzeFunctionDef binds the function name in the enclosing frame, reads
// decorators and defaults there, reads annotations in the frame of its type
// parameters, and walks the body in a new frame holding the parameters.
func (a *analyzer) analyzeFunctionDef(fn *pyast.FunctionDef, scope *Scope) {
	a.define(scope, fn.Name, SymFunction, fn)
	for _, d := range fn.Decorators {
		a.analyzeExpr(d, scope)
	}
	generic := a.typeParamScope(fn.TypeParams, fn, scope)
	a.analyzeParamExprs(fn.Params, generic, scope)
	a.analyzeExpr(fn.Returns, generic)

	body := generic.Push(ScopeFunction, fn)
	a.defineParams(fn.Params, body)
	a.analyzeStmts(fn.Body, body)
}

func (a *analyzer) analyzeClassDef(cls *pyast.ClassDef, scope *Scope) {
	a.define(scope, cls.Name, SymClass, cls)
	for _, d := range cls.Decorators {
		a.analyzeExpr(d, scope)
	}
	generic := a.typeParamScope(cls.TypeParams, cls, scope)
	for _, base := range cls.Bases {
		a.analyzeExpr(base, generic)
	}
	for _, kw := range cls.Keywords {
		a.analyzeExpr(kw.Value, generic)
	}
	a.analyzeStmts(cls.Body, generic.Push(ScopeClass, cls))
}

// typeParamScope returns the frame holding the generic parameters of node,
// with their bounds read in it, or scope itself when there are none.
func (a *analyzer) typeParamScope(params []*pyast.TypeParam, node pyast.Node, scope *Scope) *Scope {
	if len(params) == 0 {
		return scope
	}
	inner := scope.Push(ScopeTypeParams, node)
	for _, tp := range params {
		a.define(inner, tp.Name, SymTypeParam, tp)
	}
	for _, tp := range params {
		a.analyzeExpr(tp.Bound, inner)
	}
	return inner
}

// analyzeHandler reads the exception type in the enclosing frame. The bound
// name lives in a frame of its own and is gone after the handler.
func (a *analyzer) analyzeHandler(h *pyast.ExceptHandler, scope *Scope) {
	a.analyzeExpr(h.Type, scope)
	body := scope.Push(ScopeExcept, h)
	a.define(body, h.Name, SymException, h)
	a.analyzeStmts(h.Body, body)
}

// analyzeParamExprs reads annotations in ann and defaults in def. They
// differ only for generic functions.
func (a *analyzer) analyzeParamExprs(params []*pyast.Param, ann, def *Scope) {
	for _, p := range params {
		a.analyzeExpr(p.Annotation, ann)
		a.analyzeExpr(p.Default, def)
	}
}

func (a *analyzer) defineParams(params []*pyast.Param, scope *Scope) {
	for _, p := range params {
		a.define(scope, p.Name, SymParameter, p)
	}
}

// bindTarget defines the names bound by an assignment-like target. Names
// inside attribute and subscript targets are reads, not bindings.
func (a *analyzer) bindTarget(target pyast.Expr, scope *Scope, kind SymbolKind) {
	switch t := target.(type) {
	case nil:
	case *pyast.Name:
		a.define(scope, t.ID, kind, t)
	case *pyast.Tuple:
		for _, elt := range t.Elts {
			a.bindTarget(elt, scope, kind)
		}
	case *pyast.List:
		for _, elt := range t.Elts {
			a.bindTarget(elt, scope, kind)
		}
	case *pyast.Starred:
		a.bindTarget(t.Value, scope, kind)
	case *pyast.Attribute:
		a.analyzeExpr(t.Value, scope)
	case *pyast.Subscript:
		a.analyzeExpr(t.Value, scope)
		a.analyzeExpr(t.Slice, scope)
	default:
		a.analyzeExpr(target, scope)
	}
}

// bindPattern binds the capture names of a case pattern and reads the
// values in it. The wildcard "_" binds nothing.
func (a *analyzer) bindPattern(pattern pyast.Expr, scope *Scope) {
	switch p := pattern.(type) {
	case nil:
	case *pyast.Name:
		if p.Ctx != pyast.Store {
			a.resolveName(p, scope)
		} else if p.ID != "_" {
			a.define(scope, p.ID, SymVariable, p)
		}
	case *pyast.MatchAs:
		a.bindPattern(p.Pattern, scope)
		if p.Name != nil {
			a.bindPattern(p.Name, scope)
		}
	default:
		for _, child := range pyast.Children(pattern) {
			switch c := child.(type) {
			case pyast.Expr:
				a.bindPattern(c, scope)
			case *pyast.Keyword:
				a.bindPattern(c.Value, scope)
			}
		}
	}
}

// analyzeDelete reads the containers of del targets; deleted names
// themselves are neither reads nor bindings.
func (a *analyzer) analyzeDelete(target pyast.Expr, scope *Scope) {
	switch t := target.(type) {
	case *pyast.Name:
	case *pyast.Tuple:
		for _, elt := range t.Elts {
			a.analyzeDelete(elt, scope)
		}
	case *pyast.List:
		for _, elt := range t.Elts {
			a.analyzeDelete(elt, scope)
		}
	default:
		a.bindTarget(target, scope, SymVariable)
	}
}

func (a *analyzer) analyzeExpr(expr pyast.Expr, scope *Scope) {
	switch e := expr.(type) {
	case nil:
		return
	case *pyast.Name:
		if e.Ctx == pyast.Load {
			a.resolveName(e, scope)
		}
	case *pyast.NamedExpr:
		a.analyzeExpr(e.Value, scope)
		if e.Target != nil {
			a.define(bindingScope(scope), e.Target.ID, SymVariable, e.Target)
		}
	case *pyast.Lambda:
		a.analyzeParamExprs(e.Params, scope, scope)
		body := scope.Push(ScopeLambda, e)
		a.defineParams(e.Params, body)
		a.analyzeExpr(e.Body, body)
	case *pyast.ListComp:
		a.analyzeComprehension(e, e.Generators, scope, e.Elt)
	case *pyast.SetComp:
		a.analyzeComprehension(e, e.Generators, scope, e.Elt)
	case *pyast.GeneratorExp:
		a.analyzeComprehension(e, e.Generators, scope, e.Elt)
	case *pyast.DictComp:
		a.analyzeComprehension(e, e.Generators, scope, e.Key, e.Value)
	default:
		for _, child := range pyast.Children(expr) {
			switch c := child.(type) {
			case pyast.Expr:
				a.analyzeExpr(c, scope)
			case *pyast.Keyword:
				a.analyzeExpr(c.Value, scope)
			}
		}
	}
}

// analyzeComprehension reads the first iterable in the enclosing frame and
// everything else in a comprehension frame holding the loop targets.
func (a *analyzer) analyzeComprehension(node pyast.Expr, gens []*pyast.Comprehension, scope *Scope, elts ...pyast.Expr) {
	inner := scope.Push(ScopeComprehension, node)
	for i, gen := range gens {
		if i == 0 {
			a.analyzeExpr(gen.Iter, scope)
		} else {
			a.analyzeExpr(gen.Iter, inner)
		}
		a.bindTarget(gen.Target, inner, SymVariable)
		for _, cond := range gen.Ifs {
			a.analyzeExpr(cond, inner)
		}
	}
	for _, elt := range elts {
		a.analyzeExpr(elt, inner)
	}
}

// bindingScope returns the frame an assignment expression binds in: the
// nearest frame that is not a comprehension.
func bindingScope(scope *Scope) *Scope {
	for s := scope; s != nil; s = s.Parent {
		if s.Kind != ScopeComprehension {
			return s
		}
	}
	return scope
}

func (a *analyzer) resolveName(name *pyast.Name, scope *Scope) {
	if IsBuiltin(name.ID) || scope.Visible(name.ID) {
		return
	}
	key := refKey{name: name.ID, line: name.Start.Line}
	if a.seen[key] {
		return
	}
	a.seen[key] = true
	a.result.Unresolved = append(a.result.Unresolved, &UnresolvedRef{
		Name: name.ID,
		Node: name,
	})
}
