// Copyright © 2024 The ELPS authors

package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/luthersystems/pycheck/pyast"
)

// matchStatement converts a match statement. Subjects precede the block of
// case clauses.
func (c *converter) matchStatement(n *tree_sitter.Node) pyast.Stmt {
	m := &pyast.Match{Span: c.span(n)}
	var subjects []pyast.Expr
	for _, kid := range named(n) {
		if kid.Kind() != "block" {
			subjects = append(subjects, c.expr(kid))
			continue
		}
		for _, clause := range named(kid) {
			if clause.Kind() == "case_clause" {
				m.Cases = append(m.Cases, c.matchCase(clause))
			}
		}
	}
	m.Subject = tupleOf(subjects)
	return m
}

func (c *converter) matchCase(n *tree_sitter.Node) *pyast.MatchCase {
	mc := &pyast.MatchCase{Span: c.span(n)}
	var patterns []pyast.Expr
	for _, kid := range named(n) {
		switch kid.Kind() {
		case "case_pattern":
			patterns = append(patterns, c.pattern(kid))
		case "if_clause":
			if inner := named(kid); len(inner) > 0 {
				mc.Guard = c.expr(inner[0])
			}
		case "block":
			mc.Body = c.block(kid)
		}
	}
	mc.Pattern = tupleOf(patterns)
	return mc
}

// tupleOf returns the single element of es, or a Tuple of all of them.
func tupleOf(es []pyast.Expr) pyast.Expr {
	switch len(es) {
	case 0:
		return nil
	case 1:
		return es[0]
	}
	return &pyast.Tuple{
		Span: pyast.Span{Start: es[0].Range().Start, End: es[len(es)-1].Range().End},
		Elts: es,
	}
}

// pattern converts a case pattern into an expression tree. A bare name
// captures and gets Store context; dotted names are values and are read.
// The wildcard "_" is a Store name the analyzer never binds.
func (c *converter) pattern(n *tree_sitter.Node) pyast.Expr {
	if n == nil {
		return nil
	}
	sp := c.span(n)
	switch n.Kind() {
	case "case_pattern":
		kids := named(n)
		switch {
		case len(kids) == 0:
			return &pyast.Name{Span: sp, ID: "_", Ctx: pyast.Store}
		case len(kids) == 1 && hasToken(n, "-"):
			return &pyast.UnaryOp{Span: sp, Op: pyast.USub, Operand: c.expr(kids[0])}
		case len(kids) == 1:
			return c.pattern(kids[0])
		}
		return &pyast.Tuple{Span: sp, Elts: c.patterns(n), Ctx: pyast.Store}
	case "as_pattern":
		as := &pyast.MatchAs{Span: sp}
		kids := named(n)
		if len(kids) > 0 {
			as.Pattern = c.pattern(kids[0])
		}
		if len(kids) > 1 {
			last := kids[len(kids)-1]
			as.Name = &pyast.Name{Span: c.span(last), ID: c.patternName(last), Ctx: pyast.Store}
		}
		return as
	case "dotted_name":
		ids := named(n)
		if len(ids) == 1 {
			return &pyast.Name{Span: sp, ID: c.text(ids[0]), Ctx: pyast.Store}
		}
		return c.dotted(ids)
	case "class_pattern":
		call := &pyast.Call{Span: sp}
		for _, kid := range named(n) {
			switch kid.Kind() {
			case "dotted_name":
				call.Func = c.dotted(named(kid))
			case "keyword_pattern":
				call.Keywords = append(call.Keywords, c.keywordPattern(kid))
			case "case_pattern":
				if inner := named(kid); len(inner) == 1 && inner[0].Kind() == "keyword_pattern" {
					call.Keywords = append(call.Keywords, c.keywordPattern(inner[0]))
					continue
				}
				call.Args = append(call.Args, c.pattern(kid))
			}
		}
		return call
	case "keyword_pattern":
		return c.keywordPattern(n).Value
	case "splat_pattern":
		name := &pyast.Name{Span: sp, ID: "_", Ctx: pyast.Store}
		if kids := named(n); len(kids) > 0 {
			name = &pyast.Name{Span: c.span(kids[0]), ID: c.text(kids[0]), Ctx: pyast.Store}
		}
		return &pyast.Starred{Span: sp, Value: name, Ctx: pyast.Store}
	case "list_pattern":
		return &pyast.List{Span: sp, Elts: c.patterns(n), Ctx: pyast.Store}
	case "tuple_pattern":
		return &pyast.Tuple{Span: sp, Elts: c.patterns(n), Ctx: pyast.Store}
	case "union_pattern":
		return &pyast.Opaque{Span: sp, Kind: n.Kind(), Children: c.patterns(n)}
	case "dict_pattern":
		return c.dictPattern(n)
	}
	// Literals and value forms.
	return c.expr(n)
}

func (c *converter) patterns(n *tree_sitter.Node) []pyast.Expr {
	var out []pyast.Expr
	for _, kid := range named(n) {
		out = append(out, c.pattern(kid))
	}
	return out
}

func (c *converter) keywordPattern(n *tree_sitter.Node) *pyast.Keyword {
	kw := &pyast.Keyword{Span: c.span(n)}
	kids := named(n)
	if len(kids) > 0 {
		kw.Arg = c.text(kids[0])
	}
	if len(kids) > 1 {
		kw.Value = c.pattern(kids[1])
	}
	return kw
}

// dictPattern pairs keys with value patterns. "**rest" becomes a nil key.
// Keys are values, so a dotted key is read.
func (c *converter) dictPattern(n *tree_sitter.Node) pyast.Expr {
	d := &pyast.Dict{Span: c.span(n)}
	var key pyast.Expr
	haveKey := false
	for _, kid := range named(n) {
		switch {
		case kid.Kind() == "splat_pattern":
			d.Keys = append(d.Keys, nil)
			if inner := named(kid); len(inner) > 0 {
				d.Values = append(d.Values, &pyast.Name{Span: c.span(inner[0]), ID: c.text(inner[0]), Ctx: pyast.Store})
			} else {
				d.Values = append(d.Values, &pyast.Name{Span: c.span(kid), ID: "_", Ctx: pyast.Store})
			}
		case !haveKey:
			if kid.Kind() == "dotted_name" {
				key = c.dotted(named(kid))
			} else {
				key = c.expr(kid)
			}
			haveKey = true
		default:
			d.Keys = append(d.Keys, key)
			d.Values = append(d.Values, c.pattern(kid))
			key, haveKey = nil, false
		}
	}
	return d
}

// dotted builds a chain of attribute reads from the identifiers of a dotted
// name.
func (c *converter) dotted(ids []*tree_sitter.Node) pyast.Expr {
	var e pyast.Expr
	for _, id := range ids {
		if e == nil {
			e = &pyast.Name{Span: c.span(id), ID: c.text(id), Ctx: pyast.Load}
			continue
		}
		e = &pyast.Attribute{
			Span:  pyast.Span{Start: e.Range().Start, End: c.span(id).End},
			Value: e,
			Attr:  c.text(id),
			Ctx:   pyast.Load,
		}
	}
	return e
}

// typeAlias converts "type Name[params] = value". Grammar releases differ
// in whether the parameters hang off the statement or the left-hand type.
func (c *converter) typeAlias(n *tree_sitter.Node) pyast.Stmt {
	left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
	if kids := named(n); left == nil && len(kids) > 0 {
		left, right = kids[0], kids[len(kids)-1]
	}
	ta := &pyast.TypeAlias{Span: c.span(n), TypeParams: c.typeParamsOf(n)}
	switch left = unwrapType(left); {
	case left == nil:
		return nil
	case left.Kind() == "identifier":
		ta.Name = &pyast.Name{Span: c.span(left), ID: c.text(left), Ctx: pyast.Store}
	case left.Kind() == "generic_type":
		for _, kid := range named(left) {
			switch kid.Kind() {
			case "identifier":
				if ta.Name == nil {
					ta.Name = &pyast.Name{Span: c.span(kid), ID: c.text(kid), Ctx: pyast.Store}
				}
			case "type_parameter":
				ta.TypeParams = c.typeParams(kid)
			}
		}
	case left.Kind() == "subscript":
		// "Name[T]" read as an expression.
		value := left.ChildByFieldName("value")
		if value == nil || value.Kind() != "identifier" {
			return nil
		}
		ta.Name = &pyast.Name{Span: c.span(value), ID: c.text(value), Ctx: pyast.Store}
		for _, kid := range named(left) {
			if kid.StartByte() != value.StartByte() && kid.Kind() == "identifier" {
				ta.TypeParams = append(ta.TypeParams, &pyast.TypeParam{Span: c.span(kid), Name: c.text(kid)})
			}
		}
	}
	if ta.Name == nil {
		return nil
	}
	ta.Value = c.expr(right)
	return ta
}

// typeParamsOf returns the generic parameters of a def, class or type alias.
func (c *converter) typeParamsOf(n *tree_sitter.Node) []*pyast.TypeParam {
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		return c.typeParams(tp)
	}
	for _, kid := range named(n) {
		if kid.Kind() == "type_parameter" {
			return c.typeParams(kid)
		}
	}
	return nil
}

func (c *converter) typeParams(n *tree_sitter.Node) []*pyast.TypeParam {
	var out []*pyast.TypeParam
	for _, kid := range named(n) {
		if tp := c.typeParam(kid); tp != nil {
			out = append(out, tp)
		}
	}
	return out
}

// typeParam reads "T", "T: bound", "*Ts" or "**P".
func (c *converter) typeParam(n *tree_sitter.Node) *pyast.TypeParam {
	tp := &pyast.TypeParam{Span: c.span(n)}
	switch node := unwrapType(n); node.Kind() {
	case "identifier":
		tp.Name = c.text(node)
	case "splat_type":
		if kids := named(node); len(kids) > 0 {
			tp.Name = c.text(kids[0])
		}
	case "constrained_type":
		kids := named(node)
		if len(kids) != 2 {
			return nil
		}
		if name := unwrapType(kids[0]); name.Kind() == "identifier" {
			tp.Name = c.text(name)
		}
		tp.Bound = c.expr(kids[1])
	}
	if tp.Name == "" {
		return nil
	}
	return tp
}

// unwrapType strips "type" wrappers that hold a single node.
func unwrapType(n *tree_sitter.Node) *tree_sitter.Node {
	for n != nil && n.Kind() == "type" {
		kids := named(n)
		if len(kids) != 1 {
			break
		}
		n = kids[0]
	}
	return n
}
