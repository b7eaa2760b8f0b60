// Copyright © 2024 The ELPS authors

package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/luthersystems/pycheck/pyast"
)

func (c *converter) expr(n *tree_sitter.Node) pyast.Expr {
	return c.exprCtx(n, pyast.Load)
}

// target converts an assignment target; names in it are bound, not read.
func (c *converter) target(n *tree_sitter.Node) pyast.Expr {
	return c.exprCtx(n, pyast.Store)
}

// exprCtx converts n. ctx only affects nodes that can appear on the left of
// an assignment; the inner parts of attributes and subscripts are always
// loads.
func (c *converter) exprCtx(n *tree_sitter.Node, ctx pyast.Context) pyast.Expr {
	if n == nil {
		return nil
	}
	sp := c.span(n)
	switch n.Kind() {
	case "identifier", "keyword_identifier":
		return &pyast.Name{Span: sp, ID: c.text(n), Ctx: ctx}
	case "integer":
		return &pyast.Constant{Span: sp, Kind: numberKind(c.text(n), pyast.ConstInt), Value: c.text(n)}
	case "float":
		return &pyast.Constant{Span: sp, Kind: numberKind(c.text(n), pyast.ConstFloat), Value: c.text(n)}
	case "true":
		return &pyast.Constant{Span: sp, Kind: pyast.ConstTrue, Value: "True"}
	case "false":
		return &pyast.Constant{Span: sp, Kind: pyast.ConstFalse, Value: "False"}
	case "none":
		return &pyast.Constant{Span: sp, Kind: pyast.ConstNone, Value: "None"}
	case "ellipsis":
		return &pyast.Constant{Span: sp, Kind: pyast.ConstEllipsis, Value: "..."}
	case "string", "concatenated_string":
		return c.str(n)
	case "parenthesized_expression":
		if kids := named(n); len(kids) == 1 {
			return c.exprCtx(kids[0], ctx)
		}
	case "expression_list", "pattern_list", "tuple_pattern", "tuple":
		return &pyast.Tuple{Span: sp, Elts: c.elts(n, ctx), Ctx: ctx}
	case "list", "list_pattern":
		return &pyast.List{Span: sp, Elts: c.elts(n, ctx), Ctx: ctx}
	case "set":
		return &pyast.Set{Span: sp, Elts: c.elts(n, pyast.Load)}
	case "list_splat", "list_splat_pattern", "parenthesized_list_splat":
		kids := named(n)
		if len(kids) == 0 {
			break
		}
		return &pyast.Starred{Span: sp, Value: c.exprCtx(kids[0], ctx), Ctx: ctx}
	case "dictionary":
		return c.dict(n)
	case "attribute":
		return &pyast.Attribute{
			Span:  sp,
			Value: c.expr(n.ChildByFieldName("object")),
			Attr:  c.text(n.ChildByFieldName("attribute")),
			Ctx:   ctx,
		}
	case "subscript":
		return c.subscript(n, ctx)
	case "slice":
		return c.slice(n)
	case "call":
		return c.call(n)
	case "binary_operator":
		return &pyast.BinOp{
			Span:  sp,
			Left:  c.expr(n.ChildByFieldName("left")),
			Op:    pyast.ParseOperator(c.text(n.ChildByFieldName("operator"))),
			Right: c.expr(n.ChildByFieldName("right")),
		}
	case "unary_operator":
		return &pyast.UnaryOp{
			Span:    sp,
			Op:      pyast.ParseUnaryOperator(c.text(n.ChildByFieldName("operator"))),
			Operand: c.expr(n.ChildByFieldName("argument")),
		}
	case "not_operator":
		return &pyast.UnaryOp{Span: sp, Op: pyast.Not, Operand: c.expr(n.ChildByFieldName("argument"))}
	case "boolean_operator":
		op := pyast.And
		if c.text(n.ChildByFieldName("operator")) == "or" {
			op = pyast.Or
		}
		return &pyast.BoolOp{
			Span:  sp,
			Op:    op,
			Left:  c.expr(n.ChildByFieldName("left")),
			Right: c.expr(n.ChildByFieldName("right")),
		}
	case "comparison_operator":
		return c.compare(n)
	case "conditional_expression":
		kids := named(n)
		if len(kids) != 3 {
			break
		}
		return &pyast.IfExp{Span: sp, Body: c.expr(kids[0]), Test: c.expr(kids[1]), Orelse: c.expr(kids[2])}
	case "named_expression":
		ne := &pyast.NamedExpr{Span: sp, Value: c.expr(n.ChildByFieldName("value"))}
		if name := n.ChildByFieldName("name"); name != nil {
			ne.Target = &pyast.Name{Span: c.span(name), ID: c.text(name), Ctx: pyast.Store}
		}
		return ne
	case "lambda":
		return &pyast.Lambda{
			Span:   sp,
			Params: c.params(n.ChildByFieldName("parameters")),
			Body:   c.expr(n.ChildByFieldName("body")),
		}
	case "await":
		if kids := named(n); len(kids) > 0 {
			return &pyast.Await{Span: sp, Value: c.expr(kids[0])}
		}
	case "yield":
		y := &pyast.Yield{Span: sp, From: hasToken(n, "from")}
		if kids := named(n); len(kids) > 0 {
			y.Value = c.expr(kids[0])
		}
		return y
	case "list_comprehension":
		elt, gens := c.comprehension(n)
		return &pyast.ListComp{Span: sp, Elt: elt, Generators: gens}
	case "set_comprehension":
		elt, gens := c.comprehension(n)
		return &pyast.SetComp{Span: sp, Elt: elt, Generators: gens}
	case "generator_expression":
		elt, gens := c.comprehension(n)
		return &pyast.GeneratorExp{Span: sp, Elt: elt, Generators: gens}
	case "dictionary_comprehension":
		dc := &pyast.DictComp{Span: sp}
		if body := n.ChildByFieldName("body"); body != nil {
			dc.Key = c.expr(body.ChildByFieldName("key"))
			dc.Value = c.expr(body.ChildByFieldName("value"))
		}
		_, dc.Generators = c.comprehension(n)
		return dc
	case "type":
		if kids := named(n); len(kids) == 1 {
			return c.expr(kids[0])
		}
	}
	op := &pyast.Opaque{Span: sp, Kind: n.Kind()}
	for _, kid := range named(n) {
		op.Children = append(op.Children, c.expr(kid))
	}
	return op
}

// numberKind refines an integer or float literal: a j suffix makes it
// imaginary.
func numberKind(text string, kind pyast.ConstKind) pyast.ConstKind {
	if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
		return pyast.ConstComplex
	}
	return kind
}

func (c *converter) elts(n *tree_sitter.Node, ctx pyast.Context) []pyast.Expr {
	var out []pyast.Expr
	for _, kid := range named(n) {
		out = append(out, c.exprCtx(kid, ctx))
	}
	return out
}

// str converts string literals. f-strings become JoinedStr holding their
// interpolated expressions; other strings are constants.
func (c *converter) str(n *tree_sitter.Node) pyast.Expr {
	parts := []*tree_sitter.Node{n}
	if n.Kind() == "concatenated_string" {
		parts = named(n)
	}
	var (
		values []pyast.Expr
		fstr   bool
		bytes  bool
	)
	for _, part := range parts {
		prefix := strings.ToLower(c.stringPrefix(part))
		if strings.Contains(prefix, "f") {
			fstr = true
		}
		if strings.Contains(prefix, "b") {
			bytes = true
		}
		values = c.interpolations(part, values)
	}
	sp := c.span(n)
	switch {
	case fstr:
		return &pyast.JoinedStr{Span: sp, Values: values}
	case bytes:
		return &pyast.Constant{Span: sp, Kind: pyast.ConstBytes, Value: c.text(n)}
	default:
		return &pyast.Constant{Span: sp, Kind: pyast.ConstStr, Value: c.text(n)}
	}
}

// interpolations appends the expressions of the replacement fields under n,
// including fields nested in a format spec such as "{x:>{width}}".
func (c *converter) interpolations(n *tree_sitter.Node, out []pyast.Expr) []pyast.Expr {
	for _, kid := range named(n) {
		switch kid.Kind() {
		case "interpolation", "format_expression":
			inner := kid.ChildByFieldName("expression")
			if inner == nil {
				if kids := named(kid); len(kids) > 0 && kids[0].Kind() != "format_specifier" {
					inner = kids[0]
				}
			}
			if inner != nil {
				out = append(out, c.expr(inner))
			}
			out = c.interpolations(kid, out)
		case "format_specifier":
			out = c.interpolations(kid, out)
		}
	}
	return out
}

// stringPrefix returns the letters before the opening quote.
func (c *converter) stringPrefix(n *tree_sitter.Node) string {
	text := c.text(n)
	if kids := all(n); len(kids) > 0 && kids[0].Kind() == "string_start" {
		text = c.text(kids[0])
	}
	end := strings.IndexAny(text, `'"`)
	if end < 0 {
		return ""
	}
	return text[:end]
}

func (c *converter) dict(n *tree_sitter.Node) pyast.Expr {
	d := &pyast.Dict{Span: c.span(n)}
	for _, kid := range named(n) {
		switch kid.Kind() {
		case "pair":
			d.Keys = append(d.Keys, c.expr(kid.ChildByFieldName("key")))
			d.Values = append(d.Values, c.expr(kid.ChildByFieldName("value")))
		case "dictionary_splat":
			inner := named(kid)
			if len(inner) == 0 {
				continue
			}
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, c.expr(inner[0]))
		}
	}
	return d
}

func (c *converter) subscript(n *tree_sitter.Node, ctx pyast.Context) pyast.Expr {
	value := n.ChildByFieldName("value")
	sub := &pyast.Subscript{Span: c.span(n), Value: c.expr(value), Ctx: ctx}
	var index []pyast.Expr
	for _, kid := range named(n) {
		if value != nil && kid.StartByte() == value.StartByte() && kid.EndByte() == value.EndByte() {
			continue
		}
		index = append(index, c.expr(kid))
	}
	switch len(index) {
	case 0:
	case 1:
		sub.Slice = index[0]
	default:
		sub.Slice = &pyast.Tuple{Span: index[0].Range(), Elts: index}
	}
	return sub
}

func (c *converter) slice(n *tree_sitter.Node) pyast.Expr {
	s := &pyast.Slice{Span: c.span(n)}
	part := 0
	for _, kid := range all(n) {
		if !kid.IsNamed() {
			if kid.Kind() == ":" {
				part++
			}
			continue
		}
		e := c.expr(kid)
		switch part {
		case 0:
			s.Lower = e
		case 1:
			s.Upper = e
		default:
			s.Step = e
		}
	}
	return s
}

func (c *converter) call(n *tree_sitter.Node) pyast.Expr {
	call := &pyast.Call{Span: c.span(n), Func: c.expr(n.ChildByFieldName("function"))}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return call
	}
	if args.Kind() == "generator_expression" {
		call.Args = []pyast.Expr{c.expr(args)}
		return call
	}
	call.Args, call.Keywords = c.arguments(args)
	return call
}

// arguments splits an argument_list into positional and keyword arguments.
func (c *converter) arguments(n *tree_sitter.Node) ([]pyast.Expr, []*pyast.Keyword) {
	var (
		args []pyast.Expr
		kws  []*pyast.Keyword
	)
	for _, kid := range named(n) {
		switch kid.Kind() {
		case "keyword_argument":
			kws = append(kws, &pyast.Keyword{
				Span:  c.span(kid),
				Arg:   c.text(kid.ChildByFieldName("name")),
				Value: c.expr(kid.ChildByFieldName("value")),
			})
		case "dictionary_splat":
			if inner := named(kid); len(inner) > 0 {
				kws = append(kws, &pyast.Keyword{Span: c.span(kid), Value: c.expr(inner[0])})
			}
		default:
			args = append(args, c.expr(kid))
		}
	}
	return args, kws
}

// compare reads the operand/operator sequence of a comparison chain.
// Two-word operators may arrive as one aliased token or as two tokens.
func (c *converter) compare(n *tree_sitter.Node) pyast.Expr {
	cmp := &pyast.Compare{Span: c.span(n)}
	var pending []string
	for _, kid := range all(n) {
		if !kid.IsNamed() {
			pending = append(pending, kid.Kind())
			continue
		}
		operand := c.expr(kid)
		if cmp.Left == nil {
			cmp.Left = operand
			continue
		}
		cmp.Ops = append(cmp.Ops, pyast.ParseCmpOp(strings.Join(pending, " ")))
		cmp.Comparators = append(cmp.Comparators, operand)
		pending = pending[:0]
	}
	return cmp
}

// comprehension returns the element and the for/if clauses of a
// comprehension node.
func (c *converter) comprehension(n *tree_sitter.Node) (pyast.Expr, []*pyast.Comprehension) {
	var gens []*pyast.Comprehension
	for _, kid := range named(n) {
		switch kid.Kind() {
		case "for_in_clause":
			gen := &pyast.Comprehension{
				Span:   c.span(kid),
				Target: c.target(kid.ChildByFieldName("left")),
				Async:  hasToken(kid, "async"),
			}
			gen.Iter = c.forInIter(kid)
			gens = append(gens, gen)
		case "if_clause":
			if len(gens) == 0 {
				continue
			}
			if inner := named(kid); len(inner) > 0 {
				last := gens[len(gens)-1]
				last.Ifs = append(last.Ifs, c.expr(inner[0]))
			}
		}
	}
	return c.expr(n.ChildByFieldName("body")), gens
}

// forInIter returns the iterable of a for_in_clause. "for x in a, b" has
// several right operands and is read as a tuple.
func (c *converter) forInIter(n *tree_sitter.Node) pyast.Expr {
	left := n.ChildByFieldName("left")
	var rights []pyast.Expr
	for _, kid := range named(n) {
		if left != nil && kid.StartByte() == left.StartByte() && kid.EndByte() == left.EndByte() {
			continue
		}
		rights = append(rights, c.expr(kid))
	}
	switch len(rights) {
	case 0:
		return nil
	case 1:
		return rights[0]
	default:
		return &pyast.Tuple{Span: rights[0].Range(), Elts: rights}
	}
}
