// Copyright © 2024 The ELPS authors

package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/luthersystems/pycheck/pyast"
)

// converter builds pyast nodes from an error-free tree-sitter tree.
type converter struct {
	src []byte
}

func (c *converter) span(n *tree_sitter.Node) pyast.Span {
	start, end := n.StartPosition(), n.EndPosition()
	return pyast.Span{
		Start: pyast.Pos{Line: int(start.Row) + 1, Col: int(start.Column) + 1, Offset: int(n.StartByte())},
		End:   pyast.Pos{Line: int(end.Row) + 1, Col: int(end.Column) + 1, Offset: int(n.EndByte())},
	}
}

func (c *converter) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(c.src)
}

// extra reports node kinds that may appear anywhere and carry no syntax.
func extra(kind string) bool {
	return kind == "comment" || kind == "line_continuation"
}

// named returns the named children of n, without comments.
func named(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	var out []*tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || extra(child.Kind()) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// all returns every child of n, named or not, without comments.
func all(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	var out []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || extra(child.Kind()) {
			continue
		}
		out = append(out, child)
	}
	return out
}

func hasToken(n *tree_sitter.Node, tok string) bool {
	for _, child := range all(n) {
		if !child.IsNamed() && child.Kind() == tok {
			return true
		}
	}
	return false
}

func (c *converter) comments(root *tree_sitter.Node) []*pyast.Comment {
	var out []*pyast.Comment
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		if n.Kind() == "comment" {
			out = append(out, &pyast.Comment{Span: c.span(n), Text: c.text(n)})
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			if child := n.Child(i); child != nil {
				visit(child)
			}
		}
	}
	visit(root)
	return out
}

// block converts the statements of a module or block node.
func (c *converter) block(n *tree_sitter.Node) []pyast.Stmt {
	var out []pyast.Stmt
	for _, child := range named(n) {
		if s := c.stmt(child); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// body converts the block held by field of n.
func (c *converter) body(n *tree_sitter.Node, field string) []pyast.Stmt {
	return c.block(n.ChildByFieldName(field))
}

// clauseBody converts the block of an else or finally clause.
func (c *converter) clauseBody(n *tree_sitter.Node) []pyast.Stmt {
	if b := n.ChildByFieldName("body"); b != nil {
		return c.block(b)
	}
	for _, child := range named(n) {
		if child.Kind() == "block" {
			return c.block(child)
		}
	}
	return nil
}

func (c *converter) stmt(n *tree_sitter.Node) pyast.Stmt {
	sp := c.span(n)
	switch n.Kind() {
	case "expression_statement":
		return c.exprStatement(n)
	case "return_statement":
		ret := &pyast.Return{Span: sp}
		if kids := named(n); len(kids) > 0 {
			ret.Value = c.expr(kids[0])
		}
		return ret
	case "delete_statement":
		del := &pyast.Delete{Span: sp}
		for _, kid := range named(n) {
			if kid.Kind() == "expression_list" {
				for _, e := range named(kid) {
					del.Targets = append(del.Targets, c.exprCtx(e, pyast.Del))
				}
				continue
			}
			del.Targets = append(del.Targets, c.exprCtx(kid, pyast.Del))
		}
		return del
	case "raise_statement":
		r := &pyast.Raise{Span: sp}
		cause := n.ChildByFieldName("cause")
		for _, kid := range named(n) {
			if cause != nil && kid.StartByte() == cause.StartByte() {
				continue
			}
			if r.Exc == nil {
				r.Exc = c.expr(kid)
			}
		}
		if cause != nil {
			r.Cause = c.expr(cause)
		}
		return r
	case "pass_statement":
		return &pyast.Pass{Span: sp}
	case "break_statement":
		return &pyast.Break{Span: sp}
	case "continue_statement":
		return &pyast.Continue{Span: sp}
	case "global_statement":
		return &pyast.Global{Span: sp, Names: c.identifiers(n)}
	case "nonlocal_statement":
		return &pyast.Nonlocal{Span: sp, Names: c.identifiers(n)}
	case "assert_statement":
		a := &pyast.Assert{Span: sp}
		kids := named(n)
		if len(kids) > 0 {
			a.Test = c.expr(kids[0])
		}
		if len(kids) > 1 {
			a.Msg = c.expr(kids[1])
		}
		return a
	case "import_statement":
		imp := &pyast.Import{Span: sp}
		for _, kid := range named(n) {
			if a := c.alias(kid); a != nil {
				imp.Names = append(imp.Names, a)
			}
		}
		return imp
	case "import_from_statement", "future_import_statement":
		return c.importFrom(n)
	case "if_statement":
		return c.ifStatement(n)
	case "for_statement":
		return &pyast.For{
			Span:   sp,
			Target: c.target(n.ChildByFieldName("left")),
			Iter:   c.expr(n.ChildByFieldName("right")),
			Body:   c.body(n, "body"),
			Orelse: c.elseOf(n),
			Async:  hasToken(n, "async"),
		}
	case "while_statement":
		return &pyast.While{
			Span:   sp,
			Test:   c.expr(n.ChildByFieldName("condition")),
			Body:   c.body(n, "body"),
			Orelse: c.elseOf(n),
		}
	case "try_statement":
		return c.tryStatement(n)
	case "with_statement":
		return c.withStatement(n)
	case "function_definition":
		return c.functionDef(n)
	case "class_definition":
		return c.classDef(n)
	case "decorated_definition":
		return c.decorated(n)
	case "match_statement":
		return c.matchStatement(n)
	case "type_alias_statement":
		return c.typeAlias(n)
	}
	// Anything newer: no opinion.
	return nil
}

func (c *converter) exprStatement(n *tree_sitter.Node) pyast.Stmt {
	kids := named(n)
	if len(kids) == 1 {
		switch kids[0].Kind() {
		case "assignment":
			return c.assignment(kids[0])
		case "augmented_assignment":
			return c.augAssignment(kids[0])
		}
		return &pyast.ExprStmt{Span: c.span(n), Value: c.expr(kids[0])}
	}
	tup := &pyast.Tuple{Span: c.span(n)}
	for _, kid := range kids {
		tup.Elts = append(tup.Elts, c.expr(kid))
	}
	return &pyast.ExprStmt{Span: c.span(n), Value: tup}
}

// assignment flattens chained assignments "a = b = value" into one Assign.
func (c *converter) assignment(n *tree_sitter.Node) pyast.Stmt {
	left := n.ChildByFieldName("left")
	if typ := n.ChildByFieldName("type"); typ != nil {
		ann := &pyast.AnnAssign{
			Span:       c.span(n),
			Target:     c.target(left),
			Annotation: c.expr(typ),
		}
		if right := n.ChildByFieldName("right"); right != nil {
			ann.Value = c.expr(right)
		}
		return ann
	}
	as := &pyast.Assign{Span: c.span(n), Targets: []pyast.Expr{c.target(left)}}
	right := n.ChildByFieldName("right")
	for right != nil && right.Kind() == "assignment" && right.ChildByFieldName("type") == nil {
		as.Targets = append(as.Targets, c.target(right.ChildByFieldName("left")))
		right = right.ChildByFieldName("right")
	}
	as.Value = c.expr(right)
	return as
}

func (c *converter) augAssignment(n *tree_sitter.Node) pyast.Stmt {
	return &pyast.AugAssign{
		Span:   c.span(n),
		Target: c.target(n.ChildByFieldName("left")),
		Op:     pyast.ParseOperator(c.text(n.ChildByFieldName("operator"))),
		Value:  c.expr(n.ChildByFieldName("right")),
	}
}

func (c *converter) identifiers(n *tree_sitter.Node) []string {
	var names []string
	for _, kid := range named(n) {
		names = append(names, c.text(kid))
	}
	return names
}

func (c *converter) alias(n *tree_sitter.Node) *pyast.Alias {
	switch n.Kind() {
	case "dotted_name", "identifier":
		return &pyast.Alias{Span: c.span(n), Name: c.text(n)}
	case "aliased_import":
		return &pyast.Alias{
			Span:   c.span(n),
			Name:   c.text(n.ChildByFieldName("name")),
			AsName: c.text(n.ChildByFieldName("alias")),
		}
	}
	return nil
}

func (c *converter) importFrom(n *tree_sitter.Node) pyast.Stmt {
	imp := &pyast.ImportFrom{Span: c.span(n)}
	module := n.ChildByFieldName("module_name")
	if n.Kind() == "future_import_statement" {
		imp.Module = "__future__"
	} else if module != nil {
		text := c.text(module)
		imp.Level = len(text) - len(strings.TrimLeft(text, "."))
		imp.Module = strings.TrimLeft(text, ".")
	}
	for _, kid := range named(n) {
		if module != nil && kid.StartByte() == module.StartByte() {
			continue
		}
		if kid.Kind() == "wildcard_import" {
			imp.Wildcard = true
			continue
		}
		if a := c.alias(kid); a != nil {
			imp.Names = append(imp.Names, a)
		}
	}
	return imp
}

// ifStatement folds elif and else clauses into nested Orelse lists.
func (c *converter) ifStatement(n *tree_sitter.Node) pyast.Stmt {
	root := &pyast.If{
		Span: c.span(n),
		Test: c.expr(n.ChildByFieldName("condition")),
		Body: c.body(n, "consequence"),
	}
	tail := root
	for _, kid := range named(n) {
		switch kid.Kind() {
		case "elif_clause":
			elif := &pyast.If{
				Span: c.span(kid),
				Test: c.expr(kid.ChildByFieldName("condition")),
				Body: c.body(kid, "consequence"),
			}
			tail.Orelse = []pyast.Stmt{elif}
			tail = elif
		case "else_clause":
			tail.Orelse = c.clauseBody(kid)
		}
	}
	return root
}

func (c *converter) elseOf(n *tree_sitter.Node) []pyast.Stmt {
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		return c.clauseBody(alt)
	}
	return nil
}

func (c *converter) tryStatement(n *tree_sitter.Node) pyast.Stmt {
	t := &pyast.Try{Span: c.span(n), Body: c.body(n, "body")}
	for _, kid := range named(n) {
		switch kid.Kind() {
		case "except_clause", "except_group_clause":
			t.Handlers = append(t.Handlers, c.exceptHandler(kid))
		case "else_clause":
			t.Orelse = c.clauseBody(kid)
		case "finally_clause":
			t.Finalbody = c.clauseBody(kid)
		}
	}
	return t
}

// exceptHandler accepts both "except E as name" layouts produced by
// different grammar releases: a bare expression followed by an "as" token,
// or a single as_pattern.
func (c *converter) exceptHandler(n *tree_sitter.Node) *pyast.ExceptHandler {
	h := &pyast.ExceptHandler{Span: c.span(n)}
	sawAs := false
	for _, kid := range all(n) {
		if !kid.IsNamed() {
			if kid.Kind() == "as" {
				sawAs = true
			}
			continue
		}
		switch {
		case kid.Kind() == "block":
			h.Body = c.block(kid)
		case sawAs && h.Name == "":
			h.Name = c.text(kid)
		case kid.Kind() == "as_pattern" && h.Type == nil:
			if inner := named(kid); len(inner) > 0 {
				h.Type = c.expr(inner[0])
			}
			h.Name = c.patternName(kid.ChildByFieldName("alias"))
		case h.Type == nil:
			h.Type = c.expr(kid)
		}
	}
	return h
}

// patternName unwraps an as_pattern_target to its identifier text.
func (c *converter) patternName(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind() == "as_pattern_target" {
		if inner := named(n); len(inner) > 0 {
			return c.text(inner[0])
		}
	}
	return c.text(n)
}

func (c *converter) withStatement(n *tree_sitter.Node) pyast.Stmt {
	w := &pyast.With{
		Span:  c.span(n),
		Body:  c.body(n, "body"),
		Async: hasToken(n, "async"),
	}
	var collect func(*tree_sitter.Node)
	collect = func(node *tree_sitter.Node) {
		for _, kid := range named(node) {
			switch kid.Kind() {
			case "with_clause":
				collect(kid)
			case "with_item":
				w.Items = append(w.Items, c.withItem(kid))
			}
		}
	}
	collect(n)
	return w
}

func (c *converter) withItem(n *tree_sitter.Node) *pyast.WithItem {
	item := &pyast.WithItem{Span: c.span(n)}
	value := n.ChildByFieldName("value")
	if value == nil {
		if kids := named(n); len(kids) > 0 {
			value = kids[0]
		}
	}
	if value == nil {
		return item
	}
	if value.Kind() == "as_pattern" {
		if inner := named(value); len(inner) > 0 {
			item.Context = c.expr(inner[0])
		}
		item.Target = c.aliasTarget(value.ChildByFieldName("alias"))
		return item
	}
	item.Context = c.expr(value)
	if alias := n.ChildByFieldName("alias"); alias != nil {
		item.Target = c.aliasTarget(alias)
	}
	return item
}

func (c *converter) aliasTarget(n *tree_sitter.Node) pyast.Expr {
	if n == nil {
		return nil
	}
	if n.Kind() == "as_pattern_target" {
		if inner := named(n); len(inner) > 0 {
			return c.target(inner[0])
		}
	}
	return c.target(n)
}

func (c *converter) functionDef(n *tree_sitter.Node) *pyast.FunctionDef {
	fn := &pyast.FunctionDef{
		Span:       c.span(n),
		Name:       c.text(n.ChildByFieldName("name")),
		TypeParams: c.typeParamsOf(n),
		Params:     c.params(n.ChildByFieldName("parameters")),
		Body:       c.body(n, "body"),
		Async:      hasToken(n, "async"),
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		fn.Returns = c.expr(ret)
	}
	return fn
}

func (c *converter) classDef(n *tree_sitter.Node) *pyast.ClassDef {
	cls := &pyast.ClassDef{
		Span:       c.span(n),
		Name:       c.text(n.ChildByFieldName("name")),
		TypeParams: c.typeParamsOf(n),
		Body:       c.body(n, "body"),
	}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		cls.Bases, cls.Keywords = c.arguments(supers)
	}
	return cls
}

func (c *converter) decorated(n *tree_sitter.Node) pyast.Stmt {
	var decorators []pyast.Expr
	for _, kid := range named(n) {
		if kid.Kind() != "decorator" {
			continue
		}
		if inner := named(kid); len(inner) > 0 {
			decorators = append(decorators, c.expr(inner[0]))
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return nil
	}
	switch def.Kind() {
	case "function_definition":
		fn := c.functionDef(def)
		fn.Decorators = decorators
		return fn
	case "class_definition":
		cls := c.classDef(def)
		cls.Decorators = decorators
		return cls
	}
	return nil
}

// params converts a parameters or lambda_parameters node.
func (c *converter) params(n *tree_sitter.Node) []*pyast.Param {
	var out []*pyast.Param
	for _, kid := range named(n) {
		if p := c.param(kid); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (c *converter) param(n *tree_sitter.Node) *pyast.Param {
	p := &pyast.Param{Span: c.span(n)}
	switch n.Kind() {
	case "identifier":
		p.Name = c.text(n)
	case "default_parameter":
		p.Name = c.text(n.ChildByFieldName("name"))
		p.Default = c.expr(n.ChildByFieldName("value"))
	case "typed_parameter":
		kids := named(n)
		if len(kids) == 0 {
			return nil
		}
		inner := c.param(kids[0])
		if inner == nil {
			return nil
		}
		p.Name, p.Kind = inner.Name, inner.Kind
		if typ := n.ChildByFieldName("type"); typ != nil {
			p.Annotation = c.expr(typ)
		}
	case "typed_default_parameter":
		p.Name = c.text(n.ChildByFieldName("name"))
		if typ := n.ChildByFieldName("type"); typ != nil {
			p.Annotation = c.expr(typ)
		}
		p.Default = c.expr(n.ChildByFieldName("value"))
	case "list_splat_pattern":
		p.Kind = pyast.ParamVarArgs
		if kids := named(n); len(kids) > 0 {
			p.Name = c.text(kids[0])
		}
	case "dictionary_splat_pattern":
		p.Kind = pyast.ParamKwArgs
		if kids := named(n); len(kids) > 0 {
			p.Name = c.text(kids[0])
		}
	default:
		// keyword/positional separators and legacy tuple parameters
		return nil
	}
	if p.Name == "" {
		return nil
	}
	return p
}
