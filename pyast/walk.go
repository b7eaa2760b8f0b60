// Copyright © 2024 The ELPS authors

package pyast

// Inspect traverses the tree rooted at node depth-first, in source order.
// fn is called for every node; if it returns false the node's children are
// skipped. Params, type params, keywords, aliases, handlers, with items,
// match cases and comprehension clauses are visited as nodes of their own.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Inspect(child, fn)
	}
}

// Walk calls fn for every node in the tree, depth-first. parent is nil for
// the root and depth is 0 at the root.
func Walk(root Node, fn func(node, parent Node, depth int)) {
	walkNode(root, nil, 0, fn)
}

func walkNode(node, parent Node, depth int, fn func(Node, Node, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	for _, child := range Children(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// Children returns the direct children of n in source order. Nil fields are
// omitted.
func Children(n Node) []Node {
	var c children
	switch n := n.(type) {
	case *Module:
		c.stmts(n.Body)
	case *FunctionDef:
		c.exprs(n.Decorators)
		c.typeParams(n.TypeParams)
		for _, p := range n.Params {
			c.add(p)
		}
		c.expr(n.Returns)
		c.stmts(n.Body)
	case *ClassDef:
		c.exprs(n.Decorators)
		c.typeParams(n.TypeParams)
		c.exprs(n.Bases)
		c.keywords(n.Keywords)
		c.stmts(n.Body)
	case *Return:
		c.expr(n.Value)
	case *Delete:
		c.exprs(n.Targets)
	case *Assign:
		c.exprs(n.Targets)
		c.expr(n.Value)
	case *AugAssign:
		c.expr(n.Target)
		c.expr(n.Value)
	case *AnnAssign:
		c.expr(n.Target)
		c.expr(n.Annotation)
		c.expr(n.Value)
	case *For:
		c.expr(n.Target)
		c.expr(n.Iter)
		c.stmts(n.Body)
		c.stmts(n.Orelse)
	case *While:
		c.expr(n.Test)
		c.stmts(n.Body)
		c.stmts(n.Orelse)
	case *If:
		c.expr(n.Test)
		c.stmts(n.Body)
		c.stmts(n.Orelse)
	case *With:
		for _, item := range n.Items {
			c.add(item)
		}
		c.stmts(n.Body)
	case *WithItem:
		c.expr(n.Context)
		c.expr(n.Target)
	case *Raise:
		c.expr(n.Exc)
		c.expr(n.Cause)
	case *Try:
		c.stmts(n.Body)
		for _, h := range n.Handlers {
			c.add(h)
		}
		c.stmts(n.Orelse)
		c.stmts(n.Finalbody)
	case *ExceptHandler:
		c.expr(n.Type)
		c.stmts(n.Body)
	case *Assert:
		c.expr(n.Test)
		c.expr(n.Msg)
	case *Import:
		for _, a := range n.Names {
			c.add(a)
		}
	case *ImportFrom:
		for _, a := range n.Names {
			c.add(a)
		}
	case *ExprStmt:
		c.expr(n.Value)
	case *TypeAlias:
		if n.Name != nil {
			c.add(n.Name)
		}
		c.typeParams(n.TypeParams)
		c.expr(n.Value)
	case *TypeParam:
		c.expr(n.Bound)
	case *Match:
		c.expr(n.Subject)
		for _, mc := range n.Cases {
			c.add(mc)
		}
	case *MatchCase:
		c.expr(n.Pattern)
		c.expr(n.Guard)
		c.stmts(n.Body)
	case *MatchAs:
		c.expr(n.Pattern)
		if n.Name != nil {
			c.add(n.Name)
		}
	case *Param:
		c.expr(n.Annotation)
		c.expr(n.Default)
	case *Keyword:
		c.expr(n.Value)
	case *BoolOp:
		c.expr(n.Left)
		c.expr(n.Right)
	case *NamedExpr:
		if n.Target != nil {
			c.add(n.Target)
		}
		c.expr(n.Value)
	case *BinOp:
		c.expr(n.Left)
		c.expr(n.Right)
	case *UnaryOp:
		c.expr(n.Operand)
	case *Lambda:
		for _, p := range n.Params {
			c.add(p)
		}
		c.expr(n.Body)
	case *IfExp:
		c.expr(n.Body)
		c.expr(n.Test)
		c.expr(n.Orelse)
	case *Dict:
		for i := range n.Values {
			if i < len(n.Keys) {
				c.expr(n.Keys[i])
			}
			c.expr(n.Values[i])
		}
	case *Set:
		c.exprs(n.Elts)
	case *ListComp:
		c.expr(n.Elt)
		c.comprehensions(n.Generators)
	case *SetComp:
		c.expr(n.Elt)
		c.comprehensions(n.Generators)
	case *DictComp:
		c.expr(n.Key)
		c.expr(n.Value)
		c.comprehensions(n.Generators)
	case *GeneratorExp:
		c.expr(n.Elt)
		c.comprehensions(n.Generators)
	case *Comprehension:
		c.expr(n.Target)
		c.expr(n.Iter)
		c.exprs(n.Ifs)
	case *Await:
		c.expr(n.Value)
	case *Yield:
		c.expr(n.Value)
	case *Compare:
		c.expr(n.Left)
		c.exprs(n.Comparators)
	case *Call:
		c.expr(n.Func)
		c.exprs(n.Args)
		c.keywords(n.Keywords)
	case *JoinedStr:
		c.exprs(n.Values)
	case *Attribute:
		c.expr(n.Value)
	case *Subscript:
		c.expr(n.Value)
		c.expr(n.Slice)
	case *Starred:
		c.expr(n.Value)
	case *List:
		c.exprs(n.Elts)
	case *Tuple:
		c.exprs(n.Elts)
	case *Slice:
		c.expr(n.Lower)
		c.expr(n.Upper)
		c.expr(n.Step)
	case *Opaque:
		c.exprs(n.Children)
	}
	return c
}

type children []Node

func (c *children) add(n Node) { *c = append(*c, n) }

func (c *children) expr(e Expr) {
	if e != nil {
		*c = append(*c, e)
	}
}

func (c *children) exprs(es []Expr) {
	for _, e := range es {
		c.expr(e)
	}
}

func (c *children) stmts(ss []Stmt) {
	for _, s := range ss {
		if s != nil {
			*c = append(*c, s)
		}
	}
}

func (c *children) keywords(kws []*Keyword) {
	for _, kw := range kws {
		c.add(kw)
	}
}

func (c *children) typeParams(tps []*TypeParam) {
	for _, tp := range tps {
		c.add(tp)
	}
}

func (c *children) comprehensions(gens []*Comprehension) {
	for _, g := range gens {
		c.add(g)
	}
}
