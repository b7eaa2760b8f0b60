// Copyright © 2024 The ELPS authors

// Package pyast defines the syntax tree that the checkers consume.
//
// The tree is a closed sum type: every statement implements Stmt and every
// expression implements Expr, and consumers dispatch with type switches.
// Node kinds a consumer does not recognize must be treated as "no opinion".
package pyast

// Pos is a position in a source buffer. Line and Col are 1-based; Col counts
// bytes. Offset is the 0-based byte offset.
type Pos struct {
	Line   int
	Col    int
	Offset int
}

// Span is the half-open byte range covered by a node.
type Span struct {
	Start Pos
	End   Pos
}

// Range returns the span itself. Nodes embed Span, which makes Range part of
// their method set.
func (s Span) Range() Span { return s }

// Node is any element of the tree.
type Node interface {
	Range() Span
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Context tells whether a name or container is read, bound or deleted.
type Context int

const (
	Load Context = iota
	Store
	Del
)

func (c Context) String() string {
	switch c {
	case Load:
		return "load"
	case Store:
		return "store"
	case Del:
		return "del"
	default:
		return "unknown"
	}
}

// Module is the root of a parsed file.
type Module struct {
	Span
	Filename string
	Source   []byte
	Body     []Stmt
	Comments []*Comment
}

// Comment is a "#" comment. Text includes the leading "#".
type Comment struct {
	Span
	Text string
}

// Snippet returns the exact source text covered by n, or "" when the span
// falls outside the buffer.
func (m *Module) Snippet(n Node) string {
	if m == nil || n == nil {
		return ""
	}
	sp := n.Range()
	if sp.Start.Offset < 0 || sp.End.Offset > len(m.Source) || sp.Start.Offset > sp.End.Offset {
		return ""
	}
	return string(m.Source[sp.Start.Offset:sp.End.Offset])
}

// Statements.
type (
	// FunctionDef is a def or async def statement.
	FunctionDef struct {
		Span
		Name       string
		TypeParams []*TypeParam
		Params     []*Param
		Decorators []Expr
		Returns    Expr
		Body       []Stmt
		Async      bool
	}

	// ClassDef is a class statement.
	ClassDef struct {
		Span
		Name       string
		TypeParams []*TypeParam
		Bases      []Expr
		Keywords   []*Keyword
		Decorators []Expr
		Body       []Stmt
	}

	Return struct {
		Span
		Value Expr
	}

	Delete struct {
		Span
		Targets []Expr
	}

	// Assign holds every target of a chained assignment, left to right.
	Assign struct {
		Span
		Targets []Expr
		Value   Expr
	}

	AugAssign struct {
		Span
		Target Expr
		Op     Operator
		Value  Expr
	}

	// AnnAssign is an annotated assignment. Value is nil for a bare
	// annotation such as "x: int".
	AnnAssign struct {
		Span
		Target     Expr
		Annotation Expr
		Value      Expr
	}

	For struct {
		Span
		Target Expr
		Iter   Expr
		Body   []Stmt
		Orelse []Stmt
		Async  bool
	}

	While struct {
		Span
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	// If models elif chains as a nested If in Orelse.
	If struct {
		Span
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	With struct {
		Span
		Items []*WithItem
		Body  []Stmt
		Async bool
	}

	WithItem struct {
		Span
		Context Expr
		Target  Expr
	}

	Raise struct {
		Span
		Exc   Expr
		Cause Expr
	}

	Try struct {
		Span
		Body      []Stmt
		Handlers  []*ExceptHandler
		Orelse    []Stmt
		Finalbody []Stmt
	}

	// ExceptHandler is one except clause. Type is nil for a bare except and
	// Name is empty when there is no "as" binding.
	ExceptHandler struct {
		Span
		Type Expr
		Name string
		Body []Stmt
	}

	Assert struct {
		Span
		Test Expr
		Msg  Expr
	}

	Import struct {
		Span
		Names []*Alias
	}

	// ImportFrom is "from module import names". Level counts leading dots.
	ImportFrom struct {
		Span
		Module   string
		Level    int
		Names    []*Alias
		Wildcard bool
	}

	// Alias is one imported name. Name may be dotted.
	Alias struct {
		Span
		Name   string
		AsName string
	}

	Global struct {
		Span
		Names []string
	}

	Nonlocal struct {
		Span
		Names []string
	}

	ExprStmt struct {
		Span
		Value Expr
	}

	// TypeAlias is "type Name[params] = value".
	TypeAlias struct {
		Span
		Name       *Name
		TypeParams []*TypeParam
		Value      Expr
	}

	// Match is a match statement. Several subjects arrive as one Tuple.
	Match struct {
		Span
		Subject Expr
		Cases   []*MatchCase
	}

	// MatchCase is one case clause. Pattern is an expression tree in which
	// capture names have Store context and everything else is a read.
	MatchCase struct {
		Span
		Pattern Expr
		Guard   Expr
		Body    []Stmt
	}

	Pass struct {
		Span
	}

	Break struct {
		Span
	}

	Continue struct {
		Span
	}
)

// ParamKind distinguishes plain, *args and **kwargs parameters.
type ParamKind int

const (
	ParamPlain ParamKind = iota
	ParamVarArgs
	ParamKwArgs
)

// Param is one formal parameter of a function or lambda.
type Param struct {
	Span
	Name       string
	Kind       ParamKind
	Annotation Expr
	Default    Expr
}

// TypeParam is one parameter of a generic def, class or type alias. Bound
// holds the bound or constraints, if any.
type TypeParam struct {
	Span
	Name  string
	Bound Expr
}

// Keyword is a keyword argument in a call or class header. Arg is empty for
// a "**mapping" argument.
type Keyword struct {
	Span
	Arg   string
	Value Expr
}

// Expressions.
type (
	// BoolOp is "and"/"or" with exactly two operands.
	BoolOp struct {
		Span
		Op    BoolOperator
		Left  Expr
		Right Expr
	}

	NamedExpr struct {
		Span
		Target *Name
		Value  Expr
	}

	BinOp struct {
		Span
		Left  Expr
		Op    Operator
		Right Expr
	}

	UnaryOp struct {
		Span
		Op      UnaryOperator
		Operand Expr
	}

	Lambda struct {
		Span
		Params []*Param
		Body   Expr
	}

	IfExp struct {
		Span
		Test   Expr
		Body   Expr
		Orelse Expr
	}

	// Dict holds parallel Keys and Values. A nil key marks "**mapping".
	Dict struct {
		Span
		Keys   []Expr
		Values []Expr
	}

	Set struct {
		Span
		Elts []Expr
	}

	ListComp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}

	SetComp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}

	DictComp struct {
		Span
		Key        Expr
		Value      Expr
		Generators []*Comprehension
	}

	GeneratorExp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}

	// Comprehension is one "for target in iter if cond..." clause.
	Comprehension struct {
		Span
		Target Expr
		Iter   Expr
		Ifs    []Expr
		Async  bool
	}

	Await struct {
		Span
		Value Expr
	}

	Yield struct {
		Span
		Value Expr
		From  bool
	}

	// Compare is a comparison chain: Left Ops[0] Comparators[0] Ops[1] ...
	Compare struct {
		Span
		Left        Expr
		Ops         []CmpOp
		Comparators []Expr
	}

	Call struct {
		Span
		Func     Expr
		Args     []Expr
		Keywords []*Keyword
	}

	// JoinedStr is an f-string; Values holds its interpolated expressions.
	JoinedStr struct {
		Span
		Values []Expr
	}

	// Constant is a literal. Value keeps the literal's source text.
	Constant struct {
		Span
		Kind  ConstKind
		Value string
	}

	Attribute struct {
		Span
		Value Expr
		Attr  string
		Ctx   Context
	}

	Subscript struct {
		Span
		Value Expr
		Slice Expr
		Ctx   Context
	}

	Starred struct {
		Span
		Value Expr
		Ctx   Context
	}

	Name struct {
		Span
		ID  string
		Ctx Context
	}

	List struct {
		Span
		Elts []Expr
		Ctx  Context
	}

	Tuple struct {
		Span
		Elts []Expr
		Ctx  Context
	}

	Slice struct {
		Span
		Lower Expr
		Upper Expr
		Step  Expr
	}

	// MatchAs is "pattern as name" in a case pattern. Pattern is nil for a
	// bare capture written with "as" alone.
	MatchAs struct {
		Span
		Pattern Expr
		Name    *Name
	}

	// Opaque stands in for an expression form the front end does not model.
	// Its subexpressions are kept so that reads inside it are still seen.
	Opaque struct {
		Span
		Kind     string
		Children []Expr
	}
)

// ConstKind classifies a literal.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstComplex
	ConstStr
	ConstBytes
	ConstTrue
	ConstFalse
	ConstNone
	ConstEllipsis
)

func (k ConstKind) String() string {
	switch k {
	case ConstInt:
		return "int"
	case ConstFloat:
		return "float"
	case ConstComplex:
		return "complex"
	case ConstStr:
		return "str"
	case ConstBytes:
		return "bytes"
	case ConstTrue, ConstFalse:
		return "bool"
	case ConstNone:
		return "NoneType"
	case ConstEllipsis:
		return "ellipsis"
	default:
		return "unknown"
	}
}

// IsNone reports whether e is the None literal.
func IsNone(e Expr) bool {
	c, ok := e.(*Constant)
	return ok && c.Kind == ConstNone
}

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*AnnAssign) stmtNode()   {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*If) stmtNode()          {}
func (*With) stmtNode()        {}
func (*Raise) stmtNode()       {}
func (*Try) stmtNode()         {}
func (*Assert) stmtNode()      {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*ExprStmt) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*TypeAlias) stmtNode()   {}
func (*Match) stmtNode()       {}

func (*BoolOp) exprNode()       {}
func (*NamedExpr) exprNode()    {}
func (*BinOp) exprNode()        {}
func (*UnaryOp) exprNode()      {}
func (*Lambda) exprNode()       {}
func (*IfExp) exprNode()        {}
func (*Dict) exprNode()         {}
func (*Set) exprNode()          {}
func (*ListComp) exprNode()     {}
func (*SetComp) exprNode()      {}
func (*DictComp) exprNode()     {}
func (*GeneratorExp) exprNode() {}
func (*Await) exprNode()        {}
func (*Yield) exprNode()        {}
func (*Compare) exprNode()      {}
func (*Call) exprNode()         {}
func (*JoinedStr) exprNode()    {}
func (*Constant) exprNode()     {}
func (*Attribute) exprNode()    {}
func (*Subscript) exprNode()    {}
func (*Starred) exprNode()      {}
func (*Name) exprNode()         {}
func (*List) exprNode()         {}
func (*Tuple) exprNode()        {}
func (*Slice) exprNode()        {}
func (*MatchAs) exprNode()      {}
func (*Opaque) exprNode()       {}
