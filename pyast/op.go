// Copyright © 2024 The ELPS authors

package pyast

// Operator is a binary arithmetic or bitwise operator.
type Operator int

const (
	OpUnknown Operator = iota
	Add
	Sub
	Mult
	MatMult
	Div
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
	FloorDiv
)

var operatorTokens = map[string]Operator{
	"+":  Add,
	"-":  Sub,
	"*":  Mult,
	"@":  MatMult,
	"/":  Div,
	"%":  Mod,
	"**": Pow,
	"<<": LShift,
	">>": RShift,
	"|":  BitOr,
	"^":  BitXor,
	"&":  BitAnd,
	"//": FloorDiv,
}

// ParseOperator maps an operator token to its Operator. Augmented forms
// such as "+=" are accepted.
func ParseOperator(tok string) Operator {
	if len(tok) > 1 && tok[len(tok)-1] == '=' {
		tok = tok[:len(tok)-1]
	}
	return operatorTokens[tok]
}

func (op Operator) String() string {
	for tok, o := range operatorTokens {
		if o == op {
			return tok
		}
	}
	return "?"
}

// Divides reports whether op can raise ZeroDivisionError on a zero right
// operand.
func (op Operator) Divides() bool {
	return op == Div || op == FloorDiv || op == Mod
}

// UnaryOperator is a prefix operator.
type UnaryOperator int

const (
	UnaryUnknown UnaryOperator = iota
	Invert
	Not
	UAdd
	USub
)

// ParseUnaryOperator maps a prefix operator token to its UnaryOperator.
func ParseUnaryOperator(tok string) UnaryOperator {
	switch tok {
	case "~":
		return Invert
	case "not":
		return Not
	case "+":
		return UAdd
	case "-":
		return USub
	}
	return UnaryUnknown
}

func (op UnaryOperator) String() string {
	switch op {
	case Invert:
		return "~"
	case Not:
		return "not"
	case UAdd:
		return "+"
	case USub:
		return "-"
	default:
		return "?"
	}
}

// BoolOperator is "and" or "or".
type BoolOperator int

const (
	And BoolOperator = iota
	Or
)

func (op BoolOperator) String() string {
	if op == Or {
		return "or"
	}
	return "and"
}

// CmpOp is a comparison operator.
type CmpOp int

const (
	CmpUnknown CmpOp = iota
	Eq
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

var cmpTokens = []string{
	CmpUnknown: "?",
	Eq:         "==",
	NotEq:      "!=",
	Lt:         "<",
	LtE:        "<=",
	Gt:         ">",
	GtE:        ">=",
	Is:         "is",
	IsNot:      "is not",
	In:         "in",
	NotIn:      "not in",
}

// ParseCmpOp maps a comparison token to its CmpOp. The legacy "<>" spelling
// is read as "!=".
func ParseCmpOp(tok string) CmpOp {
	if tok == "<>" {
		return NotEq
	}
	for i, t := range cmpTokens {
		if t == tok {
			return CmpOp(i)
		}
	}
	return CmpUnknown
}

func (op CmpOp) String() string {
	if op < 0 || int(op) >= len(cmpTokens) {
		return "?"
	}
	return cmpTokens[op]
}

// IsEquality reports whether op is == or !=.
func (op CmpOp) IsEquality() bool {
	return op == Eq || op == NotEq
}
