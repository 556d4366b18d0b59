// Package sym defines the symbolic value algebra of the analyzer: interned
// identifiers, owner paths, qualified names, and tagged expression trees with
// a constant-folding evaluator over the prime field.
package sym

// Op is an infix operator of the circuit language.
type Op uint8

const (
	Mul Op = iota
	Div
	IntDiv
	Add
	Sub
	Pow
	Mod
	ShiftL
	ShiftR
	LesserEq
	GreaterEq
	Lesser
	Greater
	Eq
	NotEq
	BoolOr
	BoolAnd
	BitOr
	BitAnd
	BitXor
)

func (op Op) String() string {
	switch op {
	case Mul:
		return "*"
	case Div:
		return "/"
	case IntDiv:
		return "\\"
	case Add:
		return "+"
	case Sub:
		return "-"
	case Pow:
		return "**"
	case Mod:
		return "%"
	case ShiftL:
		return "<<"
	case ShiftR:
		return ">>"
	case LesserEq:
		return "<="
	case GreaterEq:
		return ">="
	case Lesser:
		return "<"
	case Greater:
		return ">"
	case Eq:
		return "=="
	case NotEq:
		return "!="
	case BoolOr:
		return "||"
	case BoolAnd:
		return "&&"
	case BitOr:
		return "|"
	case BitAnd:
		return "&"
	case BitXor:
		return "^"
	}
	return "?"
}

// IsRelational reports whether the operator yields a boolean from two field
// elements.
func (op Op) IsRelational() bool {
	switch op {
	case LesserEq, GreaterEq, Lesser, Greater, Eq, NotEq:
		return true
	}
	return false
}

// IsBool reports whether the operator combines two booleans.
func (op Op) IsBool() bool {
	return op == BoolOr || op == BoolAnd
}

// UnOp is a prefix operator.
type UnOp uint8

const (
	Neg UnOp = iota
	BoolNot
	Complement
)

func (op UnOp) String() string {
	switch op {
	case Neg:
		return "-"
	case BoolNot:
		return "!"
	case Complement:
		return "~"
	}
	return "?"
}
