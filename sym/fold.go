package sym

import (
	"math/big"

	"github.com/zkscout/zkscout/field"
)

// constOf extracts a field element from a constant node; booleans coerce to
// 0/1 the way the circuit language does.
func constOf(v Value) (*big.Int, bool) {
	switch c := v.(type) {
	case *ConstInt:
		return c.V, true
	case *ConstBool:
		if c.B {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	}
	return nil, false
}

// boolOf extracts a boolean from a constant node; integers coerce to their
// non-zero test.
func boolOf(f *field.Field, v Value) (bool, bool) {
	switch c := v.(type) {
	case *ConstBool:
		return c.B, true
	case *ConstInt:
		return !f.IsZero(c.V), true
	}
	return false, false
}

// EvalInfix folds a binary operation when both operands are constants;
// otherwise it returns a fresh BinaryOp node sharing both children.
func EvalInfix(f *field.Field, l Value, op Op, r Value) Value {
	if op.IsBool() {
		lb, lok := boolOf(f, l)
		rb, rok := boolOf(f, r)
		if lok && rok {
			if op == BoolAnd {
				return NewConstBool(lb && rb)
			}
			return NewConstBool(lb || rb)
		}
		return &BinaryOp{L: l, Op: op, R: r}
	}

	lv, lok := constOf(l)
	rv, rok := constOf(r)
	if !lok || !rok {
		return &BinaryOp{L: l, Op: op, R: r}
	}

	if op.IsRelational() {
		switch op {
		case Lesser:
			return NewConstBool(f.Lt(lv, rv))
		case LesserEq:
			return NewConstBool(f.Le(lv, rv))
		case Greater:
			return NewConstBool(f.Gt(lv, rv))
		case GreaterEq:
			return NewConstBool(f.Ge(lv, rv))
		case Eq:
			return NewConstBool(f.Eq(lv, rv))
		case NotEq:
			return NewConstBool(f.Neq(lv, rv))
		}
	}

	switch op {
	case Add:
		return NewConstInt(f.Add(lv, rv))
	case Sub:
		return NewConstInt(f.Sub(lv, rv))
	case Mul:
		return NewConstInt(f.Mul(lv, rv))
	case Div:
		return NewConstInt(f.Div(lv, rv))
	case IntDiv:
		return NewConstInt(f.IntDiv(lv, rv))
	case Mod:
		return NewConstInt(f.Mod(lv, rv))
	case Pow:
		return NewConstInt(f.Pow(lv, rv))
	case ShiftL:
		return NewConstInt(f.Shl(lv, rv))
	case ShiftR:
		return NewConstInt(f.Shr(lv, rv))
	case BitAnd:
		return NewConstInt(f.And(lv, rv))
	case BitOr:
		return NewConstInt(f.Or(lv, rv))
	case BitXor:
		return NewConstInt(f.Xor(lv, rv))
	}
	return &BinaryOp{L: l, Op: op, R: r}
}

// EvalPrefix folds a unary operation on a constant operand; otherwise it
// returns a fresh UnaryOp node.
func EvalPrefix(f *field.Field, op UnOp, x Value) Value {
	switch op {
	case Neg:
		if v, ok := constOf(x); ok {
			return NewConstInt(f.Neg(v))
		}
	case BoolNot:
		if b, ok := boolOf(f, x); ok {
			return NewConstBool(!b)
		}
	case Complement:
		if v, ok := constOf(x); ok {
			return NewConstInt(f.Not(v))
		}
	}
	return &UnaryOp{Op: op, X: x}
}
