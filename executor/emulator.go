package executor

import (
	"math/big"

	"github.com/zkscout/zkscout/field"
	"github.com/zkscout/zkscout/sym"
)

// This file is the concrete emulator: it evaluates symbolic values and
// constraints under an assignment of names to field elements, and replays
// the witness trace the way the generated witness code would.

// EvalValue evaluates a symbolic value under an assignment. The second
// result is false when a referenced name is unbound.
func EvalValue(f *field.Field, asg *Assignment, v sym.Value) (*big.Int, bool) {
	switch t := v.(type) {
	case *sym.ConstInt:
		return f.Normalize(t.V), true

	case *sym.ConstBool:
		if t.B {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true

	case *sym.Variable:
		return asg.Get(t.Name)

	case *sym.UnaryOp:
		x, ok := EvalValue(f, asg, t.X)
		if !ok {
			return nil, false
		}
		switch t.Op {
		case sym.Neg:
			return f.Neg(x), true
		case sym.BoolNot:
			if f.IsZero(x) {
				return big.NewInt(1), true
			}
			return big.NewInt(0), true
		case sym.Complement:
			return f.Not(x), true
		}
		return nil, false

	case *sym.BinaryOp:
		return evalBinary(f, asg, t)

	case *sym.Conditional:
		c, ok := EvalValue(f, asg, t.Cond)
		if !ok {
			return nil, false
		}
		if !f.IsZero(c) {
			return EvalValue(f, asg, t.Then)
		}
		return EvalValue(f, asg, t.Else)
	}
	return nil, false
}

func boolToField(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func evalBinary(f *field.Field, asg *Assignment, t *sym.BinaryOp) (*big.Int, bool) {
	l, ok := EvalValue(f, asg, t.L)
	if !ok {
		return nil, false
	}
	r, ok := EvalValue(f, asg, t.R)
	if !ok {
		return nil, false
	}

	switch t.Op {
	case sym.Add:
		return f.Add(l, r), true
	case sym.Sub:
		return f.Sub(l, r), true
	case sym.Mul:
		return f.Mul(l, r), true
	case sym.Div:
		return f.Div(l, r), true
	case sym.IntDiv:
		return f.IntDiv(l, r), true
	case sym.Mod:
		return f.Mod(l, r), true
	case sym.Pow:
		return f.Pow(l, r), true
	case sym.ShiftL:
		return f.Shl(l, r), true
	case sym.ShiftR:
		return f.Shr(l, r), true
	case sym.BitAnd:
		return f.And(l, r), true
	case sym.BitOr:
		return f.Or(l, r), true
	case sym.BitXor:
		return f.Xor(l, r), true
	case sym.Eq:
		return boolToField(f.Eq(l, r)), true
	case sym.NotEq:
		return boolToField(f.Neq(l, r)), true
	case sym.Lesser:
		return boolToField(f.Lt(l, r)), true
	case sym.LesserEq:
		return boolToField(f.Le(l, r)), true
	case sym.Greater:
		return boolToField(f.Gt(l, r)), true
	case sym.GreaterEq:
		return boolToField(f.Ge(l, r)), true
	case sym.BoolAnd:
		return boolToField(!f.IsZero(l) && !f.IsZero(r)), true
	case sym.BoolOr:
		return boolToField(!f.IsZero(l) || !f.IsZero(r)), true
	}
	return nil, false
}

// EvalConstraint decides whether one constraint holds under the assignment.
// Assignment nodes are treated as equalities here; EmulateTrace is the place
// where they bind. The second result is false when the constraint could not
// be evaluated.
func EvalConstraint(f *field.Field, asg *Assignment, c sym.Value) (bool, bool) {
	switch t := c.(type) {
	case *sym.Assign:
		return evalEquality(f, asg, t.L, t.R)
	case *sym.AssignEq:
		return evalEquality(f, asg, t.L, t.R)
	default:
		v, ok := EvalValue(f, asg, c)
		if !ok {
			return false, false
		}
		return !f.IsZero(v), true
	}
}

func evalEquality(f *field.Field, asg *Assignment, l, r sym.Value) (bool, bool) {
	lv, ok := EvalValue(f, asg, l)
	if !ok {
		return false, false
	}
	rv, ok := EvalValue(f, asg, r)
	if !ok {
		return false, false
	}
	return f.Eq(lv, rv), true
}

// CountSatisfied returns how many of the constraints hold and how many were
// evaluable at all.
func CountSatisfied(f *field.Field, asg *Assignment, cs []sym.Value) (satisfied, evaluable int) {
	for _, c := range cs {
		ok, evaluated := EvalConstraint(f, asg, c)
		if !evaluated {
			continue
		}
		evaluable++
		if ok {
			satisfied++
		}
	}
	return satisfied, evaluable
}

// AccumulateError sums a violation distance over the constraints: equalities
// contribute the wrap-around distance of their sides, other predicates
// contribute one when false, and anything unevaluable contributes the prime
// itself as a maximal penalty.
func AccumulateError(f *field.Field, asg *Assignment, cs []sym.Value) *big.Int {
	total := new(big.Int)
	penalty := f.Prime()
	for _, c := range cs {
		switch t := c.(type) {
		case *sym.Assign:
			total.Add(total, equalityError(f, asg, t.L, t.R, penalty))
		case *sym.AssignEq:
			total.Add(total, equalityError(f, asg, t.L, t.R, penalty))
		case *sym.BinaryOp:
			if t.Op == sym.Eq {
				total.Add(total, equalityError(f, asg, t.L, t.R, penalty))
				continue
			}
			ok, evaluated := EvalConstraint(f, asg, c)
			if !evaluated {
				total.Add(total, penalty)
			} else if !ok {
				total.Add(total, big.NewInt(1))
			}
		default:
			ok, evaluated := EvalConstraint(f, asg, c)
			if !evaluated {
				total.Add(total, penalty)
			} else if !ok {
				total.Add(total, big.NewInt(1))
			}
		}
	}
	return total
}

func equalityError(f *field.Field, asg *Assignment, l, r sym.Value, penalty *big.Int) *big.Int {
	lv, ok := EvalValue(f, asg, l)
	if !ok {
		return penalty
	}
	rv, ok := EvalValue(f, asg, r)
	if !ok {
		return penalty
	}
	return f.WrapDist(lv, rv)
}

// EmulateTrace replays the witness trace in order, binding assignment nodes
// into asg and checking every other entry as a path condition. It reports
// false when a condition fails or a right-hand side cannot be evaluated,
// meaning the trace is infeasible under the given inputs.
func EmulateTrace(f *field.Field, trace []sym.Value, asg *Assignment) bool {
	for _, entry := range trace {
		switch t := entry.(type) {
		case *sym.Assign:
			if !bindTraceStep(f, asg, t.L, t.R) {
				return false
			}
		case *sym.AssignEq:
			if !bindTraceStep(f, asg, t.L, t.R) {
				return false
			}
		default:
			ok, evaluated := EvalConstraint(f, asg, entry)
			if !evaluated || !ok {
				return false
			}
		}
	}
	return true
}

func bindTraceStep(f *field.Field, asg *Assignment, l, r sym.Value) bool {
	lv, ok := l.(*sym.Variable)
	if !ok {
		ok2, evaluated := evalEquality(f, asg, l, r)
		return evaluated && ok2
	}
	rv, evaluated := EvalValue(f, asg, r)
	if !evaluated {
		return false
	}
	asg.Set(lv.Name, rv)
	return true
}
