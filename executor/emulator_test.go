package executor

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkscout/zkscout/field"
	"github.com/zkscout/zkscout/sym"
)

func emuVars() (in, inv, out *sym.Variable) {
	in = sym.NewVariable(sym.Name{ID: 0, Owner: sym.NewOwnerPath()})
	inv = sym.NewVariable(sym.Name{ID: 1, Owner: sym.NewOwnerPath()})
	out = sym.NewVariable(sym.Name{ID: 2, Owner: sym.NewOwnerPath()})
	return
}

// the witness rules of IsZero, as the symbolic run records them
func emuTrace(in, inv, out *sym.Variable) []sym.Value {
	return []sym.Value{
		&sym.Assign{L: inv, R: &sym.Conditional{
			Cond: &sym.BinaryOp{L: in, Op: sym.NotEq, R: sym.NewConstInt64(0)},
			Then: &sym.BinaryOp{L: sym.NewConstInt64(1), Op: sym.Div, R: in},
			Else: sym.NewConstInt64(0),
		}},
		&sym.AssignEq{L: out, R: &sym.BinaryOp{
			L:  sym.NewConstInt64(1),
			Op: sym.Sub,
			R:  &sym.BinaryOp{L: in, Op: sym.Mul, R: inv},
		}},
		&sym.BinaryOp{
			L:  &sym.BinaryOp{L: in, Op: sym.Mul, R: out},
			Op: sym.Eq,
			R:  sym.NewConstInt64(0),
		},
	}
}

func TestEvalValue(t *testing.T) {
	f := field.New(big.NewInt(17))
	in, _, _ := emuVars()

	asg := NewAssignment()
	asg.Set(in.Name, big.NewInt(7))

	v, ok := EvalValue(f, asg, &sym.BinaryOp{L: in, Op: sym.Add, R: sym.NewConstInt64(12)})
	require.True(t, ok)
	require.Equal(t, int64(2), v.Int64())

	v, ok = EvalValue(f, asg, &sym.Conditional{
		Cond: &sym.BinaryOp{L: in, Op: sym.Lesser, R: sym.NewConstInt64(10)},
		Then: sym.NewConstInt64(1),
		Else: sym.NewConstInt64(2),
	})
	require.True(t, ok)
	require.Equal(t, int64(1), v.Int64())

	v, ok = EvalValue(f, asg, &sym.UnaryOp{Op: sym.BoolNot, X: in})
	require.True(t, ok)
	require.Equal(t, int64(0), v.Int64())

	// unbound names are not evaluable
	_, _, out := emuVars()
	_, ok = EvalValue(f, asg, out)
	require.False(t, ok)
}

func TestEvalConstraint(t *testing.T) {
	f := field.New(big.NewInt(17))
	in, _, out := emuVars()

	asg := NewAssignment()
	asg.Set(in.Name, big.NewInt(3))
	asg.Set(out.Name, big.NewInt(3))

	// assignment nodes are checked as equalities
	ok, evaluated := EvalConstraint(f, asg, &sym.AssignEq{L: out, R: in})
	require.True(t, evaluated)
	require.True(t, ok)

	ok, evaluated = EvalConstraint(f, asg, &sym.Assign{L: out, R: sym.NewConstInt64(4)})
	require.True(t, evaluated)
	require.False(t, ok)

	// other values are nonzero tests
	ok, evaluated = EvalConstraint(f, asg, &sym.BinaryOp{L: in, Op: sym.Lesser, R: out})
	require.True(t, evaluated)
	require.False(t, ok)
}

func TestEmulateTraceBindsWitness(t *testing.T) {
	f := field.New(big.NewInt(17))
	in, inv, out := emuVars()
	trace := emuTrace(in, inv, out)

	asg := NewAssignment()
	asg.Set(in.Name, big.NewInt(7))
	require.True(t, EmulateTrace(f, trace, asg))

	// 1/7 = 5 mod 17, so out = 1 - 7*5 = 0
	v, ok := asg.Get(inv.Name)
	require.True(t, ok)
	require.Equal(t, int64(5), v.Int64())
	v, ok = asg.Get(out.Name)
	require.True(t, ok)
	require.Equal(t, int64(0), v.Int64())
}

func TestEmulateTraceRejectsFailedCondition(t *testing.T) {
	f := field.New(big.NewInt(17))
	in, inv, out := emuVars()
	trace := emuTrace(in, inv, out)

	// force out to 1: the in*out == 0 condition fails for in = 7
	trace[1] = &sym.AssignEq{L: out, R: sym.NewConstInt64(1)}

	asg := NewAssignment()
	asg.Set(in.Name, big.NewInt(7))
	require.False(t, EmulateTrace(f, trace, asg))
}

func TestCountSatisfied(t *testing.T) {
	f := field.New(big.NewInt(17))
	in, _, out := emuVars()

	asg := NewAssignment()
	asg.Set(in.Name, big.NewInt(0))
	asg.Set(out.Name, big.NewInt(1))

	cs := []sym.Value{
		&sym.BinaryOp{L: &sym.BinaryOp{L: in, Op: sym.Mul, R: out}, Op: sym.Eq, R: sym.NewConstInt64(0)},
		&sym.BinaryOp{L: out, Op: sym.Eq, R: sym.NewConstInt64(2)},
		&sym.BinaryOp{L: sym.NewVariable(sym.Name{ID: 9, Owner: sym.NewOwnerPath()}), Op: sym.Eq, R: out},
	}
	satisfied, evaluable := CountSatisfied(f, asg, cs)
	require.Equal(t, 1, satisfied)
	require.Equal(t, 2, evaluable)
}

func TestAccumulateError(t *testing.T) {
	f := field.New(big.NewInt(17))
	in, inv, out := emuVars()

	side := []sym.Value{
		&sym.BinaryOp{L: out, Op: sym.Eq, R: &sym.BinaryOp{
			L:  sym.NewConstInt64(1),
			Op: sym.Sub,
			R:  &sym.BinaryOp{L: in, Op: sym.Mul, R: inv},
		}},
		&sym.BinaryOp{L: &sym.BinaryOp{L: in, Op: sym.Mul, R: out}, Op: sym.Eq, R: sym.NewConstInt64(0)},
	}

	// the honest witness for in = 7 has no error
	honest := NewAssignment()
	honest.Set(in.Name, big.NewInt(7))
	honest.Set(inv.Name, big.NewInt(5))
	honest.Set(out.Name, big.NewInt(0))
	require.Equal(t, int64(0), AccumulateError(f, honest, side).Int64())

	// corrupting out to 1 costs WrapDist(1, 0) + WrapDist(7, 0) = 1 + 7
	corrupt := honest.Clone()
	corrupt.Set(out.Name, big.NewInt(1))
	require.Equal(t, int64(8), AccumulateError(f, corrupt, side).Int64())

	// an unevaluable constraint costs the whole prime
	missing := NewAssignment()
	missing.Set(in.Name, big.NewInt(7))
	require.Equal(t, int64(34), AccumulateError(f, missing, side).Int64())
}
