package sym

import (
	"math/big"

	"github.com/zkscout/zkscout/utils"
)

// ArrayElem is one leaf of a flattened array with its index path.
type ArrayElem struct {
	Pos  []int
	Leaf Value
}

// EnumerateArray flattens a (possibly nested) Array into (index path, leaf)
// pairs in row-major order. UniformArray nodes with a constant count expand
// into repeated shared leaves. A non-array value yields a single pair with a
// nil path.
func EnumerateArray(v Value) []ArrayElem {
	var out []ArrayElem
	var walk func(v Value, pos []int)
	walk = func(v Value, pos []int) {
		switch a := v.(type) {
		case *Array:
			for i, e := range a.Elems {
				walk(e, append(pos[:len(pos):len(pos)], i))
			}
		case *UniformArray:
			if c, ok := a.Count.(*ConstInt); ok && c.V.IsInt64() {
				n := int(c.V.Int64())
				for i := 0; i < n; i++ {
					walk(a.Elem, append(pos[:len(pos):len(pos)], i))
				}
				return
			}
			out = append(out, ArrayElem{Pos: append([]int(nil), pos...), Leaf: v})
		default:
			out = append(out, ArrayElem{Pos: append([]int(nil), pos...), Leaf: v})
		}
	}
	walk(v, nil)
	return out
}

// AccessMultiDim indexes a nested array with a list of constant indices.
func AccessMultiDim(v Value, idx []int) (Value, bool) {
	cur := v
	for _, i := range idx {
		switch a := cur.(type) {
		case *Array:
			if i < 0 || i >= len(a.Elems) {
				return nil, false
			}
			cur = a.Elems[i]
		case *UniformArray:
			cur = a.Elem
		default:
			return nil, false
		}
	}
	return cur, true
}

// ExpandDims enumerates every index tuple of the given dimensions in
// lexicographic order. Zero dimensions yield the single empty tuple.
func ExpandDims(dims []int) [][]int {
	out := [][]int{nil}
	for _, d := range dims {
		next := make([][]int, 0, len(out)*d)
		for _, prefix := range out {
			for i := 0; i < d; i++ {
				idx := make([]int, len(prefix)+1)
				copy(idx, prefix)
				idx[len(prefix)] = i
				next = append(next, idx)
			}
		}
		out = next
	}
	return out
}

// RegisterArrayElements registers every `name[i][j]...` key of the declared
// dimensions into a component input map with a nil (unset) value. With no
// dimensions the plain name is registered.
func RegisterArrayElements(inputs utils.Map, id ID, owner *OwnerPath, dims []int) {
	for _, idx := range ExpandDims(dims) {
		var access []Access
		for _, i := range idx {
			access = append(access, &ArrayAccess{Index: NewConstInt(big.NewInt(int64(i)))})
		}
		inputs.Set(Name{ID: id, Owner: owner, Access: access}, nil)
	}
}

// LessThanConstraint is the canonical relation injected for the standard
// LessThan template: (1 = out && a < b) || (0 = out && a >= b).
func LessThanConstraint(out, a, b Value) Value {
	lhs := &BinaryOp{
		L:  &BinaryOp{L: NewConstInt64(1), Op: Eq, R: out},
		Op: BoolAnd,
		R:  &BinaryOp{L: a, Op: Lesser, R: b},
	}
	rhs := &BinaryOp{
		L:  &BinaryOp{L: NewConstInt64(0), Op: Eq, R: out},
		Op: BoolAnd,
		R:  &BinaryOp{L: a, Op: GreaterEq, R: b},
	}
	return &BinaryOp{L: lhs, Op: BoolOr, R: rhs}
}
