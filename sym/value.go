package sym

import (
	"math/big"
	"strconv"
	"strings"
)

// Value is a node of a symbolic expression tree. Nodes are immutable after
// construction and shared maximally between trees; evaluators must never
// assume a node has a single parent. Equality is structural.
type Value interface {
	isValue()
	Equal(Value) bool
	HashCode() uint64
	String(lookup func(ID) string) string
}

// ConstInt is an element of the prime field, lazily reduced.
type ConstInt struct {
	V *big.Int
}

// ConstBool is a boolean produced by relational or logical folding.
type ConstBool struct {
	B bool
}

// Variable references a qualified name.
type Variable struct {
	Name Name
}

type BinaryOp struct {
	L  Value
	Op Op
	R  Value
}

type UnaryOp struct {
	Op UnOp
	X  Value
}

type Conditional struct {
	Cond Value
	Then Value
	Else Value
}

type Array struct {
	Elems []Value
}

type Tuple struct {
	Elems []Value
}

type UniformArray struct {
	Elem  Value
	Count Value
}

// Call is an unresolved template or function reference, kept when the
// arguments stay symbolic.
type Call struct {
	Callee ID
	Args   []Value
}

// Assign is a trace-only substitution (`<--`): it drives the witness
// generator but declares no algebraic relation.
type Assign struct {
	L Value
	R Value
}

// AssignEq is a trace-plus-side substitution (`<==`).
type AssignEq struct {
	L Value
	R Value
}

func (*ConstInt) isValue()     {}
func (*ConstBool) isValue()    {}
func (*Variable) isValue()     {}
func (*BinaryOp) isValue()     {}
func (*UnaryOp) isValue()      {}
func (*Conditional) isValue()  {}
func (*Array) isValue()        {}
func (*Tuple) isValue()        {}
func (*UniformArray) isValue() {}
func (*Call) isValue()         {}
func (*Assign) isValue()       {}
func (*AssignEq) isValue()     {}

func NewConstInt(v *big.Int) *ConstInt { return &ConstInt{V: v} }

func NewConstInt64(v int64) *ConstInt { return &ConstInt{V: big.NewInt(v)} }

func NewConstBool(b bool) *ConstBool { return &ConstBool{B: b} }

func NewVariable(n Name) *Variable { return &Variable{Name: n} }

func (v *ConstInt) Equal(o Value) bool {
	w, ok := o.(*ConstInt)
	return ok && v.V.Cmp(w.V) == 0
}

func (v *ConstBool) Equal(o Value) bool {
	w, ok := o.(*ConstBool)
	return ok && v.B == w.B
}

func (v *Variable) Equal(o Value) bool {
	w, ok := o.(*Variable)
	return ok && v.Name.Equal(w.Name)
}

func (v *BinaryOp) Equal(o Value) bool {
	w, ok := o.(*BinaryOp)
	return ok && v.Op == w.Op && v.L.Equal(w.L) && v.R.Equal(w.R)
}

func (v *UnaryOp) Equal(o Value) bool {
	w, ok := o.(*UnaryOp)
	return ok && v.Op == w.Op && v.X.Equal(w.X)
}

func (v *Conditional) Equal(o Value) bool {
	w, ok := o.(*Conditional)
	return ok && v.Cond.Equal(w.Cond) && v.Then.Equal(w.Then) && v.Else.Equal(w.Else)
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (v *Array) Equal(o Value) bool {
	w, ok := o.(*Array)
	return ok && equalSlices(v.Elems, w.Elems)
}

func (v *Tuple) Equal(o Value) bool {
	w, ok := o.(*Tuple)
	return ok && equalSlices(v.Elems, w.Elems)
}

func (v *UniformArray) Equal(o Value) bool {
	w, ok := o.(*UniformArray)
	return ok && v.Elem.Equal(w.Elem) && v.Count.Equal(w.Count)
}

func (v *Call) Equal(o Value) bool {
	w, ok := o.(*Call)
	return ok && v.Callee == w.Callee && equalSlices(v.Args, w.Args)
}

func (v *Assign) Equal(o Value) bool {
	w, ok := o.(*Assign)
	return ok && v.L.Equal(w.L) && v.R.Equal(w.R)
}

func (v *AssignEq) Equal(o Value) bool {
	w, ok := o.(*AssignEq)
	return ok && v.L.Equal(w.L) && v.R.Equal(w.R)
}

func (v *ConstInt) HashCode() uint64 {
	h := uint64(3)
	for _, w := range v.V.Bits() {
		h = h*1000003 + uint64(w)
	}
	if v.V.Sign() < 0 {
		h = ^h
	}
	return h
}

func (v *ConstBool) HashCode() uint64 {
	if v.B {
		return 5
	}
	return 7
}

func (v *Variable) HashCode() uint64 { return v.Name.HashCode() * 13 }

func (v *BinaryOp) HashCode() uint64 {
	return (v.L.HashCode()*31+uint64(v.Op))*31 + v.R.HashCode()
}

func (v *UnaryOp) HashCode() uint64 {
	return v.X.HashCode()*37 + uint64(v.Op) + 1
}

func (v *Conditional) HashCode() uint64 {
	return ((v.Cond.HashCode()*41+v.Then.HashCode())*41 + v.Else.HashCode()) ^ 0x9e3779b97f4a7c15
}

func hashSlice(seed uint64, vs []Value) uint64 {
	h := seed
	for _, v := range vs {
		h = h*43 + v.HashCode()
	}
	return h
}

func (v *Array) HashCode() uint64 { return hashSlice(47, v.Elems) }

func (v *Tuple) HashCode() uint64 { return hashSlice(53, v.Elems) }

func (v *UniformArray) HashCode() uint64 {
	return v.Elem.HashCode()*59 + v.Count.HashCode()
}

func (v *Call) HashCode() uint64 { return hashSlice(uint64(v.Callee)*61, v.Args) }

func (v *Assign) HashCode() uint64 { return v.L.HashCode()*67 + v.R.HashCode() }

func (v *AssignEq) HashCode() uint64 { return v.L.HashCode()*71 + v.R.HashCode() }

func (v *ConstInt) String(func(ID) string) string { return v.V.String() }

func (v *ConstBool) String(func(ID) string) string { return strconv.FormatBool(v.B) }

func (v *Variable) String(lookup func(ID) string) string { return v.Name.String(lookup) }

func (v *BinaryOp) String(lookup func(ID) string) string {
	return "(" + v.L.String(lookup) + " " + v.Op.String() + " " + v.R.String(lookup) + ")"
}

func (v *UnaryOp) String(lookup func(ID) string) string {
	return "(" + v.Op.String() + v.X.String(lookup) + ")"
}

func (v *Conditional) String(lookup func(ID) string) string {
	return "(" + v.Cond.String(lookup) + " ? " + v.Then.String(lookup) + " : " + v.Else.String(lookup) + ")"
}

func joinValues(lookup func(ID) string, vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String(lookup)
	}
	return strings.Join(parts, ", ")
}

func (v *Array) String(lookup func(ID) string) string {
	return "[" + joinValues(lookup, v.Elems) + "]"
}

func (v *Tuple) String(lookup func(ID) string) string {
	return "(" + joinValues(lookup, v.Elems) + ")"
}

func (v *UniformArray) String(lookup func(ID) string) string {
	return "[" + v.Elem.String(lookup) + "; " + v.Count.String(lookup) + "]"
}

func (v *Call) String(lookup func(ID) string) string {
	return lookup(v.Callee) + "(" + joinValues(lookup, v.Args) + ")"
}

func (v *Assign) String(lookup func(ID) string) string {
	return v.L.String(lookup) + " <-- " + v.R.String(lookup)
}

func (v *AssignEq) String(lookup func(ID) string) string {
	return v.L.String(lookup) + " <== " + v.R.String(lookup)
}
