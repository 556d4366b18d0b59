package ast

import (
	"math/big"

	"github.com/zkscout/zkscout/sym"
)

// Constructors for hand-built circuits; the analyzer's own tests and small
// drivers use them, a real front end builds the structs directly.

func Num(v int64) Number { return Number{V: big.NewInt(v)} }

func Var(name string) Variable { return Variable{Name: name} }

// Idx references name[i][j]... with constant indices.
func Idx(name string, idx ...int64) Variable {
	v := Variable{Name: name}
	for _, i := range idx {
		v.Access = append(v.Access, ArrayAccess{Index: Num(i)})
	}
	return v
}

// Member references name.signal[i][j]....
func Member(name, signal string, idx ...int64) Variable {
	v := Variable{Name: name, Access: []Access{ComponentAccess{Name: signal}}}
	for _, i := range idx {
		v.Access = append(v.Access, ArrayAccess{Index: Num(i)})
	}
	return v
}

func Bin(l Expression, op sym.Op, r Expression) Infix {
	return Infix{L: l, Op: op, R: r}
}

// SignalDecl declares a scalar or array signal of the given type.
func SignalDecl(name string, st SignalType, dims ...Expression) Declaration {
	return Declaration{Name: name, Type: SignalVarType, SignalType: st, Dims: dims}
}

func VarDecl(name string) Declaration { return Declaration{Name: name, Type: VarType} }

func ComponentDecl(name string) Declaration { return Declaration{Name: name, Type: ComponentType} }
