package program

import (
	"math/big"

	"github.com/zkscout/zkscout/ast"
	"github.com/zkscout/zkscout/sym"
)

// VarKind is the declared type of a name, as the executor needs it.
type VarKind uint8

const (
	KindVar VarKind = iota
	KindComponent
	KindSignalIntermediate
	KindSignalInput
	KindSignalOutput
)

// Access qualifies a debug variable reference.
type Access interface{ isAccess() }

type ComponentAccess struct {
	Name sym.ID
}

type ArrayAccess struct {
	Index Expression
}

func (ComponentAccess) isAccess() {}
func (ArrayAccess) isAccess()     {}

// Expression is a debug expression with interned identifiers.
type Expression interface{ isExpression() }

type Number struct {
	V *big.Int
}

type Variable struct {
	Name   sym.ID
	Access []Access
}

type Infix struct {
	L  Expression
	Op sym.Op
	R  Expression
}

type Prefix struct {
	Op sym.UnOp
	X  Expression
}

type InlineSwitch struct {
	Cond Expression
	True Expression
	Else Expression
}

type ArrayInLine struct {
	Elems []Expression
}

type TupleExpr struct {
	Elems []Expression
}

type UniformArray struct {
	Value     Expression
	Dimension Expression
}

type CallExpr struct {
	Callee sym.ID
	Args   []Expression
}

func (Number) isExpression()       {}
func (Variable) isExpression()     {}
func (Infix) isExpression()        {}
func (Prefix) isExpression()       {}
func (InlineSwitch) isExpression() {}
func (ArrayInLine) isExpression()  {}
func (TupleExpr) isExpression()    {}
func (UniformArray) isExpression() {}
func (CallExpr) isExpression()     {}

// Statement is a debug statement. Meta is a dense per-library statement
// index; the coverage tracker and the trace mutator key on it.
type Statement interface {
	isStatement()
	MetaID() int
}

type meta struct {
	Meta int
}

func (m meta) MetaID() int { return m.Meta }

type InitializationBlock struct {
	meta
	SignalType ast.SignalType
	Stmts      []Statement
}

type Block struct {
	meta
	Stmts []Statement
}

type IfThenElse struct {
	meta
	Cond Expression
	Then []Statement
	Else []Statement
}

type While struct {
	meta
	Cond Expression
	Body []Statement
}

type Return struct {
	meta
	Value Expression
}

type Declaration struct {
	meta
	Name sym.ID
	Kind VarKind
	Dims []Expression
}

type Substitution struct {
	meta
	Name   sym.ID
	Access []Access
	Op     ast.AssignOp
	Rhs    Expression
}

type MultSubstitution struct {
	meta
	Lhs Expression
	Op  ast.AssignOp
	Rhs Expression
}

type ConstraintEquality struct {
	meta
	Lhs Expression
	Rhs Expression
}

type Assert struct {
	meta
	Cond Expression
}

type UnderscoreSubstitution struct {
	meta
	Op  ast.AssignOp
	Rhs Expression
}

type LogCall struct {
	meta
	Args []Expression
}

// Ret flushes the current state into the executor's final states; the
// adapter appends one to every function body.
type Ret struct {
	meta
}

func (*InitializationBlock) isStatement()    {}
func (*Block) isStatement()                  {}
func (*IfThenElse) isStatement()             {}
func (*While) isStatement()                  {}
func (*Return) isStatement()                 {}
func (*Declaration) isStatement()            {}
func (*Substitution) isStatement()           {}
func (*MultSubstitution) isStatement()       {}
func (*ConstraintEquality) isStatement()     {}
func (*Assert) isStatement()                 {}
func (*UnderscoreSubstitution) isStatement() {}
func (*LogCall) isStatement()                {}
func (*Ret) isStatement()                    {}
