// Package ast is the hand-off surface between the front-end parser and the
// analyzer: a source-level statement and expression tree with string names.
// The program package interns and normalizes it into the debug AST the
// symbolic executor walks.
package ast

import (
	"math/big"

	"github.com/zkscout/zkscout/sym"
)

// SignalType distinguishes declared signals.
type SignalType uint8

const (
	SignalIntermediate SignalType = iota
	SignalInput
	SignalOutput
)

// VariableType is the declared type of a name. Signal declarations carry
// their SignalType separately; see Declaration.
type VariableType uint8

const (
	VarType VariableType = iota
	ComponentType
	SignalVarType
)

// AssignOp is the flavor of a substitution.
type AssignOp uint8

const (
	AssignVar        AssignOp = iota // =
	AssignSignal                     // <--
	AssignConstraint                 // <==
)

func (op AssignOp) String() string {
	switch op {
	case AssignVar:
		return "="
	case AssignSignal:
		return "<--"
	case AssignConstraint:
		return "<=="
	}
	return "?"
}

// Access qualifies a variable reference.
type Access interface{ isAccess() }

type ComponentAccess struct {
	Name string
}

type ArrayAccess struct {
	Index Expression
}

func (ComponentAccess) isAccess() {}
func (ArrayAccess) isAccess()     {}

// Expression is a source expression.
type Expression interface{ isExpression() }

type Number struct {
	V *big.Int
}

type Variable struct {
	Name   string
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

// InlineSwitch is the ternary operator.
type InlineSwitch struct {
	Cond Expression
	True Expression
	Else Expression
}

// Parallel wraps an expression with the parallel tag; the analyzer ignores
// the tag.
type Parallel struct {
	X Expression
}

type ArrayInLine struct {
	Elems []Expression
}

type Tuple struct {
	Elems []Expression
}

type UniformArray struct {
	Value     Expression
	Dimension Expression
}

type Call struct {
	Name string
	Args []Expression
}

// BusCall is accepted for completeness; the adapter reports it as an
// unhandled variant.
type BusCall struct {
	Name string
	Args []Expression
}

// AnonymousComp is the `Template(params)(signals)` sugar; the adapter
// rewrites it into a component declaration plus ordinary substitutions.
type AnonymousComp struct {
	Name    string
	Params  []Expression
	Signals []Expression
}

func (Number) isExpression()        {}
func (Variable) isExpression()      {}
func (Infix) isExpression()         {}
func (Prefix) isExpression()        {}
func (InlineSwitch) isExpression()  {}
func (Parallel) isExpression()      {}
func (ArrayInLine) isExpression()   {}
func (Tuple) isExpression()         {}
func (UniformArray) isExpression()  {}
func (Call) isExpression()          {}
func (BusCall) isExpression()       {}
func (AnonymousComp) isExpression() {}

// Statement is a source statement.
type Statement interface{ isStatement() }

// InitializationBlock groups the declarations (and initializing
// substitutions) of signals of one type.
type InitializationBlock struct {
	SignalType SignalType
	Stmts      []Statement
}

type Block struct {
	Stmts []Statement
}

type IfThenElse struct {
	Cond Expression
	Then Statement
	Else Statement // nil when absent
}

type While struct {
	Cond Expression
	Body Statement
}

type Return struct {
	Value Expression
}

// Declaration declares a variable, signal, or component, possibly with array
// dimensions.
type Declaration struct {
	Name       string
	Type       VariableType
	SignalType SignalType // meaningful when Type is SignalVarType
	Dims       []Expression
}

type Substitution struct {
	Name   string
	Access []Access
	Op     AssignOp
	Rhs    Expression
}

// MultSubstitution assigns a tuple or array of left-hand sides at once.
type MultSubstitution struct {
	Lhs Expression
	Op  AssignOp
	Rhs Expression
}

type ConstraintEquality struct {
	Lhs Expression
	Rhs Expression
}

type Assert struct {
	Cond Expression
}

// UnderscoreSubstitution evaluates its right-hand side and discards it.
type UnderscoreSubstitution struct {
	Op  AssignOp
	Rhs Expression
}

type LogCall struct {
	Args []Expression
}

func (InitializationBlock) isStatement()    {}
func (Block) isStatement()                  {}
func (IfThenElse) isStatement()             {}
func (While) isStatement()                  {}
func (Return) isStatement()                 {}
func (Declaration) isStatement()            {}
func (Substitution) isStatement()           {}
func (MultSubstitution) isStatement()       {}
func (ConstraintEquality) isStatement()     {}
func (Assert) isStatement()                 {}
func (UnderscoreSubstitution) isStatement() {}
func (LogCall) isStatement()                {}

// Template is a parameterized sub-circuit definition.
type Template struct {
	Name   string
	Params []string
	Body   Statement
}

// Function is a witness-generator helper with a single implicit return.
type Function struct {
	Name   string
	Params []string
	Body   Statement
}
