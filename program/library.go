package program

import (
	"fmt"
	"math/big"

	"github.com/zkscout/zkscout/ast"
	"github.com/zkscout/zkscout/sym"
)

func bigZero() *big.Int { return new(big.Int) }

// Template is the descriptor of a parameterized sub-circuit.
type Template struct {
	Name    sym.ID
	Params  []sym.ID
	Inputs  []sym.ID
	Outputs []sym.ID
	// InputDims holds the declared dimension expressions per input signal;
	// they are evaluated under the captured template arguments when a
	// component is initialized.
	InputDims map[sym.ID][]Expression
	VarKinds  map[sym.ID]VarKind
	Body      []Statement
	// IsLessThan marks the standard comparison template so the executor can
	// inject its canonical relation at dispatch.
	IsLessThan bool
}

// Function is the descriptor of a witness-generator function; it has a
// single implicit return binding and produces no constraints.
type Function struct {
	Name   sym.ID
	Params []sym.ID
	Body   []Statement
}

// Library is the registry of templates and functions keyed by interned id.
type Library struct {
	Interner  *Interner
	Templates map[sym.ID]*Template
	Functions map[sym.ID]*Function

	// per-function invocation counter so owner paths disambiguate repeated
	// or recursive calls
	fnCounter map[sym.ID]int

	// number of debug statements, for coverage bitmap sizing
	StatementCount int
}

// Build interns and adapts all sources into a library.
func Build(templates []*ast.Template, functions []*ast.Function) (*Library, error) {
	in := NewInterner()
	a := NewAdapter(in, templates)
	lib := &Library{
		Interner:  in,
		Templates: make(map[sym.ID]*Template),
		Functions: make(map[sym.ID]*Function),
		fnCounter: make(map[sym.ID]int),
	}
	for _, t := range templates {
		if err := lib.registerTemplate(a, t); err != nil {
			return nil, err
		}
	}
	for _, f := range functions {
		lib.registerFunction(a, f)
	}
	lib.StatementCount = a.StatementCount()
	return lib, nil
}

func (l *Library) registerTemplate(a *Adapter, t *ast.Template) error {
	id := l.Interner.Intern(t.Name)
	if _, dup := l.Templates[id]; dup {
		return fmt.Errorf("template %q registered twice", t.Name)
	}
	desc := &Template{
		Name:       id,
		InputDims:  make(map[sym.ID][]Expression),
		VarKinds:   make(map[sym.ID]VarKind),
		Body:       a.Statements(t.Body),
		IsLessThan: t.Name == "LessThan",
	}
	for _, p := range t.Params {
		pid := l.Interner.Intern(p)
		desc.Params = append(desc.Params, pid)
		desc.VarKinds[pid] = KindVar
	}
	scanDeclarations(desc.Body, func(d *Declaration) {
		desc.VarKinds[d.Name] = d.Kind
		switch d.Kind {
		case KindSignalInput:
			desc.Inputs = append(desc.Inputs, d.Name)
			desc.InputDims[d.Name] = d.Dims
		case KindSignalOutput:
			desc.Outputs = append(desc.Outputs, d.Name)
		}
	})
	l.Templates[id] = desc
	return nil
}

func (l *Library) registerFunction(a *Adapter, f *ast.Function) {
	id := l.Interner.Intern(f.Name)
	desc := &Function{Name: id}
	for _, p := range f.Params {
		desc.Params = append(desc.Params, l.Interner.Intern(p))
	}
	desc.Body = a.Statements(f.Body)
	// every path through a function body must flush into a final state
	desc.Body = append(desc.Body, &Ret{meta: a.newMeta()})
	l.Functions[id] = desc
}

// scanDeclarations visits declarations in source order, descending into
// initialization blocks and branches but not into expressions.
func scanDeclarations(stmts []Statement, f func(*Declaration)) {
	for _, s := range stmts {
		switch t := s.(type) {
		case *Declaration:
			f(t)
		case *InitializationBlock:
			scanDeclarations(t.Stmts, f)
		case *Block:
			scanDeclarations(t.Stmts, f)
		case *IfThenElse:
			scanDeclarations(t.Then, f)
			scanDeclarations(t.Else, f)
		case *While:
			scanDeclarations(t.Body, f)
		}
	}
}

func (l *Library) Template(id sym.ID) (*Template, bool) {
	t, ok := l.Templates[id]
	return t, ok
}

func (l *Library) Function(id sym.ID) (*Function, bool) {
	f, ok := l.Functions[id]
	return f, ok
}

func (l *Library) TemplateByName(name string) (*Template, bool) {
	id, ok := l.Interner.Get(name)
	if !ok {
		return nil, false
	}
	return l.Template(id)
}

// NextCall increments and returns the invocation counter of a function.
func (l *Library) NextCall(id sym.ID) int {
	l.fnCounter[id]++
	return l.fnCounter[id]
}

// ClearFunctionCounter resets invocation counters between analysis runs.
func (l *Library) ClearFunctionCounter() {
	for k := range l.fnCounter {
		delete(l.fnCounter, k)
	}
}

func (l *Library) ReturnID() sym.ID { return l.Interner.ReturnID() }

// Lookup is the rendering callback handed to sym values.
func (l *Library) Lookup(id sym.ID) string { return l.Interner.Lookup(id) }
