package program

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zkscout/zkscout/ast"
	"github.com/zkscout/zkscout/logger"
)

// Adapter rewrites the source AST into the debug AST: names interned,
// anonymous components desugared, nested blocks flattened into statement
// lists, and every statement numbered with a dense meta index.
type Adapter struct {
	interner  *Interner
	templates map[string]*ast.Template
	nextMeta  int
	anonSeq   int
	log       zerolog.Logger
}

func NewAdapter(in *Interner, templates []*ast.Template) *Adapter {
	m := make(map[string]*ast.Template, len(templates))
	for _, t := range templates {
		m[t.Name] = t
	}
	return &Adapter{
		interner:  in,
		templates: m,
		log:       logger.Logger(),
	}
}

// StatementCount returns the number of meta indices handed out so far.
func (a *Adapter) StatementCount() int { return a.nextMeta }

func (a *Adapter) newMeta() meta {
	m := meta{Meta: a.nextMeta}
	a.nextMeta++
	return m
}

// Statements adapts one source statement into a flattened debug statement
// list. Blocks dissolve into their children; anonymous-component preludes are
// spliced in front of the statement that used them.
func (a *Adapter) Statements(s ast.Statement) []Statement {
	switch t := s.(type) {
	case ast.Block:
		var out []Statement
		for _, c := range t.Stmts {
			out = append(out, a.Statements(c)...)
		}
		return out

	case ast.InitializationBlock:
		var inner []Statement
		for _, c := range t.Stmts {
			inner = append(inner, a.Statements(c)...)
		}
		return []Statement{&InitializationBlock{meta: a.newMeta(), SignalType: t.SignalType, Stmts: inner}}

	case ast.IfThenElse:
		cond, prelude := a.Expression(t.Cond)
		st := &IfThenElse{meta: a.newMeta(), Cond: cond, Then: a.Statements(t.Then)}
		if t.Else != nil {
			st.Else = a.Statements(t.Else)
		}
		return append(prelude, st)

	case ast.While:
		cond, prelude := a.Expression(t.Cond)
		if len(prelude) > 0 {
			// an anonymous component in a loop condition would re-dispatch
			// per iteration; nobody writes that, refuse it early
			a.log.Warn().Msg("anonymous component in while condition is not supported")
		}
		return []Statement{&While{meta: a.newMeta(), Cond: cond, Body: a.Statements(t.Body)}}

	case ast.Return:
		v, prelude := a.Expression(t.Value)
		return append(prelude, &Return{meta: a.newMeta(), Value: v})

	case ast.Declaration:
		d := &Declaration{meta: a.newMeta(), Name: a.interner.Intern(t.Name), Kind: varKind(t)}
		for _, dim := range t.Dims {
			e, _ := a.Expression(dim)
			d.Dims = append(d.Dims, e)
		}
		return []Statement{d}

	case ast.Substitution:
		rhs, prelude := a.Expression(t.Rhs)
		access, pre2 := a.accessList(t.Access)
		prelude = append(prelude, pre2...)
		return append(prelude, &Substitution{
			meta:   a.newMeta(),
			Name:   a.interner.Intern(t.Name),
			Access: access,
			Op:     t.Op,
			Rhs:    rhs,
		})

	case ast.MultSubstitution:
		lhs, p1 := a.Expression(t.Lhs)
		rhs, p2 := a.Expression(t.Rhs)
		prelude := append(p1, p2...)
		return append(prelude, &MultSubstitution{meta: a.newMeta(), Lhs: lhs, Op: t.Op, Rhs: rhs})

	case ast.ConstraintEquality:
		lhs, p1 := a.Expression(t.Lhs)
		rhs, p2 := a.Expression(t.Rhs)
		prelude := append(p1, p2...)
		return append(prelude, &ConstraintEquality{meta: a.newMeta(), Lhs: lhs, Rhs: rhs})

	case ast.Assert:
		cond, prelude := a.Expression(t.Cond)
		return append(prelude, &Assert{meta: a.newMeta(), Cond: cond})

	case ast.UnderscoreSubstitution:
		rhs, prelude := a.Expression(t.Rhs)
		return append(prelude, &UnderscoreSubstitution{meta: a.newMeta(), Op: t.Op, Rhs: rhs})

	case ast.LogCall:
		var args []Expression
		var prelude []Statement
		for _, x := range t.Args {
			e, p := a.Expression(x)
			prelude = append(prelude, p...)
			args = append(args, e)
		}
		return append(prelude, &LogCall{meta: a.newMeta(), Args: args})
	}
	a.log.Warn().Str("stmt", fmt.Sprintf("%T", s)).Msg("unhandled statement variant")
	return nil
}

func varKind(d ast.Declaration) VarKind {
	switch d.Type {
	case ast.ComponentType:
		return KindComponent
	case ast.SignalVarType:
		switch d.SignalType {
		case ast.SignalInput:
			return KindSignalInput
		case ast.SignalOutput:
			return KindSignalOutput
		default:
			return KindSignalIntermediate
		}
	default:
		return KindVar
	}
}

func (a *Adapter) accessList(acc []ast.Access) ([]Access, []Statement) {
	var out []Access
	var prelude []Statement
	for _, x := range acc {
		switch t := x.(type) {
		case ast.ComponentAccess:
			out = append(out, ComponentAccess{Name: a.interner.Intern(t.Name)})
		case ast.ArrayAccess:
			e, p := a.Expression(t.Index)
			prelude = append(prelude, p...)
			out = append(out, ArrayAccess{Index: e})
		}
	}
	return out, prelude
}

// Expression adapts a source expression. The returned statements are the
// prelude an anonymous component expands into; they must execute before the
// statement embedding the expression.
func (a *Adapter) Expression(e ast.Expression) (Expression, []Statement) {
	switch t := e.(type) {
	case ast.Number:
		return Number{V: t.V}, nil
	case ast.Variable:
		access, prelude := a.accessList(t.Access)
		return Variable{Name: a.interner.Intern(t.Name), Access: access}, prelude
	case ast.Infix:
		l, p1 := a.Expression(t.L)
		r, p2 := a.Expression(t.R)
		return Infix{L: l, Op: t.Op, R: r}, append(p1, p2...)
	case ast.Prefix:
		x, p := a.Expression(t.X)
		return Prefix{Op: t.Op, X: x}, p
	case ast.InlineSwitch:
		c, p1 := a.Expression(t.Cond)
		tr, p2 := a.Expression(t.True)
		el, p3 := a.Expression(t.Else)
		return InlineSwitch{Cond: c, True: tr, Else: el}, append(append(p1, p2...), p3...)
	case ast.Parallel:
		return a.Expression(t.X)
	case ast.ArrayInLine:
		elems, prelude := a.expressions(t.Elems)
		return ArrayInLine{Elems: elems}, prelude
	case ast.Tuple:
		elems, prelude := a.expressions(t.Elems)
		return TupleExpr{Elems: elems}, prelude
	case ast.UniformArray:
		v, p1 := a.Expression(t.Value)
		d, p2 := a.Expression(t.Dimension)
		return UniformArray{Value: v, Dimension: d}, append(p1, p2...)
	case ast.Call:
		args, prelude := a.expressions(t.Args)
		return CallExpr{Callee: a.interner.Intern(t.Name), Args: args}, prelude
	case ast.BusCall:
		a.log.Warn().Str("bus", t.Name).Msg("bus calls are not handled; treating as zero")
		return Number{V: bigZero()}, nil
	case ast.AnonymousComp:
		return a.desugarAnonymous(t)
	}
	a.log.Warn().Str("expr", fmt.Sprintf("%T", e)).Msg("unhandled expression variant")
	return Number{V: bigZero()}, nil
}

func (a *Adapter) expressions(es []ast.Expression) ([]Expression, []Statement) {
	var out []Expression
	var prelude []Statement
	for _, e := range es {
		x, p := a.Expression(e)
		prelude = append(prelude, p...)
		out = append(out, x)
	}
	return out, prelude
}

// desugarAnonymous lowers `Temp(params)(signals)` into a fresh component
// declaration, a call substitution, one `<==` per input signal, and a read
// of the template's first output.
func (a *Adapter) desugarAnonymous(t ast.AnonymousComp) (Expression, []Statement) {
	tmpl, ok := a.templates[t.Name]
	if !ok {
		a.log.Warn().Str("template", t.Name).Msg("anonymous component references unknown template")
		return Number{V: bigZero()}, nil
	}
	inputs, outputs := signalNames(tmpl)
	if len(t.Signals) != len(inputs) {
		a.log.Warn().Str("template", t.Name).
			Int("given", len(t.Signals)).Int("declared", len(inputs)).
			Msg("anonymous component input arity mismatch")
	}
	a.anonSeq++
	anon := a.interner.Intern(fmt.Sprintf("anon_%s_%d", t.Name, a.anonSeq))

	var prelude []Statement
	prelude = append(prelude, &Declaration{meta: a.newMeta(), Name: anon, Kind: KindComponent})

	params, p := a.expressions(t.Params)
	prelude = append(prelude, p...)
	prelude = append(prelude, &Substitution{
		meta: a.newMeta(),
		Name: anon,
		Op:   ast.AssignVar,
		Rhs:  CallExpr{Callee: a.interner.Intern(t.Name), Args: params},
	})

	for i, sig := range t.Signals {
		if i >= len(inputs) {
			break
		}
		rhs, p := a.Expression(sig)
		prelude = append(prelude, p...)
		prelude = append(prelude, &Substitution{
			meta:   a.newMeta(),
			Name:   anon,
			Access: []Access{ComponentAccess{Name: a.interner.Intern(inputs[i])}},
			Op:     ast.AssignConstraint,
			Rhs:    rhs,
		})
	}

	if len(outputs) == 0 {
		a.log.Warn().Str("template", t.Name).Msg("anonymous component of template without outputs")
		return Number{V: bigZero()}, prelude
	}
	out := Variable{
		Name:   anon,
		Access: []Access{ComponentAccess{Name: a.interner.Intern(outputs[0])}},
	}
	return out, prelude
}

// signalNames scans a source template body for input and output signal names
// in declaration order.
func signalNames(t *ast.Template) (inputs, outputs []string) {
	var walk func(s ast.Statement)
	walk = func(s ast.Statement) {
		switch b := s.(type) {
		case ast.Block:
			for _, c := range b.Stmts {
				walk(c)
			}
		case ast.InitializationBlock:
			for _, c := range b.Stmts {
				walk(c)
			}
		case ast.Declaration:
			if b.Type != ast.SignalVarType {
				return
			}
			switch b.SignalType {
			case ast.SignalInput:
				inputs = append(inputs, b.Name)
			case ast.SignalOutput:
				outputs = append(outputs, b.Name)
			}
		}
	}
	walk(t.Body)
	return inputs, outputs
}
