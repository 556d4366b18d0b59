package executor

import (
	"github.com/zkscout/zkscout/ast"
	"github.com/zkscout/zkscout/program"
	"github.com/zkscout/zkscout/sym"
	"github.com/zkscout/zkscout/utils"
)

// executeSubstitution implements `lhs = rhs`, `lhs <-- rhs` and `lhs <== rhs`.
// The right-hand side is kept in two forms: the original (constant folding
// only) feeds the side constraints, the simplified form feeds the bindings
// and the trace. Array values distribute element-wise, calls to templates
// initialize components, and filling a component's last input dispatches it.
func (ex *Executor) executeSubstitution(s *program.Substitution) error {
	orig, simplified, err := ex.bothForms(s.Rhs)
	if err != nil {
		return err
	}

	target, err := ex.resolveTarget(s.Name, s.Access)
	if err != nil {
		return err
	}

	if call, ok := simplified.(*sym.Call); ok {
		if _, isTemplate := ex.lib.Template(call.Callee); isTemplate {
			return ex.initializeComponent(target, call)
		}
	}

	switch simplified.(type) {
	case *sym.Array, *sym.UniformArray:
		for _, el := range sym.EnumerateArray(simplified) {
			elOrig := el.Leaf
			if o, ok := sym.AccessMultiDim(orig, el.Pos); ok {
				elOrig = o
			}
			elName := extendName(target.name, el.Pos)
			if err := ex.assignOne(s.Op, target, elName, elOrig, el.Leaf); err != nil {
				return err
			}
		}
		return nil
	}

	return ex.assignOne(s.Op, target, target.name, orig, simplified)
}

func extendName(n sym.Name, pos []int) sym.Name {
	if len(pos) == 0 {
		return n
	}
	access := make([]sym.Access, len(n.Access), len(n.Access)+len(pos))
	copy(access, n.Access)
	for _, i := range pos {
		access = append(access, &sym.ArrayAccess{Index: sym.NewConstInt64(int64(i))})
	}
	return sym.Name{ID: n.ID, Owner: n.Owner, Access: access}
}

// assignOne binds one scalar name and records the constraints the assignment
// operator declares. `<==` records the witness rule and the algebraic
// relation, `<--` records the witness rule only, `=` records nothing.
func (ex *Executor) assignOne(op ast.AssignOp, target lhsTarget, name sym.Name, orig, simplified sym.Value) error {
	lhs := sym.NewVariable(name)
	ex.cur.Set(name, simplified)

	if ex.setting.KeepTrackConstraints {
		switch op {
		case ast.AssignConstraint:
			ex.cur.PushTrace(&sym.AssignEq{L: lhs, R: simplified})
			ex.cur.PushSide(&sym.BinaryOp{L: lhs, Op: sym.Eq, R: orig})
		case ast.AssignSignal:
			ex.cur.PushTrace(&sym.Assign{L: lhs, R: simplified})
		}
	}

	if target.isComp {
		if ci, ok := ex.components.Find(target.comp); ok {
			comp := ci.(*Component)
			if comp.HasInput(name) {
				comp.SetInput(name, simplified)
				if comp.Ready() && !comp.Done {
					return ex.dispatchComponent(comp)
				}
			}
		}
	}
	return nil
}

// initializeComponent registers a template instantiation. The declared input
// dimensions are learned by running just the callee's declarations under the
// captured arguments; every input slot is pre-registered unset.
func (ex *Executor) initializeComponent(target lhsTarget, call *sym.Call) error {
	tmpl, _ := ex.lib.Template(call.Callee)
	if len(call.Args) != len(tmpl.Params) {
		return programErrorf(ErrUnknownCallee, "template %s expects %d parameters, got %d",
			ex.lib.Lookup(call.Callee), len(tmpl.Params), len(call.Args))
	}

	dims, err := constDims(target.name.Access)
	if err != nil {
		return err
	}
	compOwner := ex.cur.Owner().Extend(sym.OwnerName{ID: target.name.ID, Dims: dims})

	comp := &Component{
		TemplateID: call.Callee,
		Args:       call.Args,
		Owner:      compOwner,
		Inputs:     make(utils.Map),
	}

	initSetting := ex.setting.clone()
	initSetting.OnlyInitializationBlocks = true
	initSetting.SkipInitializationBlocks = false
	initSetting.KeepTrackConstraints = false
	sub := ex.child(initSetting)
	sub.cur.SetOwner(compOwner)
	sub.cur.SetTemplateID(call.Callee)
	for i, p := range tmpl.Params {
		n := sym.Name{ID: p, Owner: compOwner}
		sub.cur.Set(n, call.Args[i])
		ex.varKinds.Set(n, program.KindVar)
	}
	if err := sub.Execute(tmpl.Body, 0); err != nil {
		return err
	}
	for _, inID := range tmpl.Inputs {
		sym.RegisterArrayElements(comp.Inputs, inID, compOwner, sub.declaredDims[inID])
	}

	ex.components.Set(target.name, comp)
	ex.cur.Set(target.name, sym.NewVariable(target.name))

	// an input-less component runs the moment it is created
	if comp.Ready() && !comp.Done {
		return ex.dispatchComponent(comp)
	}
	return nil
}

// dispatchComponent runs a fully wired component and drains its final state
// into the caller: constraints append in callee order, signal bindings merge
// under the component's owner path. The canonical comparison relation is
// injected right after the callee's own constraints.
func (ex *Executor) dispatchComponent(comp *Component) error {
	comp.Done = true
	tmpl, _ := ex.lib.Template(comp.TemplateID)

	sub := ex.child(ex.setting)
	sub.cur.SetOwner(comp.Owner)
	sub.cur.SetTemplateID(comp.TemplateID)
	sub.cur.SetDepth(ex.cur.Depth())
	for i, p := range tmpl.Params {
		n := sym.Name{ID: p, Owner: comp.Owner}
		sub.cur.Set(n, comp.Args[i])
		ex.varKinds.Set(n, program.KindVar)
	}
	comp.Inputs.Range(func(k utils.Hashable, v interface{}) bool {
		sub.cur.Set(k.(sym.Name), v.(sym.Value))
		return true
	})

	if err := sub.Execute(tmpl.Body, 0); err != nil {
		return err
	}
	finals := append(append([]*State(nil), sub.final...), sub.blockEnd...)
	if len(finals) == 0 {
		return programErrorf(ErrNoFinalState, "template %s", ex.lib.Lookup(comp.TemplateID))
	}
	if len(finals) > 1 {
		ex.log.Warn().Str("template", ex.lib.Lookup(comp.TemplateID)).Int("states", len(finals)).
			Msg("multiple final states; keeping the first")
	}
	fin := finals[0]

	for _, c := range fin.Trace() {
		ex.cur.PushTrace(c)
	}
	for _, c := range fin.Side() {
		ex.cur.PushSide(c)
	}
	fin.Values().Range(func(k utils.Hashable, v interface{}) bool {
		if v != nil {
			ex.cur.Set(k.(sym.Name), v.(sym.Value))
		}
		return true
	})

	if tmpl.IsLessThan && ex.setting.KeepTrackConstraints {
		if err := ex.injectLessThan(tmpl, comp); err != nil {
			return err
		}
	}
	return nil
}

// injectLessThan appends the canonical relation of the standard comparison
// template, phrased over its wired inputs and its output variable.
func (ex *Executor) injectLessThan(tmpl *program.Template, comp *Component) error {
	if len(tmpl.Inputs) != 1 || len(tmpl.Outputs) != 1 {
		return nil
	}
	inID := tmpl.Inputs[0]
	slot := func(i int64) (sym.Value, bool) {
		n := sym.Name{ID: inID, Owner: comp.Owner,
			Access: []sym.Access{&sym.ArrayAccess{Index: sym.NewConstInt64(i)}}}
		v, ok := comp.Inputs.Find(n)
		if !ok || v == nil {
			return nil, false
		}
		return v.(sym.Value), true
	}
	a, okA := slot(0)
	b, okB := slot(1)
	if !okA || !okB {
		return nil
	}
	out := sym.NewVariable(sym.Name{ID: tmpl.Outputs[0], Owner: comp.Owner})
	ex.cur.PushTrace(sym.LessThanConstraint(out, a, b))
	return nil
}

// executeMultSubstitution distributes a tuple assignment pairwise. Each
// left-hand element resolves like a standalone substitution target, so a
// tuple that wires component inputs fills their slots and dispatches the
// component like the single-name form does.
func (ex *Executor) executeMultSubstitution(s *program.MultSubstitution) error {
	lhsTuple, ok := s.Lhs.(program.TupleExpr)
	if !ok {
		lhsVal, err := ex.valueOf(s.Lhs)
		if err != nil {
			return err
		}
		ex.log.Warn().Str("lhs", lhsVal.String(ex.lib.Lookup)).
			Msg("unsupported multi-substitution left-hand side")
		return nil
	}
	orig, simplified, err := ex.bothForms(s.Rhs)
	if err != nil {
		return err
	}

	rhsElems := tupleElems(simplified)
	origElems := tupleElems(orig)
	if rhsElems == nil || len(rhsElems) != len(lhsTuple.Elems) {
		ex.log.Warn().Str("rhs", simplified.String(ex.lib.Lookup)).
			Msg("multi-substitution arity mismatch")
		return nil
	}
	if len(origElems) != len(rhsElems) {
		origElems = rhsElems
	}

	for i, l := range lhsTuple.Elems {
		lv, ok := l.(program.Variable)
		if !ok {
			continue
		}
		target, err := ex.resolveTarget(lv.Name, lv.Access)
		if err != nil {
			return err
		}
		if err := ex.assignOne(s.Op, target, target.name, origElems[i], rhsElems[i]); err != nil {
			return err
		}
	}
	return nil
}

func tupleElems(v sym.Value) []sym.Value {
	switch t := v.(type) {
	case *sym.Tuple:
		return t.Elems
	case *sym.Array:
		return t.Elems
	}
	return nil
}
