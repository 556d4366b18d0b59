package executor

import (
	"github.com/zkscout/zkscout/program"
	"github.com/zkscout/zkscout/sym"
)

// valueOf lowers a debug expression into a symbolic value without consulting
// bindings; substitution is simplify's job. Array indices inside name
// accesses do fold, so loop counters resolve to concrete positions.
func (ex *Executor) valueOf(e program.Expression) (sym.Value, error) {
	switch t := e.(type) {
	case program.Number:
		return sym.NewConstInt(t.V), nil

	case program.Variable:
		target, err := ex.resolveTarget(t.Name, t.Access)
		if err != nil {
			return nil, err
		}
		return sym.NewVariable(target.name), nil

	case program.Infix:
		l, err := ex.valueOf(t.L)
		if err != nil {
			return nil, err
		}
		r, err := ex.valueOf(t.R)
		if err != nil {
			return nil, err
		}
		return sym.EvalInfix(ex.f, l, t.Op, r), nil

	case program.Prefix:
		x, err := ex.valueOf(t.X)
		if err != nil {
			return nil, err
		}
		return sym.EvalPrefix(ex.f, t.Op, x), nil

	case program.InlineSwitch:
		c, err := ex.valueOf(t.Cond)
		if err != nil {
			return nil, err
		}
		tr, err := ex.valueOf(t.True)
		if err != nil {
			return nil, err
		}
		el, err := ex.valueOf(t.Else)
		if err != nil {
			return nil, err
		}
		if b, ok := constBoolOf(ex.f, c); ok {
			if b {
				return tr, nil
			}
			return el, nil
		}
		return &sym.Conditional{Cond: c, Then: tr, Else: el}, nil

	case program.ArrayInLine:
		elems, err := ex.valuesOf(t.Elems)
		if err != nil {
			return nil, err
		}
		return &sym.Array{Elems: elems}, nil

	case program.TupleExpr:
		elems, err := ex.valuesOf(t.Elems)
		if err != nil {
			return nil, err
		}
		return &sym.Tuple{Elems: elems}, nil

	case program.UniformArray:
		v, err := ex.valueOf(t.Value)
		if err != nil {
			return nil, err
		}
		d, err := ex.valueOf(t.Dimension)
		if err != nil {
			return nil, err
		}
		count, err := ex.simplify(d, true)
		if err != nil {
			return nil, err
		}
		return &sym.UniformArray{Elem: v, Count: count}, nil

	case program.CallExpr:
		args, err := ex.valuesOf(t.Args)
		if err != nil {
			return nil, err
		}
		return &sym.Call{Callee: t.Callee, Args: args}, nil
	}
	return nil, programErrorf(ErrUnknownCallee, "unhandled expression %T", e)
}

func (ex *Executor) valuesOf(es []program.Expression) ([]sym.Value, error) {
	out := make([]sym.Value, len(es))
	for i, e := range es {
		v, err := ex.valueOf(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// lhsTarget is a resolved variable reference. For component signal accesses
// like c[1].in[0], name is the fully qualified signal under the component's
// owner path and comp keys the component instance in the registry.
type lhsTarget struct {
	name   sym.Name
	comp   sym.Name
	isComp bool
}

// resolveTarget qualifies a referenced name with the current owner, folding
// array indices. A ComponentAccess splits the access list: indices before it
// select the component instance, accesses after it apply to the signal.
func (ex *Executor) resolveTarget(id sym.ID, access []program.Access) (lhsTarget, error) {
	compIdx := -1
	for i, a := range access {
		if _, ok := a.(program.ComponentAccess); ok {
			compIdx = i
			break
		}
	}

	if compIdx < 0 {
		accs, err := ex.foldAccesses(access)
		if err != nil {
			return lhsTarget{}, err
		}
		return lhsTarget{name: sym.Name{ID: id, Owner: ex.cur.Owner(), Access: accs}}, nil
	}

	preAccs, err := ex.foldAccesses(access[:compIdx])
	if err != nil {
		return lhsTarget{}, err
	}
	preDims, err := constDims(preAccs)
	if err != nil {
		return lhsTarget{}, err
	}
	postAccs, err := ex.foldAccesses(access[compIdx+1:])
	if err != nil {
		return lhsTarget{}, err
	}

	sigID := access[compIdx].(program.ComponentAccess).Name
	compOwner := ex.cur.Owner().Extend(sym.OwnerName{ID: id, Dims: preDims})
	return lhsTarget{
		name:   sym.Name{ID: sigID, Owner: compOwner, Access: postAccs},
		comp:   sym.Name{ID: id, Owner: ex.cur.Owner(), Access: preAccs},
		isComp: true,
	}, nil
}

func (ex *Executor) foldAccesses(access []program.Access) ([]sym.Access, error) {
	if len(access) == 0 {
		return nil, nil
	}
	out := make([]sym.Access, len(access))
	for i, a := range access {
		switch t := a.(type) {
		case program.ArrayAccess:
			v, err := ex.valueOf(t.Index)
			if err != nil {
				return nil, err
			}
			folded, err := ex.simplify(v, true)
			if err != nil {
				return nil, err
			}
			out[i] = &sym.ArrayAccess{Index: folded}
		case program.ComponentAccess:
			out[i] = sym.ComponentAccess{Name: t.Name}
		}
	}
	return out, nil
}

// constDims extracts concrete indices from a folded access list; component
// slots must be addressed by constants.
func constDims(accs []sym.Access) ([]int, error) {
	var dims []int
	for _, a := range accs {
		aa, ok := a.(*sym.ArrayAccess)
		if !ok {
			continue
		}
		c, isConst := aa.Index.(*sym.ConstInt)
		if !isConst || !c.V.IsInt64() {
			return nil, programErrorf(ErrNonFoldableDim, "component index is not constant")
		}
		dims = append(dims, int(c.V.Int64()))
	}
	return dims, nil
}

// accessInts extracts constant indices from a pure array access list; it
// fails silently (ok=false) on symbolic indices.
func accessInts(accs []sym.Access) ([]int, bool) {
	idx := make([]int, 0, len(accs))
	for _, a := range accs {
		aa, ok := a.(*sym.ArrayAccess)
		if !ok {
			return nil, false
		}
		c, isConst := aa.Index.(*sym.ConstInt)
		if !isConst || !c.V.IsInt64() {
			return nil, false
		}
		idx = append(idx, int(c.V.Int64()))
	}
	return idx, true
}

// kindOf looks up the declared kind of a name's base identifier.
func (ex *Executor) kindOf(n sym.Name) program.VarKind {
	base := sym.Name{ID: n.ID, Owner: n.Owner}
	if k, ok := ex.varKinds.Find(base); ok {
		return k.(program.VarKind)
	}
	return program.KindVar
}

// simplify rewrites a value under the current bindings. With onlyFold set,
// only variables whose substitution preserves constraint semantics are
// rewritten: plain variables, constant bindings, and outputs when the mode
// substitutes them. With onlyFold clear every binding is chased, which
// concrete execution and propagating modes rely on.
func (ex *Executor) simplify(v sym.Value, onlyFold bool) (sym.Value, error) {
	switch t := v.(type) {
	case *sym.ConstInt, *sym.ConstBool:
		return v, nil

	case *sym.Variable:
		binding, ok := ex.cur.Get(t.Name)
		if !ok {
			return ex.simplifyElementRead(t, onlyFold)
		}
		if binding.Equal(v) {
			return v, nil
		}
		if onlyFold {
			_, isConstInt := binding.(*sym.ConstInt)
			_, isConstBool := binding.(*sym.ConstBool)
			kind := ex.kindOf(t.Name)
			substitutable := kind == program.KindVar ||
				(ex.setting.SubstituteOutput && kind == program.KindSignalOutput)
			if !substitutable && !isConstInt && !isConstBool {
				return v, nil
			}
		}
		return ex.simplify(binding, onlyFold)

	case *sym.BinaryOp:
		l, err := ex.simplify(t.L, onlyFold)
		if err != nil {
			return nil, err
		}
		r, err := ex.simplify(t.R, onlyFold)
		if err != nil {
			return nil, err
		}
		return sym.EvalInfix(ex.f, l, t.Op, r), nil

	case *sym.UnaryOp:
		x, err := ex.simplify(t.X, onlyFold)
		if err != nil {
			return nil, err
		}
		return sym.EvalPrefix(ex.f, t.Op, x), nil

	case *sym.Conditional:
		c, err := ex.simplify(t.Cond, onlyFold)
		if err != nil {
			return nil, err
		}
		if b, ok := constBoolOf(ex.f, c); ok {
			if b {
				return ex.simplify(t.Then, onlyFold)
			}
			return ex.simplify(t.Else, onlyFold)
		}
		th, err := ex.simplify(t.Then, onlyFold)
		if err != nil {
			return nil, err
		}
		el, err := ex.simplify(t.Else, onlyFold)
		if err != nil {
			return nil, err
		}
		return &sym.Conditional{Cond: c, Then: th, Else: el}, nil

	case *sym.Array:
		elems, err := ex.simplifySlice(t.Elems, onlyFold)
		if err != nil {
			return nil, err
		}
		return &sym.Array{Elems: elems}, nil

	case *sym.Tuple:
		elems, err := ex.simplifySlice(t.Elems, onlyFold)
		if err != nil {
			return nil, err
		}
		return &sym.Tuple{Elems: elems}, nil

	case *sym.UniformArray:
		elem, err := ex.simplify(t.Elem, onlyFold)
		if err != nil {
			return nil, err
		}
		count, err := ex.simplify(t.Count, onlyFold)
		if err != nil {
			return nil, err
		}
		return &sym.UniformArray{Elem: elem, Count: count}, nil

	case *sym.Call:
		args, err := ex.simplifySlice(t.Args, onlyFold)
		if err != nil {
			return nil, err
		}
		if fn, ok := ex.lib.Function(t.Callee); ok {
			return ex.callFunction(fn, args)
		}
		if _, ok := ex.lib.Template(t.Callee); ok {
			return &sym.Call{Callee: t.Callee, Args: args}, nil
		}
		return nil, programErrorf(ErrUnknownCallee, "%s", ex.lib.Lookup(t.Callee))
	}
	return v, nil
}

// simplifyElementRead handles a read of an unbound name with accesses: when
// the base identifier is bound to an array value, the element is picked out
// of it.
func (ex *Executor) simplifyElementRead(t *sym.Variable, onlyFold bool) (sym.Value, error) {
	if len(t.Name.Access) == 0 {
		return t, nil
	}
	idx, ok := accessInts(t.Name.Access)
	if !ok {
		return t, nil
	}
	base := sym.Name{ID: t.Name.ID, Owner: t.Name.Owner}
	bv, ok := ex.cur.Get(base)
	if !ok {
		return t, nil
	}
	el, ok := sym.AccessMultiDim(bv, idx)
	if !ok {
		return t, nil
	}
	if el.Equal(bv) {
		return t, nil
	}
	return ex.simplify(el, onlyFold)
}

func (ex *Executor) simplifySlice(vs []sym.Value, onlyFold bool) ([]sym.Value, error) {
	out := make([]sym.Value, len(vs))
	for i, v := range vs {
		s, err := ex.simplify(v, onlyFold)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// callFunction runs a witness-generator function eagerly under a fresh
// counted owner. Trace constraints it produced flow into the caller; the
// return binding comes back as the call's value when it folded to a
// constant, otherwise the call stays residual.
func (ex *Executor) callFunction(fn *program.Function, args []sym.Value) (sym.Value, error) {
	owner := ex.cur.Owner().Extend(sym.OwnerName{ID: fn.Name, Counter: ex.lib.NextCall(fn.Name)})

	sub := ex.child(ex.setting)
	sub.cur.SetOwner(owner)
	sub.cur.SetTemplateID(fn.Name)
	sub.cur.SetDepth(ex.cur.Depth())
	if len(args) != len(fn.Params) {
		return nil, programErrorf(ErrUnknownCallee, "function %s expects %d arguments, got %d",
			ex.lib.Lookup(fn.Name), len(fn.Params), len(args))
	}
	for i, p := range fn.Params {
		n := sym.Name{ID: p, Owner: owner}
		sub.cur.Set(n, args[i])
		ex.varKinds.Set(n, program.KindVar)
	}

	if err := sub.Execute(fn.Body, 0); err != nil {
		return nil, err
	}
	finals := append(append([]*State(nil), sub.final...), sub.blockEnd...)
	if len(finals) == 0 {
		return nil, programErrorf(ErrNoFinalState, "function %s", ex.lib.Lookup(fn.Name))
	}
	if len(finals) > 1 {
		ex.log.Warn().Str("function", ex.lib.Lookup(fn.Name)).Int("states", len(finals)).
			Msg("multiple final states; keeping the first")
	}
	fin := finals[0]

	if ex.setting.KeepTrackConstraints {
		for _, c := range fin.Trace() {
			ex.cur.PushTrace(c)
		}
	}

	ret, ok := fin.Get(sym.Name{ID: ex.lib.ReturnID(), Owner: owner})
	if !ok {
		return &sym.Call{Callee: fn.Name, Args: args}, nil
	}
	switch ret.(type) {
	case *sym.ConstInt, *sym.ConstBool, *sym.Array, *sym.UniformArray:
		return ret, nil
	}
	return &sym.Call{Callee: fn.Name, Args: args}, nil
}
