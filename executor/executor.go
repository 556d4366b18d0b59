package executor

import (
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"

	"github.com/zkscout/zkscout/ast"
	"github.com/zkscout/zkscout/field"
	"github.com/zkscout/zkscout/logger"
	"github.com/zkscout/zkscout/program"
	"github.com/zkscout/zkscout/sym"
	"github.com/zkscout/zkscout/utils"
)

// Executor walks debug statements path-sensitively. Executing one statement
// advances the current state; branching clones it. Paths finishing a
// statement list land in blockEnd, paths flushed by Ret land in final.
type Executor struct {
	setting *Setting
	lib     *program.Library
	f       *field.Field

	cur      *State
	blockEnd []*State
	final    []*State

	// shared with sub-executors: component instances and declared kinds are
	// keyed by fully qualified names, coverage by statement meta
	components utils.Map // sym.Name -> *Component
	varKinds   utils.Map // sym.Name -> program.VarKind
	coverage   *bitset.BitSet
	coverageOn *bool

	// declared array dimensions captured in only-initialization mode
	declaredDims map[sym.ID][]int

	maxDepth *int
	log      zerolog.Logger
}

func New(lib *program.Library, setting *Setting) *Executor {
	off := false
	depth := 0
	n := lib.StatementCount
	if n < 1 {
		n = 1
	}
	return &Executor{
		setting:      setting,
		lib:          lib,
		f:            field.New(setting.Prime),
		cur:          NewState(),
		components:   make(utils.Map),
		varKinds:     make(utils.Map),
		coverage:     bitset.New(uint(2 * n)),
		coverageOn:   &off,
		declaredDims: make(map[sym.ID][]int),
		maxDepth:     &depth,
		log:          logger.Logger(),
	}
}

// child spawns a sub-executor for a callee. Component registry, declared
// kinds, coverage, and the depth statistic are shared; states are not.
func (ex *Executor) child(setting *Setting) *Executor {
	return &Executor{
		setting:      setting,
		lib:          ex.lib,
		f:            ex.f,
		cur:          NewState(),
		components:   ex.components,
		varKinds:     ex.varKinds,
		coverage:     ex.coverage,
		coverageOn:   ex.coverageOn,
		declaredDims: make(map[sym.ID][]int),
		maxDepth:     ex.maxDepth,
		log:          ex.log,
	}
}

// Clear resets all execution state and the library's function counter.
func (ex *Executor) Clear() {
	ex.cur = NewState()
	ex.blockEnd = nil
	ex.final = nil
	ex.components.Clear()
	ex.varKinds.Clear()
	ex.declaredDims = make(map[sym.ID][]int)
	*ex.maxDepth = 0
	ex.lib.ClearFunctionCounter()
}

func (ex *Executor) Field() *field.Field { return ex.f }

func (ex *Executor) MaxDepth() int { return *ex.maxDepth }

// EnableCoverage turns on branch-coverage recording for subsequent runs.
func (ex *Executor) EnableCoverage() { *ex.coverageOn = true }

func (ex *Executor) CoverageCount() int { return int(ex.coverage.Count()) }

func (ex *Executor) ResetCoverage() { ex.coverage.ClearAll() }

func (ex *Executor) recordBranch(meta int, arm bool) {
	idx := uint(meta) * 2
	if arm {
		idx++
	}
	ex.coverage.Set(idx)
}

// MainOwner is the owner path of the instantiated main component.
func (ex *Executor) MainOwner() *sym.OwnerPath {
	return sym.NewOwnerPath(sym.OwnerName{ID: ex.lib.Interner.Intern("main")})
}

func (ex *Executor) prepare(name string, params []*big.Int) (*program.Template, error) {
	tmpl, ok := ex.lib.TemplateByName(name)
	if !ok {
		return nil, programErrorf(ErrUnknownCallee, "template %s", name)
	}
	if len(params) != len(tmpl.Params) {
		return nil, programErrorf(ErrUnknownCallee, "template %s expects %d parameters, got %d",
			name, len(tmpl.Params), len(params))
	}
	owner := ex.MainOwner()
	ex.cur = NewState()
	ex.cur.SetOwner(owner)
	ex.cur.SetTemplateID(tmpl.Name)
	ex.blockEnd = nil
	ex.final = nil
	for i, p := range tmpl.Params {
		n := sym.Name{ID: p, Owner: owner}
		ex.cur.Set(n, sym.NewConstInt(params[i]))
		ex.varKinds.Set(n, program.KindVar)
	}
	return tmpl, nil
}

// RunTemplate executes a template as the main component and returns its
// final state. When several paths survive, the first is kept and a warning
// is logged.
func (ex *Executor) RunTemplate(name string, params []*big.Int) (*State, error) {
	tmpl, err := ex.prepare(name, params)
	if err != nil {
		return nil, err
	}
	if err := ex.Execute(tmpl.Body, 0); err != nil {
		return nil, err
	}
	return ex.takeFinal(name)
}

// ConcreteExecute seeds the state with concrete input bindings before
// running the template body.
func (ex *Executor) ConcreteExecute(name string, params []*big.Int, inputs *Assignment) (*State, error) {
	tmpl, err := ex.prepare(name, params)
	if err != nil {
		return nil, err
	}
	for _, n := range inputs.Names() {
		v, _ := inputs.Get(n)
		ex.cur.Set(n, sym.NewConstInt(v))
	}
	if err := ex.Execute(tmpl.Body, 0); err != nil {
		return nil, err
	}
	return ex.takeFinal(name)
}

func (ex *Executor) takeFinal(name string) (*State, error) {
	finals := append(append([]*State(nil), ex.final...), ex.blockEnd...)
	if len(finals) == 0 {
		return nil, programErrorf(ErrNoFinalState, "template %s", name)
	}
	if len(finals) > 1 {
		ex.log.Warn().Str("template", name).Int("states", len(finals)).
			Msg("multiple final states; keeping the first")
	}
	return finals[0], nil
}

// FeedArguments evaluates and binds template parameters in the current
// scope before a run.
func (ex *Executor) FeedArguments(names []sym.ID, exprs []program.Expression) error {
	if len(names) != len(exprs) {
		return programErrorf(ErrUnknownCallee, "expected %d arguments, got %d", len(names), len(exprs))
	}
	for i, id := range names {
		v, err := ex.valueOf(exprs[i])
		if err != nil {
			return err
		}
		folded, err := ex.simplify(v, true)
		if err != nil {
			return err
		}
		n := sym.Name{ID: id, Owner: ex.cur.Owner()}
		ex.cur.Set(n, folded)
		ex.varKinds.Set(n, program.KindVar)
	}
	return nil
}

// Execute walks the statement list from index bid on the current state,
// fanning out at branches. Every surviving path lands in blockEnd.
func (ex *Executor) Execute(stmts []program.Statement, bid int) error {
	if ex.cur == nil {
		return nil
	}
	if bid >= len(stmts) {
		ex.blockEnd = append(ex.blockEnd, ex.cur)
		return nil
	}

	if ex.setting.OnlyInitializationBlocks {
		switch stmts[bid].(type) {
		case *program.InitializationBlock, *program.Declaration:
		default:
			return ex.Execute(stmts, bid+1)
		}
	}

	switch s := stmts[bid].(type) {
	case *program.InitializationBlock:
		return ex.executeInitBlock(s, stmts, bid)

	case *program.Block:
		ends, err := ex.executeBody(s.Stmts)
		if err != nil {
			return err
		}
		return ex.expand(ends, stmts, bid)

	case *program.IfThenElse:
		return ex.executeIf(s, stmts, bid)

	case *program.While:
		return ex.executeWhile(s, stmts, bid)

	case *program.Return:
		if err := ex.executeReturn(s); err != nil {
			return err
		}

	case *program.Declaration:
		if err := ex.executeDeclaration(s); err != nil {
			return err
		}

	case *program.Substitution:
		if err := ex.executeSubstitution(s); err != nil {
			return err
		}

	case *program.MultSubstitution:
		if err := ex.executeMultSubstitution(s); err != nil {
			return err
		}

	case *program.ConstraintEquality:
		if err := ex.executeConstraintEquality(s); err != nil {
			return err
		}

	case *program.Assert:
		if err := ex.executeAssert(s); err != nil {
			return err
		}

	case *program.UnderscoreSubstitution:
		// evaluated for its side effects only
		if v, err := ex.valueOf(s.Rhs); err != nil {
			return err
		} else if _, err := ex.simplify(v, !ex.setting.PropagateSubstitution); err != nil {
			return err
		}

	case *program.LogCall:
		if !ex.setting.OffTrace {
			for _, arg := range s.Args {
				if v, err := ex.valueOf(arg); err == nil {
					ex.log.Debug().Str("log", v.String(ex.lib.Lookup)).Msg("circuit log")
				}
			}
		}

	case *program.Ret:
		ex.final = append(ex.final, ex.cur)
		ex.cur = nil
		return nil
	}

	return ex.Execute(stmts, bid+1)
}

// executeBody runs a nested statement list and collects its block-end states
// without touching the caller's.
func (ex *Executor) executeBody(body []program.Statement) ([]*State, error) {
	saved := ex.blockEnd
	ex.blockEnd = nil
	err := ex.Execute(body, 0)
	ends := ex.blockEnd
	ex.blockEnd = saved
	if err != nil {
		return nil, err
	}
	return ends, nil
}

// expand resumes the outer statement list on every collected path.
func (ex *Executor) expand(ends []*State, stmts []program.Statement, bid int) error {
	for _, st := range ends {
		ex.cur = st
		if err := ex.Execute(stmts, bid+1); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Executor) executeInitBlock(s *program.InitializationBlock, stmts []program.Statement, bid int) error {
	if ex.setting.SkipInitializationBlocks && s.SignalType == ast.SignalInput {
		return ex.Execute(stmts, bid+1)
	}
	ex.cur.inInitBlock = true
	ends, err := ex.executeBody(s.Stmts)
	if err != nil {
		return err
	}
	for _, st := range ends {
		st.inInitBlock = false
	}
	return ex.expand(ends, stmts, bid)
}

func (ex *Executor) executeIf(s *program.IfThenElse, stmts []program.Statement, bid int) error {
	condVal, err := ex.valueOf(s.Cond)
	if err != nil {
		return err
	}
	// original form folds constants only; the propagated form substitutes
	// bindings when the mode asks for it
	orig, err := ex.simplify(condVal, true)
	if err != nil {
		return err
	}
	prop := orig
	if ex.setting.PropagateSubstitution {
		if prop, err = ex.simplify(condVal, false); err != nil {
			return err
		}
	}

	base := ex.cur
	negOrig := sym.EvalPrefix(ex.f, sym.BoolNot, orig)
	negProp := sym.EvalPrefix(ex.f, sym.BoolNot, prop)

	thenEnds, err := ex.runBranch(base, orig, prop, s.Then, s.MetaID(), true)
	if err != nil {
		return err
	}
	elseEnds, err := ex.runBranch(base, negOrig, negProp, s.Else, s.MetaID(), false)
	if err != nil {
		return err
	}
	// else-branch paths precede then-branch paths
	ends := append(elseEnds, thenEnds...)
	return ex.expand(ends, stmts, bid)
}

// runBranch clones the base state onto one branch arm, records the branch
// condition, and executes the arm body. A branch whose condition folds to
// false contributes nothing.
func (ex *Executor) runBranch(base *State, condOrig, condProp sym.Value, body []program.Statement, meta int, arm bool) ([]*State, error) {
	if b, ok := constBoolOf(ex.f, condProp); ok && !b {
		return nil, nil
	}
	st := base.Clone()
	if b, ok := constBoolOf(ex.f, condProp); !ok || !b {
		if ex.setting.KeepTrackConstraints {
			st.PushSide(condOrig)
			st.PushTrace(condProp)
		}
	}
	st.IncrDepth()
	if st.Depth() > *ex.maxDepth {
		*ex.maxDepth = st.Depth()
	}
	if *ex.coverageOn {
		ex.recordBranch(meta, arm)
	}
	ex.cur = st
	return ex.executeBody(body)
}

func (ex *Executor) executeWhile(s *program.While, stmts []program.Statement, bid int) error {
	condVal, err := ex.valueOf(s.Cond)
	if err != nil {
		return err
	}
	cond, err := ex.simplify(condVal, true)
	if err != nil {
		return err
	}
	b, ok := constBoolOf(ex.f, cond)
	if !ok {
		return programErrorf(ErrNonFoldableWhile, "%s", cond.String(ex.lib.Lookup))
	}
	if !b {
		return ex.Execute(stmts, bid+1)
	}
	ends, err := ex.executeBody(s.Body)
	if err != nil {
		return err
	}
	// re-enter the loop on every path that finished the body
	for _, st := range ends {
		ex.cur = st
		if err := ex.Execute(stmts, bid); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Executor) executeReturn(s *program.Return) error {
	v, err := ex.valueOf(s.Value)
	if err != nil {
		return err
	}
	folded, err := ex.simplify(v, !ex.setting.PropagateSubstitution)
	if err != nil {
		return err
	}
	ret := sym.Name{ID: ex.lib.ReturnID(), Owner: ex.cur.Owner()}
	ex.cur.Set(ret, folded)
	return nil
}

func (ex *Executor) executeDeclaration(s *program.Declaration) error {
	n := sym.Name{ID: s.Name, Owner: ex.cur.Owner()}
	ex.varKinds.Set(n, s.Kind)
	if len(s.Dims) > 0 {
		dims, err := ex.foldDims(s.Dims)
		if err != nil {
			return err
		}
		ex.declaredDims[s.Name] = dims
	}
	ex.cur.Set(n, sym.NewVariable(n))
	return nil
}

func (ex *Executor) executeConstraintEquality(s *program.ConstraintEquality) error {
	lhsOrig, lhsSimpl, err := ex.bothForms(s.Lhs)
	if err != nil {
		return err
	}
	rhsOrig, rhsSimpl, err := ex.bothForms(s.Rhs)
	if err != nil {
		return err
	}
	if ex.setting.KeepTrackConstraints {
		ex.cur.PushTrace(&sym.BinaryOp{L: lhsSimpl, Op: sym.Eq, R: rhsSimpl})
		ex.cur.PushSide(&sym.BinaryOp{L: lhsOrig, Op: sym.Eq, R: rhsOrig})
	}
	return nil
}

func (ex *Executor) executeAssert(s *program.Assert) error {
	_, cond, err := ex.bothForms(s.Cond)
	if err != nil {
		return err
	}
	if b, ok := constBoolOf(ex.f, cond); ok && !b {
		return programErrorf(ErrAssertFailed, "%s", cond.String(ex.lib.Lookup))
	}
	if ex.setting.KeepTrackConstraints {
		ex.cur.PushTrace(cond)
	}
	return nil
}

// bothForms evaluates an expression into its original (constant folding
// only) and simplified (propagated when enabled) forms.
func (ex *Executor) bothForms(e program.Expression) (orig, simplified sym.Value, err error) {
	v, err := ex.valueOf(e)
	if err != nil {
		return nil, nil, err
	}
	orig, err = ex.simplify(v, true)
	if err != nil {
		return nil, nil, err
	}
	if !ex.setting.PropagateSubstitution {
		return orig, orig, nil
	}
	simplified, err = ex.simplify(v, false)
	if err != nil {
		return nil, nil, err
	}
	return orig, simplified, nil
}

func (ex *Executor) foldDims(dims []program.Expression) ([]int, error) {
	out := make([]int, len(dims))
	for i, d := range dims {
		v, err := ex.valueOf(d)
		if err != nil {
			return nil, err
		}
		folded, err := ex.simplify(v, true)
		if err != nil {
			return nil, err
		}
		c, ok := folded.(*sym.ConstInt)
		if !ok || !c.V.IsInt64() {
			return nil, programErrorf(ErrNonFoldableDim, "%s", folded.String(ex.lib.Lookup))
		}
		out[i] = int(c.V.Int64())
	}
	return out, nil
}

func constBoolOf(f *field.Field, v sym.Value) (bool, bool) {
	switch c := v.(type) {
	case *sym.ConstBool:
		return c.B, true
	case *sym.ConstInt:
		return !f.IsZero(c.V), true
	}
	return false, false
}
