package search

import (
	"math/big"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/zkscout/zkscout/executor"
	"github.com/zkscout/zkscout/field"
	"github.com/zkscout/zkscout/logger"
	"github.com/zkscout/zkscout/program"
	"github.com/zkscout/zkscout/sym"
	"github.com/zkscout/zkscout/utils"
)

// VerificationSetting is the per-analysis search configuration.
type VerificationSetting struct {
	TargetTemplateName string
	Prime              *big.Int

	// Range bounds the heuristic brute-force window around 0 and p.
	Range int

	TemplateParamNames  []string
	TemplateParamValues []*big.Int

	// QuickMode restricts brute force to {0, 1, p-1}.
	QuickMode bool

	// ProgressInterval, in generations or candidates, throttles progress
	// display; zero disables it.
	ProgressInterval int
}

// Searcher hunts counterexamples over the trace and side constraint streams
// of one symbolically executed template.
type Searcher struct {
	lib     *program.Library
	f       *field.Field
	setting *VerificationSetting
	cfg     *MutationConfig

	trace []sym.Value
	side  []sym.Value

	// participating variables in first-appearance order; inputs and outputs
	// are the main template's, flattened per element
	vars    []sym.Name
	inputs  []sym.Name
	outputs []sym.Name

	rng *rand.Rand
	log zerolog.Logger

	// per-generation best scores, recorded when the config asks for them
	fitnessScores []string
}

// NewSearcher derives the participating, input, and output variables from
// the final symbolic state of the target template.
func NewSearcher(lib *program.Library, final *executor.State, setting *VerificationSetting, cfg *MutationConfig) *Searcher {
	if cfg == nil {
		cfg = DefaultMutationConfig()
	}
	s := &Searcher{
		lib:     lib,
		f:       field.New(setting.Prime),
		setting: setting,
		cfg:     cfg,
		trace:   final.Trace(),
		side:    final.Side(),
		rng:     cfg.rng(),
		log:     logger.Logger(),
	}
	s.classifyVariables()
	return s
}

func (s *Searcher) classifyVariables() {
	tmpl, ok := s.lib.TemplateByName(s.setting.TargetTemplateName)
	if !ok {
		return
	}
	inputIDs := make(map[sym.ID]bool, len(tmpl.Inputs))
	for _, id := range tmpl.Inputs {
		inputIDs[id] = true
	}
	outputIDs := make(map[sym.ID]bool, len(tmpl.Outputs))
	for _, id := range tmpl.Outputs {
		outputIDs[id] = true
	}

	seen := make(utils.Map)
	var walk func(v sym.Value)
	walk = func(v sym.Value) {
		switch t := v.(type) {
		case *sym.Variable:
			if _, dup := seen.Find(t.Name); dup {
				return
			}
			seen.Set(t.Name, true)
			s.vars = append(s.vars, t.Name)
			if t.Name.Owner.Len() == 1 {
				if inputIDs[t.Name.ID] {
					s.inputs = append(s.inputs, t.Name)
				} else if outputIDs[t.Name.ID] {
					s.outputs = append(s.outputs, t.Name)
				}
			}
		case *sym.BinaryOp:
			walk(t.L)
			walk(t.R)
		case *sym.UnaryOp:
			walk(t.X)
		case *sym.Conditional:
			walk(t.Cond)
			walk(t.Then)
			walk(t.Else)
		case *sym.Array:
			for _, e := range t.Elems {
				walk(e)
			}
		case *sym.Tuple:
			for _, e := range t.Elems {
				walk(e)
			}
		case *sym.UniformArray:
			walk(t.Elem)
			walk(t.Count)
		case *sym.Call:
			for _, a := range t.Args {
				walk(a)
			}
		case *sym.Assign:
			walk(t.L)
			walk(t.R)
		case *sym.AssignEq:
			walk(t.L)
			walk(t.R)
		}
	}
	for _, c := range s.trace {
		walk(c)
	}
	for _, c := range s.side {
		walk(c)
	}
}

// Variables returns the participating variables in first-appearance order.
func (s *Searcher) Variables() []sym.Name { return s.vars }

func (s *Searcher) Inputs() []sym.Name { return s.inputs }

func (s *Searcher) Outputs() []sym.Name { return s.outputs }

func evalAll(f *field.Field, asg *executor.Assignment, cs []sym.Value) bool {
	for _, c := range cs {
		ok, evaluated := executor.EvalConstraint(f, asg, c)
		if !evaluated || !ok {
			return false
		}
	}
	return true
}

// VerifyAssignment is the oracle: it decides what an assignment witnesses.
// Trace-satisfying assignments the side constraints reject are
// over-constrained. Side-satisfying assignments the trace rejects are
// replayed concretely; an output the replay computes differently is an
// under-constrained witness, and inputs the replay rejects outright are an
// unexpected-input witness.
func (s *Searcher) VerifyAssignment(asg *executor.Assignment) (Flag, *sym.Name) {
	tc := evalAll(s.f, asg, s.trace)
	sc := evalAll(s.f, asg, s.side)

	switch {
	case tc && !sc:
		return OverConstrained, nil

	case !tc && sc:
		ex := executor.New(s.lib, executor.ConcreteSetting(s.f.Prime()))
		st, err := ex.ConcreteExecute(s.setting.TargetTemplateName, s.setting.TemplateParamValues,
			asg.Restrict(s.inputs))
		if err != nil {
			return UnderConstrainedUnexpectedInput, nil
		}
		for i, out := range s.outputs {
			want, ok := asg.Get(out)
			if !ok {
				continue
			}
			v, ok := st.Get(out)
			if !ok {
				return UnderConstrainedUnexpectedInput, &s.outputs[i]
			}
			got, isConst := constValue(v)
			if !isConst {
				return UnderConstrainedUnexpectedInput, &s.outputs[i]
			}
			if !s.f.Eq(want, got) {
				return UnderConstrainedNonDeterministic, &s.outputs[i]
			}
		}
		return WellConstrained, nil
	}
	return WellConstrained, nil
}

// constValue reads a folded binding; comparisons fold to booleans, which
// coerce to 0/1 like everywhere else in the language.
func constValue(v sym.Value) (*big.Int, bool) {
	switch c := v.(type) {
	case *sym.ConstInt:
		return c.V, true
	case *sym.ConstBool:
		if c.B {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	}
	return nil, false
}

// counterExampleFor re-checks an assignment and wraps a vulnerable verdict.
func (s *Searcher) counterExampleFor(asg *executor.Assignment) *CounterExample {
	flag, target := s.VerifyAssignment(asg)
	if !flag.IsVulnerable() {
		return nil
	}
	return &CounterExample{Flag: flag, TargetOutput: target, Assignment: asg}
}

// randomInputs draws a uniform assignment over the input variables.
func (s *Searcher) randomInputs() *executor.Assignment {
	asg := executor.NewAssignment()
	for _, n := range s.inputs {
		asg.Set(n, s.f.Rand(s.rng))
	}
	return asg
}

// constantInputs binds every input to the same value; the all-zeros and
// all-ones records seed every input population.
func (s *Searcher) constantInputs(v int64) *executor.Assignment {
	asg := executor.NewAssignment()
	val := s.f.Normalize(big.NewInt(v))
	for _, n := range s.inputs {
		asg.Set(n, val)
	}
	return asg
}
