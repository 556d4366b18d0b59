package search

import (
	"math/big"
	"sort"

	"github.com/schollz/progressbar/v3"

	"github.com/zkscout/zkscout/executor"
	"github.com/zkscout/zkscout/sym"
)

// traceMutation is a partial rewrite of the witness trace: a map from trace
// indices to replacement entries. The empty mutation is the honest trace.
type traceMutation map[int]sym.Value

// compatibleOps lists the operator swaps a mutation may apply; swapping
// within a family keeps the expression well-typed.
var compatibleOps = map[sym.Op][]sym.Op{
	sym.Add:       {sym.Sub, sym.Mul},
	sym.Sub:       {sym.Add, sym.Mul},
	sym.Mul:       {sym.Add, sym.Sub},
	sym.Div:       {sym.Mul, sym.IntDiv},
	sym.IntDiv:    {sym.Div, sym.Mod},
	sym.Mod:       {sym.IntDiv},
	sym.Pow:       {sym.Mul},
	sym.ShiftL:    {sym.ShiftR},
	sym.ShiftR:    {sym.ShiftL},
	sym.Lesser:    {sym.LesserEq, sym.Greater},
	sym.LesserEq:  {sym.Lesser, sym.GreaterEq},
	sym.Greater:   {sym.GreaterEq, sym.Lesser},
	sym.GreaterEq: {sym.Greater, sym.LesserEq},
	sym.Eq:        {sym.NotEq},
	sym.NotEq:     {sym.Eq},
	sym.BoolAnd:   {sym.BoolOr},
	sym.BoolOr:    {sym.BoolAnd},
	sym.BitAnd:    {sym.BitOr, sym.BitXor},
	sym.BitOr:     {sym.BitAnd, sym.BitXor},
	sym.BitXor:    {sym.BitAnd, sym.BitOr},
}

// MutationTestingSearch evolves trace mutations against input populations.
// A mutation whose emulated assignment satisfies every side constraint while
// diverging from the honest witness is an under-constrained counterexample;
// the honest trace violating a side constraint is an over-constrained one.
func (s *Searcher) MutationTestingSearch() *CounterExample {
	mutable := s.mutableTraceIndices()
	if len(s.trace) == 0 {
		return nil
	}
	pop := s.initialMutationPopulation(mutable)

	var bar *progressbar.ProgressBar
	if s.setting.ProgressInterval > 0 {
		bar = progressbar.Default(int64(s.cfg.MaxGenerations), "mutation search")
	}

	for gen := 0; gen < s.cfg.MaxGenerations; gen++ {
		if bar != nil {
			_ = bar.Add(1)
		}
		inputs := s.inputPopulation()

		errs := make([]*big.Int, len(pop))
		genBest := -1
		for i, mut := range pop {
			mutated := applyMutation(s.trace, mut)
			err, asg := s.evaluateTraceFitness(mutated, inputs)
			errs[i] = err
			if asg == nil {
				continue
			}

			if err.Sign() == 0 {
				if ce := s.counterExampleFor(asg); ce != nil {
					s.log.Debug().Int("generation", gen).Int("mutations", len(mut)).
						Msg("mutation search found a counterexample")
					return ce
				}
			} else if len(mut) == 0 {
				// the honest witness violates a side constraint
				if ce := s.counterExampleFor(asg); ce != nil {
					return ce
				}
			}

			if genBest < 0 || errs[i].Cmp(errs[genBest]) < 0 {
				genBest = i
			}
		}

		if s.cfg.SaveFitnessScores && genBest >= 0 {
			s.fitnessScores = append(s.fitnessScores, errs[genBest].String())
		}
		pop = s.evolveMutations(pop, errs, mutable)
	}
	return nil
}

// FitnessScores returns the recorded per-generation best scores when the
// config asked for them.
func (s *Searcher) FitnessScores() []string { return s.fitnessScores }

func (s *Searcher) mutableTraceIndices() []int {
	var out []int
	for i, entry := range s.trace {
		switch entry.(type) {
		case *sym.Assign, *sym.AssignEq:
			out = append(out, i)
		}
	}
	return out
}

// initialMutationPopulation seeds the empty mutation, one systematic
// constant mutation per mutable statement for 0 and 1, and random mutations
// up to the configured size.
func (s *Searcher) initialMutationPopulation(mutable []int) []traceMutation {
	pop := []traceMutation{{}}
	for _, idx := range mutable {
		for _, c := range []int64{0, 1} {
			pop = append(pop, traceMutation{
				idx: replaceRHS(s.trace[idx], sym.NewConstInt64(c)),
			})
		}
	}
	for len(pop) < s.cfg.ProgramPopulationSize {
		pop = append(pop, s.randomMutation(mutable))
	}
	return pop
}

func (s *Searcher) randomMutation(mutable []int) traceMutation {
	mut := traceMutation{}
	if len(mutable) == 0 {
		return mut
	}
	idx := mutable[s.rng.Intn(len(mutable))]
	mut[idx] = s.mutateEntry(s.trace[idx])
	return mut
}

// mutateEntry rewrites one trace assignment: either a compatible operator
// swap on its right-hand side or a fresh constant.
func (s *Searcher) mutateEntry(entry sym.Value) sym.Value {
	rhs := rhsOf(entry)
	if b, ok := rhs.(*sym.BinaryOp); ok && s.rng.Float64() < 0.5 {
		if alts := compatibleOps[b.Op]; len(alts) > 0 {
			swapped := &sym.BinaryOp{L: b.L, Op: alts[s.rng.Intn(len(alts))], R: b.R}
			return replaceRHS(entry, swapped)
		}
	}
	return replaceRHS(entry, sym.NewConstInt(s.drawConstant()))
}

// drawConstant samples from [-10, 10] union [p-100, p), the boundary values
// under-constrained circuits most often mishandle.
func (s *Searcher) drawConstant() *big.Int {
	k := s.rng.Intn(21 + 100)
	if k < 21 {
		return s.f.Normalize(big.NewInt(int64(k - 10)))
	}
	return new(big.Int).Sub(s.f.Prime(), big.NewInt(int64(k-20)))
}

func rhsOf(entry sym.Value) sym.Value {
	switch t := entry.(type) {
	case *sym.Assign:
		return t.R
	case *sym.AssignEq:
		return t.R
	}
	return entry
}

func replaceRHS(entry sym.Value, rhs sym.Value) sym.Value {
	switch t := entry.(type) {
	case *sym.Assign:
		return &sym.Assign{L: t.L, R: rhs}
	case *sym.AssignEq:
		return &sym.AssignEq{L: t.L, R: rhs}
	}
	return entry
}

func applyMutation(trace []sym.Value, mut traceMutation) []sym.Value {
	if len(mut) == 0 {
		return trace
	}
	out := make([]sym.Value, len(trace))
	copy(out, trace)
	for idx, repl := range mut {
		if idx >= 0 && idx < len(out) {
			out[idx] = repl
		}
	}
	return out
}

// evaluateTraceFitness emulates the (mutated) trace under every candidate
// input and returns the smallest accumulated side-constraint error together
// with the full assignment achieving it. Inputs the trace rejects are
// skipped; nil is returned when every input was rejected.
func (s *Searcher) evaluateTraceFitness(trace []sym.Value, inputs []*executor.Assignment) (*big.Int, *executor.Assignment) {
	var bestErr *big.Int
	var bestAsg *executor.Assignment
	for _, in := range inputs {
		asg := in.Clone()
		if !executor.EmulateTrace(s.f, trace, asg) {
			continue
		}
		var err *big.Int
		if s.cfg.FitnessFunction == FitnessConstant {
			satisfied, _ := executor.CountSatisfied(s.f, asg, s.side)
			err = big.NewInt(int64(len(s.side) - satisfied))
		} else {
			err = executor.AccumulateError(s.f, asg, s.side)
		}
		if bestErr == nil || err.Cmp(bestErr) < 0 {
			bestErr = err
			bestAsg = asg
			if bestErr.Sign() == 0 {
				break
			}
		}
	}
	return bestErr, bestAsg
}

// evolveMutations breeds the next mutation population: the fittest survives
// unchanged, the rest come from rank-based selection with crossover and
// point mutation.
func (s *Searcher) evolveMutations(pop []traceMutation, errs []*big.Int, mutable []int) []traceMutation {
	n := s.cfg.ProgramPopulationSize
	if n < 2 {
		n = 2
	}

	ranked := make([]int, 0, len(pop))
	for i := range pop {
		if errs[i] != nil {
			ranked = append(ranked, i)
		}
	}
	if len(ranked) == 0 {
		next := []traceMutation{{}}
		for len(next) < n {
			next = append(next, s.randomMutation(mutable))
		}
		return next
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return errs[ranked[a]].Cmp(errs[ranked[b]]) < 0
	})

	next := []traceMutation{pop[ranked[0]], {}}
	for len(next) < n {
		a := pop[ranked[s.rankSelect(len(ranked))]]
		b := pop[ranked[s.rankSelect(len(ranked))]]
		child := s.crossoverMutations(a, b)
		if s.rng.Float64() < s.cfg.MutationRate {
			s.pointMutate(child, mutable)
		}
		next = append(next, child)
	}
	return next
}

// rankSelect favors low ranks linearly.
func (s *Searcher) rankSelect(n int) int {
	total := n * (n + 1) / 2
	spin := s.rng.Intn(total)
	acc := 0
	for i := 0; i < n; i++ {
		acc += n - i
		if spin < acc {
			return i
		}
	}
	return n - 1
}

// crossoverMutations merges two mutations key by key. Keys are visited in
// sorted order so a fixed seed replays identically.
func (s *Searcher) crossoverMutations(a, b traceMutation) traceMutation {
	child := traceMutation{}
	if s.rng.Float64() >= s.cfg.CrossoverRate {
		for _, k := range sortedKeys(a) {
			child[k] = a[k]
		}
		return child
	}
	for _, k := range sortedKeys(a) {
		if s.rng.Float64() < 0.5 {
			child[k] = a[k]
		}
	}
	for _, k := range sortedKeys(b) {
		if _, dup := child[k]; !dup && s.rng.Float64() < 0.5 {
			child[k] = b[k]
		}
	}
	return child
}

func sortedKeys(m traceMutation) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (s *Searcher) pointMutate(mut traceMutation, mutable []int) {
	if len(mutable) == 0 {
		return
	}
	idx := mutable[s.rng.Intn(len(mutable))]
	mut[idx] = s.mutateEntry(s.trace[idx])
}
