package search

import (
	"github.com/zkscout/zkscout/executor"
)

// GeneticSearch evolves a population of full assignments toward satisfying
// every side constraint; a perfectly fit individual the oracle flags as
// vulnerable is a counterexample.
func (s *Searcher) GeneticSearch() *CounterExample {
	if len(s.vars) == 0 {
		return nil
	}
	popSize := s.cfg.InputPopulationSize
	pop := make([]*executor.Assignment, popSize)
	for i := range pop {
		pop[i] = s.randomAssignment()
	}

	for gen := 0; gen < s.cfg.MaxGenerations; gen++ {
		fitness := make([]float64, popSize)
		bestIdx := 0
		for i, asg := range pop {
			fitness[i] = s.satisfactionRatio(asg)
			if fitness[i] > fitness[bestIdx] {
				bestIdx = i
			}
		}

		if fitness[bestIdx] == 1.0 {
			if ce := s.counterExampleFor(pop[bestIdx]); ce != nil {
				s.log.Debug().Int("generation", gen).Msg("genetic search found a counterexample")
				return ce
			}
		}

		next := make([]*executor.Assignment, 0, popSize)
		next = append(next, pop[bestIdx].Clone())
		for len(next) < popSize {
			a := pop[s.rouletteSelect(fitness)]
			b := pop[s.rouletteSelect(fitness)]
			child := s.crossoverAssignments(a, b)
			if s.rng.Float64() < s.cfg.MutationRate {
				s.mutateOneKey(child)
			}
			next = append(next, child)
		}
		pop = next
	}
	return nil
}

// randomAssignment draws values for every participating variable, not just
// the inputs; the genetic search explores output values too.
func (s *Searcher) randomAssignment() *executor.Assignment {
	asg := executor.NewAssignment()
	for _, n := range s.vars {
		asg.Set(n, s.f.Rand(s.rng))
	}
	return asg
}

// satisfactionRatio is the fraction of side constraints an assignment
// satisfies; an empty side stream counts as unsatisfiable rather than
// trivially perfect.
func (s *Searcher) satisfactionRatio(asg *executor.Assignment) float64 {
	if len(s.side) == 0 {
		return 0
	}
	satisfied, _ := executor.CountSatisfied(s.f, asg, s.side)
	return float64(satisfied) / float64(len(s.side))
}

// rouletteSelect picks an index with probability proportional to fitness;
// an all-zero wheel falls back to uniform choice.
func (s *Searcher) rouletteSelect(fitness []float64) int {
	total := 0.0
	for _, f := range fitness {
		total += f
	}
	if total == 0 {
		return s.rng.Intn(len(fitness))
	}
	spin := s.rng.Float64() * total
	acc := 0.0
	for i, f := range fitness {
		acc += f
		if spin <= acc {
			return i
		}
	}
	return len(fitness) - 1
}

// crossoverAssignments picks each key's value from either parent at random.
func (s *Searcher) crossoverAssignments(a, b *executor.Assignment) *executor.Assignment {
	if s.rng.Float64() >= s.cfg.CrossoverRate {
		return a.Clone()
	}
	child := executor.NewAssignment()
	for _, n := range a.Names() {
		v, _ := a.Get(n)
		if w, ok := b.Get(n); ok && s.rng.Float64() < 0.5 {
			v = w
		}
		child.Set(n, v)
	}
	return child
}

// mutateOneKey replaces a single key's value with a fresh field element.
func (s *Searcher) mutateOneKey(asg *executor.Assignment) {
	names := asg.Names()
	if len(names) == 0 {
		return
	}
	n := names[s.rng.Intn(len(names))]
	asg.Set(n, s.f.Rand(s.rng))
}
