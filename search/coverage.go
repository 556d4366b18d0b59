package search

import (
	"github.com/zkscout/zkscout/executor"
)

// inputPopulation builds the candidate inputs of one generation. The
// all-zeros and all-ones records always lead so boundary behavior is probed
// before anything random.
func (s *Searcher) inputPopulation() []*executor.Assignment {
	if s.cfg.InputInitializationMethod == InputInitCoverage {
		return s.coverageInputs()
	}
	pop := []*executor.Assignment{s.constantInputs(0), s.constantInputs(1)}
	for len(pop) < s.cfg.InputPopulationSize {
		pop = append(pop, s.randomInputs())
	}
	return pop
}

// coverageInputs grows an input population by keeping only candidates that
// reach branches no earlier candidate reached. The coverage bitmap persists
// across runs of one executor, so the count is cumulative.
func (s *Searcher) coverageInputs() []*executor.Assignment {
	ex := executor.New(s.lib, executor.ConcreteSetting(s.f.Prime()))
	ex.EnableCoverage()
	ex.ResetCoverage()

	pop := []*executor.Assignment{s.constantInputs(0), s.constantInputs(1)}
	for _, seed := range pop {
		s.runForCoverage(ex, seed)
	}

	n := s.cfg.InputPopulationSize
	attempts := 0
	for len(pop) < n && attempts < n*10 {
		attempts++
		cand := s.deriveInputCandidate(pop)
		before := ex.CoverageCount()
		s.runForCoverage(ex, cand)
		if ex.CoverageCount() > before {
			pop = append(pop, cand)
		}
	}
	for len(pop) < n {
		pop = append(pop, s.randomInputs())
	}
	return pop
}

func (s *Searcher) runForCoverage(ex *executor.Executor, asg *executor.Assignment) {
	ex.Clear()
	_, err := ex.ConcreteExecute(s.setting.TargetTemplateName, s.setting.TemplateParamValues, asg)
	if err != nil {
		s.log.Debug().Err(err).Msg("coverage probe rejected an input")
	}
}

// deriveInputCandidate breeds a new input record from the retained
// population: crossover, a single-point mutation, a whole-record mutation,
// or a fresh random draw, per the configured rates.
func (s *Searcher) deriveInputCandidate(pop []*executor.Assignment) *executor.Assignment {
	roll := s.rng.Float64()

	if roll < s.cfg.CoverageBasedInputGenerationCrossoverRate && len(pop) >= 2 {
		a := pop[s.rng.Intn(len(pop))]
		b := pop[s.rng.Intn(len(pop))]
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

	if roll < s.cfg.CoverageBasedInputGenerationCrossoverRate+
		s.cfg.CoverageBasedInputGenerationSinglepointMutationRate && len(pop) > 0 {
		child := pop[s.rng.Intn(len(pop))].Clone()
		s.mutateOneKey(child)
		return child
	}

	if roll < s.cfg.CoverageBasedInputGenerationCrossoverRate+
		s.cfg.CoverageBasedInputGenerationSinglepointMutationRate+
		s.cfg.CoverageBasedInputGenerationMutationRate && len(pop) > 0 {
		// whole-record mutation: rewrite every key of an existing record
		child := pop[s.rng.Intn(len(pop))].Clone()
		for _, n := range child.Names() {
			child.Set(n, s.f.Rand(s.rng))
		}
		return child
	}

	return s.randomInputs()
}
