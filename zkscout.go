// Package zkscout finds constraint bugs in Circom-like arithmetic circuits.
// It executes a template symbolically to obtain the witness-generator trace
// and the declared side constraints, then searches the finite field for an
// input assignment witnessing a divergence between the two: an accepted
// witness the generator never produces (under-constrained) or an honestly
// generated witness the constraints reject (over-constrained).
package zkscout

import (
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc"

	"github.com/zkscout/zkscout/ast"
	"github.com/zkscout/zkscout/executor"
	"github.com/zkscout/zkscout/logger"
	"github.com/zkscout/zkscout/program"
	"github.com/zkscout/zkscout/search"
)

// DefaultPrime is the BN254 scalar-field modulus.
func DefaultPrime() *big.Int {
	return ecc.BN254.ScalarField()
}

// BuildLibrary adapts source templates and functions into a symbolic
// library: names interned, anonymous components desugared, statements
// flattened.
func BuildLibrary(templates []*ast.Template, functions []*ast.Function) (*program.Library, error) {
	return program.Build(templates, functions)
}

// Strategy selects a counterexample search.
type Strategy string

const (
	StrategyMutation   Strategy = "mutation"
	StrategyBruteForce Strategy = "bruteforce"
	StrategyGenetic    Strategy = "genetic"
)

// Stats summarizes one symbolic run.
type Stats struct {
	TraceConstraints int
	SideConstraints  int
	Variables        int
	InputVariables   int
	OutputVariables  int
	MaxDepth         int
	Elapsed          time.Duration
}

// Analyze runs the symbolic executor over the target template, then the
// given search strategies in order, stopping at the first counterexample.
// With no strategies the mutation-testing search runs alone.
func Analyze(lib *program.Library, setting *search.VerificationSetting, cfg *search.MutationConfig, strategies ...Strategy) (*Report, error) {
	log := logger.Logger()
	start := time.Now()

	ex := executor.New(lib, executor.SymbolicSetting(setting.Prime))
	final, err := ex.RunTemplate(setting.TargetTemplateName, setting.TemplateParamValues)
	if err != nil {
		return nil, fmt.Errorf("symbolic execution of %s: %w", setting.TargetTemplateName, err)
	}

	sr := search.NewSearcher(lib, final, setting, cfg)

	stats := Stats{
		TraceConstraints: len(final.Trace()),
		SideConstraints:  len(final.Side()),
		Variables:        len(sr.Variables()),
		InputVariables:   len(sr.Inputs()),
		OutputVariables:  len(sr.Outputs()),
		MaxDepth:         ex.MaxDepth(),
	}
	log.Info().
		Str("template", setting.TargetTemplateName).
		Int("traceConstraints", stats.TraceConstraints).
		Int("sideConstraints", stats.SideConstraints).
		Int("variables", stats.Variables).
		Int("maxDepth", stats.MaxDepth).
		Msg("symbolic execution done")

	if len(strategies) == 0 {
		strategies = []Strategy{StrategyMutation}
	}
	var ce *search.CounterExample
	for _, st := range strategies {
		searchStart := time.Now()
		switch st {
		case StrategyMutation:
			ce = sr.MutationTestingSearch()
		case StrategyBruteForce:
			ce = sr.BruteForceSearch()
		case StrategyGenetic:
			ce = sr.GeneticSearch()
		default:
			return nil, fmt.Errorf("unknown search strategy %q", st)
		}
		log.Info().
			Str("strategy", string(st)).
			Bool("found", ce != nil).
			Dur("took", time.Since(searchStart)).
			Msg("search finished")
		if ce != nil {
			break
		}
	}
	stats.Elapsed = time.Since(start)

	verdict := search.WellConstrained
	if ce != nil {
		verdict = ce.Flag
	}
	return &Report{
		Template:       setting.TargetTemplateName,
		Verdict:        verdict,
		CounterExample: ce,
		Stats:          stats,
		FitnessScores:  sr.FitnessScores(),
		lookup:         lib.Lookup,
	}, nil
}
