// Package search implements the counterexample searchers: the verification
// oracle, brute-force enumeration, a genetic input search, and the
// mutation-testing search over witness traces.
package search

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"
)

// Fitness function names accepted by MutationConfig.FitnessFunction.
const (
	FitnessError    = "error"
	FitnessConstant = "constant"
)

// Input initialization methods accepted by
// MutationConfig.InputInitializationMethod.
const (
	InputInitRandom   = "random"
	InputInitCoverage = "coverage"
)

// MutationConfig tunes the mutation-testing search. A zero Seed draws a
// fresh seed from the clock; any other value makes every search run
// reproducible.
type MutationConfig struct {
	Seed                  uint64  `json:"seed"`
	ProgramPopulationSize int     `json:"program_population_size"`
	InputPopulationSize   int     `json:"input_population_size"`
	MaxGenerations        int     `json:"max_generations"`
	MutationRate          float64 `json:"mutation_rate"`
	CrossoverRate         float64 `json:"crossover_rate"`

	CoverageBasedInputGenerationMutationRate            float64 `json:"coverage_based_input_generation_mutation_rate"`
	CoverageBasedInputGenerationCrossoverRate           float64 `json:"coverage_based_input_generation_crossover_rate"`
	CoverageBasedInputGenerationSinglepointMutationRate float64 `json:"coverage_based_input_generation_singlepoint_mutation_rate"`

	InputInitializationMethod string `json:"input_initialization_method"`
	FitnessFunction           string `json:"fitness_function"`
	SaveFitnessScores         bool   `json:"save_fitness_scores"`
}

func DefaultMutationConfig() *MutationConfig {
	return &MutationConfig{
		Seed:                  0,
		ProgramPopulationSize: 30,
		InputPopulationSize:   30,
		MaxGenerations:        300,
		MutationRate:          0.3,
		CrossoverRate:         0.5,

		CoverageBasedInputGenerationMutationRate:            0.3,
		CoverageBasedInputGenerationCrossoverRate:           0.5,
		CoverageBasedInputGenerationSinglepointMutationRate: 0.5,

		InputInitializationMethod: InputInitRandom,
		FitnessFunction:           FitnessError,
	}
}

// LoadMutationConfig reads a JSON config file; absent fields keep their
// defaults.
func LoadMutationConfig(path string) (*MutationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mutation config: %w", err)
	}
	cfg := DefaultMutationConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse mutation config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("mutation config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *MutationConfig) validate() error {
	switch c.InputInitializationMethod {
	case InputInitRandom, InputInitCoverage:
	default:
		return fmt.Errorf("unknown input_initialization_method %q", c.InputInitializationMethod)
	}
	switch c.FitnessFunction {
	case FitnessError, FitnessConstant:
	default:
		return fmt.Errorf("unknown fitness_function %q", c.FitnessFunction)
	}
	if c.ProgramPopulationSize <= 0 || c.InputPopulationSize <= 0 || c.MaxGenerations <= 0 {
		return fmt.Errorf("population sizes and max_generations must be positive")
	}
	return nil
}

// rng builds the single random source every search draws from.
func (c *MutationConfig) rng() *rand.Rand {
	seed := int64(c.Seed)
	if c.Seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
