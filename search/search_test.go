package search

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/stretchr/testify/require"

	"github.com/zkscout/zkscout/ast"
	"github.com/zkscout/zkscout/executor"
	"github.com/zkscout/zkscout/program"
	"github.com/zkscout/zkscout/sym"
)

func correctIsZero() *ast.Template {
	return &ast.Template{
		Name: "IsZero",
		Body: ast.Block{Stmts: []ast.Statement{
			ast.InitializationBlock{SignalType: ast.SignalInput, Stmts: []ast.Statement{
				ast.SignalDecl("in", ast.SignalInput),
			}},
			ast.InitializationBlock{SignalType: ast.SignalOutput, Stmts: []ast.Statement{
				ast.SignalDecl("out", ast.SignalOutput),
			}},
			ast.SignalDecl("inv", ast.SignalIntermediate),
			ast.Substitution{Name: "inv", Op: ast.AssignSignal, Rhs: ast.InlineSwitch{
				Cond: ast.Bin(ast.Var("in"), sym.NotEq, ast.Num(0)),
				True: ast.Bin(ast.Num(1), sym.Div, ast.Var("in")),
				Else: ast.Num(0),
			}},
			ast.Substitution{Name: "out", Op: ast.AssignConstraint,
				Rhs: ast.Bin(ast.Num(1), sym.Sub, ast.Bin(ast.Var("in"), sym.Mul, ast.Var("inv")))},
			ast.ConstraintEquality{
				Lhs: ast.Bin(ast.Var("in"), sym.Mul, ast.Var("out")),
				Rhs: ast.Num(0),
			},
		}},
	}
}

// buggyIsZero computes out honestly but never constrains it: the side stream
// only relates in and out through in*out === 0.
func buggyIsZero() *ast.Template {
	t := correctIsZero()
	t.Body.(ast.Block).Stmts[4] = ast.Substitution{Name: "out", Op: ast.AssignSignal,
		Rhs: ast.Bin(ast.Num(1), sym.Sub, ast.Bin(ast.Var("in"), sym.Mul, ast.Var("inv")))}
	return t
}

// buggyAverage computes the output with a bare witness rule and emits no
// constraint at all.
func buggyAverage() *ast.Template {
	return &ast.Template{
		Name:   "Average",
		Params: []string{"n"},
		Body: ast.Block{Stmts: []ast.Statement{
			ast.InitializationBlock{SignalType: ast.SignalInput, Stmts: []ast.Statement{
				ast.SignalDecl("vals", ast.SignalInput, ast.Var("n")),
			}},
			ast.InitializationBlock{SignalType: ast.SignalOutput, Stmts: []ast.Statement{
				ast.SignalDecl("out", ast.SignalOutput),
			}},
			ast.VarDecl("sum"),
			ast.VarDecl("i"),
			ast.Substitution{Name: "sum", Op: ast.AssignVar, Rhs: ast.Num(0)},
			ast.Substitution{Name: "i", Op: ast.AssignVar, Rhs: ast.Num(0)},
			ast.While{
				Cond: ast.Bin(ast.Var("i"), sym.Lesser, ast.Var("n")),
				Body: ast.Block{Stmts: []ast.Statement{
					ast.Substitution{Name: "sum", Op: ast.AssignVar,
						Rhs: ast.Bin(ast.Var("sum"), sym.Add, ast.Variable{
							Name:   "vals",
							Access: []ast.Access{ast.ArrayAccess{Index: ast.Var("i")}},
						})},
					ast.Substitution{Name: "i", Op: ast.AssignVar,
						Rhs: ast.Bin(ast.Var("i"), sym.Add, ast.Num(1))},
				}},
			},
			ast.Substitution{Name: "out", Op: ast.AssignSignal,
				Rhs: ast.Bin(ast.Var("sum"), sym.Div, ast.Var("n"))},
		}},
	}
}

func lessThanTemplate() *ast.Template {
	return &ast.Template{
		Name:   "LessThan",
		Params: []string{"n"},
		Body: ast.Block{Stmts: []ast.Statement{
			ast.InitializationBlock{SignalType: ast.SignalInput, Stmts: []ast.Statement{
				ast.SignalDecl("in", ast.SignalInput, ast.Num(2)),
			}},
			ast.InitializationBlock{SignalType: ast.SignalOutput, Stmts: []ast.Statement{
				ast.SignalDecl("out", ast.SignalOutput),
			}},
			ast.Substitution{Name: "out", Op: ast.AssignSignal,
				Rhs: ast.Bin(ast.Idx("in", 0), sym.Lesser, ast.Idx("in", 1))},
			ast.ConstraintEquality{
				Lhs: ast.Bin(ast.Var("out"), sym.Mul, ast.Bin(ast.Num(1), sym.Sub, ast.Var("out"))),
				Rhs: ast.Num(0),
			},
		}},
	}
}

// buggyScholarship copies the comparator output with <-- instead of <==, so
// nothing ties eligible to the comparison.
func buggyScholarship() *ast.Template {
	return &ast.Template{
		Name: "ScholarshipCheck",
		Body: ast.Block{Stmts: []ast.Statement{
			ast.InitializationBlock{SignalType: ast.SignalInput, Stmts: []ast.Statement{
				ast.SignalDecl("score", ast.SignalInput),
			}},
			ast.InitializationBlock{SignalType: ast.SignalOutput, Stmts: []ast.Statement{
				ast.SignalDecl("eligible", ast.SignalOutput),
			}},
			ast.ComponentDecl("lt"),
			ast.Substitution{Name: "lt", Op: ast.AssignVar,
				Rhs: ast.Call{Name: "LessThan", Args: []ast.Expression{ast.Num(8)}}},
			ast.Substitution{Name: "lt", Access: []ast.Access{
				ast.ComponentAccess{Name: "in"}, ast.ArrayAccess{Index: ast.Num(0)},
			}, Op: ast.AssignConstraint, Rhs: ast.Var("score")},
			ast.Substitution{Name: "lt", Access: []ast.Access{
				ast.ComponentAccess{Name: "in"}, ast.ArrayAccess{Index: ast.Num(1)},
			}, Op: ast.AssignConstraint, Rhs: ast.Num(10)},
			ast.Substitution{Name: "eligible", Op: ast.AssignSignal, Rhs: ast.Member("lt", "out")},
		}},
	}
}

func symbolicFinal(t *testing.T, lib *program.Library, name string, params []*big.Int, prime *big.Int) *executor.State {
	t.Helper()
	ex := executor.New(lib, executor.SymbolicSetting(prime))
	final, err := ex.RunTemplate(name, params)
	require.NoError(t, err)
	return final
}

func newTestSearcher(t *testing.T, templates []*ast.Template, name string, params []*big.Int,
	prime *big.Int, cfg *MutationConfig) *Searcher {
	t.Helper()
	lib, err := program.Build(templates, nil)
	require.NoError(t, err)
	final := symbolicFinal(t, lib, name, params, prime)
	setting := &VerificationSetting{
		TargetTemplateName:  name,
		Prime:               prime,
		TemplateParamValues: params,
	}
	return NewSearcher(lib, final, setting, cfg)
}

func fastConfig(seed uint64) *MutationConfig {
	cfg := DefaultMutationConfig()
	cfg.Seed = seed
	cfg.MaxGenerations = 10
	return cfg
}

func TestMutationSearchFlagsBuggyIsZero(t *testing.T) {
	prime := ecc.BN254.ScalarField()
	s := newTestSearcher(t, []*ast.Template{buggyIsZero()}, "IsZero", nil, prime, fastConfig(1))

	ce := s.MutationTestingSearch()
	require.NotNil(t, ce)
	require.Equal(t, UnderConstrainedNonDeterministic, ce.Flag)
	require.NotNil(t, ce.TargetOutput)
	require.Equal(t, "main.out", ce.TargetOutput.String(s.lib.Lookup))
	require.NotNil(t, ce.Assignment)
}

func TestMutationSearchFlagsUnconstrainedAverage(t *testing.T) {
	prime := ecc.BN254.ScalarField()
	params := []*big.Int{big.NewInt(3)}
	s := newTestSearcher(t, []*ast.Template{buggyAverage()}, "Average", params, prime, fastConfig(1))

	ce := s.MutationTestingSearch()
	require.NotNil(t, ce)
	require.Equal(t, UnderConstrainedNonDeterministic, ce.Flag)
}

func TestMutationSearchFlagsBuggyScholarship(t *testing.T) {
	prime := ecc.BN254.ScalarField()
	s := newTestSearcher(t, []*ast.Template{lessThanTemplate(), buggyScholarship()},
		"ScholarshipCheck", nil, prime, fastConfig(1))

	ce := s.MutationTestingSearch()
	require.NotNil(t, ce)
	require.Equal(t, UnderConstrainedNonDeterministic, ce.Flag)
	require.NotNil(t, ce.TargetOutput)
	require.Equal(t, "main.eligible", ce.TargetOutput.String(s.lib.Lookup))
}

func TestMutationSearchPassesCorrectIsZero(t *testing.T) {
	prime := ecc.BN254.ScalarField()
	cfg := fastConfig(1)
	cfg.MaxGenerations = 5
	s := newTestSearcher(t, []*ast.Template{correctIsZero()}, "IsZero", nil, prime, cfg)

	require.Nil(t, s.MutationTestingSearch())
}

func TestMutationSearchIsDeterministic(t *testing.T) {
	prime := ecc.BN254.ScalarField()
	render := func() string {
		s := newTestSearcher(t, []*ast.Template{lessThanTemplate(), buggyScholarship()},
			"ScholarshipCheck", nil, prime, fastConfig(42))
		ce := s.MutationTestingSearch()
		require.NotNil(t, ce)
		return ce.Render(s.lib.Lookup)
	}
	require.Equal(t, render(), render())
}

func TestMutationSearchRecordsFitnessScores(t *testing.T) {
	prime := ecc.BN254.ScalarField()
	cfg := fastConfig(1)
	cfg.MaxGenerations = 3
	cfg.SaveFitnessScores = true
	s := newTestSearcher(t, []*ast.Template{correctIsZero()}, "IsZero", nil, prime, cfg)

	require.Nil(t, s.MutationTestingSearch())
	require.Len(t, s.FitnessScores(), 3)
}

func TestVariableClassification(t *testing.T) {
	prime := ecc.BN254.ScalarField()
	s := newTestSearcher(t, []*ast.Template{correctIsZero()}, "IsZero", nil, prime, fastConfig(1))

	require.Len(t, s.Inputs(), 1)
	require.Len(t, s.Outputs(), 1)
	require.Equal(t, "main.in", s.Inputs()[0].String(s.lib.Lookup))
	require.Equal(t, "main.out", s.Outputs()[0].String(s.lib.Lookup))
	// inv participates but is neither input nor output
	require.Len(t, s.Variables(), 3)
}

func TestOracleCorrectIsZeroExhaustive(t *testing.T) {
	prime := big.NewInt(17)
	s := newTestSearcher(t, []*ast.Template{correctIsZero()}, "IsZero", nil, prime, fastConfig(1))
	require.Len(t, s.Variables(), 3)

	for a := int64(0); a < 17; a++ {
		for b := int64(0); b < 17; b++ {
			for c := int64(0); c < 17; c++ {
				asg := executor.NewAssignment()
				asg.Set(s.Variables()[0], big.NewInt(a))
				asg.Set(s.Variables()[1], big.NewInt(b))
				asg.Set(s.Variables()[2], big.NewInt(c))
				flag, _ := s.VerifyAssignment(asg)
				require.Equal(t, WellConstrained, flag,
					"%s", asg.String(s.lib.Lookup))
			}
		}
	}
}

func TestBruteForceFindsBuggyIsZero(t *testing.T) {
	prime := big.NewInt(17)
	s := newTestSearcher(t, []*ast.Template{buggyIsZero()}, "IsZero", nil, prime, fastConfig(1))

	ce := s.BruteForceSearch()
	require.NotNil(t, ce)
	require.True(t, ce.Flag.IsVulnerable())
	// enumeration starts at all zeros, which already witnesses the bug
	v, ok := ce.Assignment.Get(s.Inputs()[0])
	require.True(t, ok)
	require.Equal(t, int64(0), v.Int64())
}

// rejectsZero guards the witness generator with an assert the declared
// constraints know nothing about, so a forged in = 0 witness satisfies the
// side stream while concrete re-execution refuses it outright.
func rejectsZero() *ast.Template {
	return &ast.Template{
		Name: "RejectsZero",
		Body: ast.Block{Stmts: []ast.Statement{
			ast.InitializationBlock{SignalType: ast.SignalInput, Stmts: []ast.Statement{
				ast.SignalDecl("in", ast.SignalInput),
			}},
			ast.InitializationBlock{SignalType: ast.SignalOutput, Stmts: []ast.Statement{
				ast.SignalDecl("out", ast.SignalOutput),
			}},
			ast.Assert{Cond: ast.Bin(ast.Var("in"), sym.NotEq, ast.Num(0))},
			ast.Substitution{Name: "out", Op: ast.AssignSignal, Rhs: ast.Num(1)},
			ast.ConstraintEquality{
				Lhs: ast.Bin(ast.Var("out"), sym.Mul, ast.Bin(ast.Var("out"), sym.Sub, ast.Num(1))),
				Rhs: ast.Num(0),
			},
		}},
	}
}

func TestBruteForceFlagsRejectedInput(t *testing.T) {
	prime := big.NewInt(17)
	lib, err := program.Build([]*ast.Template{rejectsZero()}, nil)
	require.NoError(t, err)
	final := symbolicFinal(t, lib, "RejectsZero", nil, prime)
	setting := &VerificationSetting{
		TargetTemplateName: "RejectsZero",
		Prime:              prime,
		QuickMode:          true,
	}
	s := NewSearcher(lib, final, setting, fastConfig(1))

	ce := s.BruteForceSearch()
	require.NotNil(t, ce)
	require.Equal(t, UnderConstrainedUnexpectedInput, ce.Flag)
	require.Nil(t, ce.TargetOutput)
	// the forged witness carries the input the generator refuses
	v, ok := ce.Assignment.Get(s.Inputs()[0])
	require.True(t, ok)
	require.Equal(t, int64(0), v.Int64())
}

func TestBruteForceQuickModePassesCorrectIsZero(t *testing.T) {
	prime := big.NewInt(17)
	lib, err := program.Build([]*ast.Template{correctIsZero()}, nil)
	require.NoError(t, err)
	final := symbolicFinal(t, lib, "IsZero", nil, prime)
	setting := &VerificationSetting{
		TargetTemplateName: "IsZero",
		Prime:              prime,
		QuickMode:          true,
	}
	s := NewSearcher(lib, final, setting, fastConfig(1))

	require.Nil(t, s.BruteForceSearch())
}

func TestBruteForceDomainWindow(t *testing.T) {
	prime := big.NewInt(17)
	lib, err := program.Build([]*ast.Template{correctIsZero()}, nil)
	require.NoError(t, err)
	final := symbolicFinal(t, lib, "IsZero", nil, prime)
	setting := &VerificationSetting{
		TargetTemplateName: "IsZero",
		Prime:              prime,
		Range:              2,
	}
	s := NewSearcher(lib, final, setting, fastConfig(1))

	// [-2, 2] normalized plus [p-2, p) collapses to {15, 16, 0, 1, 2}
	domain := s.bruteForceDomain()
	require.Len(t, domain, 5)
}

func TestBruteForceDomainCapsFullEnumeration(t *testing.T) {
	prime := new(big.Int).Lsh(big.NewInt(1), 40)
	lib, err := program.Build([]*ast.Template{correctIsZero()}, nil)
	require.NoError(t, err)
	final := symbolicFinal(t, lib, "IsZero", nil, prime)
	setting := &VerificationSetting{
		TargetTemplateName: "IsZero",
		Prime:              prime,
	}
	s := NewSearcher(lib, final, setting, fastConfig(1))

	// a 2^40 field never materializes fully; the fallback window around
	// 0 and p dedups to 2*fallbackRange + 1 values
	domain := s.bruteForceDomain()
	require.Len(t, domain, 2*fallbackRange+1)
}

func TestGeneticSearchFindsForcedOutput(t *testing.T) {
	// out is computed as in - in yet constrained to 1: every assignment the
	// side stream accepts disagrees with the honest witness
	forced := &ast.Template{
		Name: "ForcedOne",
		Body: ast.Block{Stmts: []ast.Statement{
			ast.InitializationBlock{SignalType: ast.SignalInput, Stmts: []ast.Statement{
				ast.SignalDecl("in", ast.SignalInput),
			}},
			ast.InitializationBlock{SignalType: ast.SignalOutput, Stmts: []ast.Statement{
				ast.SignalDecl("out", ast.SignalOutput),
			}},
			ast.Substitution{Name: "out", Op: ast.AssignSignal,
				Rhs: ast.Bin(ast.Var("in"), sym.Sub, ast.Var("in"))},
			ast.ConstraintEquality{Lhs: ast.Var("out"), Rhs: ast.Num(1)},
		}},
	}
	prime := big.NewInt(5)
	cfg := fastConfig(1)
	cfg.MaxGenerations = 200
	s := newTestSearcher(t, []*ast.Template{forced}, "ForcedOne", nil, prime, cfg)

	ce := s.GeneticSearch()
	require.NotNil(t, ce)
	require.Equal(t, UnderConstrainedNonDeterministic, ce.Flag)
}

func TestCoverageInputPopulationSize(t *testing.T) {
	branchy := &ast.Template{
		Name: "Branchy",
		Body: ast.Block{Stmts: []ast.Statement{
			ast.InitializationBlock{SignalType: ast.SignalInput, Stmts: []ast.Statement{
				ast.SignalDecl("x", ast.SignalInput),
			}},
			ast.InitializationBlock{SignalType: ast.SignalOutput, Stmts: []ast.Statement{
				ast.SignalDecl("y", ast.SignalOutput),
			}},
			ast.IfThenElse{
				Cond: ast.Bin(ast.Var("x"), sym.Lesser, ast.Num(5)),
				Then: ast.Substitution{Name: "y", Op: ast.AssignSignal, Rhs: ast.Num(1)},
				Else: ast.Substitution{Name: "y", Op: ast.AssignSignal, Rhs: ast.Num(2)},
			},
		}},
	}
	prime := big.NewInt(17)
	cfg := fastConfig(1)
	cfg.InputPopulationSize = 8
	cfg.InputInitializationMethod = InputInitCoverage
	s := newTestSearcher(t, []*ast.Template{branchy}, "Branchy", nil, prime, cfg)

	pop := s.inputPopulation()
	require.Len(t, pop, 8)
	// the constant seeds lead the population
	v, _ := pop[0].Get(s.Inputs()[0])
	require.Equal(t, int64(0), v.Int64())
	v, _ = pop[1].Get(s.Inputs()[0])
	require.Equal(t, int64(1), v.Int64())
}

func TestConfigDefaultsAndLoad(t *testing.T) {
	cfg := DefaultMutationConfig()
	require.Equal(t, 30, cfg.ProgramPopulationSize)
	require.Equal(t, FitnessError, cfg.FitnessFunction)
	require.NoError(t, cfg.validate())

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"seed": 7, "max_generations": 12, "fitness_function": "constant"}`), 0o644))

	loaded, err := LoadMutationConfig(path)
	require.NoError(t, err)
	require.Equal(t, uint64(7), loaded.Seed)
	require.Equal(t, 12, loaded.MaxGenerations)
	require.Equal(t, FitnessConstant, loaded.FitnessFunction)
	// absent fields keep their defaults
	require.Equal(t, 30, loaded.InputPopulationSize)
}

func TestConfigRejectsUnknownNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fitness_function": "magic"}`), 0o644))
	_, err := LoadMutationConfig(path)
	require.Error(t, err)

	cfg := DefaultMutationConfig()
	cfg.MaxGenerations = 0
	require.Error(t, cfg.validate())
}

func TestFlagRendering(t *testing.T) {
	require.Equal(t, "WellConstrained", WellConstrained.String())
	require.Equal(t, "OverConstrained", OverConstrained.String())
	require.Equal(t, "UnderConstrained(NonDeterministic)", UnderConstrainedNonDeterministic.String())
	require.Equal(t, "UnderConstrained(UnexpectedInput)", UnderConstrainedUnexpectedInput.String())

	require.False(t, WellConstrained.IsVulnerable())
	require.True(t, OverConstrained.IsVulnerable())
	require.True(t, UnderConstrainedNonDeterministic.IsVulnerable())
}
