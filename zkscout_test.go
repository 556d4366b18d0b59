package zkscout

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkscout/zkscout/ast"
	"github.com/zkscout/zkscout/search"
	"github.com/zkscout/zkscout/sym"
)

func isZeroCircuit(constrainOut bool) *ast.Template {
	outOp := ast.AssignSignal
	if constrainOut {
		outOp = ast.AssignConstraint
	}
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
			ast.Substitution{Name: "out", Op: outOp,
				Rhs: ast.Bin(ast.Num(1), sym.Sub, ast.Bin(ast.Var("in"), sym.Mul, ast.Var("inv")))},
			ast.ConstraintEquality{
				Lhs: ast.Bin(ast.Var("in"), sym.Mul, ast.Var("out")),
				Rhs: ast.Num(0),
			},
		}},
	}
}

func testConfig() *search.MutationConfig {
	cfg := search.DefaultMutationConfig()
	cfg.Seed = 1
	cfg.MaxGenerations = 10
	return cfg
}

func TestAnalyzeFlagsBuggyCircuit(t *testing.T) {
	lib, err := BuildLibrary([]*ast.Template{isZeroCircuit(false)}, nil)
	require.NoError(t, err)

	setting := &search.VerificationSetting{
		TargetTemplateName: "IsZero",
		Prime:              DefaultPrime(),
	}
	report, err := Analyze(lib, setting, testConfig())
	require.NoError(t, err)

	require.True(t, report.Verdict.IsVulnerable())
	require.Equal(t, search.UnderConstrainedNonDeterministic, report.Verdict)
	require.NotNil(t, report.CounterExample)
	require.Equal(t, 3, report.Stats.TraceConstraints)
	require.Equal(t, 1, report.Stats.SideConstraints)
	require.Equal(t, 1, report.Stats.InputVariables)
	require.Equal(t, 1, report.Stats.OutputVariables)
}

func TestAnalyzePassesCorrectCircuit(t *testing.T) {
	lib, err := BuildLibrary([]*ast.Template{isZeroCircuit(true)}, nil)
	require.NoError(t, err)

	setting := &search.VerificationSetting{
		TargetTemplateName: "IsZero",
		Prime:              DefaultPrime(),
	}
	cfg := testConfig()
	cfg.MaxGenerations = 3
	report, err := Analyze(lib, setting, cfg)
	require.NoError(t, err)

	require.Equal(t, search.WellConstrained, report.Verdict)
	require.Nil(t, report.CounterExample)
	require.Equal(t, 2, report.Stats.SideConstraints)
}

func TestAnalyzeStrategyOrder(t *testing.T) {
	lib, err := BuildLibrary([]*ast.Template{isZeroCircuit(false)}, nil)
	require.NoError(t, err)

	setting := &search.VerificationSetting{
		TargetTemplateName: "IsZero",
		Prime:              DefaultPrime(),
		QuickMode:          true,
	}
	report, err := Analyze(lib, setting, testConfig(),
		StrategyBruteForce, StrategyMutation)
	require.NoError(t, err)
	require.True(t, report.Verdict.IsVulnerable())

	_, err = Analyze(lib, setting, testConfig(), Strategy("nope"))
	require.Error(t, err)
}

func TestAnalyzeRejectsUnknownTemplate(t *testing.T) {
	lib, err := BuildLibrary([]*ast.Template{isZeroCircuit(true)}, nil)
	require.NoError(t, err)

	setting := &search.VerificationSetting{
		TargetTemplateName: "Missing",
		Prime:              DefaultPrime(),
	}
	_, err = Analyze(lib, setting, testConfig())
	require.Error(t, err)
}

func TestReportRender(t *testing.T) {
	lib, err := BuildLibrary([]*ast.Template{isZeroCircuit(false)}, nil)
	require.NoError(t, err)

	setting := &search.VerificationSetting{
		TargetTemplateName: "IsZero",
		Prime:              DefaultPrime(),
	}
	report, err := Analyze(lib, setting, testConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf))
	out := buf.String()
	require.Contains(t, out, "template IsZero:")
	require.Contains(t, out, "UnderConstrained(NonDeterministic)")
	require.Contains(t, out, "main.in = ")
	require.Contains(t, out, "constraints: 3 trace, 1 side")
}
