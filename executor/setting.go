// Package executor implements the path-sensitive symbolic interpreter over
// the debug AST, the per-path symbolic state, and the concrete emulator the
// searchers re-execute traces with.
package executor

import "math/big"

// Setting drives one executor. Two canonical modes exist: the symbolic mode
// records both constraint streams without substituting outputs, while the
// concrete mode substitutes everything and records nothing.
type Setting struct {
	Prime *big.Int

	// OnlyInitializationBlocks executes just the declaration blocks; the
	// component initializer uses it to learn declared input dimensions.
	OnlyInitializationBlocks bool

	// SkipInitializationBlocks bypasses input-signal declaration blocks;
	// concrete runs seed inputs directly.
	SkipInitializationBlocks bool

	// OffTrace marks a run that is not the recorded witness trace; branch
	// coverage is only tracked off-trace.
	OffTrace bool

	// KeepTrackConstraints records trace and side constraints.
	KeepTrackConstraints bool

	// SubstituteOutput lets constant folding replace output signals by their
	// bindings.
	SubstituteOutput bool

	// PropagateSubstitution makes the simplified form of every right-hand
	// side substitute all bindings, not only constants.
	PropagateSubstitution bool
}

// SymbolicSetting is the mode that produces the trace and side streams.
func SymbolicSetting(prime *big.Int) *Setting {
	return &Setting{
		Prime:                prime,
		KeepTrackConstraints: true,
	}
}

// ConcreteSetting is the re-execution mode of the verification oracle.
func ConcreteSetting(prime *big.Int) *Setting {
	return &Setting{
		Prime:                    prime,
		SkipInitializationBlocks: true,
		OffTrace:                 true,
		SubstituteOutput:         true,
		PropagateSubstitution:    true,
	}
}

func (s *Setting) clone() *Setting {
	c := *s
	return &c
}
