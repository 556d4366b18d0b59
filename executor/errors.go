package executor

import "fmt"

// ErrorKind classifies fatal user-program limitations. Continuing past any
// of them would silently drop constraints, so the interpreter stops and
// surfaces a ProgramError instead.
type ErrorKind uint8

const (
	// ErrNonFoldableWhile marks a while condition that does not fold to a
	// constant.
	ErrNonFoldableWhile ErrorKind = iota
	// ErrNonFoldableDim marks an array dimension that does not fold to a
	// constant.
	ErrNonFoldableDim
	// ErrUnknownCallee marks a call to a name that is neither a template nor
	// a function.
	ErrUnknownCallee
	// ErrNoFinalState marks a callee whose body produced no final state.
	ErrNoFinalState
	// ErrAssertFailed marks an assert whose condition folded to false.
	ErrAssertFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNonFoldableWhile:
		return "non-constant while condition"
	case ErrNonFoldableDim:
		return "non-constant array dimension"
	case ErrUnknownCallee:
		return "unknown callee"
	case ErrNoFinalState:
		return "callee produced no final state"
	case ErrAssertFailed:
		return "assertion failed"
	}
	return "unknown error"
}

// ProgramError is a fatal limitation of the analyzed program.
type ProgramError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ProgramError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func programErrorf(kind ErrorKind, format string, args ...interface{}) *ProgramError {
	return &ProgramError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
