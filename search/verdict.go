package search

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/zkscout/zkscout/executor"
	"github.com/zkscout/zkscout/sym"
)

// Flag is the oracle's verdict over one assignment.
type Flag uint8

const (
	WellConstrained Flag = iota
	// UnderConstrainedUnexpectedInput marks inputs the witness generator
	// rejects outright while the side constraints accept them.
	UnderConstrainedUnexpectedInput
	// UnderConstrainedNonDeterministic marks an output value the side
	// constraints accept but the witness generator does not compute.
	UnderConstrainedNonDeterministic
	// OverConstrained marks an honestly generated witness the side
	// constraints reject.
	OverConstrained
)

func (f Flag) String() string {
	switch f {
	case WellConstrained:
		return "WellConstrained"
	case UnderConstrainedUnexpectedInput:
		return "UnderConstrained(UnexpectedInput)"
	case UnderConstrainedNonDeterministic:
		return "UnderConstrained(NonDeterministic)"
	case OverConstrained:
		return "OverConstrained"
	}
	return "Unknown"
}

func (f Flag) IsVulnerable() bool { return f != WellConstrained }

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

var stdoutIsTerminal = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// Label renders the verdict for terminals: green for safe, red for
// vulnerable; plain text when stdout is not a terminal.
func (f Flag) Label() string {
	if !stdoutIsTerminal {
		return f.String()
	}
	color := ansiRed
	if f == WellConstrained {
		color = ansiGreen
	}
	return color + f.String() + ansiReset
}

// CounterExample is a witness assignment together with the verdict it
// demonstrates. TargetOutput names the diverging output when the verdict is
// non-deterministic.
type CounterExample struct {
	Flag         Flag
	TargetOutput *sym.Name
	Assignment   *executor.Assignment
}

func (ce *CounterExample) Render(lookup func(sym.ID) string) string {
	s := ce.Flag.Label()
	if ce.TargetOutput != nil {
		s += "\n  target output: " + ce.TargetOutput.String(lookup)
	}
	if ce.Assignment != nil && ce.Assignment.Len() > 0 {
		s += "\n" + indent(ce.Assignment.String(lookup))
	}
	return s
}

func indent(s string) string {
	out := "  "
	for _, r := range s {
		out += string(r)
		if r == '\n' {
			out += "  "
		}
	}
	return out
}
