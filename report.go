package zkscout

import (
	"fmt"
	"io"

	"github.com/zkscout/zkscout/search"
	"github.com/zkscout/zkscout/sym"
)

// Report is the result of one analysis: the verdict, the counterexample
// witnessing it (nil for a clean run), and run statistics.
type Report struct {
	Template       string
	Verdict        search.Flag
	CounterExample *search.CounterExample
	Stats          Stats
	FitnessScores  []string

	lookup func(sym.ID) string
}

// Render writes the human-readable summary.
func (r *Report) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "template %s: %s\n", r.Template, r.Verdict.Label()); err != nil {
		return err
	}
	if r.CounterExample != nil {
		if _, err := fmt.Fprintln(w, r.CounterExample.Render(r.lookup)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w,
		"constraints: %d trace, %d side; variables: %d (%d in, %d out); max depth %d; took %s\n",
		r.Stats.TraceConstraints, r.Stats.SideConstraints,
		r.Stats.Variables, r.Stats.InputVariables, r.Stats.OutputVariables,
		r.Stats.MaxDepth, r.Stats.Elapsed)
	if err != nil {
		return err
	}
	if len(r.FitnessScores) > 0 {
		if _, err := fmt.Fprintf(w, "fitness scores: %v\n", r.FitnessScores); err != nil {
			return err
		}
	}
	return nil
}
