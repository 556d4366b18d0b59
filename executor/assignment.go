package executor

import (
	"math/big"
	"sort"
	"strings"

	"github.com/zkscout/zkscout/sym"
	"github.com/zkscout/zkscout/utils"
)

// Assignment maps symbolic names to concrete field elements. Insertion order
// is preserved so searches iterate deterministically.
type Assignment struct {
	keys []sym.Name
	vals utils.Map
}

func NewAssignment() *Assignment {
	return &Assignment{vals: make(utils.Map)}
}

func (a *Assignment) Set(n sym.Name, v *big.Int) {
	if _, ok := a.vals.Find(n); !ok {
		a.keys = append(a.keys, n)
	}
	a.vals.Set(n, v)
}

func (a *Assignment) Get(n sym.Name) (*big.Int, bool) {
	v, ok := a.vals.Find(n)
	if !ok || v == nil {
		return nil, false
	}
	return v.(*big.Int), true
}

func (a *Assignment) Len() int { return len(a.keys) }

// Names returns the keys in insertion order.
func (a *Assignment) Names() []sym.Name { return a.keys }

func (a *Assignment) Clone() *Assignment {
	return &Assignment{
		keys: append([]sym.Name(nil), a.keys...),
		vals: a.vals.Clone(),
	}
}

// Restrict keeps only the given names (those present in a).
func (a *Assignment) Restrict(names []sym.Name) *Assignment {
	out := NewAssignment()
	for _, n := range names {
		if v, ok := a.Get(n); ok {
			out.Set(n, v)
		}
	}
	return out
}

// String renders the assignment sorted by name for stable output.
func (a *Assignment) String(lookup func(sym.ID) string) string {
	lines := make([]string, 0, len(a.keys))
	for _, n := range a.keys {
		v, _ := a.Get(n)
		lines = append(lines, n.String(lookup)+" = "+v.String())
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
