// Package program normalizes the source AST into the debug AST the symbolic
// executor walks: string names are interned to dense ids, anonymous
// components are desugared into ordinary template calls, and statement lists
// are flattened. It also hosts the symbolic library of template and function
// descriptors.
package program

import "github.com/zkscout/zkscout/sym"

// ReturnName is the implicit binding a function return writes to.
const ReturnName = "__return__"

// Interner is a bidirectional table mapping source names to dense ids. The
// return sentinel is interned at construction, so it is per-library rather
// than process-wide.
type Interner struct {
	ids   map[string]sym.ID
	names []string
	ret   sym.ID
}

func NewInterner() *Interner {
	in := &Interner{ids: make(map[string]sym.ID)}
	in.ret = in.Intern(ReturnName)
	return in
}

func (in *Interner) Intern(s string) sym.ID {
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := sym.ID(len(in.names))
	in.ids[s] = id
	in.names = append(in.names, s)
	return id
}

// Get returns the id of a name without interning it.
func (in *Interner) Get(s string) (sym.ID, bool) {
	id, ok := in.ids[s]
	return id, ok
}

func (in *Interner) Lookup(id sym.ID) string {
	if id < 0 || int(id) >= len(in.names) {
		return "?"
	}
	return in.names[id]
}

func (in *Interner) ReturnID() sym.ID { return in.ret }

func (in *Interner) Count() int { return len(in.names) }
