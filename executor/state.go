package executor

import (
	"github.com/zkscout/zkscout/sym"
	"github.com/zkscout/zkscout/utils"
)

// State is the symbolic state of one exploration path: the owner scope, the
// path bindings, and the two constraint streams. States are cloned at branch
// points; clones are shallow, the bound values are shared immutably.
type State struct {
	owner       *sym.OwnerPath
	templateID  sym.ID
	inInitBlock bool
	depth       int

	values utils.Map // sym.Name -> sym.Value

	trace []sym.Value
	side  []sym.Value
}

func NewState() *State {
	return &State{
		owner:      sym.NewOwnerPath(),
		templateID: sym.InvalidID,
		values:     make(utils.Map),
	}
}

func (s *State) Clone() *State {
	c := *s
	c.values = s.values.Clone()
	c.trace = append([]sym.Value(nil), s.trace...)
	c.side = append([]sym.Value(nil), s.side...)
	return &c
}

func (s *State) Owner() *sym.OwnerPath { return s.owner }

func (s *State) SetOwner(p *sym.OwnerPath) { s.owner = p }

// AddOwner extends the owner path copy-on-write; existing holders of the old
// path are unaffected.
func (s *State) AddOwner(n sym.OwnerName) {
	s.owner = s.owner.Extend(n)
}

func (s *State) TemplateID() sym.ID      { return s.templateID }
func (s *State) SetTemplateID(id sym.ID) { s.templateID = id }

func (s *State) Depth() int       { return s.depth }
func (s *State) SetDepth(d int)   { s.depth = d }
func (s *State) IncrDepth()       { s.depth++ }

// Get returns the binding of a name.
func (s *State) Get(n sym.Name) (sym.Value, bool) {
	v, ok := s.values.Find(n)
	if !ok || v == nil {
		return nil, false
	}
	return v.(sym.Value), true
}

func (s *State) Set(n sym.Name, v sym.Value) {
	s.values.Set(n, v)
}

// Values exposes the binding map for draining a sub-executor into its caller.
func (s *State) Values() utils.Map { return s.values }

func (s *State) PushTrace(v sym.Value) { s.trace = append(s.trace, v) }
func (s *State) PushSide(v sym.Value)  { s.side = append(s.side, v) }

func (s *State) Trace() []sym.Value { return s.trace }
func (s *State) Side() []sym.Value  { return s.side }
