package sym

import (
	"strconv"
	"strings"

	"github.com/zkscout/zkscout/utils"
)

// ID is a dense interned identifier for a source name.
type ID int32

// InvalidID marks an unset identifier (e.g. the template of a fresh state).
const InvalidID ID = -1

// OwnerName is one link of a scope chain: the callee id, a per-call counter
// distinguishing repeated instantiations, and the array indices of the slot
// the component was instantiated in (nil for scalar components).
type OwnerName struct {
	ID      ID
	Counter int
	Dims    []int
}

func (o OwnerName) equal(p OwnerName) bool {
	if o.ID != p.ID || o.Counter != p.Counter || len(o.Dims) != len(p.Dims) {
		return false
	}
	for i := range o.Dims {
		if o.Dims[i] != p.Dims[i] {
			return false
		}
	}
	return true
}

func (o OwnerName) hashCode() uint64 {
	h := uint64(o.ID)*998244353 ^ uint64(o.Counter)*1000000007
	for _, d := range o.Dims {
		h = h*31 + uint64(d) + 1
	}
	return h
}

func (o OwnerName) render(lookup func(ID) string) string {
	var sb strings.Builder
	sb.WriteString(lookup(o.ID))
	if o.Counter != 0 {
		sb.WriteByte('#')
		sb.WriteString(strconv.Itoa(o.Counter))
	}
	for _, d := range o.Dims {
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(d))
		sb.WriteByte(']')
	}
	return sb.String()
}

// OwnerPath is the scope chain qualifying a name. Paths are shared immutably:
// Extend copies the link slice and leaves existing holders untouched.
type OwnerPath struct {
	names []OwnerName
}

func NewOwnerPath(names ...OwnerName) *OwnerPath {
	return &OwnerPath{names: names}
}

func (p *OwnerPath) Extend(n OwnerName) *OwnerPath {
	out := make([]OwnerName, len(p.names)+1)
	copy(out, p.names)
	out[len(p.names)] = n
	return &OwnerPath{names: out}
}

func (p *OwnerPath) Names() []OwnerName { return p.names }

func (p *OwnerPath) Len() int { return len(p.names) }

func (p *OwnerPath) Equal(q *OwnerPath) bool {
	if p == q {
		return true
	}
	if p == nil || q == nil || len(p.names) != len(q.names) {
		return false
	}
	for i := range p.names {
		if !p.names[i].equal(q.names[i]) {
			return false
		}
	}
	return true
}

func (p *OwnerPath) HashCode() uint64 {
	h := uint64(17)
	if p == nil {
		return h
	}
	for _, n := range p.names {
		h = h*23 + n.hashCode()
	}
	return h
}

func (p *OwnerPath) String(lookup func(ID) string) string {
	if p == nil {
		return ""
	}
	parts := make([]string, len(p.names))
	for i, n := range p.names {
		parts[i] = n.render(lookup)
	}
	return strings.Join(parts, ".")
}

// Access qualifies a name: either a component member or an array index.
type Access interface {
	isAccess()
	HashCode() uint64
	EqualAccess(Access) bool
	String(lookup func(ID) string) string
}

type ComponentAccess struct {
	Name ID
}

type ArrayAccess struct {
	Index Value
}

func (ComponentAccess) isAccess() {}
func (*ArrayAccess) isAccess()    {}

func (a ComponentAccess) HashCode() uint64 { return uint64(a.Name)*2654435761 + 7 }

func (a ComponentAccess) EqualAccess(o Access) bool {
	b, ok := o.(ComponentAccess)
	return ok && a.Name == b.Name
}

func (a ComponentAccess) String(lookup func(ID) string) string {
	return "." + lookup(a.Name)
}

func (a *ArrayAccess) HashCode() uint64 { return a.Index.HashCode()*31 + 11 }

func (a *ArrayAccess) EqualAccess(o Access) bool {
	b, ok := o.(*ArrayAccess)
	return ok && a.Index.Equal(b.Index)
}

func (a *ArrayAccess) String(lookup func(ID) string) string {
	return "[" + a.Index.String(lookup) + "]"
}

// Name is a fully qualified symbolic name: identifier, owner path, and an
// optional access list. Two names are equal iff all three components are.
type Name struct {
	ID     ID
	Owner  *OwnerPath
	Access []Access
}

func (n Name) Equal(o Name) bool {
	if n.ID != o.ID || len(n.Access) != len(o.Access) {
		return false
	}
	if !n.Owner.Equal(o.Owner) {
		return false
	}
	for i := range n.Access {
		if !n.Access[i].EqualAccess(o.Access[i]) {
			return false
		}
	}
	return true
}

func (n Name) HashCode() uint64 {
	h := uint64(n.ID)*2654435761 ^ n.Owner.HashCode()
	for _, a := range n.Access {
		h = h*23 + a.HashCode()
	}
	return h
}

// EqualI lets Name act as a utils.Map key.
func (n Name) EqualI(o utils.Hashable) bool {
	m, ok := o.(Name)
	return ok && n.Equal(m)
}

func (n Name) String(lookup func(ID) string) string {
	var sb strings.Builder
	if s := n.Owner.String(lookup); s != "" {
		sb.WriteString(s)
		sb.WriteByte('.')
	}
	sb.WriteString(lookup(n.ID))
	for _, a := range n.Access {
		sb.WriteString(a.String(lookup))
	}
	return sb.String()
}
