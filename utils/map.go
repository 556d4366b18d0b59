// Package utils provides small shared containers for the analyzer.
//
// Map is a structural hash map: keys are compared with EqualI instead of ==,
// which lets reference-heavy types (symbolic names, owner paths) act as keys.
package utils

type Hashable interface {
	HashCode() uint64
	EqualI(Hashable) bool
}

type Map map[uint64][]mapEntry

type mapEntry struct {
	e Hashable
	v interface{}
}

func (m Map) Find(e Hashable) (interface{}, bool) {
	s, ok := m[e.HashCode()]
	if !ok {
		return nil, false
	}
	for _, x := range s {
		if x.e.EqualI(e) {
			return x.v, true
		}
	}
	return nil, false
}

func (m Map) Set(e Hashable, v interface{}) {
	h := e.HashCode()
	s, ok := m[h]
	if !ok {
		s = make([]mapEntry, 0, 1)
	} else {
		for i, x := range s {
			if x.e.EqualI(e) {
				s[i].v = v
				return
			}
		}
	}
	m[h] = append(s, mapEntry{
		e: e,
		v: v,
	})
}

// Add inserts the entry only when the key is absent and returns the stored value.
func (m Map) Add(e Hashable, v interface{}) interface{} {
	h := e.HashCode()
	s, ok := m[h]
	if !ok {
		s = make([]mapEntry, 0, 1)
	} else {
		for _, x := range s {
			if x.e.EqualI(e) {
				return x.v
			}
		}
	}
	m[h] = append(s, mapEntry{
		e: e,
		v: v,
	})
	return v
}

func (m Map) Len() int {
	n := 0
	for _, s := range m {
		n += len(s)
	}
	return n
}

// Range calls f for every entry. Iteration order is unspecified; callers that
// need determinism must keep their own key order.
func (m Map) Range(f func(Hashable, interface{}) bool) {
	for _, s := range m {
		for _, x := range s {
			if !f(x.e, x.v) {
				return
			}
		}
	}
}

// Clone copies the buckets; keys and values are shared (they are immutable by
// convention).
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for h, s := range m {
		cs := make([]mapEntry, len(s))
		copy(cs, s)
		out[h] = cs
	}
	return out
}

func (m Map) FilterKeys(f func(interface{}) bool) []Hashable {
	keys := []Hashable{}
	for _, s := range m {
		for _, x := range s {
			if f(x.v) {
				keys = append(keys, x.e)
			}
		}
	}
	return keys
}

func (m Map) Clear() {
	for k := range m {
		delete(m, k)
	}
}
