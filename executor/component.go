package executor

import (
	"github.com/zkscout/zkscout/sym"
	"github.com/zkscout/zkscout/utils"
)

// Component is a template instantiation awaiting its inputs. The inputs map
// is pre-populated with every declared input slot holding nil; the component
// is dispatched exactly once, when the last slot is filled.
type Component struct {
	TemplateID sym.ID
	Args       []sym.Value
	Owner      *sym.OwnerPath
	Inputs     utils.Map // sym.Name -> sym.Value (nil until set)
	Done       bool
}

// Ready reports whether every registered input slot holds a value.
func (c *Component) Ready() bool {
	ready := true
	c.Inputs.Range(func(_ utils.Hashable, v interface{}) bool {
		if v == nil {
			ready = false
			return false
		}
		return true
	})
	return ready
}

// HasInput reports whether the name is a registered input slot.
func (c *Component) HasInput(n sym.Name) bool {
	_, ok := c.Inputs.Find(n)
	return ok
}

func (c *Component) SetInput(n sym.Name, v sym.Value) {
	c.Inputs.Set(n, v)
}
