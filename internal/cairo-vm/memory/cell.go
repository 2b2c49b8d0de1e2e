package memory

import "github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"

// Cell holds a single memory value plus its accessed flag. Once Value is
// set it is frozen: see Memory.Set for the write-once enforcement.
type Cell struct {
	Value      core.MaybeRelocatable
	set        bool
	IsAccessed bool
}

// IsSet reports whether this cell currently holds a value.
func (c *Cell) IsSet() bool {
	return c.set
}
