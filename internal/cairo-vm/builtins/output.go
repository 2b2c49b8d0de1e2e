package builtins

import (
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// Output is the simplest builtin: one cell per instance, write-through,
// whose contents become public memory rather than being deduced.
type Output struct {
	base
}

func NewOutput(included bool) *Output {
	return &Output{base: base{cellsPer: 1, included: included}}
}

func (o *Output) Name() string { return "output" }

// DeduceMemoryCell never deduces: output cells are always supplied by the
// running program.
func (o *Output) DeduceMemoryCell(core.Relocatable, *memory.Memory) (*core.MaybeRelocatable, error) {
	return nil, nil
}

func (o *Output) VerifyAutoDeductions(*memory.Memory) error { return nil }
