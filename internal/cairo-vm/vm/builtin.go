package vm

import (
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// BuiltinRunner is the uniform contract every builtin exposes. The
// vm package depends only on this interface, never on the builtins
// package's concrete types, so builtins implementations are plugged in by
// the caller that constructs a CairoVM.
type BuiltinRunner interface {
	BuiltinDeducer

	Name() string
	// InitSegments allocates the builtin's base segment and stores it.
	InitSegments(mgr *memory.SegmentManager)
	// InitialStack returns the values the caller must push on function entry.
	InitialStack() []core.MaybeRelocatable
	// AddValidationRule registers any per-write validation rule.
	AddValidationRule(mem *memory.Memory)
	// GetUsedPermRangeCheckUnits reports this builtin's contribution to the
	// permanent range-check budget.
	GetUsedPermRangeCheckUnits(mem *memory.Memory) (uint64, error)
	// FinalStack consumes the builtin's stop pointer from the stack on
	// return, recording it for relocation reporting.
	FinalStack(mgr *memory.SegmentManager, stackTop core.Relocatable) (core.Relocatable, error)
	// GetMemorySegmentAddresses reports (base, stop) for relocation.
	GetMemorySegmentAddresses() (core.Relocatable, *core.Relocatable)
	// VerifyAutoDeductions re-derives every set cell in this builtin's
	// segment from its peers and asserts equality with the stored value.
	VerifyAutoDeductions(mem *memory.Memory) error
}
