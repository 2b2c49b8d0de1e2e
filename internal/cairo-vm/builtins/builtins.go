// Package builtins implements the per-instance auto-deduction runners:
// output, bitwise, range-check, pedersen, ecdsa, ec_op, keccak,
// poseidon, and segment_arena. Each runner satisfies vm.BuiltinRunner
// structurally; this package never imports the vm package.
package builtins

import (
	"errors"
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

var (
	ErrInconsistentAutoDeduction = errors.New("builtins: inconsistent auto deduction")
	ErrMissingStopPointer        = errors.New("builtins: missing stop pointer on final stack")
	ErrStopPointerWrongSegment   = errors.New("builtins: stop pointer does not belong to this builtin's segment")
)

// base is the common state every runner embeds: its allocated segment, the
// number of cells per instance, and (once set) its stop pointer.
type base struct {
	segment    core.Relocatable
	cellsPer   uint64
	included   bool
	stopPtr    *core.Relocatable
}

func (b *base) Base() core.Relocatable { return b.segment }

func (b *base) InitSegments(mgr *memory.SegmentManager) {
	b.segment = mgr.AddSegment()
}

func (b *base) InitialStack() []core.MaybeRelocatable {
	if !b.included {
		return nil
	}
	return []core.MaybeRelocatable{core.FromRelocatable(b.segment)}
}

func (b *base) AddValidationRule(*memory.Memory) {}

func (b *base) GetUsedPermRangeCheckUnits(*memory.Memory) (uint64, error) { return 0, nil }

// FinalStack pops this builtin's stop pointer off the top of the caller's
// stack (the cell immediately below stackTop) and records it.
func (b *base) FinalStack(mgr *memory.SegmentManager, stackTop core.Relocatable) (core.Relocatable, error) {
	prev, err := stackTop.SubUint(1)
	if err != nil {
		return core.Relocatable{}, err
	}
	v, err := mgr.Memory.Get(prev)
	if err != nil {
		return core.Relocatable{}, err
	}
	if v == nil {
		return core.Relocatable{}, ErrMissingStopPointer
	}
	stop, err := v.GetRelocatable()
	if err != nil {
		return core.Relocatable{}, err
	}
	if stop.SegmentIndex != b.segment.SegmentIndex {
		return core.Relocatable{}, ErrStopPointerWrongSegment
	}
	b.stopPtr = &stop
	return prev, nil
}

func (b *base) GetMemorySegmentAddresses() (core.Relocatable, *core.Relocatable) {
	return b.segment, b.stopPtr
}

// instanceOffset returns the 0-based instance index and the offset within
// the instance for a given cell address on this builtin's segment.
func (b *base) instanceOffset(addr core.Relocatable) (instance, cellOffset uint64) {
	return addr.Offset / b.cellsPer, addr.Offset % b.cellsPer
}

// cellAddr returns the address of the given cell index within instance.
func (b *base) cellAddr(instance, cell uint64) core.Relocatable {
	return core.NewRelocatable(b.segment.SegmentIndex, instance*b.cellsPer+cell)
}

func inconsistentDeduction(addr core.Relocatable, existing, deduced core.MaybeRelocatable) error {
	return fmt.Errorf("%w at %s: existing %s, deduced %s", ErrInconsistentAutoDeduction, addr, existing, deduced)
}

// verifyAutoDeductionsGeneric re-derives every set cell on the segment via
// deduce and compares it against the stored value, matching the post-run
// check every runner performs the same way.
func verifyAutoDeductionsGeneric(mem *memory.Memory, segIdx int64, deduce func(core.Relocatable, *memory.Memory) (*core.MaybeRelocatable, error)) error {
	seg, err := mem.Segment(segIdx)
	if err != nil {
		return nil
	}
	for _, offset := range seg.SetCells() {
		addr := core.NewRelocatable(segIdx, offset)
		stored, err := mem.Get(addr)
		if err != nil || stored == nil {
			continue
		}
		deduced, err := deduce(addr, mem)
		if err != nil {
			return err
		}
		if deduced == nil {
			continue
		}
		if !deduced.Equal(*stored) {
			return inconsistentDeduction(addr, *stored, *deduced)
		}
	}
	return nil
}
