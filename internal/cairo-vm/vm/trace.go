package vm

import (
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// TraceEntry is one (pc, ap, fp) snapshot, recorded as relocatables while
// running and later relocated to flat felts.
type TraceEntry struct {
	PC, AP, FP core.Relocatable
}

// RelocatedTraceEntry is a trace entry after relocation.
type RelocatedTraceEntry struct {
	PC, AP, FP core.Felt
}

// RelocatedMemoryCell is one flat address/value pair in relocated memory.
// Index 0 is reserved and never emitted.
type RelocatedMemoryCell struct {
	Address uint64
	Value   core.Felt
}

// Relocator turns the 2-D segmented address space into a flat 1-D one
// It may run exactly once.
type Relocator struct {
	mgr             *memory.SegmentManager
	memoryRelocated bool
	traceRelocated  bool
	relocatedMemory []RelocatedMemoryCell
	relocatedTrace  []RelocatedTraceEntry
}

// NewRelocator builds a relocator over the given segment manager.
func NewRelocator(mgr *memory.SegmentManager) *Relocator {
	return &Relocator{mgr: mgr}
}

// RelocateMemory resolves temporary-segment references via the memory's
// relocation rules, then flattens every set cell to a (flat address, felt
// value) pair using the supplied base table.
func (r *Relocator) RelocateMemory(base []uint64) ([]RelocatedMemoryCell, error) {
	if r.memoryRelocated {
		return nil, ErrMemoryAlreadyRelocated
	}
	var out []RelocatedMemoryCell
	for segIdx := int64(0); segIdx < r.mgr.Memory.NumSegments(); segIdx++ {
		seg, err := r.mgr.Memory.Segment(segIdx)
		if err != nil {
			return nil, err
		}
		for _, offset := range seg.SetCells() {
			addr := core.NewRelocatable(segIdx, offset)
			v, err := r.mgr.Memory.Get(addr)
			if err != nil {
				return nil, err
			}
			relocated, err := r.mgr.Memory.RelocateValue(*v)
			if err != nil {
				return nil, err
			}
			flatValue, err := flattenValue(relocated, base)
			if err != nil {
				return nil, err
			}
			if segIdx >= int64(len(base)) {
				return nil, ErrNoRelocationFound
			}
			flatAddr := base[segIdx] + offset
			out = append(out, RelocatedMemoryCell{Address: flatAddr, Value: flatValue})
		}
	}
	r.relocatedMemory = out
	r.memoryRelocated = true
	return out, nil
}

func flattenValue(v core.MaybeRelocatable, base []uint64) (core.Felt, error) {
	if v.IsFelt() {
		f, _ := v.GetFelt()
		return f, nil
	}
	r, _ := v.GetRelocatable()
	if r.SegmentIndex < 0 || r.SegmentIndex >= int64(len(base)) {
		return core.Felt{}, ErrNoRelocationFound
	}
	return core.FeltFromUint64(base[r.SegmentIndex] + r.Offset), nil
}

// RelocateTrace rewrites each trace entry to flat addresses.
func (r *Relocator) RelocateTrace(trace []TraceEntry, base []uint64) ([]RelocatedTraceEntry, error) {
	if r.traceRelocated {
		return nil, ErrTraceAlreadyRelocated
	}
	out := make([]RelocatedTraceEntry, len(trace))
	for i, e := range trace {
		pc, err := flattenValue(core.FromRelocatable(e.PC), base)
		if err != nil {
			return nil, err
		}
		ap, err := flattenValue(core.FromRelocatable(e.AP), base)
		if err != nil {
			return nil, err
		}
		fp, err := flattenValue(core.FromRelocatable(e.FP), base)
		if err != nil {
			return nil, err
		}
		out[i] = RelocatedTraceEntry{PC: pc, AP: ap, FP: fp}
	}
	r.relocatedTrace = out
	r.traceRelocated = true
	return out, nil
}

// RelocatedMemory and RelocatedTrace expose the results of a completed
// relocation; calling again
// returns the same slices rather than recomputing.
func (r *Relocator) RelocatedMemory() ([]RelocatedMemoryCell, error) {
	if !r.memoryRelocated {
		return nil, ErrMemoryNotRelocated
	}
	return r.relocatedMemory, nil
}

func (r *Relocator) RelocatedTrace() ([]RelocatedTraceEntry, error) {
	if !r.traceRelocated {
		return nil, ErrTraceNotRelocated
	}
	return r.relocatedTrace, nil
}

