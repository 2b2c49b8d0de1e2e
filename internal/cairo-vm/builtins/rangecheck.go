package builtins

import (
	"errors"
	"math/big"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// RCBound is the exclusive upper bound range-check enforces: [0, 2^128).
var RCBound = new(big.Int).Lsh(big.NewInt(1), 128)

var ErrRangeCheckOutOfBounds = errors.New("builtins: range_check value outside [0, 2^128)")

// RangeCheck never deduces a value; it only validates writes.
type RangeCheck struct {
	base
}

func NewRangeCheck(included bool) *RangeCheck {
	return &RangeCheck{base: base{cellsPer: 1, included: included}}
}

func (r *RangeCheck) Name() string { return "range_check" }

func (r *RangeCheck) DeduceMemoryCell(core.Relocatable, *memory.Memory) (*core.MaybeRelocatable, error) {
	return nil, nil
}

func (r *RangeCheck) AddValidationRule(mem *memory.Memory) {
	segIdx := r.segment.SegmentIndex
	mem.AddValidationRule(segIdx, func(addr core.Relocatable, m *memory.Memory) ([]core.Relocatable, error) {
		v, err := m.Get(addr)
		if err != nil || v == nil {
			return nil, nil
		}
		f, err := v.GetFelt()
		if err != nil {
			return nil, err
		}
		if f.Big().Cmp(RCBound) >= 0 {
			return nil, ErrRangeCheckOutOfBounds
		}
		return []core.Relocatable{addr}, nil
	})
}

func (r *RangeCheck) GetUsedPermRangeCheckUnits(mem *memory.Memory) (uint64, error) {
	seg, err := mem.Segment(r.segment.SegmentIndex)
	if err != nil {
		return 0, nil
	}
	return uint64(len(seg.SetCells())), nil
}

func (r *RangeCheck) VerifyAutoDeductions(*memory.Memory) error { return nil }
