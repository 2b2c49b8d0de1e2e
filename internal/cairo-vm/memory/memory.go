package memory

import (
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

// ValidationRule validates a newly-set cell at addr, returning the set of
// addresses it causes to become validated (usually just addr itself).
type ValidationRule func(addr core.Relocatable, mem *Memory) ([]core.Relocatable, error)

// Memory is the segmented, write-once memory model. It holds real
// segments (nonnegative index) and temporary segments (encoded as
// -index-1), a validated-address set, a per-segment validation rule table,
// and the relocation rules that bridge temporary segments to real ones.
type Memory struct {
	data     []Segment
	tempData []Segment

	validationRules map[int64]ValidationRule
	validated       map[core.Relocatable]bool
	relocationRules map[int64]core.Relocatable

	relocated bool
}

// NewMemory creates an empty memory with no segments.
func NewMemory() *Memory {
	return &Memory{
		validationRules: make(map[int64]ValidationRule),
		validated:       make(map[core.Relocatable]bool),
		relocationRules: make(map[int64]core.Relocatable),
	}
}

// AddSegment allocates a new real segment and returns its index.
func (m *Memory) AddSegment() int64 {
	m.data = append(m.data, Segment{})
	return int64(len(m.data) - 1)
}

// AddTempSegment allocates a new temporary segment and returns its
// (negative) index.
func (m *Memory) AddTempSegment() int64 {
	m.tempData = append(m.tempData, Segment{})
	return -int64(len(m.tempData))
}

// NumSegments returns the number of real segments currently allocated.
func (m *Memory) NumSegments() int64 {
	return int64(len(m.data))
}

func (m *Memory) segmentFor(idx int64) (*Segment, error) {
	if idx >= 0 {
		if idx >= int64(len(m.data)) {
			return nil, fmt.Errorf("memory: segment %d is not allocated", idx)
		}
		return &m.data[idx], nil
	}
	ti := -idx - 1
	if ti >= int64(len(m.tempData)) {
		return nil, fmt.Errorf("memory: temporary segment %d is not allocated", idx)
	}
	return &m.tempData[ti], nil
}

// Set writes value at addr under write-once semantics: it succeeds if the
// cell is empty, or if the existing value equals the one being written.
// Any registered validation rule for the target segment runs on the newly
// stored value and may reject the write (which is then undone) or mark
// addresses as validated.
func (m *Memory) Set(addr core.Relocatable, value core.MaybeRelocatable) error {
	seg, err := m.segmentFor(addr.SegmentIndex)
	if err != nil {
		return err
	}
	cell := seg.At(addr.Offset)
	if cell.IsSet() {
		if !cell.Value.Equal(value) {
			return &InconsistentMemoryError{Addr: addr, Existing: cell.Value, Attempted: value}
		}
		return nil
	}
	cell.Value = value
	cell.set = true

	if rule, ok := m.validationRules[addr.SegmentIndex]; ok {
		validated, err := rule(addr, m)
		if err != nil {
			// Roll back the tentative write: a rejected write never happened.
			cell.set = false
			cell.Value = core.MaybeRelocatable{}
			return err
		}
		for _, a := range validated {
			m.validated[a] = true
		}
	}
	return nil
}

// Get returns the value at addr, or nil if the cell is unset.
func (m *Memory) Get(addr core.Relocatable) (*core.MaybeRelocatable, error) {
	seg, err := m.segmentFor(addr.SegmentIndex)
	if err != nil {
		return nil, err
	}
	cell := seg.Get(addr.Offset)
	if cell == nil || !cell.IsSet() {
		return nil, nil
	}
	v := cell.Value
	return &v, nil
}

// GetFelt returns the felt at addr, failing with ExpectedInteger if the
// cell holds a relocatable, or ErrUnknownMemoryCell if unset.
func (m *Memory) GetFelt(addr core.Relocatable) (core.Felt, error) {
	v, err := m.Get(addr)
	if err != nil {
		return core.Felt{}, err
	}
	if v == nil {
		return core.Felt{}, fmt.Errorf("%w at %s", ErrUnknownMemoryCell, addr)
	}
	return v.GetFelt()
}

// GetRelocatable returns the relocatable at addr, failing with
// ExpectedRelocatable if the cell holds a felt, or ErrUnknownMemoryCell if unset.
func (m *Memory) GetRelocatable(addr core.Relocatable) (core.Relocatable, error) {
	v, err := m.Get(addr)
	if err != nil {
		return core.Relocatable{}, err
	}
	if v == nil {
		return core.Relocatable{}, fmt.Errorf("%w at %s", ErrUnknownMemoryCell, addr)
	}
	return v.GetRelocatable()
}

// MarkAccessed sets the accessed flag for the cell at addr. It is a no-op
// if the cell is unset (accessing an address implies it was read, and a
// read that found nothing never touches a cell).
func (m *Memory) MarkAccessed(addr core.Relocatable) error {
	seg, err := m.segmentFor(addr.SegmentIndex)
	if err != nil {
		return err
	}
	cell := seg.Get(addr.Offset)
	if cell == nil || !cell.IsSet() {
		return nil
	}
	cell.IsAccessed = true
	return nil
}

// GetRange reads n consecutive values starting at addr. It fails if any
// cell in the range is unset.
func (m *Memory) GetRange(addr core.Relocatable, n uint64) ([]core.MaybeRelocatable, error) {
	out := make([]core.MaybeRelocatable, n)
	for i := uint64(0); i < n; i++ {
		a, err := addr.AddUint(i)
		if err != nil {
			return nil, err
		}
		v, err := m.Get(a)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("%w at %s", ErrUnknownMemoryCell, a)
		}
		out[i] = *v
	}
	return out, nil
}

// GetFeltRange reads n consecutive felts starting at addr, failing on any
// missing cell or non-felt value.
func (m *Memory) GetFeltRange(addr core.Relocatable, n uint64) ([]core.Felt, error) {
	vals, err := m.GetRange(addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]core.Felt, n)
	for i, v := range vals {
		f, err := v.GetFelt()
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// AddValidationRule registers a validation rule for a real segment. Rules
// are applied to every subsequent write to that segment, and can be run
// retroactively via ValidateExistingMemory.
func (m *Memory) AddValidationRule(segmentIndex int64, rule ValidationRule) {
	m.validationRules[segmentIndex] = rule
}

// ValidateExistingMemory runs every registered validation rule against
// every currently-set cell in its segment, adding the returned addresses to
// the validated set.
func (m *Memory) ValidateExistingMemory() error {
	for segIdx, rule := range m.validationRules {
		seg, err := m.segmentFor(segIdx)
		if err != nil {
			continue
		}
		for _, offset := range seg.SetCells() {
			addr := core.NewRelocatable(segIdx, offset)
			validated, err := rule(addr, m)
			if err != nil {
				return err
			}
			for _, a := range validated {
				m.validated[a] = true
			}
		}
	}
	return nil
}

// IsValidated reports whether addr has been marked validated by some rule.
func (m *Memory) IsValidated(addr core.Relocatable) bool {
	return m.validated[addr]
}

// AddRelocationRule registers a rule mapping a temporary segment to a real
// destination. src must be the base of a temporary segment (offset 0);
// duplicate sources fail.
func (m *Memory) AddRelocationRule(src, dst core.Relocatable) error {
	if !src.IsTemporary() {
		return ErrAddressNotInTemporarySegment
	}
	if src.Offset != 0 {
		return ErrNonZeroOffset
	}
	if _, exists := m.relocationRules[src.SegmentIndex]; exists {
		return &DuplicatedRelocationError{Segment: src.SegmentIndex}
	}
	m.relocationRules[src.SegmentIndex] = dst
	return nil
}

// RelocationRules returns the registered temporary-to-real relocation rules.
func (m *Memory) RelocationRules() map[int64]core.Relocatable {
	return m.relocationRules
}

// RelocateValue applies the registered relocation rules to a single value.
func (m *Memory) RelocateValue(v core.MaybeRelocatable) (core.MaybeRelocatable, error) {
	return v.Relocate(m.relocationRules)
}

// RelocateTemporarySegments moves every cell of each temporary segment
// into its rule's destination under the usual write-once semantics,
// carrying the accessed flag along, then drops the temporary data. A
// temporary segment holding cells without a rule is an error.
func (m *Memory) RelocateTemporarySegments() error {
	for ti := range m.tempData {
		segIdx := -int64(ti) - 1
		seg := &m.tempData[ti]
		dst, hasRule := m.relocationRules[segIdx]
		for _, off := range seg.SetCells() {
			if !hasRule {
				return fmt.Errorf("%w: temporary segment %d has cells but no relocation rule", ErrUnrelocatedMemory, segIdx)
			}
			cell := seg.Get(off)
			value, err := cell.Value.Relocate(m.relocationRules)
			if err != nil {
				return err
			}
			target, err := dst.AddUint(off)
			if err != nil {
				return err
			}
			if err := m.Set(target, value); err != nil {
				return err
			}
			if cell.IsAccessed {
				if err := m.MarkAccessed(target); err != nil {
					return err
				}
			}
		}
	}
	m.tempData = nil
	return nil
}

// Segment exposes a real segment for size/iteration purposes used by the
// segment manager; it is not part of the write-once contract.
func (m *Memory) Segment(idx int64) (*Segment, error) {
	return m.segmentFor(idx)
}

// NumTempSegments returns the number of temporary segments allocated.
func (m *Memory) NumTempSegments() int64 {
	return int64(len(m.tempData))
}
