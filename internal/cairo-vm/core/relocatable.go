package core

import (
	"fmt"
	"math/big"
)

// Relocatable is a 2-D address (segment_index, offset). A positive segment
// index refers to a real segment, a negative one to a temporary segment.
type Relocatable struct {
	SegmentIndex int64
	Offset       uint64
}

// NewRelocatable builds a Relocatable from its two components.
func NewRelocatable(segmentIndex int64, offset uint64) Relocatable {
	return Relocatable{SegmentIndex: segmentIndex, Offset: offset}
}

// IsTemporary reports whether this address lives in a temporary segment.
func (r Relocatable) IsTemporary() bool {
	return r.SegmentIndex < 0
}

// AddUint adds a nonnegative integer to the offset, checked for overflow.
func (r Relocatable) AddUint(delta uint64) (Relocatable, error) {
	sum := r.Offset + delta
	if sum < r.Offset {
		return Relocatable{}, fmt.Errorf("core: offset overflow adding %d to %s", delta, r)
	}
	return Relocatable{SegmentIndex: r.SegmentIndex, Offset: sum}, nil
}

// AddSigned adds a signed integer to the offset, checked for underflow.
func (r Relocatable) AddSigned(delta int64) (Relocatable, error) {
	if delta >= 0 {
		return r.AddUint(uint64(delta))
	}
	abs := uint64(-delta)
	if abs > r.Offset {
		return Relocatable{}, fmt.Errorf("core: offset underflow subtracting %d from %s", abs, r)
	}
	return Relocatable{SegmentIndex: r.SegmentIndex, Offset: r.Offset - abs}, nil
}

// AddFelt adds a field element to the offset: the offset is incremented mod
// P then re-asserted to fit in a uint64, per the MaybeRelocatable contract.
func (r Relocatable) AddFelt(f Felt) (Relocatable, error) {
	sum := new(big.Int).SetUint64(r.Offset)
	sum.Add(sum, f.Big())
	sum.Mod(sum, P)
	if !sum.IsUint64() {
		return Relocatable{}, fmt.Errorf("core: relocatable offset %s does not fit in 64 bits", sum)
	}
	return Relocatable{SegmentIndex: r.SegmentIndex, Offset: sum.Uint64()}, nil
}

// Sub returns the integer difference r - other when both live in the same
// segment; it fails otherwise (cross-segment subtraction is always an error).
func (r Relocatable) Sub(other Relocatable) (int64, error) {
	if r.SegmentIndex != other.SegmentIndex {
		return 0, fmt.Errorf("core: cannot subtract relocatables from different segments (%d, %d)", r.SegmentIndex, other.SegmentIndex)
	}
	return int64(r.Offset) - int64(other.Offset), nil
}

// SubUint returns r with delta subtracted from its offset, checked.
func (r Relocatable) SubUint(delta uint64) (Relocatable, error) {
	if delta > r.Offset {
		return Relocatable{}, fmt.Errorf("core: offset underflow subtracting %d from %s", delta, r)
	}
	return Relocatable{SegmentIndex: r.SegmentIndex, Offset: r.Offset - delta}, nil
}

// Equal reports exact equality of both components.
func (r Relocatable) Equal(other Relocatable) bool {
	return r.SegmentIndex == other.SegmentIndex && r.Offset == other.Offset
}

// Less orders two addresses within the same segment; for addresses in
// different segments it returns false.
func (r Relocatable) Less(other Relocatable) bool {
	return r.SegmentIndex == other.SegmentIndex && r.Offset < other.Offset
}

// IsNonZero reports whether either component is nonzero, the test Jnz
// applies to a relocatable branch condition.
func (r Relocatable) IsNonZero() bool {
	return r.SegmentIndex != 0 || r.Offset != 0
}

func (r Relocatable) String() string {
	return fmt.Sprintf("(%d:%d)", r.SegmentIndex, r.Offset)
}

// MaybeRelocatable is a tagged union of Felt or Relocatable.
type MaybeRelocatable struct {
	isFelt bool
	felt   Felt
	reloc  Relocatable
}

// FromFelt wraps a field element.
func FromFelt(f Felt) MaybeRelocatable {
	return MaybeRelocatable{isFelt: true, felt: f}
}

// FromRelocatable wraps an address.
func FromRelocatable(r Relocatable) MaybeRelocatable {
	return MaybeRelocatable{isFelt: false, reloc: r}
}

// IsFelt reports whether the union holds a field element.
func (m MaybeRelocatable) IsFelt() bool { return m.isFelt }

// IsRelocatable reports whether the union holds an address.
func (m MaybeRelocatable) IsRelocatable() bool { return !m.isFelt }

// GetFelt returns the held field element, failing with a type-mismatch
// error (ExpectedInteger) if the union holds a Relocatable.
func (m MaybeRelocatable) GetFelt() (Felt, error) {
	if !m.isFelt {
		return Felt{}, ErrExpectedInteger
	}
	return m.felt, nil
}

// GetRelocatable returns the held address, failing with a type-mismatch
// error (ExpectedRelocatable) if the union holds a Felt.
func (m MaybeRelocatable) GetRelocatable() (Relocatable, error) {
	if m.isFelt {
		return Relocatable{}, ErrExpectedRelocatable
	}
	return m.reloc, nil
}

// Equal reports whether both values have the same tag and underlying value.
func (m MaybeRelocatable) Equal(other MaybeRelocatable) bool {
	if m.isFelt != other.isFelt {
		return false
	}
	if m.isFelt {
		return m.felt.Equal(other.felt)
	}
	return m.reloc.Equal(other.reloc)
}

// Add implements the MaybeRelocatable addition rule: adding two relocatables
// is forbidden; adding a felt to a relocatable increments its offset.
func (m MaybeRelocatable) Add(other MaybeRelocatable) (MaybeRelocatable, error) {
	switch {
	case m.isFelt && other.isFelt:
		return FromFelt(m.felt.Add(other.felt)), nil
	case !m.isFelt && other.isFelt:
		r, err := m.reloc.AddFelt(other.felt)
		if err != nil {
			return MaybeRelocatable{}, err
		}
		return FromRelocatable(r), nil
	case m.isFelt && !other.isFelt:
		r, err := other.reloc.AddFelt(m.felt)
		if err != nil {
			return MaybeRelocatable{}, err
		}
		return FromRelocatable(r), nil
	default:
		return MaybeRelocatable{}, ErrAddRelocToReloc
	}
}

// Mul implements the MaybeRelocatable multiplication rule: any relocatable
// operand is forbidden.
func (m MaybeRelocatable) Mul(other MaybeRelocatable) (MaybeRelocatable, error) {
	if !m.isFelt || !other.isFelt {
		return MaybeRelocatable{}, ErrMulReloc
	}
	return FromFelt(m.felt.Mul(other.felt)), nil
}

// Sub subtracts other from m. Two relocatables in the same segment yield a
// felt difference; a relocatable minus a felt yields a relocatable; felt
// minus felt yields a felt. Felt minus relocatable is forbidden.
func (m MaybeRelocatable) Sub(other MaybeRelocatable) (MaybeRelocatable, error) {
	switch {
	case m.isFelt && other.isFelt:
		return FromFelt(m.felt.Sub(other.felt)), nil
	case !m.isFelt && !other.isFelt:
		diff, err := m.reloc.Sub(other.reloc)
		if err != nil {
			return MaybeRelocatable{}, err
		}
		return FromFelt(FeltFromInt64(diff)), nil
	case !m.isFelt && other.isFelt:
		r, err := m.reloc.AddFelt(other.felt.Neg())
		if err != nil {
			return MaybeRelocatable{}, err
		}
		return FromRelocatable(r), nil
	default:
		return MaybeRelocatable{}, ErrAddRelocToReloc
	}
}

// IsZero reports whether the value is the felt zero, or a relocatable whose
// segment and offset are both zero: Jnz treats a relocatable dst as nonzero
// if *either* component is nonzero.
// This method implements exactly that rule for use by the register updater.
func (m MaybeRelocatable) IsZero() bool {
	if m.isFelt {
		return m.felt.IsZero()
	}
	return !m.reloc.IsNonZero()
}

func (m MaybeRelocatable) String() string {
	if m.isFelt {
		return m.felt.String()
	}
	return m.reloc.String()
}

// Relocate applies relocation rules to a stored value: a Relocatable whose
// segment has a rule is rewritten to dst + offset; a Felt and an
// already-real Relocatable are returned unchanged.
func (m MaybeRelocatable) Relocate(rules map[int64]Relocatable) (MaybeRelocatable, error) {
	if m.isFelt {
		return m, nil
	}
	dst, ok := rules[m.reloc.SegmentIndex]
	if !ok {
		return m, nil
	}
	r, err := dst.AddUint(m.reloc.Offset)
	if err != nil {
		return MaybeRelocatable{}, err
	}
	return FromRelocatable(r), nil
}
