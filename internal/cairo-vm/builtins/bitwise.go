package builtins

import (
	"errors"
	"math/big"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// TotalNBits bounds the inputs to the bitwise builtin: operands must fit in
// this many bits, one fewer than the 252-bit width of P.
const TotalNBits = 251

var ErrBitwiseOutsideBounds = errors.New("builtins: bitwise operand outside TOTAL_N_BITS bound")

// Bitwise deduces the AND/XOR/OR of two felts per instance: cells
// (x, y, x&y, x^y, x|y).
type Bitwise struct {
	base
}

func NewBitwise(included bool) *Bitwise {
	return &Bitwise{base: base{cellsPer: 5, included: included}}
}

func (b *Bitwise) Name() string { return "bitwise" }

func (b *Bitwise) DeduceMemoryCell(addr core.Relocatable, mem *memory.Memory) (*core.MaybeRelocatable, error) {
	if addr.SegmentIndex != b.segment.SegmentIndex {
		return nil, nil
	}
	_, cell := b.instanceOffset(addr)
	if cell < 2 {
		return nil, nil
	}

	instance, _ := b.instanceOffset(addr)
	xv, err := mem.Get(b.cellAddr(instance, 0))
	if err != nil || xv == nil {
		return nil, nil
	}
	yv, err := mem.Get(b.cellAddr(instance, 1))
	if err != nil || yv == nil {
		return nil, nil
	}
	x, err := xv.GetFelt()
	if err != nil {
		return nil, err
	}
	y, err := yv.GetFelt()
	if err != nil {
		return nil, err
	}
	if x.BitLen() > TotalNBits || y.BitLen() > TotalNBits {
		return nil, ErrBitwiseOutsideBounds
	}

	var result *big.Int
	switch cell {
	case 2:
		result = new(big.Int).And(x.Big(), y.Big())
	case 3:
		result = new(big.Int).Xor(x.Big(), y.Big())
	case 4:
		result = new(big.Int).Or(x.Big(), y.Big())
	default:
		return nil, nil
	}
	v := core.FromFelt(core.NewFelt(result))
	return &v, nil
}

func (b *Bitwise) VerifyAutoDeductions(mem *memory.Memory) error {
	return verifyAutoDeductionsGeneric(mem, b.segment.SegmentIndex, b.DeduceMemoryCell)
}
