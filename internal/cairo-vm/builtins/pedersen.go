package builtins

import (
	"math/big"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// pedersen's four domain-separated base points, derived once per process.
var (
	pedersenShiftPoint                             = fixedBasePoint("pedersen.shift_point")
	pedersenP1, pedersenP2, pedersenP3, pedersenP4 = fixedBasePoint("pedersen.p1"), fixedBasePoint("pedersen.p2"), fixedBasePoint("pedersen.p3"), fixedBasePoint("pedersen.p4")
)

// pedersenHash computes h = pedersen(x, y): the shift point combined with
// x and y each split into a low 248-bit and high 4-bit chunk, each chunk
// scalar-multiplying its own base point, per the standard Pedersen
// construction over the STARK curve.
func pedersenHash(x, y core.Felt) (core.Felt, error) {
	acc := pedersenShiftPoint

	add := func(p ecPoint, scalar core.Felt) error {
		term, err := scalarMul(scalar, p)
		if err != nil {
			return err
		}
		sum, err := addPoints(acc, term)
		if err != nil {
			return err
		}
		acc = sum
		return nil
	}

	xLow, xHigh := splitChunk(x)
	yLow, yHigh := splitChunk(y)

	if err := add(pedersenP1, xLow); err != nil {
		return core.Felt{}, err
	}
	if err := add(pedersenP2, xHigh); err != nil {
		return core.Felt{}, err
	}
	if err := add(pedersenP3, yLow); err != nil {
		return core.Felt{}, err
	}
	if err := add(pedersenP4, yHigh); err != nil {
		return core.Felt{}, err
	}
	return acc.X, nil
}

// splitChunk splits a felt into a low 248-bit part and the remaining high
// bits, matching Pedersen's per-chunk scalar decomposition.
func splitChunk(f core.Felt) (low, high core.Felt) {
	const lowBits = 248
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), lowBits), big.NewInt(1))
	b := f.Big()
	lowBig := new(big.Int).And(b, mask)
	highBig := new(big.Int).Rsh(b, lowBits)
	return core.NewFelt(lowBig), core.NewFelt(highBig)
}

// Pedersen deduces h from (x, y) per instance: cells (x, y, h).
type Pedersen struct {
	base
	cache map[core.Relocatable]core.Felt
}

func NewPedersen(included bool) *Pedersen {
	return &Pedersen{base: base{cellsPer: 3, included: included}, cache: make(map[core.Relocatable]core.Felt)}
}

func (p *Pedersen) Name() string { return "pedersen" }

func (p *Pedersen) DeduceMemoryCell(addr core.Relocatable, mem *memory.Memory) (*core.MaybeRelocatable, error) {
	if addr.SegmentIndex != p.segment.SegmentIndex {
		return nil, nil
	}
	instance, cell := p.instanceOffset(addr)
	if cell != 2 {
		return nil, nil
	}
	if cached, ok := p.cache[addr]; ok {
		v := core.FromFelt(cached)
		return &v, nil
	}

	xv, err := mem.Get(p.cellAddr(instance, 0))
	if err != nil || xv == nil {
		return nil, nil
	}
	yv, err := mem.Get(p.cellAddr(instance, 1))
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
	h, err := pedersenHash(x, y)
	if err != nil {
		return nil, err
	}
	p.cache[addr] = h
	v := core.FromFelt(h)
	return &v, nil
}

func (p *Pedersen) VerifyAutoDeductions(mem *memory.Memory) error {
	return verifyAutoDeductionsGeneric(mem, p.segment.SegmentIndex, p.DeduceMemoryCell)
}
