package builtins

import (
	"math/big"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// ecOpScalarBound limits m to 2^252, matching the builtin's documented
// valid range for the scalar operand.
var ecOpScalarBound = new(big.Int).Lsh(big.NewInt(1), 252)

// ECOp deduces R = P + m*Q per instance: cells (Px, Py, Qx, Qy, m, Rx, Ry).
type ECOp struct {
	base
}

func NewECOp(included bool) *ECOp {
	return &ECOp{base: base{cellsPer: 7, included: included}}
}

func (e *ECOp) Name() string { return "ec_op" }

func (e *ECOp) DeduceMemoryCell(addr core.Relocatable, mem *memory.Memory) (*core.MaybeRelocatable, error) {
	if addr.SegmentIndex != e.segment.SegmentIndex {
		return nil, nil
	}
	instance, cell := e.instanceOffset(addr)
	if cell != 5 && cell != 6 {
		return nil, nil
	}

	get := func(c uint64) (core.Felt, bool, error) {
		v, err := mem.Get(e.cellAddr(instance, c))
		if err != nil {
			return core.Felt{}, false, err
		}
		if v == nil {
			return core.Felt{}, false, nil
		}
		f, err := v.GetFelt()
		if err != nil {
			return core.Felt{}, false, err
		}
		return f, true, nil
	}

	px, ok, err := get(0)
	if err != nil || !ok {
		return nil, err
	}
	py, ok, err := get(1)
	if err != nil || !ok {
		return nil, err
	}
	qx, ok, err := get(2)
	if err != nil || !ok {
		return nil, err
	}
	qy, ok, err := get(3)
	if err != nil || !ok {
		return nil, err
	}
	m, ok, err := get(4)
	if err != nil || !ok {
		return nil, err
	}

	if m.Big().Cmp(ecOpScalarBound) >= 0 {
		return nil, ErrScalarOutOfRange
	}

	p := ecPoint{X: px, Y: py}
	q := ecPoint{X: qx, Y: qy}
	if !onCurve(p) || !onCurve(q) {
		return nil, ErrPointNotOnCurve
	}

	mq, err := scalarMul(m, q)
	if err != nil {
		return nil, err
	}
	r, err := addPoints(p, mq)
	if err != nil {
		return nil, err
	}

	var v core.MaybeRelocatable
	if cell == 5 {
		v = core.FromFelt(r.X)
	} else {
		v = core.FromFelt(r.Y)
	}
	return &v, nil
}

func (e *ECOp) VerifyAutoDeductions(mem *memory.Memory) error {
	return verifyAutoDeductionsGeneric(mem, e.segment.SegmentIndex, e.DeduceMemoryCell)
}
