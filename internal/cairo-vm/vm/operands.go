package vm

import (
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// BuiltinDeducer is the auto-deduction capability a builtin runner exposes
// to the operand engine. It is satisfied structurally by every type
// in the builtins package; the vm package never imports that package
// directly, avoiding a dependency cycle.
type BuiltinDeducer interface {
	Base() core.Relocatable
	DeduceMemoryCell(addr core.Relocatable, mem *memory.Memory) (*core.MaybeRelocatable, error)
}

// Operands holds the four values the operand engine derives each step, plus
// bitmasks recording which were deduced rather than read from memory (used
// so the step loop only writes back values actually produced).
type Operands struct {
	Dst, Op0, Op1, Res core.MaybeRelocatable
	HasRes             bool

	DstAddr, Op0Addr, Op1Addr core.Relocatable

	Op0Deduced, Op1Deduced, DstDeduced bool
}

// ComputeOperands derives dst, op0, op1 and res from memory plus
// deductions, in a fixed order that never changes a cell once observed.
func ComputeOperands(inst Instruction, rc *RunContext, mem *memory.Memory, builtins []BuiltinDeducer) (Operands, error) {
	var ops Operands

	dstAddr, err := rc.DstAddr(inst)
	if err != nil {
		return ops, err
	}
	op0Addr, err := rc.Op0Addr(inst)
	if err != nil {
		return ops, err
	}
	ops.DstAddr = dstAddr
	ops.Op0Addr = op0Addr

	dstVal, err := mem.Get(dstAddr)
	if err != nil {
		return ops, err
	}
	op0Val, err := mem.Get(op0Addr)
	if err != nil {
		return ops, err
	}

	// Builtin auto-deduction at op0_addr comes before the arithmetic
	// fallback.
	if op0Val == nil {
		deduced, derr := deduceFromBuiltins(op0Addr, mem, builtins)
		if derr != nil {
			return ops, derr
		}
		if deduced != nil {
			op0Val = deduced
			ops.Op0Deduced = true
		}
	}

	var res *core.MaybeRelocatable

	// Arithmetic deduction of op0 from instruction/dst/op1. op1 can only be
	// peeked here when its address does not itself depend on op0.
	if op0Val == nil {
		var op1Hint *core.MaybeRelocatable
		if inst.Op1Src != Op1SrcOp0 {
			addr, aerr := rc.Op1Addr(inst, nil)
			if aerr == nil {
				op1Hint, _ = mem.Get(addr)
			}
		}
		deduced, deducedRes, ok := deduceOp0(inst, rc, dstVal, op1Hint)
		if ok {
			op0Val = &deduced
			ops.Op0Deduced = true
			if deducedRes != nil {
				res = deducedRes
			}
		}
	}

	if op0Val == nil {
		return ops, ErrFailedToComputeOp0
	}
	ops.Op0 = *op0Val

	if ops.Op0Deduced {
		if err := mem.Set(op0Addr, ops.Op0); err != nil {
			return ops, err
		}
	}

	op1Addr, err := rc.Op1Addr(inst, &ops.Op0)
	if err != nil {
		return ops, err
	}
	ops.Op1Addr = op1Addr

	op1Val, err := mem.Get(op1Addr)
	if err != nil {
		return ops, err
	}

	if op1Val == nil {
		deduced, deducedRes, ok := deduceOp1(inst, dstVal, op0Val)
		if ok {
			op1Val = &deduced
			ops.Op1Deduced = true
			if deducedRes != nil {
				res = deducedRes
			}
		}
	}

	if op1Val == nil {
		deduced, derr := deduceFromBuiltins(op1Addr, mem, builtins)
		if derr != nil {
			return ops, derr
		}
		if deduced != nil {
			op1Val = deduced
			ops.Op1Deduced = true
		}
	}

	if op1Val == nil {
		return ops, ErrFailedToComputeOp1
	}
	ops.Op1 = *op1Val

	if ops.Op1Deduced {
		if err := mem.Set(op1Addr, ops.Op1); err != nil {
			return ops, err
		}
	}

	if res == nil {
		computed, err := computeRes(inst, ops.Op0, ops.Op1)
		if err != nil {
			return ops, err
		}
		res = computed
	}
	if res != nil {
		ops.Res = *res
		ops.HasRes = true
	}

	if dstVal == nil {
		deduced, ok := deduceDst(inst, rc, ops)
		if !ok {
			return ops, ErrNoDst
		}
		dstVal = &deduced
		ops.DstDeduced = true
	}
	ops.Dst = *dstVal

	if ops.DstDeduced {
		if err := mem.Set(dstAddr, ops.Dst); err != nil {
			return ops, err
		}
	}

	return ops, nil
}

func deduceFromBuiltins(addr core.Relocatable, mem *memory.Memory, builtins []BuiltinDeducer) (*core.MaybeRelocatable, error) {
	for _, b := range builtins {
		if b.Base().SegmentIndex != addr.SegmentIndex {
			continue
		}
		v, err := b.DeduceMemoryCell(addr, mem)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, nil
}

// deduceOp0 derives op0 arithmetically from the instruction, dst and op1.
func deduceOp0(inst Instruction, rc *RunContext, dst, op1 *core.MaybeRelocatable) (value core.MaybeRelocatable, res *core.MaybeRelocatable, ok bool) {
	switch inst.Opcode {
	case OpCall:
		next, err := rc.PC.AddUint(uint64(inst.Size()))
		if err != nil {
			return core.MaybeRelocatable{}, nil, false
		}
		return core.FromRelocatable(next), nil, true
	case OpAssertEq:
		if dst == nil {
			return core.MaybeRelocatable{}, nil, false
		}
		switch inst.ResLogic {
		case ResAdd:
			if op1 == nil {
				return core.MaybeRelocatable{}, nil, false
			}
			v, err := dst.Sub(*op1)
			if err != nil {
				return core.MaybeRelocatable{}, nil, false
			}
			r := *dst
			return v, &r, true
		case ResMul:
			if op1 == nil {
				return core.MaybeRelocatable{}, nil, false
			}
			f1, err := op1.GetFelt()
			if err != nil || f1.IsZero() {
				return core.MaybeRelocatable{}, nil, false
			}
			fd, err := dst.GetFelt()
			if err != nil {
				return core.MaybeRelocatable{}, nil, false
			}
			q, err := fd.Div(f1)
			if err != nil {
				return core.MaybeRelocatable{}, nil, false
			}
			r := *dst
			return core.FromFelt(q), &r, true
		}
	}
	return core.MaybeRelocatable{}, nil, false
}

// deduceOp1 is the symmetric derivation of op1 from dst and op0.
func deduceOp1(inst Instruction, dst, op0 *core.MaybeRelocatable) (value core.MaybeRelocatable, res *core.MaybeRelocatable, ok bool) {
	if inst.Opcode != OpAssertEq {
		return core.MaybeRelocatable{}, nil, false
	}
	switch inst.ResLogic {
	case ResOp1:
		if dst == nil {
			return core.MaybeRelocatable{}, nil, false
		}
		r := *dst
		return *dst, &r, true
	case ResAdd:
		if dst == nil || op0 == nil {
			return core.MaybeRelocatable{}, nil, false
		}
		v, err := dst.Sub(*op0)
		if err != nil {
			return core.MaybeRelocatable{}, nil, false
		}
		r := *dst
		return v, &r, true
	case ResMul:
		if dst == nil || op0 == nil {
			return core.MaybeRelocatable{}, nil, false
		}
		f0, err := op0.GetFelt()
		if err != nil || f0.IsZero() {
			return core.MaybeRelocatable{}, nil, false
		}
		fd, err := dst.GetFelt()
		if err != nil {
			return core.MaybeRelocatable{}, nil, false
		}
		q, err := fd.Div(f0)
		if err != nil {
			return core.MaybeRelocatable{}, nil, false
		}
		r := *dst
		return core.FromFelt(q), &r, true
	}
	return core.MaybeRelocatable{}, nil, false
}

// computeRes evaluates res from op0 and op1 under the instruction's
// res_logic.
func computeRes(inst Instruction, op0, op1 core.MaybeRelocatable) (*core.MaybeRelocatable, error) {
	switch inst.ResLogic {
	case ResOp1:
		r := op1
		return &r, nil
	case ResAdd:
		v, err := op0.Add(op1)
		if err != nil {
			return nil, err
		}
		return &v, nil
	case ResMul:
		v, err := op0.Mul(op1)
		if err != nil {
			return nil, err
		}
		return &v, nil
	case ResUnconstrained:
		return nil, nil
	default:
		return nil, nil
	}
}

// deduceDst fills a still-unknown dst: AssertEq forces dst = res, Call
// forces dst = FP.
func deduceDst(inst Instruction, rc *RunContext, ops Operands) (core.MaybeRelocatable, bool) {
	switch inst.Opcode {
	case OpAssertEq:
		if !ops.HasRes {
			return core.MaybeRelocatable{}, false
		}
		return ops.Res, true
	case OpCall:
		return core.FromRelocatable(rc.FP), true
	default:
		return core.MaybeRelocatable{}, false
	}
}
