package vm

import (
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

// RunContext holds the three mutable cursors of a running VM and computes
// effective operand addresses from a decoded instruction.
type RunContext struct {
	PC core.Relocatable
	AP core.Relocatable
	FP core.Relocatable
}

func (rc *RunContext) reg(r Register) core.Relocatable {
	if r == RegAP {
		return rc.AP
	}
	return rc.FP
}

// DstAddr computes dst_addr = reg(dst_reg).add_signed(off0).
func (rc *RunContext) DstAddr(inst Instruction) (core.Relocatable, error) {
	return rc.reg(inst.DstReg).AddSigned(inst.Off0)
}

// Op0Addr computes op0_addr = reg(op0_reg).add_signed(off1).
func (rc *RunContext) Op0Addr(inst Instruction) (core.Relocatable, error) {
	return rc.reg(inst.Op0Reg).AddSigned(inst.Off1)
}

// Op1Addr computes op1_addr from op1_src, given the instruction and the
// already-known op0 value (required only when Op1Src is Op0).
func (rc *RunContext) Op1Addr(inst Instruction, op0 *core.MaybeRelocatable) (core.Relocatable, error) {
	switch inst.Op1Src {
	case Op1SrcImm:
		// off2 == 1 was already enforced at decode time.
		return rc.PC.AddUint(1)
	case Op1SrcAP:
		return rc.AP.AddSigned(inst.Off2)
	case Op1SrcFP:
		return rc.FP.AddSigned(inst.Off2)
	case Op1SrcOp0:
		if op0 == nil {
			return core.Relocatable{}, ErrFailedToComputeOp1
		}
		base, err := op0.GetRelocatable()
		if err != nil {
			return core.Relocatable{}, err
		}
		return base.AddSigned(inst.Off2)
	default:
		return core.Relocatable{}, ErrFailedToComputeOp1
	}
}
