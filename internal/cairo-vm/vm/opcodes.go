package vm

import (
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

// OpcodeAssertions enforces the per-opcode checks once operands are known.
func OpcodeAssertions(inst Instruction, rc *RunContext, ops Operands) error {
	switch inst.Opcode {
	case OpAssertEq:
		if !ops.HasRes {
			return ErrUnconstrainedResAssertEq
		}
		if !maybeRelocatableEqual(ops.Res, ops.Dst) {
			return fmt.Errorf("%w: res=%s dst=%s", ErrDiffAssertValues, ops.Res, ops.Dst)
		}
	case OpCall:
		expected, err := rc.PC.AddUint(uint64(inst.Size()))
		if err != nil {
			return err
		}
		if !maybeRelocatableEqual(ops.Op0, core.FromRelocatable(expected)) {
			return ErrCantWriteReturnPc
		}
		if !maybeRelocatableEqual(ops.Dst, core.FromRelocatable(rc.FP)) {
			return ErrCantWriteReturnFp
		}
	case OpRet, OpNOp:
		// No assertion.
	}
	return nil
}

func maybeRelocatableEqual(a, b core.MaybeRelocatable) bool {
	return a.Equal(b)
}
