package vm

// UpdateRegisters advances FP, AP and PC per the instruction's update
// modes, given the already-verified operands of the current step. FP goes
// first: its new value is derived from the pre-update AP, so that a Call's
// callee frame starts exactly past the two cells the call just wrote.
func UpdateRegisters(inst Instruction, rc *RunContext, ops Operands) error {
	if err := updateFP(inst, rc, ops); err != nil {
		return err
	}
	if err := updateAP(inst, rc, ops); err != nil {
		return err
	}
	return updatePC(inst, rc, ops)
}

func updatePC(inst Instruction, rc *RunContext, ops Operands) error {
	switch inst.PcUpdate {
	case PcRegular:
		next, err := rc.PC.AddUint(uint64(inst.Size()))
		if err != nil {
			return err
		}
		rc.PC = next
	case PcJump:
		if !ops.HasRes {
			return ErrResUnconstrainedUsedWithPcUpdateJump
		}
		r, err := ops.Res.GetRelocatable()
		if err != nil {
			return ErrPcUpdateJumpResNotRelocatable
		}
		rc.PC = r
	case PcJumpRel:
		if !ops.HasRes {
			return ErrResUnconstrainedUsedWithPcUpdateJump
		}
		f, err := ops.Res.GetFelt()
		if err != nil {
			return ErrPcUpdateJumpRelResNotFelt
		}
		next, err := rc.PC.AddFelt(f)
		if err != nil {
			return err
		}
		rc.PC = next
	case PcJnz:
		if ops.Dst.IsZero() {
			next, err := rc.PC.AddUint(uint64(inst.Size()))
			if err != nil {
				return err
			}
			rc.PC = next
		} else {
			f, err := ops.Op1.GetFelt()
			if err != nil {
				return ErrFailedToComputeOp1
			}
			next, err := rc.PC.AddFelt(f)
			if err != nil {
				return err
			}
			rc.PC = next
		}
	}
	return nil
}

func updateAP(inst Instruction, rc *RunContext, ops Operands) error {
	if inst.Opcode == OpCall {
		if inst.ApUpdate != ApRegular {
			return ErrApUpdateAddResUnconstrained
		}
		next, err := rc.AP.AddUint(2)
		if err != nil {
			return err
		}
		rc.AP = next
		return nil
	}

	switch inst.ApUpdate {
	case ApRegular:
		// unchanged
	case ApAdd:
		if !ops.HasRes {
			return ErrApUpdateAddResUnconstrained
		}
		f, err := ops.Res.GetFelt()
		if err != nil {
			return err
		}
		next, err := rc.AP.AddFelt(f)
		if err != nil {
			return err
		}
		rc.AP = next
	case ApAdd1:
		next, err := rc.AP.AddUint(1)
		if err != nil {
			return err
		}
		rc.AP = next
	case ApAdd2:
		next, err := rc.AP.AddUint(2)
		if err != nil {
			return err
		}
		rc.AP = next
	}
	return nil
}

func updateFP(inst Instruction, rc *RunContext, ops Operands) error {
	switch inst.FpUpdate {
	case FpRegular:
		// unchanged
	case FpAPPlus2:
		next, err := rc.AP.AddUint(2)
		if err != nil {
			return err
		}
		rc.FP = next
	case FpDst:
		if ops.Dst.IsRelocatable() {
			r, err := ops.Dst.GetRelocatable()
			if err != nil {
				return err
			}
			rc.FP = r
		} else {
			f, err := ops.Dst.GetFelt()
			if err != nil {
				return err
			}
			next, err := rc.FP.AddFelt(f)
			if err != nil {
				return err
			}
			rc.FP = next
		}
	}
	return nil
}
