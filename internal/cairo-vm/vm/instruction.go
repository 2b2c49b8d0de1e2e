// Package vm implements the fetch-decode-execute cycle: instruction
// decoding, the operand engine, opcode assertions, register updates, the
// step loop, and relocation to a flat address space.
package vm

import (
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

// Register selects AP or FP as the base of an address computation.
type Register int

const (
	RegAP Register = iota
	RegFP
)

// Op1Src selects where op1's address comes from.
type Op1Src int

const (
	Op1SrcImm Op1Src = iota
	Op1SrcAP
	Op1SrcFP
	Op1SrcOp0
)

// ResLogic selects how res is computed from op0 and op1.
type ResLogic int

const (
	ResOp1 ResLogic = iota
	ResAdd
	ResMul
	ResUnconstrained
)

// PcUpdate selects how PC advances after a step.
type PcUpdate int

const (
	PcRegular PcUpdate = iota
	PcJump
	PcJumpRel
	PcJnz
)

// ApUpdate selects how AP advances after a step.
type ApUpdate int

const (
	ApRegular ApUpdate = iota
	ApAdd
	ApAdd1
	ApAdd2
)

// FpUpdate selects how FP advances after a step.
type FpUpdate int

const (
	FpRegular FpUpdate = iota
	FpAPPlus2
	FpDst
)

// Opcode selects the instruction's semantic class.
type Opcode int

const (
	OpNOp Opcode = iota
	OpAssertEq
	OpCall
	OpRet
)

// Instruction is a fully decoded 63-bit Cairo instruction word.
type Instruction struct {
	Off0, Off1, Off2 int64

	DstReg   Register
	Op0Reg   Register
	Op1Src   Op1Src
	ResLogic ResLogic
	PcUpdate PcUpdate
	ApUpdate ApUpdate
	FpUpdate FpUpdate
	Opcode   Opcode
}

// Size returns the instruction's size in memory cells: 2 when op1 is an
// immediate (which occupies PC+1), else 1.
func (i Instruction) Size() int64 {
	if i.Op1Src == Op1SrcImm {
		return 2
	}
	return 1
}

const offsetBias = 1 << 15 // offsets are stored biased by 2^15 in the encoding.

// DecodeInstruction decodes a 63-bit instruction word per the Cairo
// instruction encoding: three signed 16-bit offsets followed by flag bits.
func DecodeInstruction(word core.Felt) (Instruction, error) {
	if word.BitLen() > 63 {
		return Instruction{}, fmt.Errorf("%w: word %s does not fit in 63 bits", ErrInstructionEncodingError, word)
	}
	raw := word.Big().Uint64()

	off0 := decodeOffset(raw & 0xFFFF)
	off1 := decodeOffset((raw >> 16) & 0xFFFF)
	off2 := decodeOffset((raw >> 32) & 0xFFFF)
	flags := raw >> 48

	inst := Instruction{Off0: off0, Off1: off1, Off2: off2}

	dstRegBit := flags & 0x1
	op0RegBit := (flags >> 1) & 0x1
	op1ImmBit := (flags >> 2) & 0x1
	op1ApBit := (flags >> 3) & 0x1
	op1FpBit := (flags >> 4) & 0x1
	resAddBit := (flags >> 5) & 0x1
	resMulBit := (flags >> 6) & 0x1
	pcJumpAbsBit := (flags >> 7) & 0x1
	pcJumpRelBit := (flags >> 8) & 0x1
	pcJnzBit := (flags >> 9) & 0x1
	apAddBit := (flags >> 10) & 0x1
	apAdd1Bit := (flags >> 11) & 0x1
	opcodeCallBit := (flags >> 12) & 0x1
	opcodeRetBit := (flags >> 13) & 0x1
	opcodeAssertEqBit := (flags >> 14) & 0x1

	if dstRegBit == 0 {
		inst.DstReg = RegAP
	} else {
		inst.DstReg = RegFP
	}
	if op0RegBit == 0 {
		inst.Op0Reg = RegAP
	} else {
		inst.Op0Reg = RegFP
	}

	switch {
	case op1ImmBit == 1:
		inst.Op1Src = Op1SrcImm
	case op1ApBit == 1:
		inst.Op1Src = Op1SrcAP
	case op1FpBit == 1:
		inst.Op1Src = Op1SrcFP
	default:
		inst.Op1Src = Op1SrcOp0
	}

	switch {
	case resAddBit == 1:
		inst.ResLogic = ResAdd
	case resMulBit == 1:
		inst.ResLogic = ResMul
	default:
		// Op1 by default; a Jnz pc_update below overrides this with
		// Unconstrained.
		inst.ResLogic = ResOp1
	}

	switch {
	case pcJumpAbsBit == 1:
		inst.PcUpdate = PcJump
	case pcJumpRelBit == 1:
		inst.PcUpdate = PcJumpRel
	case pcJnzBit == 1:
		inst.PcUpdate = PcJnz
		inst.ResLogic = ResUnconstrained
	default:
		inst.PcUpdate = PcRegular
	}

	switch {
	case apAddBit == 1:
		inst.ApUpdate = ApAdd
	case apAdd1Bit == 1:
		inst.ApUpdate = ApAdd1
	default:
		inst.ApUpdate = ApRegular
	}

	switch {
	case opcodeCallBit == 1:
		inst.Opcode = OpCall
		inst.FpUpdate = FpAPPlus2
	case opcodeRetBit == 1:
		inst.Opcode = OpRet
		inst.FpUpdate = FpDst
	case opcodeAssertEqBit == 1:
		inst.Opcode = OpAssertEq
		inst.FpUpdate = FpRegular
	default:
		inst.Opcode = OpNOp
		inst.FpUpdate = FpRegular
	}

	if inst.Op1Src == Op1SrcImm && inst.Off2 != 1 {
		return Instruction{}, fmt.Errorf("%w: off2 must be 1 when op1_src is Imm", ErrInstructionEncodingError)
	}

	return inst, nil
}

func decodeOffset(biased uint64) int64 {
	return int64(biased) - offsetBias
}
