package vm

import "errors"

// Sentinel errors of the fetch-decode-execute cycle and relocation.
var (
	ErrInstructionFetchingFailed            = errors.New("vm: instruction fetching failed")
	ErrInstructionEncodingError             = errors.New("vm: instruction encoding error")
	ErrFailedToComputeOp0                   = errors.New("vm: failed to compute op0")
	ErrFailedToComputeOp1                   = errors.New("vm: failed to compute op1")
	ErrNoDst                                = errors.New("vm: no dst")
	ErrUnconstrainedResAssertEq             = errors.New("vm: unconstrained res used with AssertEq")
	ErrDiffAssertValues                     = errors.New("vm: assert_eq failed: res != dst")
	ErrCantWriteReturnPc                    = errors.New("vm: cannot write return pc for Call")
	ErrCantWriteReturnFp                    = errors.New("vm: cannot write return fp for Call")
	ErrPcUpdateJumpResNotRelocatable        = errors.New("vm: pc_update Jump requires a relocatable res")
	ErrResUnconstrainedUsedWithPcUpdateJump = errors.New("vm: pc_update Jump used with an unconstrained res")
	ErrPcUpdateJumpRelResNotFelt            = errors.New("vm: pc_update JumpRel requires a felt res")
	ErrApUpdateAddResUnconstrained          = errors.New("vm: ap_update Add used with an unconstrained res")
	ErrInconsistentAutoDeduction            = errors.New("vm: inconsistent auto deduction")

	ErrTraceNotEnabled        = errors.New("vm: trace is not enabled")
	ErrTraceAlreadyRelocated  = errors.New("vm: trace already relocated")
	ErrMemoryAlreadyRelocated = errors.New("vm: memory already relocated")
	ErrNoRelocationFound      = errors.New("vm: no relocation found")
	ErrTraceNotRelocated      = errors.New("vm: trace not relocated")
	ErrMemoryNotRelocated     = errors.New("vm: memory not relocated")

	ErrRunResourcesExhausted = errors.New("vm: run resources exhausted")
)
