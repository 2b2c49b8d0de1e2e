package cairovm

import (
	"errors"
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/program"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/runner"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/vm"
)

// ErrorCode represents a Cairo VM error class
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrInvalidProgram represents a malformed program input error
	ErrInvalidProgram

	// ErrMemoryViolation represents a memory-model violation (write-once,
	// type mismatch, missing cell, relocation-rule misuse)
	ErrMemoryViolation

	// ErrMathViolation represents forbidden address or field arithmetic
	ErrMathViolation

	// ErrVMExecution represents a failure inside the fetch-decode-execute
	// cycle (operand deduction, opcode assertions, register updates)
	ErrVMExecution

	// ErrRelocation represents a trace or memory relocation failure
	ErrRelocation

	// ErrRunnerSetup represents a run-mode or builtin setup failure
	ErrRunnerSetup

	// ErrResourcesExhausted represents a run halted by its resource budget
	ErrResourcesExhausted
)

// VMError represents a Cairo VM error
type VMError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *VMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cairo-vm error [%d]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("cairo-vm error [%d]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *VMError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *VMError) Is(target error) bool {
	t, ok := target.(*VMError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// classify maps an internal error onto the public ErrorCode taxonomy.
func classify(err error) ErrorCode {
	var inconsistent *memory.InconsistentMemoryError
	var duplicated *memory.DuplicatedRelocationError
	switch {
	case errors.As(err, &inconsistent),
		errors.As(err, &duplicated),
		errors.Is(err, core.ErrExpectedInteger),
		errors.Is(err, core.ErrExpectedRelocatable),
		errors.Is(err, memory.ErrUnknownMemoryCell),
		errors.Is(err, memory.ErrAddressNotInTemporarySegment),
		errors.Is(err, memory.ErrNonZeroOffset),
		errors.Is(err, memory.ErrSegmentHasMoreAccessedAddressesThanSize),
		errors.Is(err, memory.ErrMissingSegmentUsedSizes),
		errors.Is(err, memory.ErrMalformedPublicMemory),
		errors.Is(err, memory.ErrWriteArg):
		return ErrMemoryViolation

	case errors.Is(err, core.ErrAddRelocToReloc),
		errors.Is(err, core.ErrMulReloc):
		return ErrMathViolation

	case errors.Is(err, vm.ErrRunResourcesExhausted),
		errors.Is(err, runner.ErrInsufficientAllocatedCellsRangeCheck),
		errors.Is(err, runner.ErrInsufficientAllocatedCellsMemory):
		return ErrResourcesExhausted

	case errors.Is(err, vm.ErrTraceNotEnabled),
		errors.Is(err, vm.ErrTraceAlreadyRelocated),
		errors.Is(err, vm.ErrMemoryAlreadyRelocated),
		errors.Is(err, vm.ErrNoRelocationFound),
		errors.Is(err, vm.ErrTraceNotRelocated),
		errors.Is(err, vm.ErrMemoryNotRelocated):
		return ErrRelocation

	case errors.Is(err, program.ErrDisorderedBuiltins):
		return ErrInvalidProgram

	case errors.Is(err, runner.ErrMissingMain),
		errors.Is(err, runner.ErrNoProgramStart),
		errors.Is(err, runner.ErrNoProgramEnd),
		errors.Is(err, runner.ErrNoBuiltinForInstance),
		errors.Is(err, runner.ErrEndRunAlreadyCalled),
		errors.Is(err, runner.ErrNotInitialized):
		return ErrRunnerSetup

	case errors.Is(err, vm.ErrInstructionFetchingFailed),
		errors.Is(err, vm.ErrInstructionEncodingError),
		errors.Is(err, vm.ErrFailedToComputeOp0),
		errors.Is(err, vm.ErrFailedToComputeOp1),
		errors.Is(err, vm.ErrNoDst),
		errors.Is(err, vm.ErrUnconstrainedResAssertEq),
		errors.Is(err, vm.ErrDiffAssertValues),
		errors.Is(err, vm.ErrCantWriteReturnPc),
		errors.Is(err, vm.ErrCantWriteReturnFp),
		errors.Is(err, vm.ErrPcUpdateJumpResNotRelocatable),
		errors.Is(err, vm.ErrResUnconstrainedUsedWithPcUpdateJump),
		errors.Is(err, vm.ErrPcUpdateJumpRelResNotFelt),
		errors.Is(err, vm.ErrApUpdateAddResUnconstrained),
		errors.Is(err, vm.ErrInconsistentAutoDeduction):
		return ErrVMExecution
	}
	return ErrUnknown
}

// wrapError lifts an internal error into a VMError at the public boundary.
func wrapError(message string, err error) *VMError {
	return &VMError{Code: classify(err), Message: message, Cause: err}
}
