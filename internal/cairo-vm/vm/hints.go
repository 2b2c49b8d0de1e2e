package vm

import (
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/program"
)

// HintData is whatever a HintExecutor's CompileHint produced; the core
// treats it as opaque.
type HintData any

// HintExecutor is the external collaborator that compiles and runs hint
// code. The core never interprets hint strings itself.
type HintExecutor interface {
	CompileHint(code string, apTracking ApTracking, referenceIDs map[string]int64, references []program.HintReference) (HintData, error)
	ExecuteHint(vm *CairoVM, scopes *ExecutionScopes, data HintData, constants map[string]core.Felt) error
}

// ApTracking records the {group, offset} pair used to resolve AP-relative
// hint references.
type ApTracking struct {
	Group  uint64
	Offset uint64
}

// NoopHintExecutor stands in for a hint processor when none is attached; it
// compiles nothing and executes nothing, matching "no hint executor
// attached" in the step loop.
type NoopHintExecutor struct{}

func (NoopHintExecutor) CompileHint(code string, apTracking ApTracking, referenceIDs map[string]int64, references []program.HintReference) (HintData, error) {
	return nil, nil
}

func (NoopHintExecutor) ExecuteHint(vm *CairoVM, scopes *ExecutionScopes, data HintData, constants map[string]core.Felt) error {
	return nil
}

// HintDispatchMode selects how compiled hint ranges are keyed.
type HintDispatchMode int

const (
	// DispatchExtensive keys hint ranges by relocatable PC, for code loaded
	// at arbitrary segments.
	DispatchExtensive HintDispatchMode = iota
	// DispatchNonExtensive keys hint ranges by offset into segment 0.
	DispatchNonExtensive
)

// ResourceTracker lets an external caller bound the number of steps a run
// may take.
type ResourceTracker interface {
	// ConsumeStep is called once per step; it returns true once the
	// resource budget is exhausted.
	ConsumeStep() bool
}

// CompiledHint pairs compiled hint data with the metadata needed to run it.
type CompiledHint struct {
	Data       HintData
	ApTracking ApTracking
}
