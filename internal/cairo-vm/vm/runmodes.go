package vm

import (
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// LoadResult carries the addresses a caller needs to start a run.
type LoadResult struct {
	ProgramBase   core.Relocatable
	ExecutionBase core.Relocatable
	End           core.Relocatable
	InitialPC     core.Relocatable
	InitialAP     core.Relocatable
	InitialFP     core.Relocatable
	// StackPrefixLen is the number of execution cells that form the public
	// stack prefix in proof mode (zero otherwise).
	StackPrefixLen uint64
}

// LoadExecutionMode sets up a plain execution run: load the program at
// progBase, push the builtin stacks, a return-FP and an end sentinel onto
// the execution stack, then run until PC hits the sentinel. The sentinel
// segments are real (empty) segments so relocation needs no extra rules
// for them. progBase and execBase must already be allocated; builtin
// segments may have been allocated in between.
func LoadExecutionMode(mgr *memory.SegmentManager, progBase, execBase core.Relocatable, data []core.MaybeRelocatable, mainOffset uint64, stack []core.MaybeRelocatable) (LoadResult, error) {
	if _, err := mgr.LoadData(progBase, data); err != nil {
		return LoadResult{}, err
	}

	returnFP := mgr.AddSegment()
	end := mgr.AddSegment()

	values := append(append([]core.MaybeRelocatable{}, stack...),
		core.FromRelocatable(returnFP),
		core.FromRelocatable(end),
	)
	stackTop, err := mgr.LoadData(execBase, values)
	if err != nil {
		return LoadResult{}, err
	}

	mainPC, err := progBase.AddUint(mainOffset)
	if err != nil {
		return LoadResult{}, err
	}

	return LoadResult{
		ProgramBase:   progBase,
		ExecutionBase: execBase,
		End:           end,
		InitialPC:     mainPC,
		InitialAP:     stackTop,
		InitialFP:     stackTop,
	}, nil
}

// LoadProofMode sets up the canonical proof-mode run: the stack prefix is
// [base+2, 0, ...builtin_initial_stacks]; execution public memory is the
// first len(stack_prefix) cells; initial_fp = initial_ap = execution_base+2.
func LoadProofMode(mgr *memory.SegmentManager, progBase, execBase core.Relocatable, data []core.MaybeRelocatable, startOffset, endOffset uint64, builtinStacks [][]core.MaybeRelocatable) (LoadResult, error) {
	if _, err := mgr.LoadData(progBase, data); err != nil {
		return LoadResult{}, err
	}

	basePlus2, err := execBase.AddUint(2)
	if err != nil {
		return LoadResult{}, err
	}

	prefix := []core.MaybeRelocatable{core.FromRelocatable(basePlus2), core.FromFelt(core.FeltZero())}
	for _, s := range builtinStacks {
		prefix = append(prefix, s...)
	}

	if _, err := mgr.LoadData(execBase, prefix); err != nil {
		return LoadResult{}, err
	}

	initialPC, err := progBase.AddUint(startOffset)
	if err != nil {
		return LoadResult{}, err
	}
	end, err := progBase.AddUint(endOffset)
	if err != nil {
		return LoadResult{}, err
	}

	return LoadResult{
		ProgramBase:    progBase,
		ExecutionBase:  execBase,
		End:            end,
		InitialPC:      initialPC,
		InitialAP:      basePlus2,
		InitialFP:      basePlus2,
		StackPrefixLen: uint64(len(prefix)),
	}, nil
}

// LoadProofModeCairo1 sets up the cairo1 proof-mode variant:
// target_offset = |stack| + 2; push return_fp and end segments.
func LoadProofModeCairo1(mgr *memory.SegmentManager, progBase, execBase core.Relocatable, data []core.MaybeRelocatable, builtinStacks [][]core.MaybeRelocatable) (LoadResult, error) {
	if _, err := mgr.LoadData(progBase, data); err != nil {
		return LoadResult{}, err
	}

	var stackValues []core.MaybeRelocatable
	for _, s := range builtinStacks {
		stackValues = append(stackValues, s...)
	}
	targetOffset := uint64(len(stackValues)) + 2

	returnFP := mgr.AddSegment()
	end := mgr.AddSegment()
	stackValues = append(stackValues, core.FromRelocatable(returnFP), core.FromRelocatable(end))

	if uint64(len(stackValues)) != targetOffset {
		return LoadResult{}, fmt.Errorf("vm: proof-mode cairo1 stack length mismatch: got %d want %d", len(stackValues), targetOffset)
	}

	stackTop, err := mgr.LoadData(execBase, stackValues)
	if err != nil {
		return LoadResult{}, err
	}

	return LoadResult{
		ProgramBase:    progBase,
		ExecutionBase:  execBase,
		End:            end,
		InitialPC:      progBase,
		InitialAP:      stackTop,
		InitialFP:      stackTop,
		StackPrefixLen: targetOffset,
	}, nil
}
