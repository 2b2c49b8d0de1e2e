package vm

import (
	log "github.com/sirupsen/logrus"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/program"
)

// CairoVM is the VM driver: it steps the machine, invokes the hint
// executor, updates registers, invokes builtin auto-deduction, enforces
// opcode assertions, and accumulates the trace.
type CairoVM struct {
	RunContext RunContext
	Segments   *memory.SegmentManager
	Program    *program.Program
	Builtins   []BuiltinRunner

	HintExecutor HintExecutor
	Scopes       *ExecutionScopes
	DispatchMode HintDispatchMode
	Resources    ResourceTracker

	// ProgramBase is where the program's code was loaded; extensive hint
	// dispatch keys hints relative to it.
	ProgramBase core.Relocatable

	traceEnabled bool
	trace        []TraceEntry

	stepCount uint64

	Logger *log.Logger
}

// Config configures a CairoVM at construction time.
type Config struct {
	TraceEnabled bool
	DispatchMode HintDispatchMode
	HintExecutor HintExecutor
	Resources    ResourceTracker
	Logger       *log.Logger
}

// NewCairoVM constructs a VM bound to a program, its builtin runners, and
// the segment manager (the caller must already have loaded the program
// into memory and set up the initial run context).
func NewCairoVM(prog *program.Program, builtins []BuiltinRunner, mgr *memory.SegmentManager, cfg Config) *CairoVM {
	hintExecutor := cfg.HintExecutor
	if hintExecutor == nil {
		hintExecutor = NoopHintExecutor{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &CairoVM{
		Segments:     mgr,
		Program:      prog,
		Builtins:     builtins,
		HintExecutor: hintExecutor,
		Scopes:       NewExecutionScopes(),
		DispatchMode: cfg.DispatchMode,
		Resources:    cfg.Resources,
		traceEnabled: cfg.TraceEnabled,
		Logger:       logger,
	}
}

func (vm *CairoVM) builtinDeducers() []BuiltinDeducer {
	out := make([]BuiltinDeducer, len(vm.Builtins))
	for i, b := range vm.Builtins {
		out[i] = b
	}
	return out
}

// hintKey returns the key used to look up hints attached to the current
// PC, per the VM's configured dispatch mode. Extensive dispatch
// keys hints by the PC's position relative to the program base, so code
// may be loaded at an arbitrary segment; non-extensive dispatch keys by
// raw offset into segment 0.
func (vm *CairoVM) hintKey() (uint64, bool) {
	switch vm.DispatchMode {
	case DispatchExtensive:
		if vm.RunContext.PC.SegmentIndex != vm.ProgramBase.SegmentIndex {
			return 0, false
		}
		diff, err := vm.RunContext.PC.Sub(vm.ProgramBase)
		if err != nil || diff < 0 {
			return 0, false
		}
		return uint64(diff), true
	default:
		if vm.RunContext.PC.SegmentIndex != 0 {
			return 0, false
		}
		return vm.RunContext.PC.Offset, true
	}
}

// Step executes one VM step: hints, fetch, decode, operands, assertions,
// trace append, accessed marking, register update.
func (vm *CairoVM) Step() error {
	if key, ok := vm.hintKey(); ok {
		hints := vm.Program.Hints[key]
		for _, h := range hints {
			data, err := vm.HintExecutor.CompileHint(h.Code, ApTracking(h.ApTracking), h.ReferenceIDs, vm.Program.ReferenceManager)
			if err != nil {
				return err
			}
			if err := vm.HintExecutor.ExecuteHint(vm, vm.Scopes, data, vm.Program.Constants); err != nil {
				return err
			}
		}
	}

	word, err := vm.Segments.Memory.GetFelt(vm.RunContext.PC)
	if err != nil {
		return ErrInstructionFetchingFailed
	}
	inst, err := DecodeInstruction(word)
	if err != nil {
		return err
	}

	ops, err := ComputeOperands(inst, &vm.RunContext, vm.Segments.Memory, vm.builtinDeducers())
	if err != nil {
		return err
	}

	if err := OpcodeAssertions(inst, &vm.RunContext, ops); err != nil {
		return err
	}

	if vm.traceEnabled {
		vm.trace = append(vm.trace, TraceEntry{PC: vm.RunContext.PC, AP: vm.RunContext.AP, FP: vm.RunContext.FP})
	}

	for _, addr := range []core.Relocatable{ops.DstAddr, ops.Op0Addr, ops.Op1Addr} {
		if err := vm.Segments.Memory.MarkAccessed(addr); err != nil {
			return err
		}
	}

	if err := UpdateRegisters(inst, &vm.RunContext, ops); err != nil {
		return err
	}

	vm.stepCount++
	vm.Logger.WithFields(log.Fields{"step": vm.stepCount, "pc": vm.RunContext.PC.String()}).Debug("step complete")

	return nil
}

// Run executes steps until PC reaches end, or a ResourceTracker reports
// exhaustion.
func (vm *CairoVM) Run(end core.Relocatable) error {
	for !vm.RunContext.PC.Equal(end) {
		if vm.Resources != nil && vm.Resources.ConsumeStep() {
			return ErrRunResourcesExhausted
		}
		if err := vm.Step(); err != nil {
			return err
		}
	}
	vm.Logger.WithFields(log.Fields{"steps": vm.stepCount}).Info("run complete")
	return nil
}

// StepCount returns the number of steps executed so far.
func (vm *CairoVM) StepCount() uint64 {
	return vm.stepCount
}

// Trace returns the accumulated trace entries (only meaningful if tracing
// was enabled at construction).
func (vm *CairoVM) Trace() ([]TraceEntry, error) {
	if !vm.traceEnabled {
		return nil, ErrTraceNotEnabled
	}
	return vm.trace, nil
}

// VerifyAutoDeductions is the post-run consistency check: for every
// set cell in a builtin segment, the builtin's deduction must reproduce the
// stored value.
func (vm *CairoVM) VerifyAutoDeductions() error {
	for _, b := range vm.Builtins {
		if err := b.VerifyAutoDeductions(vm.Segments.Memory); err != nil {
			return err
		}
	}
	return nil
}

// BuiltinSegmentIndices returns the set of segment indices owned by
// builtins, for use by MemoryHoles.
func (vm *CairoVM) BuiltinSegmentIndices() map[int64]bool {
	out := make(map[int64]bool, len(vm.Builtins))
	for _, b := range vm.Builtins {
		base, _ := b.GetMemorySegmentAddresses()
		out[base.SegmentIndex] = true
	}
	return out
}
