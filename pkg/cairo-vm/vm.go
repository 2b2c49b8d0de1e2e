package cairovm

import (
	"sort"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/runner"
)

// Run executes a program end to end: builtin setup, stepping, auto-deduction
// verification, and relocation. Errors are classified into the public
// ErrorCode taxonomy.
func Run(prog *Program, cfg *RunConfig) (*Result, error) {
	if cfg == nil {
		cfg = DefaultRunConfig()
	}

	rcfg := runner.DefaultConfig().
		WithLayout(cfg.Layout).
		WithTrace(cfg.TraceEnabled).
		WithAllowMissingBuiltins(cfg.AllowMissingBuiltins)
	if cfg.MaxSteps > 0 {
		rcfg = rcfg.WithMaxSteps(cfg.MaxSteps)
	}
	if cfg.Entrypoint != nil {
		rcfg = rcfg.WithEntrypoint(*cfg.Entrypoint)
	}
	switch {
	case cfg.Cairo1:
		rcfg = rcfg.WithMode(runner.ModeProofCairo1)
	case cfg.ProofMode:
		rcfg = rcfg.WithMode(runner.ModeProof)
	}

	r, err := runner.New(prog, rcfg)
	if err != nil {
		return nil, wrapError("failed to set up runner", err)
	}
	if err := r.Initialize(); err != nil {
		return nil, wrapError("failed to initialize memory", err)
	}
	if err := r.Run(); err != nil {
		return nil, wrapError("execution failed", err)
	}
	if err := r.EndRun(); err != nil {
		return nil, wrapError("post-run verification failed", err)
	}
	if err := r.Relocate(); err != nil {
		return nil, wrapError("relocation failed", err)
	}

	result := &Result{Steps: r.StepCount(), ProgramHash: prog.Hash()}

	cells, err := r.RelocatedMemory()
	if err != nil {
		return nil, wrapError("relocated memory unavailable", err)
	}
	result.Memory = make([]MemoryEntry, len(cells))
	for i, c := range cells {
		result.Memory[i] = MemoryEntry{Address: c.Address, Value: c.Value}
	}
	sort.Slice(result.Memory, func(i, j int) bool { return result.Memory[i].Address < result.Memory[j].Address })

	if cfg.TraceEnabled {
		trace, err := r.RelocatedTrace()
		if err != nil {
			return nil, wrapError("relocated trace unavailable", err)
		}
		result.Trace = make([]TraceStep, len(trace))
		for i, e := range trace {
			result.Trace[i] = TraceStep{PC: e.PC.Uint64(), AP: e.AP.Uint64(), FP: e.FP.Uint64()}
		}
	}

	if cfg.ProofMode || cfg.Cairo1 {
		public, err := r.PublicMemoryAddresses()
		if err != nil {
			return nil, wrapError("public memory unavailable", err)
		}
		result.PublicMemory = public
	}

	return result, nil
}
