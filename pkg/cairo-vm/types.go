package cairovm

import (
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/program"
)

// Felt represents an element of the Cairo prime field.
// This is the public type for field elements used throughout the VM.
type Felt = core.Felt

// Relocatable represents a segmented (segment, offset) address.
type Relocatable = core.Relocatable

// MaybeRelocatable is a tagged union of Felt or Relocatable.
type MaybeRelocatable = core.MaybeRelocatable

// Program is the VM's sole input contract; a loader (external to this
// module) populates it from a compilation artifact.
type Program = program.Program

// BuiltinName identifies a builtin in a program's builtin list.
type BuiltinName = program.BuiltinName

// Re-exported constructors so callers need not import internal packages.
var (
	NewProgram = program.NewProgram
	NewFelt    = core.NewFelt

	FeltFromUint64  = core.FeltFromUint64
	FeltFromInt64   = core.FeltFromInt64
	NewRelocatable  = core.NewRelocatable
	FromFelt        = core.FromFelt
	FromRelocatable = core.FromRelocatable
)

// RunConfig configures a single program run.
type RunConfig struct {
	// Layout selects the builtin set: plain|small|dynamic|all_cairo.
	Layout string

	// ProofMode runs the canonical proof-mode setup; Cairo1 selects its
	// cairo1 variant (implies proof mode).
	ProofMode bool
	Cairo1    bool

	// TraceEnabled accumulates the (pc, ap, fp) trace.
	TraceEnabled bool

	// AllowMissingBuiltins permits program builtins absent from the layout.
	AllowMissingBuiltins bool

	// Entrypoint overrides the program's main offset when non-nil.
	Entrypoint *uint64

	// MaxSteps bounds the run when nonzero.
	MaxSteps uint64
}

// DefaultRunConfig returns the configuration used when none is supplied.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{Layout: "plain", TraceEnabled: true}
}

// TraceStep is one relocated trace entry as flat addresses.
type TraceStep struct {
	PC, AP, FP uint64
}

// MemoryEntry is one relocated memory cell: a flat address and its felt
// value.
type MemoryEntry struct {
	Address uint64
	Value   Felt
}

// Result carries everything a run produces.
type Result struct {
	// Steps is the number of executed VM steps.
	Steps uint64

	// Trace is the relocated trace, nil unless tracing was enabled.
	Trace []TraceStep

	// Memory is the relocated memory in ascending address order.
	Memory []MemoryEntry

	// PublicMemory lists (address, page) pairs in proof mode.
	PublicMemory [][2]uint64

	// ProgramHash identifies the executed bytecode.
	ProgramHash [32]byte
}
