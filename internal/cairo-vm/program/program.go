// Package program defines the program input structure the VM driver
// consumes. Loading this structure from Cairo's JSON
// compilation artifact, and parsing identifiers/references, are external
// collaborators, kept outside this package.
package program

import (
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

// BuiltinName identifies one of the closed set of builtins a program may
// request. Builtin lists must follow the canonical order below;
// anything else is rejected as disordered.
type BuiltinName string

const (
	BuiltinOutput       BuiltinName = "output"
	BuiltinPedersen     BuiltinName = "pedersen"
	BuiltinRangeCheck   BuiltinName = "range_check"
	BuiltinECDSA        BuiltinName = "ecdsa"
	BuiltinBitwise      BuiltinName = "bitwise"
	BuiltinECOp         BuiltinName = "ec_op"
	BuiltinKeccak       BuiltinName = "keccak"
	BuiltinPoseidon     BuiltinName = "poseidon"
	BuiltinSegmentArena BuiltinName = "segment_arena"
)

// CanonicalOrder is the required ordering of the builtin set.
var CanonicalOrder = []BuiltinName{
	BuiltinOutput, BuiltinPedersen, BuiltinRangeCheck, BuiltinECDSA,
	BuiltinBitwise, BuiltinECOp, BuiltinKeccak, BuiltinPoseidon, BuiltinSegmentArena,
}

// ErrDisorderedBuiltins reports that a program's builtin list does not
// follow CanonicalOrder.
var ErrDisorderedBuiltins = fmt.Errorf("program: builtins are not in canonical order")

// ValidateBuiltinOrder checks that builtins appear in CanonicalOrder,
// possibly with gaps (not every builtin need be present).
func ValidateBuiltinOrder(builtins []BuiltinName) error {
	rank := make(map[BuiltinName]int, len(CanonicalOrder))
	for i, b := range CanonicalOrder {
		rank[b] = i
	}
	last := -1
	for _, b := range builtins {
		r, ok := rank[b]
		if !ok {
			return fmt.Errorf("program: unknown builtin %q", b)
		}
		if r <= last {
			return ErrDisorderedBuiltins
		}
		last = r
	}
	return nil
}

// ApTracking is the {group, offset} record letting a hint reference resolve
// addresses that depend on the current AP.
type ApTracking struct {
	Group  uint64
	Offset uint64
}

// HintReference describes where a program-level identifier lives at a given
// point in the program.
type HintReference struct {
	Register     string // "AP" or "FP"
	Offset       int64
	SecondOffset *int64 // another register-relative offset, when present
	Immediate    *core.Felt
	Dereference  bool
	ApTracking   ApTracking
}

// Hint is a single compiled-but-uninterpreted hint attached to a program
// offset.
type Hint struct {
	Code                  string
	ApTracking            ApTracking
	ReferenceIDs          map[string]int64
	AccessibleIdentifiers []string
}

// Program is the VM driver's sole input contract.
type Program struct {
	Builtins []BuiltinName
	Data     []core.MaybeRelocatable

	Main  *uint64
	Start *uint64
	End   *uint64

	Constants map[string]core.Felt

	// Hints maps a program offset (index into Data) to the ordered hints
	// attached there.
	Hints map[uint64][]Hint

	ReferenceManager []HintReference

	Identifiers            map[string]any
	ErrorMessageAttributes []ErrorMessageAttribute
	InstructionLocations   map[uint64]InstructionLocation
}

// ErrorMessageAttribute surfaces a user-authored error message tied to a
// program offset range, used for error attribution.
type ErrorMessageAttribute struct {
	StartPC uint64
	EndPC   uint64
	Message string
}

// InstructionLocation is the source-level location metadata surfaced in
// error messages.
type InstructionLocation struct {
	File   string
	Line   int
	Column int
}

// NewProgram creates an empty program ready to be populated by a loader.
func NewProgram() *Program {
	return &Program{
		Constants:            make(map[string]core.Felt),
		Hints:                make(map[uint64][]Hint),
		Identifiers:          make(map[string]any),
		InstructionLocations: make(map[uint64]InstructionLocation),
	}
}

// Len returns the number of data words in the program.
func (p *Program) Len() uint64 {
	return uint64(len(p.Data))
}
