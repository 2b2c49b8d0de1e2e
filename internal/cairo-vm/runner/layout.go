// Package runner drives a program end to end: it instantiates the builtin
// runners a layout provides, initializes memory for the chosen run mode,
// steps the VM to completion, verifies auto-deductions, relocates memory
// and trace, and writes the persisted artifacts.
package runner

import (
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/program"
)

// Layout names the builtin set a prover layout supports together with its
// per-step cell budgets.
type Layout struct {
	Name     string
	Builtins []program.BuiltinName

	// RcUnitsPerStep bounds the permanent range-check units available per
	// executed step; MemoryUnitsPerStep bounds total memory cells.
	RcUnitsPerStep     uint64
	MemoryUnitsPerStep uint64
}

var layouts = map[string]Layout{
	"plain": {
		Name:               "plain",
		Builtins:           []program.BuiltinName{program.BuiltinOutput},
		RcUnitsPerStep:     16,
		MemoryUnitsPerStep: 8,
	},
	"small": {
		Name: "small",
		Builtins: []program.BuiltinName{
			program.BuiltinOutput, program.BuiltinPedersen,
			program.BuiltinRangeCheck, program.BuiltinECDSA,
		},
		RcUnitsPerStep:     16,
		MemoryUnitsPerStep: 8,
	},
	"dynamic": {
		Name:               "dynamic",
		Builtins:           allBuiltins(),
		RcUnitsPerStep:     16,
		MemoryUnitsPerStep: 8,
	},
	"all_cairo": {
		Name:               "all_cairo",
		Builtins:           allBuiltins(),
		RcUnitsPerStep:     8,
		MemoryUnitsPerStep: 8,
	},
}

func allBuiltins() []program.BuiltinName {
	out := make([]program.BuiltinName, len(program.CanonicalOrder))
	copy(out, program.CanonicalOrder)
	return out
}

// LayoutByName resolves one of the supported layout names
// (plain|small|dynamic|all_cairo).
func LayoutByName(name string) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("runner: unknown layout %q", name)
	}
	return l, nil
}

// Supports reports whether the layout provides the named builtin. The
// segment arena is not tied to any layout; programs may always request it.
func (l Layout) Supports(name program.BuiltinName) bool {
	if name == program.BuiltinSegmentArena {
		return true
	}
	for _, b := range l.Builtins {
		if b == name {
			return true
		}
	}
	return false
}
