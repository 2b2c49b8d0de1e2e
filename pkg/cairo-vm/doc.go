// Package cairovm provides a Cairo virtual machine: an interpreter for
// programs compiled to the Cairo instruction set over a prime-field memory
// model, producing an execution trace suitable for downstream STARK
// proving.
//
// # Quick Start
//
// Running a program:
//
//	prog := cairovm.NewProgram()
//	prog.Data = words
//	prog.Main = &mainOffset
//
//	result, err := cairovm.Run(prog, cairovm.DefaultRunConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Steps, "steps")
//
// The result carries the relocated memory, the relocated trace (when
// tracing is enabled), and the public-memory addresses in proof mode.
//
// # Architecture
//
// - pkg/cairo-vm/: Public API (this package)
// - internal/cairo-vm/: Private implementation (not importable)
//
// The implementation is split into core (field and address primitives),
// memory (segmented write-once memory and the segment manager), vm
// (decoder, operand engine, step loop, relocation), builtins (the
// auto-deduction runners), program (the loader-facing input contract), and
// runner (end-to-end orchestration).
package cairovm
