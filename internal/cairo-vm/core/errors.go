package core

import "errors"

// Sentinel errors for MaybeRelocatable arithmetic and type coercion. These
// are wrapped with context by callers higher in the stack (memory, vm)
// rather than constructed fresh at each call site.
var (
	ErrExpectedInteger     = errors.New("core: expected a field element, found a relocatable")
	ErrExpectedRelocatable = errors.New("core: expected a relocatable, found a field element")
	ErrAddRelocToReloc     = errors.New("core: cannot add two relocatables")
	ErrMulReloc            = errors.New("core: cannot multiply a relocatable")
)
