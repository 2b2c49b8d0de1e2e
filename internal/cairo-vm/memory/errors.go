// Package memory implements the segmented, write-once memory model and
// the segment manager built on top of it.
package memory

import (
	"errors"
	"fmt"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

// InconsistentMemoryError reports a write-once violation: an address already
// holds a value different from the one being written.
type InconsistentMemoryError struct {
	Addr      core.Relocatable
	Existing  core.MaybeRelocatable
	Attempted core.MaybeRelocatable
}

func (e *InconsistentMemoryError) Error() string {
	return fmt.Sprintf("memory: inconsistent write at %s: existing %s, attempted %s", e.Addr, e.Existing, e.Attempted)
}

// DuplicatedRelocationError reports a second relocation rule registered for
// a temporary segment that already has one.
type DuplicatedRelocationError struct {
	Segment int64
}

func (e *DuplicatedRelocationError) Error() string {
	return fmt.Sprintf("memory: duplicated relocation rule for temporary segment %d", e.Segment)
}

var (
	ErrUnknownMemoryCell                       = errors.New("memory: unknown memory cell")
	ErrAddressNotInTemporarySegment            = errors.New("memory: relocation source is not in a temporary segment")
	ErrNonZeroOffset                           = errors.New("memory: relocation source must have offset zero")
	ErrSegmentHasMoreAccessedAddressesThanSize = errors.New("memory: segment has more accessed addresses than its size")
	ErrMissingSegmentUsedSizes                 = errors.New("memory: segment used sizes have not been computed")
	ErrMalformedPublicMemory                   = errors.New("memory: malformed public memory: base table shorter than segment count")
	ErrWriteArg                                = errors.New("memory: write_arg received a value of unsupported type")
	ErrGenArgInvalidType                       = errors.New("memory: gen_arg received a value of unsupported type")
	ErrUnrelocatedMemory                       = errors.New("memory: memory has not been relocated")
)
