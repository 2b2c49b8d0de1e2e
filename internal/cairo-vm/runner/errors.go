package runner

import "errors"

// Sentinel errors for run setup, lifecycle misuse, and resource budgets.
var (
	ErrNoProgramStart       = errors.New("runner: program has no start offset")
	ErrNoProgramEnd         = errors.New("runner: program has no end offset")
	ErrNoExecBase           = errors.New("runner: execution segment has not been allocated")
	ErrNoProgBase           = errors.New("runner: program segment has not been allocated")
	ErrMissingMain          = errors.New("runner: program has no main offset")
	ErrNoBuiltinForInstance = errors.New("runner: program requests a builtin the layout does not provide")
	ErrEndRunAlreadyCalled  = errors.New("runner: end_run has already been called")
	ErrNotInitialized       = errors.New("runner: runner has not been initialized")

	ErrInsufficientAllocatedCellsRangeCheck = errors.New("runner: insufficient allocated cells for range check")
	ErrInsufficientAllocatedCellsMemory     = errors.New("runner: insufficient allocated cells for memory holes")
)
