package cairovm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/vm"
)

func TestVMErrorFormatting(t *testing.T) {
	plain := &VMError{Code: ErrVMExecution, Message: "step failed"}
	require.Contains(t, plain.Error(), "step failed")

	cause := errors.New("boom")
	wrapped := &VMError{Code: ErrVMExecution, Message: "step failed", Cause: cause}
	require.Contains(t, wrapped.Error(), "boom")
	require.ErrorIs(t, wrapped, cause)
}

func TestVMErrorIsMatchesByCode(t *testing.T) {
	a := &VMError{Code: ErrMemoryViolation, Message: "a"}
	b := &VMError{Code: ErrMemoryViolation, Message: "b"}
	c := &VMError{Code: ErrVMExecution, Message: "c"}
	require.ErrorIs(t, a, b)
	require.NotErrorIs(t, a, c)
}

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want ErrorCode
	}{
		{&memory.InconsistentMemoryError{}, ErrMemoryViolation},
		{fmt.Errorf("wrapped: %w", memory.ErrUnknownMemoryCell), ErrMemoryViolation},
		{core.ErrAddRelocToReloc, ErrMathViolation},
		{vm.ErrDiffAssertValues, ErrVMExecution},
		{vm.ErrRunResourcesExhausted, ErrResourcesExhausted},
		{vm.ErrTraceAlreadyRelocated, ErrRelocation},
		{errors.New("opaque"), ErrUnknown},
	} {
		require.Equal(t, tc.want, classify(tc.err), "%v", tc.err)
	}
}
