package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

func newBuiltinMemory(t *testing.T, b interface {
	InitSegments(mgr *memory.SegmentManager)
}) *memory.SegmentManager {
	t.Helper()
	mgr := memory.NewSegmentManager()
	// Mirror the runner's layout: program and execution segments first.
	mgr.AddSegment()
	mgr.AddSegment()
	b.InitSegments(mgr)
	return mgr
}

// 12 AND/XOR/OR 10 deduced from the two input cells.
func TestBitwiseDeduction(t *testing.T) {
	b := NewBitwise(true)
	mgr := newBuiltinMemory(t, b)
	mem := mgr.Memory

	seg := b.Base().SegmentIndex
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(core.FeltFromUint64(12))))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(core.FeltFromUint64(10))))

	for _, tc := range []struct {
		cell uint64
		want uint64
	}{
		{2, 8},  // 12 AND 10
		{3, 6},  // 12 XOR 10
		{4, 14}, // 12 OR 10
	} {
		v, err := b.DeduceMemoryCell(core.NewRelocatable(seg, tc.cell), mem)
		require.NoError(t, err)
		require.NotNil(t, v)
		f, err := v.GetFelt()
		require.NoError(t, err)
		require.True(t, f.Equal(core.FeltFromUint64(tc.want)))
		require.NoError(t, mem.Set(core.NewRelocatable(seg, tc.cell), *v))
	}

	require.NoError(t, b.VerifyAutoDeductions(mem))
}

func TestBitwiseVerifyDetectsMutation(t *testing.T) {
	b := NewBitwise(true)
	mgr := newBuiltinMemory(t, b)
	mem := mgr.Memory

	seg := b.Base().SegmentIndex
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(core.FeltFromUint64(12))))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(core.FeltFromUint64(10))))
	// A value no deduction would produce.
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 2), core.FromFelt(core.FeltFromUint64(7))))

	err := b.VerifyAutoDeductions(mem)
	require.ErrorIs(t, err, ErrInconsistentAutoDeduction)
}

func TestBitwiseRejectsOutOfBoundsInput(t *testing.T) {
	b := NewBitwise(true)
	mgr := newBuiltinMemory(t, b)
	mem := mgr.Memory

	seg := b.Base().SegmentIndex
	// P-1 is a 252-bit value, one past the TOTAL_N_BITS bound.
	tooBig := core.FeltZero().Sub(core.FeltOne())
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(tooBig)))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(core.FeltFromUint64(1))))

	_, err := b.DeduceMemoryCell(core.NewRelocatable(seg, 2), mem)
	require.ErrorIs(t, err, ErrBitwiseOutsideBounds)
}

func TestBitwiseVerifyPropagatesDeductionErrors(t *testing.T) {
	b := NewBitwise(true)
	mgr := newBuiltinMemory(t, b)
	mem := mgr.Memory

	seg := b.Base().SegmentIndex
	tooBig := core.FeltZero().Sub(core.FeltOne())
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(tooBig)))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(core.FeltFromUint64(1))))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 2), core.FromFelt(core.FeltFromUint64(0))))

	// An out-of-range stored input is a verification failure, not a pass.
	require.ErrorIs(t, b.VerifyAutoDeductions(mem), ErrBitwiseOutsideBounds)
}

func TestBitwiseIncompleteInputsDeduceNothing(t *testing.T) {
	b := NewBitwise(true)
	mgr := newBuiltinMemory(t, b)
	mem := mgr.Memory

	seg := b.Base().SegmentIndex
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(core.FeltFromUint64(12))))

	v, err := b.DeduceMemoryCell(core.NewRelocatable(seg, 2), mem)
	require.NoError(t, err)
	require.Nil(t, v)
}
