package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

func TestSegmentArenaInitSeedsFirstInstance(t *testing.T) {
	a := NewSegmentArena(true)
	mgr := newBuiltinMemory(t, a)
	seg := a.Base().SegmentIndex

	info, err := mgr.Memory.GetRelocatable(core.NewRelocatable(seg, 0))
	require.NoError(t, err)
	require.Equal(t, a.infoSegment.SegmentIndex, info.SegmentIndex)

	for _, off := range []uint64{1, 2} {
		f, err := mgr.Memory.GetFelt(core.NewRelocatable(seg, off))
		require.NoError(t, err)
		require.True(t, f.IsZero())
	}

	// The initial stack points past the seeded instance.
	stack := a.InitialStack()
	require.Len(t, stack, 1)
	ptr, err := stack[0].GetRelocatable()
	require.NoError(t, err)
	require.Equal(t, uint64(3), ptr.Offset)
}

func TestSegmentArenaValidationRule(t *testing.T) {
	a := NewSegmentArena(true)
	mgr := newBuiltinMemory(t, a)
	mem := mgr.Memory
	a.AddValidationRule(mem)
	seg := a.Base().SegmentIndex

	// A consistent second instance: info pointer, 2 segments, 1 finalized.
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 3), core.FromRelocatable(a.infoSegment)))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 4), core.FromFelt(core.FeltFromUint64(2))))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 5), core.FromFelt(core.FeltFromUint64(1))))

	// n_finalized > n_segments is rejected once the instance completes.
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 6), core.FromRelocatable(a.infoSegment)))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 7), core.FromFelt(core.FeltFromUint64(1))))
	err := mem.Set(core.NewRelocatable(seg, 8), core.FromFelt(core.FeltFromUint64(2)))
	require.ErrorIs(t, err, ErrSegmentArenaInconsistent)
}

func TestFinalStackConsumesStopPointer(t *testing.T) {
	o := NewOutput(true)
	mgr := newBuiltinMemory(t, o)
	mem := mgr.Memory
	seg := o.Base().SegmentIndex

	// The program wrote two output cells and left the stop pointer on the
	// caller's stack.
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(core.FeltFromUint64(1))))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(core.FeltFromUint64(2))))
	stop := core.NewRelocatable(seg, 2)
	stackTop := core.NewRelocatable(1, 5)
	require.NoError(t, mem.Set(core.NewRelocatable(1, 4), core.FromRelocatable(stop)))

	prev, err := o.FinalStack(mgr, stackTop)
	require.NoError(t, err)
	require.True(t, prev.Equal(core.NewRelocatable(1, 4)))

	base, recorded := o.GetMemorySegmentAddresses()
	require.Equal(t, seg, base.SegmentIndex)
	require.NotNil(t, recorded)
	require.True(t, recorded.Equal(stop))
}

func TestFinalStackRejectsForeignPointer(t *testing.T) {
	o := NewOutput(true)
	mgr := newBuiltinMemory(t, o)
	mem := mgr.Memory

	require.NoError(t, mem.Set(core.NewRelocatable(1, 4), core.FromRelocatable(core.NewRelocatable(0, 0))))
	_, err := o.FinalStack(mgr, core.NewRelocatable(1, 5))
	require.ErrorIs(t, err, ErrStopPointerWrongSegment)
}
