package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

func TestLoadDataAndRangeReads(t *testing.T) {
	mgr := NewSegmentManager()
	base := mgr.AddSegment()

	values := []core.MaybeRelocatable{
		core.FromFelt(core.FeltFromUint64(10)),
		core.FromFelt(core.FeltFromUint64(20)),
		core.FromFelt(core.FeltFromUint64(30)),
	}
	end, err := mgr.LoadData(base, values)
	require.NoError(t, err)
	require.True(t, end.Equal(core.NewRelocatable(0, 3)))

	got, err := mgr.Memory.GetRange(base, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.True(t, got[1].Equal(values[1]))

	felts, err := mgr.Memory.GetFeltRange(base, 3)
	require.NoError(t, err)
	require.True(t, felts[2].Equal(core.FeltFromUint64(30)))

	// A gap inside the range fails the read.
	_, err = mgr.Memory.GetRange(base, 4)
	require.ErrorIs(t, err, ErrUnknownMemoryCell)
}

func TestGetFeltRangeRejectsRelocatable(t *testing.T) {
	mgr := NewSegmentManager()
	base := mgr.AddSegment()
	_, err := mgr.LoadData(base, []core.MaybeRelocatable{
		core.FromFelt(core.FeltFromUint64(1)),
		core.FromRelocatable(core.NewRelocatable(0, 0)),
	})
	require.NoError(t, err)

	_, err = mgr.Memory.GetFeltRange(base, 2)
	require.ErrorIs(t, err, core.ErrExpectedInteger)
}

func TestWriteArgMixedValues(t *testing.T) {
	mgr := NewSegmentManager()
	base := mgr.AddSegment()

	end, err := mgr.WriteArg(base, []any{
		core.FeltFromUint64(7),
		core.NewRelocatable(0, 0),
		core.FromFelt(core.FeltFromUint64(9)),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(3), end.Offset)

	f, err := mgr.Memory.GetFelt(core.NewRelocatable(0, 0))
	require.NoError(t, err)
	require.True(t, f.Equal(core.FeltFromUint64(7)))

	_, err = mgr.WriteArg(end, []any{"not a vm value"})
	require.ErrorIs(t, err, ErrWriteArg)
}

func TestGenArgNestsSequences(t *testing.T) {
	mgr := NewSegmentManager()

	ptr, err := mgr.GenArg([]any{
		core.FeltFromUint64(1),
		[]any{core.FeltFromUint64(2), core.FeltFromUint64(3)},
	})
	require.NoError(t, err)

	base, err := ptr.GetRelocatable()
	require.NoError(t, err)

	// The nested sequence became its own segment, pointed to by the
	// second cell.
	nested, err := mgr.Memory.GetRelocatable(core.NewRelocatable(base.SegmentIndex, 1))
	require.NoError(t, err)
	require.NotEqual(t, base.SegmentIndex, nested.SegmentIndex)

	inner, err := mgr.Memory.GetFeltRange(nested, 2)
	require.NoError(t, err)
	require.True(t, inner[0].Equal(core.FeltFromUint64(2)))
	require.True(t, inner[1].Equal(core.FeltFromUint64(3)))
}

func TestRelocateTemporarySegments(t *testing.T) {
	m := NewMemory()
	realIdx := m.AddSegment()
	tmpIdx := m.AddTempSegment()

	require.NoError(t, m.Set(core.NewRelocatable(tmpIdx, 0), core.FromFelt(core.FeltFromUint64(11))))
	require.NoError(t, m.Set(core.NewRelocatable(tmpIdx, 2), core.FromRelocatable(core.NewRelocatable(tmpIdx, 0))))
	require.NoError(t, m.MarkAccessed(core.NewRelocatable(tmpIdx, 0)))

	// Without a rule the move is refused.
	require.ErrorIs(t, m.RelocateTemporarySegments(), ErrUnrelocatedMemory)

	dst := core.NewRelocatable(realIdx, 4)
	require.NoError(t, m.AddRelocationRule(core.NewRelocatable(tmpIdx, 0), dst))
	require.NoError(t, m.RelocateTemporarySegments())

	moved, err := m.GetFelt(core.NewRelocatable(realIdx, 4))
	require.NoError(t, err)
	require.True(t, moved.Equal(core.FeltFromUint64(11)))

	// Self-references are rewritten through the same rule.
	ref, err := m.GetRelocatable(core.NewRelocatable(realIdx, 6))
	require.NoError(t, err)
	require.True(t, ref.Equal(dst))

	seg, _ := m.Segment(realIdx)
	require.Equal(t, uint64(1), seg.AccessedCount())
	require.Equal(t, int64(0), m.NumTempSegments())
}

func TestValidateExistingMemoryRetroactively(t *testing.T) {
	m := NewMemory()
	m.AddSegment()
	addr := core.NewRelocatable(0, 0)
	require.NoError(t, m.Set(addr, core.FromFelt(core.FeltFromUint64(1))))

	// The rule arrives after the write; retroactive validation picks the
	// cell up.
	m.AddValidationRule(0, func(a core.Relocatable, mm *Memory) ([]core.Relocatable, error) {
		return []core.Relocatable{a}, nil
	})
	require.False(t, m.IsValidated(addr))
	require.NoError(t, m.ValidateExistingMemory())
	require.True(t, m.IsValidated(addr))
}
