package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

func TestWriteOnceMemory(t *testing.T) {
	m := NewMemory()
	m.AddSegment()
	addr := core.NewRelocatable(0, 0)

	require.NoError(t, m.Set(addr, core.FromFelt(core.FeltFromUint64(1))))
	// Re-writing the same value is idempotent.
	require.NoError(t, m.Set(addr, core.FromFelt(core.FeltFromUint64(1))))

	err := m.Set(addr, core.FromFelt(core.FeltFromUint64(2)))
	require.Error(t, err)
	var inconsistent *InconsistentMemoryError
	require.ErrorAs(t, err, &inconsistent)
	require.Equal(t, addr, inconsistent.Addr)

	v, err := m.Get(addr)
	require.NoError(t, err)
	f, err := v.GetFelt()
	require.NoError(t, err)
	require.True(t, f.Equal(core.FeltFromUint64(1)))
}

func TestAccessedMonotonicity(t *testing.T) {
	m := NewMemory()
	m.AddSegment()
	addr := core.NewRelocatable(0, 0)
	require.NoError(t, m.Set(addr, core.FromFelt(core.FeltZero())))
	require.NoError(t, m.MarkAccessed(addr))

	seg, err := m.Segment(0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), seg.AccessedCount())

	// Marking again never clears the flag.
	require.NoError(t, m.MarkAccessed(addr))
	require.Equal(t, uint64(1), seg.AccessedCount())
}

func TestGetTypeMismatch(t *testing.T) {
	m := NewMemory()
	m.AddSegment()
	addr := core.NewRelocatable(0, 0)
	require.NoError(t, m.Set(addr, core.FromFelt(core.FeltFromUint64(7))))

	_, err := m.GetRelocatable(addr)
	require.ErrorIs(t, err, core.ErrExpectedRelocatable)
}

func TestEffectiveSizeMonotonicity(t *testing.T) {
	mgr := NewSegmentManager()
	base := mgr.AddSegment()
	target, err := base.AddUint(4)
	require.NoError(t, err)
	require.NoError(t, mgr.Memory.Set(target, core.FromFelt(core.FeltFromUint64(9))))

	sizes := mgr.ComputeEffectiveSize(false)
	require.GreaterOrEqual(t, sizes[0], uint64(5))
}

func TestMemoryHolesConservation(t *testing.T) {
	mgr := NewSegmentManager()
	base := mgr.AddSegment()
	for _, off := range []uint64{0, 2, 3} {
		addr, err := base.AddUint(off)
		require.NoError(t, err)
		require.NoError(t, mgr.Memory.Set(addr, core.FromFelt(core.FeltFromUint64(off))))
	}
	accessedAddr, _ := base.AddUint(0)
	require.NoError(t, mgr.Memory.MarkAccessed(accessedAddr))

	mgr.ComputeEffectiveSize(false)
	holes, err := mgr.MemoryHoles(nil)
	require.NoError(t, err)

	size, err := mgr.sizeOf(0)
	require.NoError(t, err)
	seg, _ := mgr.Memory.Segment(0)
	require.Equal(t, size, holes[0]+seg.AccessedCount())
}

func TestRelocationRules(t *testing.T) {
	m := NewMemory()
	tempIdx := m.AddTempSegment()
	realIdx := m.AddSegment()
	src := core.NewRelocatable(tempIdx, 0)
	dst := core.NewRelocatable(realIdx, 10)

	require.NoError(t, m.AddRelocationRule(src, dst))
	err := m.AddRelocationRule(src, dst)
	var dup *DuplicatedRelocationError
	require.ErrorAs(t, err, &dup)

	stored := core.FromRelocatable(core.NewRelocatable(tempIdx, 3))
	relocated, err := m.RelocateValue(stored)
	require.NoError(t, err)
	want, err := dst.AddUint(3)
	require.NoError(t, err)
	require.True(t, relocated.Equal(core.FromRelocatable(want)))
}

// Segment sizes [3,2,4] produce bases [1,4,6].
func TestRelocateSegmentsScenarioS5(t *testing.T) {
	mgr := NewSegmentManager()
	mgr.AddSegment()
	mgr.AddSegment()
	mgr.AddSegment()
	mgr.usedSizes[0] = 3
	mgr.usedSizes[1] = 2
	mgr.usedSizes[2] = 4

	base, err := mgr.RelocateSegments()
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 4, 6}, base)
}

// Public memory address table over finalized segments.
func TestPublicMemoryScenarioS6(t *testing.T) {
	mgr := NewSegmentManager()
	for i := 0; i < 5; i++ {
		mgr.AddSegment()
	}
	mgr.usedSizes[0] = 3
	mgr.usedSizes[1] = 8
	mgr.usedSizes[2] = 0
	mgr.usedSizes[3] = 1
	mgr.usedSizes[4] = 2

	require.NoError(t, mgr.Finalize(0, nil, []PublicMemoryEntry{{Offset: 0, PageID: 0}, {Offset: 1, PageID: 1}}))
	entries := make([]PublicMemoryEntry, 0, 8)
	for off := uint64(0); off < 8; off++ {
		entries = append(entries, PublicMemoryEntry{Offset: off, PageID: 0})
	}
	require.NoError(t, mgr.Finalize(1, nil, entries))
	require.NoError(t, mgr.Finalize(4, nil, []PublicMemoryEntry{{Offset: 1, PageID: 2}}))

	base := []uint64{1, 4, 12, 12, 13, 15, 20}
	addrs, err := mgr.GetPublicMemoryAddresses(base)
	require.NoError(t, err)

	seen := make(map[[2]uint64]bool)
	for _, a := range addrs {
		seen[a] = true
	}
	for _, want := range [][2]uint64{
		{1, 0}, {2, 1},
		{4, 0}, {5, 0}, {6, 0}, {7, 0}, {8, 0}, {9, 0}, {10, 0}, {11, 0},
		{14, 2},
	} {
		require.True(t, seen[want], "missing address %v", want)
	}
	require.Len(t, addrs, 11)
}
