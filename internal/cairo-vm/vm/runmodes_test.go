package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

func TestLoadExecutionMode(t *testing.T) {
	mgr := memory.NewSegmentManager()
	progBase := mgr.AddSegment()
	execBase := mgr.AddSegment()
	data := []core.MaybeRelocatable{
		core.FromFelt(core.FeltFromUint64(1)),
		core.FromFelt(core.FeltFromUint64(2)),
	}

	res, err := LoadExecutionMode(mgr, progBase, execBase, data, 1, nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), res.ProgramBase.SegmentIndex)
	require.Equal(t, int64(1), res.ExecutionBase.SegmentIndex)
	require.True(t, res.InitialPC.Equal(core.NewRelocatable(0, 1)))
	require.True(t, res.InitialAP.Equal(res.InitialFP))
	require.Equal(t, uint64(2), res.InitialAP.Offset)

	// The return-FP and end sentinels are real segments, and the stack
	// cells point at their bases.
	endVal, err := mgr.Memory.GetRelocatable(core.NewRelocatable(1, 1))
	require.NoError(t, err)
	require.True(t, endVal.Equal(res.End))
	require.False(t, res.End.IsTemporary())
}

func TestLoadExecutionModeWithBuiltinStack(t *testing.T) {
	mgr := memory.NewSegmentManager()
	progBase := mgr.AddSegment()
	execBase := mgr.AddSegment()
	builtinBase := mgr.AddSegment()
	data := []core.MaybeRelocatable{core.FromFelt(core.FeltFromUint64(1))}

	res, err := LoadExecutionMode(mgr, progBase, execBase, data, 0, []core.MaybeRelocatable{core.FromRelocatable(builtinBase)})
	require.NoError(t, err)
	require.Equal(t, uint64(3), res.InitialAP.Offset)

	got, err := mgr.Memory.GetRelocatable(core.NewRelocatable(1, 0))
	require.NoError(t, err)
	require.True(t, got.Equal(builtinBase))
}

func TestLoadProofMode(t *testing.T) {
	mgr := memory.NewSegmentManager()
	progBase := mgr.AddSegment()
	execBase := mgr.AddSegment()
	data := []core.MaybeRelocatable{core.FromFelt(core.FeltFromUint64(1))}

	res, err := LoadProofMode(mgr, progBase, execBase, data, 0, 1, nil)
	require.NoError(t, err)
	require.True(t, res.InitialAP.Equal(res.InitialFP))
	require.Equal(t, uint64(2), res.InitialAP.Offset)
	require.True(t, res.InitialPC.Equal(res.ProgramBase))
	require.True(t, res.End.Equal(core.NewRelocatable(0, 1)))
	require.Equal(t, uint64(2), res.StackPrefixLen)
}

func TestLoadProofModeCairo1StackLength(t *testing.T) {
	mgr := memory.NewSegmentManager()
	progBase := mgr.AddSegment()
	execBase := mgr.AddSegment()
	data := []core.MaybeRelocatable{core.FromFelt(core.FeltFromUint64(1))}

	builtinStacks := [][]core.MaybeRelocatable{
		{core.FromFelt(core.FeltFromUint64(10)), core.FromFelt(core.FeltFromUint64(20))},
	}

	res, err := LoadProofModeCairo1(mgr, progBase, execBase, data, builtinStacks)
	require.NoError(t, err)
	require.Equal(t, uint64(4), res.InitialAP.Offset)
	require.Equal(t, uint64(4), res.StackPrefixLen)
}
