package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

func TestPoseidonPermutationIsDeterministic(t *testing.T) {
	in := [poseidonStateWidth]core.Felt{
		core.FeltFromUint64(1), core.FeltFromUint64(2), core.FeltFromUint64(3),
	}
	a := poseidonPermute(in)
	b := poseidonPermute(in)
	for i := range a {
		require.True(t, a[i].Equal(b[i]))
	}
	// The permutation must actually move the state.
	require.False(t, a[0].Equal(in[0]))
}

func TestPoseidonMixMatchesMatrix(t *testing.T) {
	s := [poseidonStateWidth]core.Felt{
		core.FeltFromUint64(1), core.FeltFromUint64(10), core.FeltFromUint64(100),
	}
	m := poseidonMix(s)
	// [[3,1,1],[1,-1,1],[1,1,-2]] applied to (1, 10, 100).
	require.True(t, m[0].Equal(core.FeltFromUint64(113)))
	require.True(t, m[1].Equal(core.FeltFromUint64(91)))
	require.True(t, m[2].Equal(core.FeltFromInt64(-189)))
}

func TestPoseidonDeduction(t *testing.T) {
	p := NewPoseidon(true)
	mgr := newBuiltinMemory(t, p)
	mem := mgr.Memory
	seg := p.Base().SegmentIndex

	for i := uint64(0); i < poseidonStateWidth; i++ {
		require.NoError(t, mem.Set(core.NewRelocatable(seg, i), core.FromFelt(core.FeltFromUint64(i+1))))
	}

	want := poseidonPermute([poseidonStateWidth]core.Felt{
		core.FeltFromUint64(1), core.FeltFromUint64(2), core.FeltFromUint64(3),
	})
	for i := uint64(0); i < poseidonStateWidth; i++ {
		v, err := p.DeduceMemoryCell(core.NewRelocatable(seg, poseidonStateWidth+i), mem)
		require.NoError(t, err)
		require.NotNil(t, v)
		f, err := v.GetFelt()
		require.NoError(t, err)
		require.True(t, f.Equal(want[i]), "output %d", i)
		require.NoError(t, mem.Set(core.NewRelocatable(seg, poseidonStateWidth+i), *v))
	}

	require.NoError(t, p.VerifyAutoDeductions(mem))

	// Input cells never deduce.
	v, err := p.DeduceMemoryCell(core.NewRelocatable(seg, 0), mem)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestPoseidonVerifyDetectsMutation(t *testing.T) {
	p := NewPoseidon(true)
	mgr := newBuiltinMemory(t, p)
	mem := mgr.Memory
	seg := p.Base().SegmentIndex

	for i := uint64(0); i < poseidonStateWidth; i++ {
		require.NoError(t, mem.Set(core.NewRelocatable(seg, i), core.FromFelt(core.FeltFromUint64(i+1))))
	}
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 3), core.FromFelt(core.FeltFromUint64(42))))

	require.ErrorIs(t, p.VerifyAutoDeductions(mem), ErrInconsistentAutoDeduction)
}
