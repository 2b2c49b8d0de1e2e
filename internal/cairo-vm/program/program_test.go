package program

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

func TestValidateBuiltinOrder(t *testing.T) {
	require.NoError(t, ValidateBuiltinOrder(nil))
	require.NoError(t, ValidateBuiltinOrder([]BuiltinName{BuiltinOutput, BuiltinRangeCheck, BuiltinPoseidon}))
	require.NoError(t, ValidateBuiltinOrder(CanonicalOrder))

	require.ErrorIs(t, ValidateBuiltinOrder([]BuiltinName{BuiltinRangeCheck, BuiltinOutput}), ErrDisorderedBuiltins)
	require.ErrorIs(t, ValidateBuiltinOrder([]BuiltinName{BuiltinOutput, BuiltinOutput}), ErrDisorderedBuiltins)
	require.Error(t, ValidateBuiltinOrder([]BuiltinName{"frobnicate"}))
}

func TestProgramHash(t *testing.T) {
	p1 := NewProgram()
	p1.Data = []core.MaybeRelocatable{
		core.FromFelt(core.FeltFromUint64(1)),
		core.FromFelt(core.FeltFromUint64(2)),
	}
	p2 := NewProgram()
	p2.Data = []core.MaybeRelocatable{
		core.FromFelt(core.FeltFromUint64(1)),
		core.FromFelt(core.FeltFromUint64(3)),
	}

	h1 := p1.Hash()
	h1Again := p1.Hash()
	require.Equal(t, h1, h1Again)
	require.NotEqual(t, h1, p2.Hash())
}
