package cairovm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	bitDstFP    = 1 << 0
	bitOp0FP    = 1 << 1
	bitOp1Imm   = 1 << 2
	bitOp1AP    = 1 << 3
	bitOp1FP    = 1 << 4
	bitResAdd   = 1 << 5
	bitPcJump   = 1 << 7
	bitApAdd1   = 1 << 11
	bitOpRet    = 1 << 13
	bitOpAssert = 1 << 14
)

func word(off0, off1, off2 int64, flags uint64) MaybeRelocatable {
	const bias = 1 << 15
	raw := uint64(off0+bias) | uint64(off1+bias)<<16 | uint64(off2+bias)<<32 | flags<<48
	return FromFelt(FeltFromUint64(raw))
}

func simpleProgram() *Program {
	prog := NewProgram()
	prog.Data = []MaybeRelocatable{
		word(0, -1, 1, bitOp0FP|bitOp1Imm|bitApAdd1|bitOpAssert),
		FromFelt(FeltFromUint64(5)),
		word(0, -1, -1, bitResAdd|bitOp1AP|bitApAdd1|bitOpAssert),
		word(-2, -1, -1, bitDstFP|bitOp0FP|bitOp1FP|bitPcJump|bitOpRet),
	}
	main := uint64(0)
	prog.Main = &main
	return prog
}

func TestRunSimpleProgram(t *testing.T) {
	result, err := Run(simpleProgram(), DefaultRunConfig())
	require.NoError(t, err)

	require.Equal(t, uint64(3), result.Steps)
	require.Len(t, result.Trace, 3)
	require.Equal(t, uint64(1), result.Trace[0].PC)

	byAddr := make(map[uint64]Felt, len(result.Memory))
	for _, e := range result.Memory {
		byAddr[e.Address] = e.Value
	}
	require.True(t, byAddr[7].Equal(FeltFromUint64(5)))
	require.True(t, byAddr[8].Equal(FeltFromUint64(10)))

	// Memory comes out sorted by flat address.
	for i := 1; i < len(result.Memory); i++ {
		require.Less(t, result.Memory[i-1].Address, result.Memory[i].Address)
	}
}

func TestRunWithoutTrace(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.TraceEnabled = false
	result, err := Run(simpleProgram(), cfg)
	require.NoError(t, err)
	require.Nil(t, result.Trace)
	require.NotEmpty(t, result.Memory)
}

func TestRunClassifiesSetupError(t *testing.T) {
	prog := simpleProgram()
	prog.Main = nil

	_, err := Run(prog, DefaultRunConfig())
	require.Error(t, err)
	var vmErr *VMError
	require.ErrorAs(t, err, &vmErr)
	require.Equal(t, ErrRunnerSetup, vmErr.Code)
}

func TestRunClassifiesResourceExhaustion(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.MaxSteps = 1
	_, err := Run(simpleProgram(), cfg)
	var vmErr *VMError
	require.ErrorAs(t, err, &vmErr)
	require.Equal(t, ErrResourcesExhausted, vmErr.Code)
}

func TestRunInvalidLayout(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Layout = "bogus"
	_, err := Run(simpleProgram(), cfg)
	require.Error(t, err)
}
