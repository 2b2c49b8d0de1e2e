package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeltArithmetic(t *testing.T) {
	a := FeltFromUint64(7)
	b := FeltFromUint64(5)

	require.True(t, a.Add(b).Equal(FeltFromUint64(12)))
	require.True(t, a.Sub(b).Equal(FeltFromUint64(2)))
	require.True(t, a.Mul(b).Equal(FeltFromUint64(35)))

	// Subtraction wraps around the prime.
	wrapped := b.Sub(a)
	require.True(t, wrapped.Add(a).Equal(b))
	require.True(t, wrapped.Equal(FeltFromInt64(-2)))
}

func TestFeltDivision(t *testing.T) {
	a := FeltFromUint64(35)
	b := FeltFromUint64(5)
	q, err := a.Div(b)
	require.NoError(t, err)
	require.True(t, q.Equal(FeltFromUint64(7)))

	// Division round-trips through the inverse for a non-divisor too.
	c := FeltFromUint64(3)
	q, err = a.Div(c)
	require.NoError(t, err)
	require.True(t, q.Mul(c).Equal(a))

	_, err = a.Div(FeltZero())
	require.Error(t, err)
}

func TestFeltAsInt(t *testing.T) {
	require.Equal(t, int64(5), FeltFromUint64(5).AsInt().Int64())

	minusOne := FeltZero().Sub(FeltOne())
	require.Equal(t, int64(-1), minusOne.AsInt().Int64())
}

func TestFeltSqrt(t *testing.T) {
	// 9 is a residue: sqrt^2 == 9.
	nine := FeltFromUint64(9)
	require.True(t, nine.IsQuadraticResidue())
	root := nine.Sqrt()
	require.True(t, root.Mul(root).Equal(nine))

	// For a non-residue x, the convention is sqrt(x/3).
	var nonResidue Felt
	for i := uint64(2); ; i++ {
		candidate := FeltFromUint64(i)
		if !candidate.IsQuadraticResidue() {
			nonResidue = candidate
			break
		}
	}
	root = nonResidue.Sqrt()
	third, err := nonResidue.Div(FeltFromUint64(3))
	require.NoError(t, err)
	require.True(t, root.Mul(root).Equal(third))
}

func TestFeltBytes32RoundTrip(t *testing.T) {
	v := NewFelt(new(big.Int).Lsh(big.NewInt(0xDEADBEEF), 180))
	encoded := v.Bytes32()
	decoded := FeltFromBytes32LE(encoded)
	require.True(t, decoded.Equal(v))
}

func TestFeltBitOps(t *testing.T) {
	v := FeltFromUint64(0b1010)
	require.Equal(t, 4, v.BitLen())
	require.Equal(t, uint(0), v.Bit(0))
	require.Equal(t, uint(1), v.Bit(1))
}
