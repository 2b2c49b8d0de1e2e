package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

func TestCurveArithmetic(t *testing.T) {
	g := fixedBasePoint("test.generator")
	require.True(t, onCurve(g))

	doubled, err := doublePoint(g)
	require.NoError(t, err)
	require.True(t, onCurve(doubled))

	// 3g computed two ways must agree.
	viaAdd, err := addPoints(doubled, g)
	require.NoError(t, err)
	viaMul, err := scalarMul(core.FeltFromUint64(3), g)
	require.NoError(t, err)
	require.True(t, viaAdd.X.Equal(viaMul.X))
	require.True(t, viaAdd.Y.Equal(viaMul.Y))

	// g + (-g) is the point at infinity.
	neg := ecPoint{X: g.X, Y: g.Y.Neg()}
	sum, err := addPoints(g, neg)
	require.NoError(t, err)
	require.True(t, sum.atInfinity)
}

func TestECOpDeduction(t *testing.T) {
	e := NewECOp(true)
	mgr := newBuiltinMemory(t, e)
	mem := mgr.Memory
	seg := e.Base().SegmentIndex

	p := fixedBasePoint("test.p")
	q := fixedBasePoint("test.q")
	m := core.FeltFromUint64(34)

	for i, f := range []core.Felt{p.X, p.Y, q.X, q.Y, m} {
		require.NoError(t, mem.Set(core.NewRelocatable(seg, uint64(i)), core.FromFelt(f)))
	}

	rx, err := e.DeduceMemoryCell(core.NewRelocatable(seg, 5), mem)
	require.NoError(t, err)
	require.NotNil(t, rx)
	ry, err := e.DeduceMemoryCell(core.NewRelocatable(seg, 6), mem)
	require.NoError(t, err)
	require.NotNil(t, ry)

	mq, err := scalarMul(m, q)
	require.NoError(t, err)
	want, err := addPoints(p, mq)
	require.NoError(t, err)

	fx, err := rx.GetFelt()
	require.NoError(t, err)
	fy, err := ry.GetFelt()
	require.NoError(t, err)
	require.True(t, fx.Equal(want.X))
	require.True(t, fy.Equal(want.Y))

	require.NoError(t, mem.Set(core.NewRelocatable(seg, 5), *rx))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 6), *ry))
	require.NoError(t, e.VerifyAutoDeductions(mem))
}

func TestECOpIncompleteInputsDeduceNothing(t *testing.T) {
	e := NewECOp(true)
	mgr := newBuiltinMemory(t, e)
	mem := mgr.Memory
	seg := e.Base().SegmentIndex

	p := fixedBasePoint("test.p")
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(p.X)))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(p.Y)))

	v, err := e.DeduceMemoryCell(core.NewRelocatable(seg, 5), mem)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestECOpRejectsPointOffCurve(t *testing.T) {
	e := NewECOp(true)
	mgr := newBuiltinMemory(t, e)
	mem := mgr.Memory
	seg := e.Base().SegmentIndex

	q := fixedBasePoint("test.q")
	for i, f := range []core.Felt{core.FeltFromUint64(1), core.FeltFromUint64(1), q.X, q.Y, core.FeltFromUint64(5)} {
		require.NoError(t, mem.Set(core.NewRelocatable(seg, uint64(i)), core.FromFelt(f)))
	}

	_, err := e.DeduceMemoryCell(core.NewRelocatable(seg, 5), mem)
	require.ErrorIs(t, err, ErrPointNotOnCurve)
}
