package builtins

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

// signForTest produces a valid (r, s) pair for msg under priv, adjusting
// priv so that the public key's y-coordinate matches the quadratic-residue
// lift verifyECDSA performs.
func signForTest(t *testing.T, priv *big.Int, msg core.Felt) (core.Felt, Signature) {
	t.Helper()
	n := ecdsaOrder

	pub, err := scalarMul(core.NewFelt(priv), ecdsaGenerator)
	require.NoError(t, err)

	rhs := pub.X.Mul(pub.X).Mul(pub.X).Add(curveAlpha.Mul(pub.X)).Add(curveBeta)
	require.True(t, rhs.IsQuadraticResidue())
	if !rhs.Sqrt().Equal(pub.Y) {
		priv = new(big.Int).Sub(n, priv)
		pub.Y = pub.Y.Neg()
	}

	nonce := big.NewInt(987654321)
	rp, err := scalarMul(core.NewFelt(nonce), ecdsaGenerator)
	require.NoError(t, err)
	r := new(big.Int).Mod(rp.X.Big(), n)

	kInv := new(big.Int).ModInverse(nonce, n)
	s := new(big.Int).Mul(r, priv)
	s.Add(s, msg.Big())
	s.Mul(s, kInv)
	s.Mod(s, n)

	return pub.X, Signature{R: core.NewFelt(r), S: core.NewFelt(s)}
}

func TestECDSAValidationAcceptsRegisteredSignature(t *testing.T) {
	e := NewECDSA(true)
	mgr := newBuiltinMemory(t, e)
	mem := mgr.Memory
	e.AddValidationRule(mem)
	seg := e.Base().SegmentIndex

	msg := core.FeltFromUint64(42)
	pubX, sig := signForTest(t, big.NewInt(123456789), msg)
	e.AddSignature(pubX, sig)

	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(msg)))
	require.NoError(t, mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(pubX)))
}

func TestECDSAValidationRejectsWrongMessage(t *testing.T) {
	e := NewECDSA(true)
	mgr := newBuiltinMemory(t, e)
	mem := mgr.Memory
	e.AddValidationRule(mem)
	seg := e.Base().SegmentIndex

	pubX, sig := signForTest(t, big.NewInt(123456789), core.FeltFromUint64(42))
	e.AddSignature(pubX, sig)

	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(core.FeltFromUint64(43))))
	err := mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(pubX))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestECDSAValidationRequiresRegisteredSignature(t *testing.T) {
	e := NewECDSA(true)
	mgr := newBuiltinMemory(t, e)
	mem := mgr.Memory
	e.AddValidationRule(mem)
	seg := e.Base().SegmentIndex

	require.NoError(t, mem.Set(core.NewRelocatable(seg, 1), core.FromFelt(core.FeltFromUint64(1))))
	err := mem.Set(core.NewRelocatable(seg, 0), core.FromFelt(core.FeltFromUint64(99)))
	require.ErrorIs(t, err, ErrMissingSignature)
}
