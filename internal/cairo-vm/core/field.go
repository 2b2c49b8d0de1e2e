// Package core provides the field and address primitives the rest of the
// VM is built on: the prime-field element type (Felt) and the segmented
// address type (Relocatable / MaybeRelocatable).
package core

import (
	"fmt"
	"math/big"
)

// P is the Starknet/Cairo prime: 2^251 + 17*2^192 + 1.
var P = mustParse("3618502788666131213697322783095070105623107215331596699973092056135872020481")

func mustParse(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("core: invalid prime literal")
	}
	return v
}

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
	bigTwo  = big.NewInt(2)
)

// Felt is an element of F = Z/PZ. The zero value is the field element 0.
type Felt struct {
	value big.Int
}

// NewFelt reduces v modulo P and returns the resulting element.
func NewFelt(v *big.Int) Felt {
	var f Felt
	f.value.Mod(v, P)
	if f.value.Sign() < 0 {
		f.value.Add(&f.value, P)
	}
	return f
}

// FeltFromUint64 builds a Felt from a nonnegative integer known to be < P.
func FeltFromUint64(v uint64) Felt {
	var f Felt
	f.value.SetUint64(v)
	return f
}

// FeltFromInt64 builds a Felt from a signed integer, wrapping negatives mod P.
func FeltFromInt64(v int64) Felt {
	return NewFelt(big.NewInt(v))
}

// FeltZero and FeltOne are the additive and multiplicative identities.
func FeltZero() Felt { return Felt{} }
func FeltOne() Felt  { var f Felt; f.value.SetInt64(1); return f }

// Big returns a copy of the element's value as a big.Int in [0, P).
func (f Felt) Big() *big.Int {
	return new(big.Int).Set(&f.value)
}

// Uint64 returns the value truncated to 64 bits, ignoring overflow.
// Callers that need an overflow check should use FitsU64 first.
func (f Felt) Uint64() uint64 {
	return f.value.Uint64()
}

// FitsU64 reports whether the element's integer value fits in a uint64.
func (f Felt) FitsU64() bool {
	return f.value.IsUint64()
}

// Add returns f + g mod P.
func (f Felt) Add(g Felt) Felt {
	var r Felt
	r.value.Add(&f.value, &g.value)
	r.value.Mod(&r.value, P)
	return r
}

// Sub returns f - g mod P.
func (f Felt) Sub(g Felt) Felt {
	var r Felt
	r.value.Sub(&f.value, &g.value)
	r.value.Mod(&r.value, P)
	if r.value.Sign() < 0 {
		r.value.Add(&r.value, P)
	}
	return r
}

// Mul returns f * g mod P.
func (f Felt) Mul(g Felt) Felt {
	var r Felt
	r.value.Mul(&f.value, &g.value)
	r.value.Mod(&r.value, P)
	return r
}

// Neg returns -f mod P.
func (f Felt) Neg() Felt {
	return FeltZero().Sub(f)
}

// Inv returns the multiplicative inverse of f. Fails on zero.
func (f Felt) Inv() (Felt, error) {
	if f.IsZero() {
		return Felt{}, fmt.Errorf("core: division by zero")
	}
	var r Felt
	r.value.ModInverse(&f.value, P)
	return r, nil
}

// Div returns f / g (f * g^-1). Fails if g is zero.
func (f Felt) Div(g Felt) (Felt, error) {
	inv, err := g.Inv()
	if err != nil {
		return Felt{}, err
	}
	return f.Mul(inv), nil
}

// IsZero reports whether f is the additive identity.
func (f Felt) IsZero() bool {
	return f.value.Sign() == 0
}

// Equal reports value equality.
func (f Felt) Equal(g Felt) bool {
	return f.value.Cmp(&g.value) == 0
}

// Cmp orders two elements by their canonical integer representative.
func (f Felt) Cmp(g Felt) int {
	return f.value.Cmp(&g.value)
}

// BitLen returns the number of bits in the canonical representative.
func (f Felt) BitLen() int {
	return f.value.BitLen()
}

// Bit returns the i-th bit (0 or 1) of the canonical representative.
func (f Felt) Bit(i int) uint {
	return f.value.Bit(i)
}

// AsInt returns the signed interpretation: x if x < P/2, else x - P.
func (f Felt) AsInt() *big.Int {
	half := new(big.Int).Rsh(P, 1)
	if f.value.Cmp(half) <= 0 {
		return f.Big()
	}
	return new(big.Int).Sub(&f.value, P)
}

// IsQuadraticResidue reports whether f is a quadratic residue mod P (zero
// counts as one), via Euler's criterion f^((P-1)/2) == 1 for nonzero f.
func (f Felt) IsQuadraticResidue() bool {
	if f.IsZero() {
		return true
	}
	exp := new(big.Int).Rsh(new(big.Int).Sub(P, bigOne), 1)
	r := new(big.Int).Exp(&f.value, exp, P)
	return r.Cmp(bigOne) == 0
}

// Sqrt computes a modular square root. If f is a quadratic residue it
// returns sqrt(f); otherwise it returns sqrt(f/3), which is itself a
// residue (3 is a fixed quadratic non-residue for this P). It never fails
// for a well-formed Felt.
func (f Felt) Sqrt() Felt {
	three := FeltFromUint64(3)
	x := f
	if !f.IsQuadraticResidue() {
		inv3, _ := three.Inv()
		x = f.Mul(inv3)
	}
	return tonelliShanks(x)
}

func tonelliShanks(n Felt) Felt {
	if n.IsZero() {
		return FeltZero()
	}
	p := P
	// P ≡ 1 mod 4 for the Starknet prime, so the general algorithm is used.
	if new(big.Int).Mod(p, big.NewInt(4)).Cmp(big.NewInt(3)) == 0 {
		exp := new(big.Int).Rsh(new(big.Int).Add(p, bigOne), 2)
		return NewFelt(new(big.Int).Exp(n.Big(), exp, p))
	}

	Q := new(big.Int).Sub(p, bigOne)
	S := 0
	for Q.Bit(0) == 0 {
		Q.Rsh(Q, 1)
		S++
	}

	z := big.NewInt(2)
	half := new(big.Int).Rsh(new(big.Int).Sub(p, bigOne), 1)
	for new(big.Int).Exp(z, half, p).Cmp(bigOne) == 0 {
		z.Add(z, bigOne)
	}

	c := new(big.Int).Exp(z, Q, p)
	qPlus1Half := new(big.Int).Rsh(new(big.Int).Add(Q, bigOne), 1)
	x := new(big.Int).Exp(n.Big(), qPlus1Half, p)
	t := new(big.Int).Exp(n.Big(), Q, p)
	m := S

	for t.Cmp(bigOne) != 0 {
		i := 1
		for i < m {
			if new(big.Int).Exp(t, new(big.Int).Lsh(bigOne, uint(i)), p).Cmp(bigOne) == 0 {
				break
			}
			i++
		}
		b := new(big.Int).Exp(c, new(big.Int).Lsh(bigOne, uint(m-i-1)), p)
		x.Mul(x, b).Mod(x, p)
		c.Exp(b, bigTwo, p)
		t.Mul(t, c).Mod(t, p)
		m = i
	}
	return NewFelt(x)
}

// String renders the canonical decimal representative.
func (f Felt) String() string {
	return f.value.String()
}

// Bytes32 returns the 32-byte little-endian encoding used by the relocated
// memory file format.
func (f Felt) Bytes32() [32]byte {
	var out [32]byte
	b := f.value.Bytes() // big-endian, no leading zeros
	for i := 0; i < len(b); i++ {
		out[i] = b[len(b)-1-i]
	}
	return out
}

// FeltFromBytes32LE decodes a little-endian 32-byte felt.
func FeltFromBytes32LE(b [32]byte) Felt {
	be := make([]byte, 32)
	for i := 0; i < 32; i++ {
		be[i] = b[31-i]
	}
	return NewFelt(new(big.Int).SetBytes(be))
}
