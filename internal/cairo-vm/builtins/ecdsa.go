package builtins

import (
	"errors"
	"math/big"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// ecdsaOrder is the order of the cyclic subgroup generated by the curve's
// base point, used as the scalar modulus for signature arithmetic.
var ecdsaOrder = mustParseDec("3618502788666131213697322783095070105526743751716087489154079457884512865583")

var ecdsaGenerator = fixedBasePoint("ecdsa.generator")

var ErrMissingSignature = errors.New("builtins: no registered signature for this public key")
var ErrInvalidSignature = errors.New("builtins: signature does not verify against msg")

// Signature is an (r, s) pair registered against a public key's x-coordinate,
// the "external signature table" the validation rule consults.
type Signature struct {
	R, S core.Felt
}

// ECDSA validates, rather than deduces: pub_key and msg cells must both be
// present and a caller-registered signature must verify.
type ECDSA struct {
	base
	signatures map[string]Signature // keyed by pub_key's decimal string
}

func NewECDSA(included bool) *ECDSA {
	return &ECDSA{base: base{cellsPer: 2, included: included}, signatures: make(map[string]Signature)}
}

func (e *ECDSA) Name() string { return "ecdsa" }

// AddSignature registers a signature for pubKey, as a hint or the caller's
// setup code would before running the program.
func (e *ECDSA) AddSignature(pubKey core.Felt, sig Signature) {
	e.signatures[pubKey.String()] = sig
}

func (e *ECDSA) DeduceMemoryCell(core.Relocatable, *memory.Memory) (*core.MaybeRelocatable, error) {
	return nil, nil
}

func (e *ECDSA) AddValidationRule(mem *memory.Memory) {
	segIdx := e.segment.SegmentIndex
	mem.AddValidationRule(segIdx, func(addr core.Relocatable, m *memory.Memory) ([]core.Relocatable, error) {
		instance, _ := e.instanceOffset(addr)
		pubAddr := e.cellAddr(instance, 0)
		msgAddr := e.cellAddr(instance, 1)
		pubV, err := m.Get(pubAddr)
		if err != nil || pubV == nil {
			return []core.Relocatable{addr}, nil
		}
		msgV, err := m.Get(msgAddr)
		if err != nil || msgV == nil {
			return []core.Relocatable{addr}, nil
		}
		pub, err := pubV.GetFelt()
		if err != nil {
			return nil, err
		}
		msg, err := msgV.GetFelt()
		if err != nil {
			return nil, err
		}
		sig, ok := e.signatures[pub.String()]
		if !ok {
			return nil, ErrMissingSignature
		}
		if !verifyECDSA(pub, msg, sig) {
			return nil, ErrInvalidSignature
		}
		return []core.Relocatable{addr}, nil
	})
}

func (e *ECDSA) VerifyAutoDeductions(*memory.Memory) error { return nil }

// verifyECDSA checks a signature against a public-key x-coordinate and a
// message felt, lifting pub back onto the curve via its y-coordinate's
// quadratic residue (the standard convention of identifying a STARK-curve
// public key by its x-coordinate alone).
func verifyECDSA(pubX, msg core.Felt, sig Signature) bool {
	rhs := pubX.Mul(pubX).Mul(pubX).Add(curveAlpha.Mul(pubX)).Add(curveBeta)
	if !rhs.IsQuadraticResidue() {
		return false
	}
	pub := ecPoint{X: pubX, Y: rhs.Sqrt()}

	n := ecdsaOrder
	sInv := new(big.Int).ModInverse(sig.S.Big(), n)
	if sInv == nil {
		return false
	}
	u1 := new(big.Int).Mod(new(big.Int).Mul(msg.Big(), sInv), n)
	u2 := new(big.Int).Mod(new(big.Int).Mul(sig.R.Big(), sInv), n)

	p1, err := scalarMul(core.NewFelt(u1), ecdsaGenerator)
	if err != nil {
		return false
	}
	p2, err := scalarMul(core.NewFelt(u2), pub)
	if err != nil {
		return false
	}
	sum, err := addPoints(p1, p2)
	if err != nil || sum.atInfinity {
		return false
	}

	rModN := new(big.Int).Mod(sum.X.Big(), n)
	return rModN.Cmp(new(big.Int).Mod(sig.R.Big(), n)) == 0
}
