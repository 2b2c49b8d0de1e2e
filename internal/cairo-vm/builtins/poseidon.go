package builtins

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// Hades permutation parameters for the 3-element Poseidon used by the
// builtin: 8 full rounds split around 83 partial rounds, cube s-box, and
// the sparse MDS matrix [[3,1,1],[1,-1,1],[1,1,-2]].
const (
	poseidonStateWidth    = 3
	poseidonFullRounds    = 8
	poseidonPartialRounds = 83
	poseidonRounds        = poseidonFullRounds + poseidonPartialRounds
)

// poseidonArk holds the round constants, derived once at package init by
// hashing "Hades{idx}" with sha256 and reducing mod P, the same derivation
// the reference parameter generator uses.
var poseidonArk = derivePoseidonConstants()

func derivePoseidonConstants() [poseidonRounds][poseidonStateWidth]core.Felt {
	var ark [poseidonRounds][poseidonStateWidth]core.Felt
	idx := 0
	for r := 0; r < poseidonRounds; r++ {
		for i := 0; i < poseidonStateWidth; i++ {
			digest := sha256.Sum256([]byte(fmt.Sprintf("Hades%d", idx)))
			ark[r][i] = core.NewFelt(new(big.Int).SetBytes(digest[:]))
			idx++
		}
	}
	return ark
}

// poseidonPermute applies the Hades permutation to a 3-element state.
func poseidonPermute(state [poseidonStateWidth]core.Felt) [poseidonStateWidth]core.Felt {
	half := poseidonFullRounds / 2
	round := 0
	for ; round < half; round++ {
		state = poseidonRound(state, round, true)
	}
	for ; round < half+poseidonPartialRounds; round++ {
		state = poseidonRound(state, round, false)
	}
	for ; round < poseidonRounds; round++ {
		state = poseidonRound(state, round, true)
	}
	return state
}

func poseidonRound(state [poseidonStateWidth]core.Felt, round int, full bool) [poseidonStateWidth]core.Felt {
	for i := 0; i < poseidonStateWidth; i++ {
		state[i] = state[i].Add(poseidonArk[round][i])
	}
	if full {
		for i := 0; i < poseidonStateWidth; i++ {
			state[i] = cube(state[i])
		}
	} else {
		state[2] = cube(state[2])
	}
	return poseidonMix(state)
}

func cube(f core.Felt) core.Felt {
	return f.Mul(f).Mul(f)
}

// poseidonMix multiplies the state by the MDS matrix [[3,1,1],[1,-1,1],[1,1,-2]].
func poseidonMix(state [poseidonStateWidth]core.Felt) [poseidonStateWidth]core.Felt {
	sum := state[0].Add(state[1]).Add(state[2])
	return [poseidonStateWidth]core.Felt{
		sum.Add(state[0]).Add(state[0]),
		sum.Sub(state[1]).Sub(state[1]),
		sum.Sub(state[2]).Sub(state[2]).Sub(state[2]),
	}
}

// Poseidon deduces the output half of an instance: cells
// (x0, x1, x2, y0, y1, y2) with (y0, y1, y2) = permutation(x0, x1, x2).
type Poseidon struct {
	base
	cache map[core.Relocatable]core.Felt
}

func NewPoseidon(included bool) *Poseidon {
	return &Poseidon{base: base{cellsPer: 6, included: included}, cache: make(map[core.Relocatable]core.Felt)}
}

func (p *Poseidon) Name() string { return "poseidon" }

func (p *Poseidon) DeduceMemoryCell(addr core.Relocatable, mem *memory.Memory) (*core.MaybeRelocatable, error) {
	if addr.SegmentIndex != p.segment.SegmentIndex {
		return nil, nil
	}
	instance, cell := p.instanceOffset(addr)
	if cell < poseidonStateWidth {
		return nil, nil
	}
	if cached, ok := p.cache[addr]; ok {
		v := core.FromFelt(cached)
		return &v, nil
	}

	var state [poseidonStateWidth]core.Felt
	for i := uint64(0); i < poseidonStateWidth; i++ {
		v, err := mem.Get(p.cellAddr(instance, i))
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		f, err := v.GetFelt()
		if err != nil {
			return nil, err
		}
		state[i] = f
	}

	out := poseidonPermute(state)
	for i := 0; i < poseidonStateWidth; i++ {
		p.cache[p.cellAddr(instance, poseidonStateWidth+uint64(i))] = out[i]
	}

	v := core.FromFelt(p.cache[addr])
	return &v, nil
}

func (p *Poseidon) VerifyAutoDeductions(mem *memory.Memory) error {
	return verifyAutoDeductionsGeneric(mem, p.segment.SegmentIndex, p.DeduceMemoryCell)
}
