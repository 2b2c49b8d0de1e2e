package builtins

import (
	"errors"
	"math/big"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

// The keccak builtin packs the 1600-bit permutation state into 8 words of
// 200 bits each, inputs first, outputs after.
const (
	keccakInputCells = 8
	keccakCells      = 16
	keccakWordBits   = 200
)

// keccakWordBound is the exclusive bound every input word must satisfy.
var keccakWordBound = new(big.Int).Lsh(big.NewInt(1), keccakWordBits)

var ErrKeccakInputOutsideBounds = errors.New("builtins: keccak input word outside 2^200 bound")

// Keccak deduces the output half of an instance by running Keccak-f[1600]
// over the assembled input state once all input cells are present.
type Keccak struct {
	base
	cache map[core.Relocatable]core.Felt
}

func NewKeccak(included bool) *Keccak {
	return &Keccak{base: base{cellsPer: keccakCells, included: included}, cache: make(map[core.Relocatable]core.Felt)}
}

func (k *Keccak) Name() string { return "keccak" }

func (k *Keccak) DeduceMemoryCell(addr core.Relocatable, mem *memory.Memory) (*core.MaybeRelocatable, error) {
	if addr.SegmentIndex != k.segment.SegmentIndex {
		return nil, nil
	}
	instance, cell := k.instanceOffset(addr)
	if cell < keccakInputCells {
		return nil, nil
	}
	if cached, ok := k.cache[addr]; ok {
		v := core.FromFelt(cached)
		return &v, nil
	}

	inputs := make([]core.Felt, keccakInputCells)
	for i := uint64(0); i < keccakInputCells; i++ {
		v, err := mem.Get(k.cellAddr(instance, i))
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
		if f.Big().Cmp(keccakWordBound) >= 0 {
			return nil, ErrKeccakInputOutsideBounds
		}
		inputs[i] = f
	}

	state := assembleKeccakState(inputs)
	keccakF1600(&state)
	outputs := splitKeccakState(state)

	// Cache every output word of the instance so later reads of the
	// sibling cells reuse one permutation run.
	for i, out := range outputs {
		k.cache[k.cellAddr(instance, keccakInputCells+uint64(i))] = out
	}

	out := k.cache[addr]
	v := core.FromFelt(out)
	return &v, nil
}

// assembleKeccakState packs 8 little-endian 200-bit words into the 25
// little-endian uint64 lanes the permutation operates on.
func assembleKeccakState(words []core.Felt) [25]uint64 {
	var buf [200]byte
	for i, w := range words {
		b := w.Big().Bytes() // big-endian
		off := i * 25
		for j := 0; j < len(b); j++ {
			buf[off+j] = b[len(b)-1-j]
		}
	}
	var state [25]uint64
	for i := 0; i < 25; i++ {
		var lane uint64
		for j := 7; j >= 0; j-- {
			lane = lane<<8 | uint64(buf[i*8+j])
		}
		state[i] = lane
	}
	return state
}

// splitKeccakState is the inverse packing: 25 lanes back into 8 words of
// 200 bits each.
func splitKeccakState(state [25]uint64) [keccakInputCells]core.Felt {
	var buf [200]byte
	for i, lane := range state {
		for j := 0; j < 8; j++ {
			buf[i*8+j] = byte(lane >> (8 * j))
		}
	}
	var out [keccakInputCells]core.Felt
	for i := 0; i < keccakInputCells; i++ {
		be := make([]byte, 25)
		for j := 0; j < 25; j++ {
			be[j] = buf[i*25+24-j]
		}
		out[i] = core.NewFelt(new(big.Int).SetBytes(be))
	}
	return out
}

func (k *Keccak) VerifyAutoDeductions(mem *memory.Memory) error {
	return verifyAutoDeductionsGeneric(mem, k.segment.SegmentIndex, k.DeduceMemoryCell)
}
