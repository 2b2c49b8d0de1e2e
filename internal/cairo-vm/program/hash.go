package program

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Hash returns the Keccak-256 digest of the program's bytecode, used to
// identify a program in logs and run artifacts. Each data word contributes
// its 32-byte little-endian value; relocatable words (which cannot appear in
// compiled bytecode, but may in hand-built programs) contribute their
// segment and offset as two 8-byte words instead.
func (p *Program) Hash() [32]byte {
	h := sha3.NewLegacyKeccak256()
	var buf [16]byte
	for _, w := range p.Data {
		if f, err := w.GetFelt(); err == nil {
			b := f.Bytes32()
			h.Write(b[:])
			continue
		}
		r, _ := w.GetRelocatable()
		binary.BigEndian.PutUint64(buf[0:8], uint64(r.SegmentIndex))
		binary.BigEndian.PutUint64(buf[8:16], r.Offset)
		h.Write(buf[:])
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
