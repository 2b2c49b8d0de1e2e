package runner

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/vm"
)

// WriteMemoryFile emits the relocated memory file: a sequence
// of (addr: u64 little-endian, value: 32-byte little-endian felt) pairs in
// ascending address order. Address 0 is reserved and never written.
func WriteMemoryFile(w io.Writer, cells []vm.RelocatedMemoryCell) error {
	ordered := make([]vm.RelocatedMemoryCell, len(cells))
	copy(ordered, cells)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Address < ordered[j].Address })

	var addrBuf [8]byte
	for _, c := range ordered {
		if c.Address == 0 {
			return fmt.Errorf("runner: relocated memory contains the reserved address 0")
		}
		binary.LittleEndian.PutUint64(addrBuf[:], c.Address)
		if _, err := w.Write(addrBuf[:]); err != nil {
			return err
		}
		value := c.Value.Bytes32()
		if _, err := w.Write(value[:]); err != nil {
			return err
		}
	}
	return nil
}

// WriteTraceFile emits the relocated trace file: packed
// (ap: u64, fp: u64, pc: u64) little-endian triples, one per step, in step
// order.
func WriteTraceFile(w io.Writer, trace []vm.RelocatedTraceEntry) error {
	var buf [24]byte
	for _, e := range trace {
		binary.LittleEndian.PutUint64(buf[0:8], e.AP.Uint64())
		binary.LittleEndian.PutUint64(buf[8:16], e.FP.Uint64())
		binary.LittleEndian.PutUint64(buf[16:24], e.PC.Uint64())
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}
