package memory

// Segment is an ordered, densely indexed array of optional cells. Gaps
// (never-written offsets) are permitted and contribute to memory holes.
type Segment struct {
	cells []Cell
}

// ensure grows the backing array so that offset is addressable.
func (s *Segment) ensure(offset uint64) {
	if uint64(len(s.cells)) > offset {
		return
	}
	grown := make([]Cell, offset+1)
	copy(grown, s.cells)
	s.cells = grown
}

// Len returns the current backing length (not the same as used size: the
// caller is responsible for computing used size from set cells).
func (s *Segment) Len() int {
	return len(s.cells)
}

// At returns a pointer to the cell at offset, growing the segment if
// necessary. The returned cell may be unset.
func (s *Segment) At(offset uint64) *Cell {
	s.ensure(offset)
	return &s.cells[offset]
}

// Get returns the cell at offset without growing the segment, or nil if the
// offset is beyond the current backing array.
func (s *Segment) Get(offset uint64) *Cell {
	if offset >= uint64(len(s.cells)) {
		return nil
	}
	return &s.cells[offset]
}

// UsedSize returns one past the highest offset that currently holds a
// value, or 0 if the segment is empty.
func (s *Segment) UsedSize() uint64 {
	for i := len(s.cells) - 1; i >= 0; i-- {
		if s.cells[i].IsSet() {
			return uint64(i + 1)
		}
	}
	return 0
}

// AccessedCount returns the number of cells with IsAccessed set.
func (s *Segment) AccessedCount() uint64 {
	var n uint64
	for i := range s.cells {
		if s.cells[i].IsAccessed {
			n++
		}
	}
	return n
}

// SetCells returns the offsets of every currently-set cell, in ascending order.
func (s *Segment) SetCells() []uint64 {
	out := make([]uint64, 0, len(s.cells))
	for i := range s.cells {
		if s.cells[i].IsSet() {
			out = append(out, uint64(i))
		}
	}
	return out
}
