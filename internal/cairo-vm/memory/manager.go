package memory

import (
	"fmt"
	"math"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
)

// PublicMemoryEntry is one (offset_in_segment, page_id) pair finalized for a
// segment via Finalize.
type PublicMemoryEntry struct {
	Offset uint64
	PageID uint64
}

type segmentInfo struct {
	finalized    bool
	size         uint32
	publicMemory []PublicMemoryEntry
}

// SegmentManager wraps a Memory with segment-level bookkeeping: used sizes,
// finalized sizes, public memory, and load/write helpers.
type SegmentManager struct {
	Memory *Memory

	usedSizes map[int64]uint64
	infos     map[int64]*segmentInfo
}

// NewSegmentManager creates a manager over a fresh Memory.
func NewSegmentManager() *SegmentManager {
	return &SegmentManager{
		Memory:    NewMemory(),
		usedSizes: make(map[int64]uint64),
		infos:     make(map[int64]*segmentInfo),
	}
}

// AddSegment allocates a real segment and returns its base address.
func (s *SegmentManager) AddSegment() core.Relocatable {
	idx := s.Memory.AddSegment()
	return core.NewRelocatable(idx, 0)
}

// AddTempSegment allocates a temporary segment and returns its base address.
func (s *SegmentManager) AddTempSegment() core.Relocatable {
	idx := s.Memory.AddTempSegment()
	return core.NewRelocatable(idx, 0)
}

// LoadData writes values consecutively starting at ptr and returns ptr+len.
func (s *SegmentManager) LoadData(ptr core.Relocatable, values []core.MaybeRelocatable) (core.Relocatable, error) {
	cur := ptr
	for _, v := range values {
		if err := s.Memory.Set(cur, v); err != nil {
			return core.Relocatable{}, err
		}
		next, err := cur.AddUint(1)
		if err != nil {
			return core.Relocatable{}, err
		}
		cur = next
	}
	return cur, nil
}

// ComputeEffectiveSize populates segment_used_sizes from the current cells.
// It is idempotent once populated for a given segment unless allowTmp picks
// up newly-written temporary segments.
func (s *SegmentManager) ComputeEffectiveSize(allowTmp bool) map[int64]uint64 {
	for idx := int64(0); idx < s.Memory.NumSegments(); idx++ {
		if _, ok := s.usedSizes[idx]; ok {
			continue
		}
		seg, _ := s.Memory.Segment(idx)
		s.usedSizes[idx] = seg.UsedSize()
	}
	if allowTmp {
		for i := int64(0); i < s.Memory.NumTempSegments(); i++ {
			idx := -i - 1
			if _, ok := s.usedSizes[idx]; ok {
				continue
			}
			seg, _ := s.Memory.Segment(idx)
			s.usedSizes[idx] = seg.UsedSize()
		}
	}
	return s.usedSizes
}

// sizeOf returns the finalized size for idx if one was recorded, else the
// used size (which must already be computed).
func (s *SegmentManager) sizeOf(idx int64) (uint64, error) {
	if info, ok := s.infos[idx]; ok && info.finalized {
		return uint64(info.size), nil
	}
	size, ok := s.usedSizes[idx]
	if !ok {
		return 0, ErrMissingSegmentUsedSizes
	}
	return size, nil
}

// RelocateSegments produces the flat base table:
// base[0] = 1, base[i] = base[i-1] + size(i-1). It requires
// ComputeEffectiveSize to have been called first.
func (s *SegmentManager) RelocateSegments() ([]uint64, error) {
	n := s.Memory.NumSegments()
	base := make([]uint64, n)
	var next uint64 = 1
	for i := int64(0); i < n; i++ {
		size, err := s.sizeOf(i)
		if err != nil {
			return nil, err
		}
		base[i] = next
		next += size
	}
	return base, nil
}

// Finalize records a chosen size for segmentIndex (overriding its used size
// for relocation purposes) and a list of public-memory entries.
func (s *SegmentManager) Finalize(segmentIndex int64, size *uint64, publicMemory []PublicMemoryEntry) error {
	info, ok := s.infos[segmentIndex]
	if !ok {
		info = &segmentInfo{}
		s.infos[segmentIndex] = info
	}
	if size != nil {
		if *size > math.MaxUint32 {
			return fmt.Errorf("memory: finalized size %d does not fit in u32", *size)
		}
		info.finalized = true
		info.size = uint32(*size)
	}
	info.publicMemory = append(info.publicMemory, publicMemory...)
	return nil
}

// GetPublicMemoryAddresses returns (base[seg]+off, page_id) for every
// finalized public-memory entry, using the supplied base table.
func (s *SegmentManager) GetPublicMemoryAddresses(base []uint64) ([][2]uint64, error) {
	var out [][2]uint64
	for segIdx, info := range s.infos {
		if segIdx < 0 || int64(len(base)) <= segIdx {
			return nil, ErrMalformedPublicMemory
		}
		for _, e := range info.publicMemory {
			out = append(out, [2]uint64{base[segIdx] + e.Offset, e.PageID})
		}
	}
	return out, nil
}

// MemoryHoles computes, for each non-builtin segment, holes = size -
// accessed. builtinSegments names the segment indices to exclude (their
// cells are deduced, not "held" in the same accounting sense).
func (s *SegmentManager) MemoryHoles(builtinSegments map[int64]bool) (map[int64]uint64, error) {
	holes := make(map[int64]uint64)
	for i := int64(0); i < s.Memory.NumSegments(); i++ {
		if builtinSegments[i] {
			continue
		}
		size, err := s.sizeOf(i)
		if err != nil {
			continue
		}
		seg, _ := s.Memory.Segment(i)
		accessed := seg.AccessedCount()
		if accessed > size {
			return nil, fmt.Errorf("%w: segment %d has %d accessed cells but size %d", ErrSegmentHasMoreAccessedAddressesThanSize, i, accessed, size)
		}
		holes[i] = size - accessed
	}
	return holes, nil
}

// GenArg allocates a fresh segment and loads a sequence of values into it
// (felts, relocatables, or nested sequences recursively turned into
// pointers via GenArg, freely mixed), returning the segment's base pointer.
func (s *SegmentManager) GenArg(values []any) (core.MaybeRelocatable, error) {
	base := s.AddSegment()
	if _, err := s.WriteArg(base, values); err != nil {
		return core.MaybeRelocatable{}, err
	}
	return core.FromRelocatable(base), nil
}

// WriteArg writes a sequence of values, possibly of mixed kinds, starting at ptr,
// resolving nested []any values through GenArg, and returns ptr+len.
func (s *SegmentManager) WriteArg(ptr core.Relocatable, values []any) (core.Relocatable, error) {
	cur := ptr
	for _, raw := range values {
		var mr core.MaybeRelocatable
		switch v := raw.(type) {
		case core.Felt:
			mr = core.FromFelt(v)
		case core.Relocatable:
			mr = core.FromRelocatable(v)
		case core.MaybeRelocatable:
			mr = v
		case []any:
			nested, err := s.GenArg(v)
			if err != nil {
				return core.Relocatable{}, err
			}
			mr = nested
		default:
			return core.Relocatable{}, ErrWriteArg
		}
		if err := s.Memory.Set(cur, mr); err != nil {
			return core.Relocatable{}, err
		}
		next, err := cur.AddUint(1)
		if err != nil {
			return core.Relocatable{}, err
		}
		cur = next
	}
	return cur, nil
}
