package builtins

import (
	"errors"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
)

var ErrSegmentArenaInconsistent = errors.New("builtins: segment arena instance is structurally inconsistent")

// SegmentArena tracks dictionary segments allocated by the running program.
// Each instance is (info_ptr, n_segments, n_finalized); the builtin never
// deduces cells, it only checks structural consistency on write.
type SegmentArena struct {
	base
	infoSegment core.Relocatable
}

func NewSegmentArena(included bool) *SegmentArena {
	return &SegmentArena{base: base{cellsPer: 3, included: included}}
}

func (s *SegmentArena) Name() string { return "segment_arena" }

// InitSegments allocates both the arena segment and the info segment its
// first instance points at, then seeds the initial (info, 0, 0) triple.
func (s *SegmentArena) InitSegments(mgr *memory.SegmentManager) {
	s.infoSegment = mgr.AddSegment()
	s.segment = mgr.AddSegment()
	_, _ = mgr.LoadData(s.segment, []core.MaybeRelocatable{
		core.FromRelocatable(s.infoSegment),
		core.FromFelt(core.FeltZero()),
		core.FromFelt(core.FeltZero()),
	})
}

// InitialStack points callers past the seeded initial instance.
func (s *SegmentArena) InitialStack() []core.MaybeRelocatable {
	if !s.included {
		return nil
	}
	start, err := s.segment.AddUint(s.cellsPer)
	if err != nil {
		start = s.segment
	}
	return []core.MaybeRelocatable{core.FromRelocatable(start)}
}

func (s *SegmentArena) DeduceMemoryCell(core.Relocatable, *memory.Memory) (*core.MaybeRelocatable, error) {
	return nil, nil
}

// AddValidationRule enforces the structural invariants of a complete
// instance: the info pointer is a relocatable, both counters are felts, and
// n_finalized never exceeds n_segments.
func (s *SegmentArena) AddValidationRule(mem *memory.Memory) {
	segIdx := s.segment.SegmentIndex
	mem.AddValidationRule(segIdx, func(addr core.Relocatable, m *memory.Memory) ([]core.Relocatable, error) {
		instance, _ := s.instanceOffset(addr)

		infoV, err := m.Get(s.cellAddr(instance, 0))
		if err != nil {
			return nil, err
		}
		segV, err := m.Get(s.cellAddr(instance, 1))
		if err != nil {
			return nil, err
		}
		finV, err := m.Get(s.cellAddr(instance, 2))
		if err != nil {
			return nil, err
		}
		if infoV == nil || segV == nil || finV == nil {
			return []core.Relocatable{addr}, nil
		}

		if _, err := infoV.GetRelocatable(); err != nil {
			return nil, ErrSegmentArenaInconsistent
		}
		nSegments, err := segV.GetFelt()
		if err != nil {
			return nil, ErrSegmentArenaInconsistent
		}
		nFinalized, err := finV.GetFelt()
		if err != nil {
			return nil, ErrSegmentArenaInconsistent
		}
		if nFinalized.Cmp(nSegments) > 0 {
			return nil, ErrSegmentArenaInconsistent
		}
		return []core.Relocatable{addr}, nil
	})
}

func (s *SegmentArena) VerifyAutoDeductions(*memory.Memory) error { return nil }
