package runner

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/builtins"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/memory"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/program"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/vm"
)

// CairoRunner owns the whole lifecycle of one program run: segment setup,
// builtin instantiation, VM stepping, post-run verification, and
// relocation.
type CairoRunner struct {
	prog   *program.Program
	cfg    *Config
	layout Layout

	mgr      *memory.SegmentManager
	machine  *vm.CairoVM
	builtins []vm.BuiltinRunner
	load     vm.LoadResult

	initialized     bool
	endRunCalled    bool
	stacksFinalized bool

	relocator *vm.Relocator
	base      []uint64
}

// stepTracker is the ResourceTracker backing Config.MaxSteps.
type stepTracker struct {
	remaining uint64
}

func (t *stepTracker) ConsumeStep() bool {
	if t.remaining == 0 {
		return true
	}
	t.remaining--
	return false
}

// New validates the program's builtin list against the layout and returns
// an uninitialized runner.
func New(prog *program.Program, cfg *Config) (*CairoRunner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	layout, err := LayoutByName(cfg.LayoutName)
	if err != nil {
		return nil, err
	}
	if err := program.ValidateBuiltinOrder(prog.Builtins); err != nil {
		return nil, err
	}
	if !cfg.AllowMissingBuiltins {
		for _, b := range prog.Builtins {
			if !layout.Supports(b) {
				return nil, fmt.Errorf("%w: %s not in layout %s", ErrNoBuiltinForInstance, b, layout.Name)
			}
		}
	}
	return &CairoRunner{prog: prog, cfg: cfg, layout: layout}, nil
}

func newBuiltinRunner(name program.BuiltinName, included bool) (vm.BuiltinRunner, error) {
	switch name {
	case program.BuiltinOutput:
		return builtins.NewOutput(included), nil
	case program.BuiltinPedersen:
		return builtins.NewPedersen(included), nil
	case program.BuiltinRangeCheck:
		return builtins.NewRangeCheck(included), nil
	case program.BuiltinECDSA:
		return builtins.NewECDSA(included), nil
	case program.BuiltinBitwise:
		return builtins.NewBitwise(included), nil
	case program.BuiltinECOp:
		return builtins.NewECOp(included), nil
	case program.BuiltinKeccak:
		return builtins.NewKeccak(included), nil
	case program.BuiltinPoseidon:
		return builtins.NewPoseidon(included), nil
	case program.BuiltinSegmentArena:
		return builtins.NewSegmentArena(included), nil
	default:
		return nil, fmt.Errorf("runner: unknown builtin %q", name)
	}
}

// buildBuiltins instantiates runners in canonical order. Execution mode
// creates only what the program requests; proof mode creates every builtin
// of the layout so the AIR sees a uniform segment set, marking as included
// only the ones the program uses.
func (r *CairoRunner) buildBuiltins() error {
	requested := make(map[program.BuiltinName]bool, len(r.prog.Builtins))
	for _, b := range r.prog.Builtins {
		requested[b] = true
	}

	for _, name := range program.CanonicalOrder {
		included := requested[name]
		create := included
		if r.cfg.Mode != ModeExecution && name != program.BuiltinSegmentArena {
			create = create || contains(r.layout.Builtins, name)
		}
		if !create {
			continue
		}
		b, err := newBuiltinRunner(name, included)
		if err != nil {
			return err
		}
		r.builtins = append(r.builtins, b)
	}
	return nil
}

func contains(list []program.BuiltinName, name program.BuiltinName) bool {
	for _, b := range list {
		if b == name {
			return true
		}
	}
	return false
}

// Initialize allocates segments, loads the program, writes the entry stack
// for the configured run mode, and constructs the VM.
func (r *CairoRunner) Initialize() error {
	if err := r.buildBuiltins(); err != nil {
		return err
	}

	r.mgr = memory.NewSegmentManager()
	progBase := r.mgr.AddSegment()
	execBase := r.mgr.AddSegment()

	for _, b := range r.builtins {
		b.InitSegments(r.mgr)
		b.AddValidationRule(r.mgr.Memory)
	}

	var stacks [][]core.MaybeRelocatable
	for _, b := range r.builtins {
		stacks = append(stacks, b.InitialStack())
	}

	var err error
	switch r.cfg.Mode {
	case ModeExecution:
		main := r.prog.Main
		if r.cfg.EntrypointOffset != nil {
			main = r.cfg.EntrypointOffset
		}
		if main == nil {
			return ErrMissingMain
		}
		var flat []core.MaybeRelocatable
		for _, s := range stacks {
			flat = append(flat, s...)
		}
		r.load, err = vm.LoadExecutionMode(r.mgr, progBase, execBase, r.prog.Data, *main, flat)
	case ModeProof:
		if r.prog.Start == nil {
			return ErrNoProgramStart
		}
		if r.prog.End == nil {
			return ErrNoProgramEnd
		}
		r.load, err = vm.LoadProofMode(r.mgr, progBase, execBase, r.prog.Data, *r.prog.Start, *r.prog.End, stacks)
	case ModeProofCairo1:
		r.load, err = vm.LoadProofModeCairo1(r.mgr, progBase, execBase, r.prog.Data, stacks)
	}
	if err != nil {
		return err
	}

	if err := r.mgr.Memory.ValidateExistingMemory(); err != nil {
		return err
	}

	var tracker vm.ResourceTracker
	if r.cfg.MaxSteps > 0 {
		tracker = &stepTracker{remaining: r.cfg.MaxSteps}
	}

	r.machine = vm.NewCairoVM(r.prog, r.builtins, r.mgr, vm.Config{
		TraceEnabled: r.cfg.TraceEnabled,
		DispatchMode: vm.DispatchNonExtensive,
		Resources:    tracker,
	})
	r.machine.ProgramBase = r.load.ProgramBase
	r.machine.RunContext = vm.RunContext{
		PC: r.load.InitialPC,
		AP: r.load.InitialAP,
		FP: r.load.InitialFP,
	}

	r.initialized = true
	return nil
}

// Run steps the VM until PC reaches the run's end address. Failures are
// annotated with the step count, the PC, and any source location or error
// message attribute the program carries for that address.
func (r *CairoRunner) Run() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if err := r.machine.Run(r.load.End); err != nil {
		return r.annotateError(err)
	}
	return nil
}

func (r *CairoRunner) annotateError(err error) error {
	pc := r.machine.RunContext.PC
	err = fmt.Errorf("step %d, pc %s: %w", r.machine.StepCount(), pc, err)
	if pc.SegmentIndex != r.load.ProgramBase.SegmentIndex {
		return err
	}
	offset := pc.Offset - r.load.ProgramBase.Offset
	for _, attr := range r.prog.ErrorMessageAttributes {
		if attr.StartPC <= offset && offset < attr.EndPC {
			err = fmt.Errorf("%s: %w", attr.Message, err)
			break
		}
	}
	if loc, ok := r.prog.InstructionLocations[offset]; ok {
		err = fmt.Errorf("%s:%d:%d: %w", loc.File, loc.Line, loc.Column, err)
	}
	return err
}

// EndRun performs the post-run obligations exactly once: auto-deduction
// verification, effective-size computation, proof-mode public memory
// finalization, and the layout's cell budget checks.
func (r *CairoRunner) EndRun() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if r.endRunCalled {
		return ErrEndRunAlreadyCalled
	}
	r.endRunCalled = true

	if err := r.machine.VerifyAutoDeductions(); err != nil {
		return err
	}
	if err := r.mgr.Memory.RelocateTemporarySegments(); err != nil {
		return err
	}
	r.mgr.ComputeEffectiveSize(false)

	if r.cfg.Mode != ModeExecution {
		progLen := r.prog.Len()
		progPublic := make([]memory.PublicMemoryEntry, 0, progLen)
		for off := uint64(0); off < progLen; off++ {
			progPublic = append(progPublic, memory.PublicMemoryEntry{Offset: off, PageID: 0})
		}
		if err := r.mgr.Finalize(r.load.ProgramBase.SegmentIndex, &progLen, progPublic); err != nil {
			return err
		}

		execPublic := make([]memory.PublicMemoryEntry, 0, r.load.StackPrefixLen)
		for off := uint64(0); off < r.load.StackPrefixLen; off++ {
			execPublic = append(execPublic, memory.PublicMemoryEntry{Offset: off, PageID: 0})
		}
		if err := r.mgr.Finalize(r.load.ExecutionBase.SegmentIndex, nil, execPublic); err != nil {
			return err
		}
	}

	return r.checkUsedCells()
}

// checkUsedCells enforces the layout's per-step cell budgets.
func (r *CairoRunner) checkUsedCells() error {
	steps := r.machine.StepCount()
	if steps == 0 {
		return nil
	}

	var rcUsed uint64
	for _, b := range r.builtins {
		n, err := b.GetUsedPermRangeCheckUnits(r.mgr.Memory)
		if err != nil {
			return err
		}
		rcUsed += n
	}
	if rcUsed > r.layout.RcUnitsPerStep*steps {
		return fmt.Errorf("%w: used %d, budget %d", ErrInsufficientAllocatedCellsRangeCheck, rcUsed, r.layout.RcUnitsPerStep*steps)
	}

	holes, err := r.mgr.MemoryHoles(r.machine.BuiltinSegmentIndices())
	if err != nil {
		return err
	}
	var totalHoles uint64
	for _, h := range holes {
		totalHoles += h
	}
	if totalHoles > r.layout.MemoryUnitsPerStep*steps {
		return fmt.Errorf("%w: %d holes, budget %d", ErrInsufficientAllocatedCellsMemory, totalHoles, r.layout.MemoryUnitsPerStep*steps)
	}
	return nil
}

// FinalizeBuiltinStacks consumes each included builtin's stop pointer from
// the stack the program left at AP, in reverse builtin order. It runs at
// most once; later calls are no-ops.
func (r *CairoRunner) FinalizeBuiltinStacks() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if r.stacksFinalized {
		return nil
	}
	ptr := r.machine.RunContext.AP
	for i := len(r.builtins) - 1; i >= 0; i-- {
		if len(r.builtins[i].InitialStack()) == 0 {
			continue
		}
		next, err := r.builtins[i].FinalStack(r.mgr, ptr)
		if err != nil {
			return err
		}
		ptr = next
	}
	r.stacksFinalized = true
	return nil
}

// Relocate flattens memory and (when tracing) the trace. It may run only
// once; the relocator enforces that.
func (r *CairoRunner) Relocate() error {
	if !r.endRunCalled {
		if err := r.EndRun(); err != nil {
			return err
		}
	}

	base, err := r.mgr.RelocateSegments()
	if err != nil {
		return err
	}
	r.base = base
	r.relocator = vm.NewRelocator(r.mgr)

	if _, err := r.relocator.RelocateMemory(base); err != nil {
		return err
	}
	if r.cfg.TraceEnabled {
		trace, err := r.machine.Trace()
		if err != nil {
			return err
		}
		if _, err := r.relocator.RelocateTrace(trace, base); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{"segments": len(base), "steps": r.machine.StepCount()}).Debug("relocation complete")
	return nil
}

// RelocatedMemory returns the flat memory produced by Relocate.
func (r *CairoRunner) RelocatedMemory() ([]vm.RelocatedMemoryCell, error) {
	if r.relocator == nil {
		return nil, vm.ErrMemoryNotRelocated
	}
	return r.relocator.RelocatedMemory()
}

// RelocatedTrace returns the flat trace produced by Relocate.
func (r *CairoRunner) RelocatedTrace() ([]vm.RelocatedTraceEntry, error) {
	if r.relocator == nil {
		return nil, vm.ErrTraceNotRelocated
	}
	return r.relocator.RelocatedTrace()
}

// PublicMemoryAddresses resolves the finalized public memory against the
// base table computed by Relocate.
func (r *CairoRunner) PublicMemoryAddresses() ([][2]uint64, error) {
	if r.base == nil {
		return nil, vm.ErrMemoryNotRelocated
	}
	return r.mgr.GetPublicMemoryAddresses(r.base)
}

// SegmentSpan is one builtin's flat address range in the AIR public input.
type SegmentSpan struct {
	Begin uint64
	End   uint64
}

// AirPublicInput is the builtin segment info plus public-memory addresses
// handed to the prover; the prover's exact field layout is its own
// contract.
type AirPublicInput struct {
	Layout       string
	Segments     map[string]SegmentSpan
	PublicMemory [][2]uint64
}

// GetAirPublicInput assembles the public input after Relocate. It first
// consumes the builtin stop pointers the program left on its final stack,
// so each span's end reflects where the program actually stopped; builtins
// without a stop pointer fall back to their segment's used size.
func (r *CairoRunner) GetAirPublicInput() (*AirPublicInput, error) {
	if err := r.FinalizeBuiltinStacks(); err != nil {
		return nil, err
	}
	public, err := r.PublicMemoryAddresses()
	if err != nil {
		return nil, err
	}
	segments := make(map[string]SegmentSpan, len(r.builtins))
	for _, b := range r.builtins {
		baseAddr, stop := b.GetMemorySegmentAddresses()
		if baseAddr.SegmentIndex < 0 || baseAddr.SegmentIndex >= int64(len(r.base)) {
			continue
		}
		begin := r.base[baseAddr.SegmentIndex]
		end := begin
		if stop != nil {
			end = begin + stop.Offset
		} else if seg, serr := r.mgr.Memory.Segment(baseAddr.SegmentIndex); serr == nil {
			end = begin + seg.UsedSize()
		}
		segments[b.Name()] = SegmentSpan{Begin: begin, End: end}
	}
	return &AirPublicInput{Layout: r.layout.Name, Segments: segments, PublicMemory: public}, nil
}

// VM exposes the underlying machine, mainly for hints and tests.
func (r *CairoRunner) VM() *vm.CairoVM { return r.machine }

// Segments exposes the segment manager, mainly for hints and tests.
func (r *CairoRunner) Segments() *memory.SegmentManager { return r.mgr }

// Builtins returns the instantiated builtin runners in canonical order.
func (r *CairoRunner) Builtins() []vm.BuiltinRunner { return r.builtins }

// StepCount reports the number of executed steps.
func (r *CairoRunner) StepCount() uint64 {
	if r.machine == nil {
		return 0
	}
	return r.machine.StepCount()
}
