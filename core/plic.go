package core

// Platform-level interrupt controller (PLIC) of the U74-MC core complex.
// Every external interrupt source on the JH7110 is routed through it to the
// harts' external interrupt lines.

import (
	"errors"

	"visionfw/jh7110"
)

// Priority is a PLIC source priority or context threshold (3 bits)
type Priority uint32

const (
	PriorityDisabled Priority = iota // source never fires
	Priority1
	Priority2
	Priority3
	Priority4
	Priority5
	Priority6
	Priority7

	priorityMask = 0b111

	// RouteThreshold is the application context threshold EnableInterrupt
	// programs; routed sources need a priority above it
	RouteThreshold = Priority1
)

var (
	// ErrInvalidContext is returned for a hart/mode pair with no PLIC context
	ErrInvalidContext = errors.New("no PLIC context for hart/mode")

	// ErrInvalidSource is returned for source 0 or a source past the table
	ErrInvalidSource = errors.New("invalid interrupt source")

	// ErrPriorityMasked is returned when a source would be routed at or below
	// the application threshold and so could never fire
	ErrPriorityMasked = errors.New("priority at or below the routing threshold")
)

// PLIC is the register map of the interrupt router
type PLIC struct {
	Base uintptr
}

// NewPLIC returns the JH7110 PLIC
func NewPLIC() PLIC {
	return PLIC{Base: jh7110.PLICBase}
}

// context maps a hart/mode to its PLIC context number. Hart 0 only has an
// M-mode context; every other hart has M then S.
func plicContext(hart Hart, mode Mode) (uint32, error) {
	if hart >= NumHarts {
		return 0, ErrInvalidContext
	}
	if hart == Hart0 {
		if mode != MachineMode {
			return 0, ErrInvalidContext
		}
		return 0, nil
	}
	ctx := 2*uint32(hart) - 1
	if mode == SupervisorMode {
		ctx++
	}
	return ctx, nil
}

func validSource(source uint32) bool {
	return source != 0 && source < jh7110.NumInterrupts
}

func (p PLIC) priorityReg(source uint32) uintptr {
	return p.Base + jh7110.PLICPriorityOffset + 4*uintptr(source)
}

func (p PLIC) pendingReg(source uint32) uintptr {
	return p.Base + jh7110.PLICPendingOffset + 4*uintptr(source/32)
}

func (p PLIC) enableReg(ctx, source uint32) uintptr {
	return p.Base + jh7110.PLICEnableOffset + jh7110.PLICEnableStride*uintptr(ctx) + 4*uintptr(source/32)
}

func (p PLIC) thresholdReg(ctx uint32) uintptr {
	return p.Base + jh7110.PLICContextOffset + jh7110.PLICContextStride*uintptr(ctx) + jh7110.PLICThresholdOffset
}

func (p PLIC) claimReg(ctx uint32) uintptr {
	return p.Base + jh7110.PLICContextOffset + jh7110.PLICContextStride*uintptr(ctx) + jh7110.PLICClaimOffset
}

// SetPriority writes the priority of source. PriorityDisabled masks the
// source regardless of its enable bits.
func (p PLIC) SetPriority(source uint32, prio Priority) error {
	if !validSource(source) {
		return ErrInvalidSource
	}
	MustBus().Store32(p.priorityReg(source), uint32(prio)&priorityMask)
	return nil
}

// GetPriority reads back the priority of source
func (p PLIC) GetPriority(source uint32) Priority {
	if !validSource(source) {
		return PriorityDisabled
	}
	return Priority(MustBus().Load32(p.priorityReg(source)) & priorityMask)
}

// Enable sets the enable bit of source in the hart/mode context. Register
// index is source/32, bit is source%32.
func (p PLIC) Enable(hart Hart, mode Mode, source uint32) error {
	ctx, err := plicContext(hart, mode)
	if err != nil {
		return err
	}
	if !validSource(source) {
		return ErrInvalidSource
	}
	setBits(p.enableReg(ctx, source), 1<<(source%32))
	return nil
}

// Disable clears the enable bit of source in the hart/mode context
func (p PLIC) Disable(hart Hart, mode Mode, source uint32) error {
	ctx, err := plicContext(hart, mode)
	if err != nil {
		return err
	}
	if !validSource(source) {
		return ErrInvalidSource
	}
	clearBits(p.enableReg(ctx, source), 1<<(source%32))
	return nil
}

// IsEnabled reports the enable bit of source in the hart/mode context
func (p PLIC) IsEnabled(hart Hart, mode Mode, source uint32) bool {
	ctx, err := plicContext(hart, mode)
	if err != nil || !validSource(source) {
		return false
	}
	return MustBus().Load32(p.enableReg(ctx, source))&(1<<(source%32)) != 0
}

// SetThreshold masks every source with priority <= level for the context
func (p PLIC) SetThreshold(hart Hart, mode Mode, level Priority) error {
	ctx, err := plicContext(hart, mode)
	if err != nil {
		return err
	}
	MustBus().Store32(p.thresholdReg(ctx), uint32(level)&priorityMask)
	return nil
}

// Threshold reads back the context threshold
func (p PLIC) Threshold(hart Hart, mode Mode) Priority {
	ctx, err := plicContext(hart, mode)
	if err != nil {
		return PriorityDisabled
	}
	return Priority(MustBus().Load32(p.thresholdReg(ctx)) & priorityMask)
}

// Claim returns the highest priority pending source enabled for the context
// and marks it in service. The read clears the pending bit. Returns 0 when
// nothing is pending.
func (p PLIC) Claim(hart Hart, mode Mode) uint32 {
	ctx, err := plicContext(hart, mode)
	if err != nil {
		return 0
	}
	return MustBus().Load32(p.claimReg(ctx))
}

// Complete ends service of source so it can fire again
func (p PLIC) Complete(hart Hart, mode Mode, source uint32) {
	ctx, err := plicContext(hart, mode)
	if err != nil {
		return
	}
	MustBus().Store32(p.claimReg(ctx), source)
}

// IsPending reads the pending bit of source
func (p PLIC) IsPending(source uint32) bool {
	if !validSource(source) {
		return false
	}
	return MustBus().Load32(p.pendingReg(source))&(1<<(source%32)) != 0
}

// Flush drops a stale pending condition of source for the context. The PLIC
// has no pending-clear register: enabling the source and claiming it clears
// the bit, and the claim is completed straight away. Sources that are claimed
// instead of source are completed too so nothing is left in service.
func (p PLIC) Flush(hart Hart, mode Mode, source uint32) error {
	if err := p.Enable(hart, mode, source); err != nil {
		return err
	}
	for i := 0; i < jh7110.NumInterrupts && p.IsPending(source); i++ {
		id := p.Claim(hart, mode)
		if id == 0 {
			break
		}
		p.Complete(hart, mode, id)
	}
	return nil
}

// ClearAllEnables zeroes every enable word of every context
func (p PLIC) ClearAllEnables() {
	b := MustBus()
	words := uint32((jh7110.NumInterrupts + 31) / 32)
	for hart := Hart0; hart < NumHarts; hart++ {
		for _, mode := range [...]Mode{MachineMode, SupervisorMode} {
			ctx, err := plicContext(hart, mode)
			if err != nil {
				continue
			}
			for w := uint32(0); w < words; w++ {
				b.Store32(p.enableReg(ctx, w*32), 0)
			}
		}
	}
}

// ClearAllPriorities disables every source by priority
func (p PLIC) ClearAllPriorities() {
	b := MustBus()
	for source := uint32(1); source < jh7110.NumInterrupts; source++ {
		b.Store32(p.priorityReg(source), 0)
	}
}

// EnableInterrupt routes source to the application hart in M-mode: priority,
// enable, then a threshold of 1 so anything above Priority1 can fire. A
// priority that the threshold would mask is refused.
func (p PLIC) EnableInterrupt(source uint32, prio Priority) error {
	if prio&priorityMask <= RouteThreshold {
		return ErrPriorityMasked
	}
	if err := p.SetPriority(source, prio); err != nil {
		return err
	}
	if err := p.Enable(AppHart, MachineMode, source); err != nil {
		return err
	}
	return p.SetThreshold(AppHart, MachineMode, RouteThreshold)
}

// DumpEnables writes the non-zero enable words of every context
func (p PLIC) DumpEnables() {
	b := MustBus()
	words := uint32((jh7110.NumInterrupts + 31) / 32)
	debugPrintln("Interrupt Enable")
	for hart := Hart0; hart < NumHarts; hart++ {
		for _, mode := range [...]Mode{MachineMode, SupervisorMode} {
			ctx, err := plicContext(hart, mode)
			if err != nil {
				continue
			}
			for w := uint32(0); w < words; w++ {
				val := b.Load32(p.enableReg(ctx, w*32))
				if val == 0 {
					continue
				}
				debugPrintln("Hart: " + itoa(int(hart)) + mode.String() +
					", RegNum: " + utoa(w) + ", Value: " + hex32(val))
			}
		}
	}
}

// DumpPending writes every pending source with its priority
func (p PLIC) DumpPending() {
	for source := uint32(1); source < jh7110.NumInterrupts; source++ {
		if p.IsPending(source) {
			debugPrintln("Interrupt: " + utoa(source) + ", Pending, Priority: " +
				utoa(uint32(p.GetPriority(source))))
		}
	}
}
