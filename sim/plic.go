package sim

import (
	"sync"

	"visionfw/jh7110"
)

const (
	plicSources  = jh7110.NumInterrupts
	plicWords    = (plicSources + 31) / 32
	plicContexts = 9 // hart 0 M, harts 1..4 M and S
)

// PLIC models the platform-level interrupt controller with level-triggered
// gateways: a source whose line is still asserted when it is completed
// becomes pending again.
type PLIC struct {
	mu sync.Mutex

	priority  [plicSources]uint32
	pending   [plicWords]uint32
	enable    [plicContexts][plicWords]uint32
	threshold [plicContexts]uint32
	inService [plicSources]bool
	line      [plicSources]bool

	claims    uint32
	completes uint32
}

// NewPLIC returns an idle controller
func NewPLIC() *PLIC {
	return &PLIC{}
}

// Read implements Device
func (p *PLIC) Read(offset uintptr) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case offset < jh7110.PLICPendingOffset:
		source := offset / 4
		if source < plicSources {
			return p.priority[source]
		}

	case offset < jh7110.PLICEnableOffset:
		word := (offset - jh7110.PLICPendingOffset) / 4
		if word < plicWords {
			return p.pending[word]
		}

	case offset < jh7110.PLICContextOffset:
		rel := offset - jh7110.PLICEnableOffset
		ctx, word := rel/jh7110.PLICEnableStride, (rel%jh7110.PLICEnableStride)/4
		if ctx < plicContexts && word < plicWords {
			return p.enable[ctx][word]
		}

	default:
		rel := offset - jh7110.PLICContextOffset
		ctx, reg := rel/jh7110.PLICContextStride, rel%jh7110.PLICContextStride
		if ctx < plicContexts {
			switch reg {
			case jh7110.PLICThresholdOffset:
				return p.threshold[ctx]
			case jh7110.PLICClaimOffset:
				return p.claim(int(ctx))
			}
		}
	}
	return 0
}

// Write implements Device
func (p *PLIC) Write(offset uintptr, value uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case offset < jh7110.PLICPendingOffset:
		source := offset / 4
		if source > 0 && source < plicSources {
			p.priority[source] = value & 7
		}

	case offset < jh7110.PLICEnableOffset:
		// pending bits are read-only

	case offset < jh7110.PLICContextOffset:
		rel := offset - jh7110.PLICEnableOffset
		ctx, word := rel/jh7110.PLICEnableStride, (rel%jh7110.PLICEnableStride)/4
		if ctx < plicContexts && word < plicWords {
			p.enable[ctx][word] = value
		}

	default:
		rel := offset - jh7110.PLICContextOffset
		ctx, reg := rel/jh7110.PLICContextStride, rel%jh7110.PLICContextStride
		if ctx < plicContexts {
			switch reg {
			case jh7110.PLICThresholdOffset:
				p.threshold[ctx] = value & 7
			case jh7110.PLICClaimOffset:
				p.complete(int(ctx), value)
			}
		}
	}
}

func (p *PLIC) isPending(source uint32) bool {
	return p.pending[source/32]&(1<<(source%32)) != 0
}

func (p *PLIC) setPending(source uint32, on bool) {
	if on {
		p.pending[source/32] |= 1 << (source % 32)
	} else {
		p.pending[source/32] &^= 1 << (source % 32)
	}
}

// claim picks the highest priority pending, enabled source above the
// threshold; ties go to the lowest source number.
func (p *PLIC) claim(ctx int) uint32 {
	var best, bestPrio uint32
	for source := uint32(1); source < plicSources; source++ {
		if !p.isPending(source) {
			continue
		}
		if p.enable[ctx][source/32]&(1<<(source%32)) == 0 {
			continue
		}
		prio := p.priority[source]
		if prio <= p.threshold[ctx] {
			continue
		}
		if prio > bestPrio {
			best, bestPrio = source, prio
		}
	}
	if best != 0 {
		p.setPending(best, false)
		p.inService[best] = true
		p.claims++
	}
	return best
}

func (p *PLIC) complete(ctx int, source uint32) {
	if source == 0 || source >= plicSources {
		return
	}
	if p.enable[ctx][source/32]&(1<<(source%32)) == 0 {
		return // completion for a source not enabled on this context is ignored
	}
	p.completes++
	p.inService[source] = false
	if p.line[source] {
		p.setPending(source, true)
	}
}

// SetLine drives the interrupt line of source from its device
func (p *PLIC) SetLine(source uint32, asserted bool) {
	if source == 0 || source >= plicSources {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.line[source] = asserted
	if asserted && !p.inService[source] {
		p.setPending(source, true)
	}
}

// Trigger latches source pending without a device line, like a single
// edge-triggered event.
func (p *PLIC) Trigger(source uint32) {
	if source == 0 || source >= plicSources {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.inService[source] {
		p.setPending(source, true)
	}
}

// Pending reports whether source is pending
func (p *PLIC) Pending(source uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return source < plicSources && p.isPending(source)
}

// InService reports whether source was claimed and not yet completed
func (p *PLIC) InService(source uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return source < plicSources && p.inService[source]
}

// Counts returns the number of successful claims and completes
func (p *PLIC) Counts() (claims, completes uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claims, p.completes
}

// AnyPending reports whether any source is pending
func (p *PLIC) AnyPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.pending {
		if w != 0 {
			return true
		}
	}
	return false
}
