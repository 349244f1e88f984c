package sim

import (
	"sync"

	"visionfw/jh7110"
)

// GPIOSize is the mapped size of the SYS_IOMUX model
const GPIOSize = 0x1000

// GPIO models the SYS_IOMUX output selectors, the synchronized inputs and the
// edge interrupt block. Level-sensitive mode is not modeled.
type GPIO struct {
	mu   sync.Mutex
	plic *PLIC
	irq  uint32

	regs   map[uintptr]uint32 // plain read/write registers
	levels [2]uint32          // pin input levels, per block
	ris    [2]uint32          // latched edges

	clears [2]uint32 // edges cleared through the IC register
}

// NewGPIO returns a GPIO block raising irq on plic
func NewGPIO(plic *PLIC, irq uint32) *GPIO {
	return &GPIO{plic: plic, irq: irq, regs: make(map[uintptr]uint32)}
}

func blockOf(offset, base uintptr) (uint32, bool) {
	if offset == base {
		return 0, true
	}
	if offset == base+jh7110.GPIOBlockStride {
		return 1, true
	}
	return 0, false
}

func (g *GPIO) mis(block uint32) uint32 {
	return g.ris[block] & g.regs[jh7110.GPIOIEOffset+uintptr(block)*jh7110.GPIOBlockStride]
}

// Read implements Device
func (g *GPIO) Read(offset uintptr) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := blockOf(offset, jh7110.GPIORISOffset); ok {
		return g.ris[b]
	}
	if b, ok := blockOf(offset, jh7110.GPIOMISOffset); ok {
		return g.mis(b)
	}
	if b, ok := blockOf(offset, jh7110.GPIOSyncOffset); ok {
		return g.levels[b]
	}
	return g.regs[offset]
}

// Write implements Device
func (g *GPIO) Write(offset uintptr, value uint32) {
	g.mu.Lock()
	if b, ok := blockOf(offset, jh7110.GPIOICOffset); ok {
		// Only a 0 to 1 transition of a clear bit drops the edge
		rising := ^g.regs[offset] & value
		cleared := g.ris[b] & rising
		g.ris[b] &^= rising
		g.clears[b] |= cleared
	}
	switch offset {
	case jh7110.GPIORISOffset, jh7110.GPIORISOffset + jh7110.GPIOBlockStride,
		jh7110.GPIOMISOffset, jh7110.GPIOMISOffset + jh7110.GPIOBlockStride,
		jh7110.GPIOSyncOffset, jh7110.GPIOSyncOffset + jh7110.GPIOBlockStride:
		// read-only
	default:
		g.regs[offset] = value
	}
	asserted := g.lineLocked()
	g.mu.Unlock()
	g.plic.SetLine(g.irq, asserted)
}

func (g *GPIO) lineLocked() bool {
	if g.regs[jh7110.GPIOENOffset]&1 == 0 {
		return false
	}
	return g.mis(0) != 0 || g.mis(1) != 0
}

// SetLevel drives an input pin. A change latches an edge when the pin is
// configured for it.
func (g *GPIO) SetLevel(pin uint32, high bool) {
	g.mu.Lock()
	block, mask := pin/32, uint32(1)<<(pin%32)
	old := g.levels[block]&mask != 0
	if high {
		g.levels[block] |= mask
	} else {
		g.levels[block] &^= mask
	}
	if old != high {
		stride := uintptr(block) * jh7110.GPIOBlockStride
		edgeMode := g.regs[jh7110.GPIOISOffset+stride]&mask != 0
		both := g.regs[jh7110.GPIOIBEOffset+stride]&mask != 0
		rising := g.regs[jh7110.GPIOIEVOffset+stride]&mask != 0
		if edgeMode && (both || rising == high) {
			g.ris[block] |= mask
		}
	}
	asserted := g.lineLocked()
	g.mu.Unlock()
	g.plic.SetLine(g.irq, asserted)
}

// Level reads back an input pin
func (g *GPIO) Level(pin uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin/32]&(1<<(pin%32)) != 0
}

// EdgePending reports a latched, uncleared edge on pin
func (g *GPIO) EdgePending(pin uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ris[pin/32]&(1<<(pin%32)) != 0
}

// Cleared reports whether an edge on pin was ever cleared through IC
func (g *GPIO) Cleared(pin uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clears[pin/32]&(1<<(pin%32)) != 0
}

func (g *GPIO) selector(bank uintptr, pin uint32) uint32 {
	reg := bank + 4*uintptr(pin/4)
	return (g.regs[reg] >> ((pin % 4) * 8)) & 0xff
}

// Output reports whether pin is driven and its driven value
func (g *GPIO) Output(pin uint32) (driven, high bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selector(jh7110.GPODoenOffset, pin) == 0, g.selector(jh7110.GPODoutOffset, pin) == 1
}
