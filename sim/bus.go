// Package sim models the parts of the JH7110 the firmware core touches, so
// the core can run and be tested on a host. Register semantics follow the
// datasheet closely enough to catch ordering mistakes: claims clear pending
// bits, GPIO edges only clear on a 0 to 1 transition of the clear bit, PTC
// one-shot mode stops the counter.
package sim

import (
	"sort"
	"sync"
)

// Device is a memory-mapped peripheral model addressed by offset
type Device interface {
	Read(offset uintptr) uint32
	Write(offset uintptr, value uint32)
}

// Access is one recorded register store
type Access struct {
	Addr  uintptr
	Value uint32
}

type region struct {
	base uintptr
	size uintptr
	dev  Device
}

// Bus routes 32-bit accesses to devices. Addresses no device claims behave
// as plain memory.
type Bus struct {
	mu      sync.Mutex
	regions []region
	mem     map[uintptr]uint32
	trace   []Access
	tracing bool
}

// NewBus returns an empty bus
func NewBus() *Bus {
	return &Bus{mem: make(map[uintptr]uint32)}
}

// Map places dev at [base, base+size)
func (b *Bus) Map(base, size uintptr, dev Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regions = append(b.regions, region{base: base, size: size, dev: dev})
	sort.Slice(b.regions, func(i, j int) bool { return b.regions[i].base < b.regions[j].base })
}

func (b *Bus) find(addr uintptr) (Device, uintptr, bool) {
	for _, r := range b.regions {
		if addr >= r.base && addr < r.base+r.size {
			return r.dev, addr - r.base, true
		}
	}
	return nil, 0, false
}

// Load32 implements core.Bus
func (b *Bus) Load32(addr uintptr) uint32 {
	b.mu.Lock()
	dev, off, ok := b.find(addr)
	if !ok {
		v := b.mem[addr]
		b.mu.Unlock()
		return v
	}
	b.mu.Unlock()
	return dev.Read(off)
}

// Store32 implements core.Bus
func (b *Bus) Store32(addr uintptr, value uint32) {
	b.mu.Lock()
	if b.tracing {
		b.trace = append(b.trace, Access{Addr: addr, Value: value})
	}
	dev, off, ok := b.find(addr)
	if !ok {
		b.mem[addr] = value
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	dev.Write(off, value)
}

// StartTrace clears the store log and starts recording
func (b *Bus) StartTrace() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trace = b.trace[:0]
	b.tracing = true
}

// Trace returns a copy of the recorded stores
func (b *Bus) Trace() []Access {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Access, len(b.trace))
	copy(out, b.trace)
	return out
}

// StoresTo returns the values written to addr, in order
func (b *Bus) StoresTo(addr uintptr) []uint32 {
	var out []uint32
	for _, a := range b.Trace() {
		if a.Addr == addr {
			out = append(out, a.Value)
		}
	}
	return out
}
