package core

import "errors"

// Bus is the memory-mapped register interface every peripheral type goes
// through. Accesses are 32 bit wide and must not be merged, reordered or
// elided by the implementation.
type Bus interface {
	Load32(addr uintptr) uint32
	Store32(addr uintptr, value uint32)
}

// ErrNoBus is returned when a peripheral is used before SetBus.
var ErrNoBus = errors.New("register bus not configured")

// Global singleton used by the register types.
var bus Bus = defaultBus()

// SetBus replaces the register bus. Targets keep the volatile default; tests
// and the simulator install a sim.Bus.
func SetBus(b Bus) {
	bus = b
}

// MustBus returns the configured bus or panics if missing.
func MustBus() Bus {
	if bus == nil {
		panic(ErrNoBus)
	}
	return bus
}

// setBits performs a read-modify-write setting mask.
func setBits(addr uintptr, mask uint32) {
	b := MustBus()
	b.Store32(addr, b.Load32(addr)|mask)
}

// clearBits performs a read-modify-write clearing mask.
func clearBits(addr uintptr, mask uint32) {
	b := MustBus()
	b.Store32(addr, b.Load32(addr)&^mask)
}
