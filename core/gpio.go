// GPIO support for the JH7110 SYS_IOMUX block
// Output select, synchronized input and the edge interrupt registers
package core

import (
	"errors"

	"visionfw/jh7110"
)

// ErrInvalidPin is returned for a pin outside 0..63
var ErrInvalidPin = errors.New("invalid GPIO pin")

// GPIO output value selectors (GPO_DOUT function numbers)
const (
	gpoLow  = 0
	gpoHigh = 1

	// GPO_DOEN selectors
	gpoEnable  = 0
	gpoDisable = 1
)

// SysGPIO is the register map of the SYS_IOMUX GPIO block
type SysGPIO struct {
	Base uintptr
}

// NewSysGPIO returns the JH7110 SYS_IOMUX GPIO block
func NewSysGPIO() SysGPIO {
	return SysGPIO{Base: jh7110.SysIOMUXBase}
}

// pinBlock splits a pin into its 32-bit block index and bit mask
func pinBlock(pin GPIOPin) (block uint32, mask uint32) {
	return uint32(pin) / 32, 1 << (uint32(pin) % 32)
}

func (g SysGPIO) blockReg(offset uintptr, block uint32) uintptr {
	return g.Base + offset + jh7110.GPIOBlockStride*uintptr(block)
}

// setSelector writes the 8-bit function selector of pin in a DOEN/DOUT bank
func (g SysGPIO) setSelector(bank uintptr, pin GPIOPin, value uint32) {
	b := MustBus()
	reg := g.Base + bank + 4*uintptr(pin/4)
	shift := (uint32(pin) % 4) * 8
	cur := b.Load32(reg)
	cur = cur&^(0xff<<shift) | (value&0xff)<<shift
	b.Store32(reg, cur)
}

// ConfigureOutput enables the output driver with the pin low
func (g SysGPIO) ConfigureOutput(pin GPIOPin) error {
	if pin >= jh7110.NumGPIO {
		return ErrInvalidPin
	}
	g.setSelector(jh7110.GPODoutOffset, pin, gpoLow)
	g.setSelector(jh7110.GPODoenOffset, pin, gpoEnable)
	return nil
}

// ConfigureInput disables the output driver
func (g SysGPIO) ConfigureInput(pin GPIOPin) error {
	if pin >= jh7110.NumGPIO {
		return ErrInvalidPin
	}
	g.setSelector(jh7110.GPODoenOffset, pin, gpoDisable)
	return nil
}

// SetPin drives an output pin
func (g SysGPIO) SetPin(pin GPIOPin, value bool) error {
	if pin >= jh7110.NumGPIO {
		return ErrInvalidPin
	}
	sel := uint32(gpoLow)
	if value {
		sel = gpoHigh
	}
	g.setSelector(jh7110.GPODoutOffset, pin, sel)
	return nil
}

// ReadPin samples the synchronized input value
func (g SysGPIO) ReadPin(pin GPIOPin) bool {
	if pin >= jh7110.NumGPIO {
		return false
	}
	block, mask := pinBlock(pin)
	return g.SyncValue(block)&mask != 0
}

// ConfigureEdgeInterrupt makes pin interrupt on both edges and unmasks it.
// A stale edge latched before this call is cleared first.
func (g SysGPIO) ConfigureEdgeInterrupt(pin GPIOPin) error {
	if pin >= jh7110.NumGPIO {
		return ErrInvalidPin
	}
	block, mask := pinBlock(pin)
	setBits(g.blockReg(jh7110.GPIOISOffset, block), mask)   // edge sensitive
	setBits(g.blockReg(jh7110.GPIOIBEOffset, block), mask)  // both edges
	g.ClearEdges(block, mask)
	setBits(g.blockReg(jh7110.GPIOIEOffset, block), mask) // unmask
	return nil
}

// EnableInterrupts sets the global GPIO interrupt enable
func (g SysGPIO) EnableInterrupts() {
	MustBus().Store32(g.Base+jh7110.GPIOENOffset, 1)
}

// MaskedStatus reads the masked interrupt status of a block
func (g SysGPIO) MaskedStatus(block uint32) uint32 {
	return MustBus().Load32(g.blockReg(jh7110.GPIOMISOffset, block))
}

// SyncValue reads the synchronized input value of a block
func (g SysGPIO) SyncValue(block uint32) uint32 {
	return MustBus().Load32(g.blockReg(jh7110.GPIOSyncOffset, block))
}

// ClearEdges clears the edge-pending condition of the bits in mask. The clear
// register needs the bits written 0 then 1; a lone write of 1 does not clear
// on this part.
func (g SysGPIO) ClearEdges(block uint32, mask uint32) {
	if mask == 0 {
		return
	}
	reg := g.blockReg(jh7110.GPIOICOffset, block)
	clearBits(reg, mask)
	setBits(reg, mask)
}
