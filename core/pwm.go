// PWM support for the JH7110 PTC block (OpenCores PTC compatible)
// Eight channels, each a counter compared against HRC (output goes low) and
// LRC (period end).
package core

import (
	"visionfw/jh7110"
)

// PTC is the register map of one PTC channel
type PTC struct {
	Base    uintptr
	Channel uint32
}

// NewPTC returns JH7110 PTC channel ch
func NewPTC(ch uint32) PTC {
	return PTC{Base: jh7110.PTCBase, Channel: ch}
}

func (p PTC) reg(offset uintptr) uintptr {
	return p.Base + jh7110.PTCChannelStride*uintptr(p.Channel) + offset
}

// IRQ returns the PLIC source of the channel
func (p PTC) IRQ() uint32 {
	return jh7110.IRQPTC0 + p.Channel
}

// Counter reads CNTR
func (p PTC) Counter() uint32 {
	return MustBus().Load32(p.reg(jh7110.PTCCntrOffset))
}

// SetCounter writes CNTR
func (p PTC) SetCounter(v uint32) {
	MustBus().Store32(p.reg(jh7110.PTCCntrOffset), v)
}

// HighRef reads HRC, the count at which the output goes low
func (p PTC) HighRef() uint32 {
	return MustBus().Load32(p.reg(jh7110.PTCHrcOffset))
}

// SetHighRef writes HRC
func (p PTC) SetHighRef(v uint32) {
	MustBus().Store32(p.reg(jh7110.PTCHrcOffset), v)
}

// LowRef reads LRC, the count that ends the period
func (p PTC) LowRef() uint32 {
	return MustBus().Load32(p.reg(jh7110.PTCLrcOffset))
}

// SetLowRef writes LRC
func (p PTC) SetLowRef(v uint32) {
	MustBus().Store32(p.reg(jh7110.PTCLrcOffset), v)
}

// Ctrl reads CTRL
func (p PTC) Ctrl() uint32 {
	return MustBus().Load32(p.reg(jh7110.PTCCtrlOffset))
}

// SetCtrl writes CTRL
func (p PTC) SetCtrl(v uint32) {
	MustBus().Store32(p.reg(jh7110.PTCCtrlOffset), v)
}

// SetCtrlBits sets bits in CTRL
func (p PTC) SetCtrlBits(mask uint32) {
	setBits(p.reg(jh7110.PTCCtrlOffset), mask)
}

// ClearCtrlBits clears bits in CTRL
func (p PTC) ClearCtrlBits(mask uint32) {
	clearBits(p.reg(jh7110.PTCCtrlOffset), mask)
}

// Configure sets up a free-running channel: period and high time, output
// driver on, match interrupt enabled, counter out of reset.
func (p PTC) Configure(period, high uint32) {
	p.SetCtrl(0)
	p.SetLowRef(period)
	p.SetHighRef(high)
	p.SetCounter(0)
	p.SetCtrl(jh7110.PTCCtrlEN | jh7110.PTCCtrlOE | jh7110.PTCCtrlINTE)
}

// ResetCounter zeroes the counter and pulses CNTRRST
func (p PTC) ResetCounter() {
	p.SetCounter(0)
	p.SetCtrlBits(jh7110.PTCCtrlCNTRRST)
	p.ClearCtrlBits(jh7110.PTCCtrlCNTRRST)
}

// SetOneShot arms (true) or clears single mode
func (p PTC) SetOneShot(single bool) {
	if single {
		p.SetCtrlBits(jh7110.PTCCtrlSINGLE)
	} else {
		p.ClearCtrlBits(jh7110.PTCCtrlSINGLE)
	}
}

// OneShot reports whether single mode is armed
func (p PTC) OneShot() bool {
	return p.Ctrl()&jh7110.PTCCtrlSINGLE != 0
}

// IntPending reports the INT bit
func (p PTC) IntPending() bool {
	return p.Ctrl()&jh7110.PTCCtrlINT != 0
}

// ClearInterrupt clears the INT bit
func (p PTC) ClearInterrupt() {
	p.ClearCtrlBits(jh7110.PTCCtrlINT)
}
