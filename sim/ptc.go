package sim

import (
	"sync"

	"visionfw/jh7110"
)

// PTCSize is the mapped size of the PTC model
const PTCSize = jh7110.PTCChannelStride * jh7110.NumPTC

type ptcChannel struct {
	cntr, hrc, lrc, ctrl uint32
	pulses               uint32
}

// PTC models the OpenCores-compatible PWM block. The counter does not run on
// its own; Match and RunPeriod move it to the points where the hardware
// raises its interrupt.
type PTC struct {
	mu       sync.Mutex
	plic     *PLIC
	channels [jh7110.NumPTC]ptcChannel
}

// NewPTC returns a PTC block raising its interrupts on plic
func NewPTC(plic *PLIC) *PTC {
	return &PTC{plic: plic}
}

// Read implements Device
func (p *PTC) Read(offset uintptr) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, reg := int(offset/jh7110.PTCChannelStride), offset%jh7110.PTCChannelStride
	if ch >= jh7110.NumPTC {
		return 0
	}
	c := &p.channels[ch]
	switch reg {
	case jh7110.PTCCntrOffset:
		return c.cntr
	case jh7110.PTCHrcOffset:
		return c.hrc
	case jh7110.PTCLrcOffset:
		return c.lrc
	case jh7110.PTCCtrlOffset:
		return c.ctrl
	}
	return 0
}

// Write implements Device
func (p *PTC) Write(offset uintptr, value uint32) {
	p.mu.Lock()
	ch, reg := int(offset/jh7110.PTCChannelStride), offset%jh7110.PTCChannelStride
	if ch >= jh7110.NumPTC {
		p.mu.Unlock()
		return
	}
	c := &p.channels[ch]
	switch reg {
	case jh7110.PTCCntrOffset:
		c.cntr = value
	case jh7110.PTCHrcOffset:
		c.hrc = value
	case jh7110.PTCLrcOffset:
		c.lrc = value
	case jh7110.PTCCtrlOffset:
		// INT is set by hardware only; software can clear it
		intr := c.ctrl & value & jh7110.PTCCtrlINT
		c.ctrl = value&^jh7110.PTCCtrlINT | intr
		if value&jh7110.PTCCtrlCNTRRST != 0 {
			c.cntr = 0
		}
	}
	asserted := c.lineLocked()
	p.mu.Unlock()
	p.plic.SetLine(jh7110.IRQPTC0+uint32(ch), asserted)
}

func (c *ptcChannel) lineLocked() bool {
	return c.ctrl&jh7110.PTCCtrlINT != 0 && c.ctrl&jh7110.PTCCtrlINTE != 0
}

// Match moves channel ch's counter to cntr and raises the match interrupt as
// the hardware does when the counter hits HRC or LRC. Reaching LRC counts a
// pulse; in single mode it also stops the counter. A stopped channel does
// nothing and reports false.
func (p *PTC) Match(ch int, cntr uint32) bool {
	p.mu.Lock()
	c := &p.channels[ch]
	if c.ctrl&jh7110.PTCCtrlEN == 0 {
		p.mu.Unlock()
		return false
	}
	c.cntr = cntr
	if cntr == c.lrc {
		c.pulses++
		if c.ctrl&jh7110.PTCCtrlSINGLE != 0 {
			c.ctrl &^= jh7110.PTCCtrlEN
		}
	}
	if c.ctrl&jh7110.PTCCtrlINTE != 0 {
		c.ctrl |= jh7110.PTCCtrlINT
	}
	asserted := c.lineLocked()
	p.mu.Unlock()
	p.plic.SetLine(jh7110.IRQPTC0+uint32(ch), asserted)
	return true
}

// EndOfPeriod raises the period-end match of channel ch
func (p *PTC) EndOfPeriod(ch int) bool {
	p.mu.Lock()
	lrc := p.channels[ch].lrc
	p.mu.Unlock()
	return p.Match(ch, lrc)
}

// Running reports whether channel ch's counter is enabled
func (p *PTC) Running(ch int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[ch].ctrl&jh7110.PTCCtrlEN != 0
}

// Ctrl returns channel ch's control register
func (p *PTC) Ctrl(ch int) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[ch].ctrl
}

// Pulses returns how many periods channel ch has completed
func (p *PTC) Pulses(ch int) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[ch].pulses
}
