package sim

import (
	"sync"

	"visionfw/jh7110"
)

// TimerSize is the mapped size of the timer block model
const TimerSize = jh7110.TimerChannelStride * jh7110.NumTimers

type timerChannel struct {
	control, load, enable, value, mask uint32
	busy                               bool
}

// Timer models the four channel timer block. Expiry is driven by the test
// through Fire rather than by a clock.
type Timer struct {
	mu       sync.Mutex
	plic     *PLIC
	status   uint32
	channels [jh7110.NumTimers]timerChannel
	cleared  [jh7110.NumTimers]uint32
}

// NewTimer returns a timer block raising its interrupts on plic
func NewTimer(plic *PLIC) *Timer {
	t := &Timer{plic: plic}
	for i := range t.channels {
		t.channels[i].mask = 1
	}
	return t
}

func (t *Timer) decode(offset uintptr) (int, uintptr) {
	return int(offset / jh7110.TimerChannelStride), offset % jh7110.TimerChannelStride
}

// Read implements Device
func (t *Timer) Read(offset uintptr) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, reg := t.decode(offset)
	if ch >= jh7110.NumTimers {
		return 0
	}
	c := &t.channels[ch]
	switch reg {
	case jh7110.TimerIntStatusOffset:
		if ch == 0 {
			return t.status
		}
	case jh7110.TimerControlOffset:
		return c.control
	case jh7110.TimerLoadOffset:
		return c.load
	case jh7110.TimerEnableOffset:
		return c.enable
	case jh7110.TimerValueOffset:
		return c.value
	case jh7110.TimerIntClearOffset:
		if c.busy {
			return 1 << jh7110.TimerIntClearBusyBit
		}
	case jh7110.TimerIntMaskOffset:
		return c.mask
	}
	return 0
}

// Write implements Device
func (t *Timer) Write(offset uintptr, value uint32) {
	t.mu.Lock()
	ch, reg := t.decode(offset)
	if ch >= jh7110.NumTimers {
		t.mu.Unlock()
		return
	}
	c := &t.channels[ch]
	switch reg {
	case jh7110.TimerControlOffset:
		c.control = value & 1
	case jh7110.TimerLoadOffset:
		c.load = value
	case jh7110.TimerEnableOffset:
		c.enable = value & 1
	case jh7110.TimerReloadOffset:
		c.value = c.load
	case jh7110.TimerIntClearOffset:
		if value&1 != 0 {
			t.status &^= 1 << ch
			t.cleared[ch]++
		}
	case jh7110.TimerIntMaskOffset:
		c.mask = value & 1
	}
	asserted := t.lineLocked(ch)
	t.mu.Unlock()
	t.plic.SetLine(jh7110.IRQTimer0+uint32(ch), asserted)
}

func (t *Timer) lineLocked(ch int) bool {
	return t.status&(1<<ch) != 0 && t.channels[ch].mask == 0
}

// Fire expires channel ch. A running continuous channel reloads, a single
// shot channel stops.
func (t *Timer) Fire(ch int) {
	t.mu.Lock()
	c := &t.channels[ch]
	if c.enable == 0 {
		t.mu.Unlock()
		return
	}
	t.status |= 1 << ch
	c.value = c.load
	if c.control == 1 {
		c.enable = 0
	}
	asserted := t.lineLocked(ch)
	t.mu.Unlock()
	t.plic.SetLine(jh7110.IRQTimer0+uint32(ch), asserted)
}

// SetClearBusy makes the clear register report busy
func (t *Timer) SetClearBusy(ch int, busy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.channels[ch].busy = busy
}

// Running reports whether channel ch is enabled and unmasked, and its load
func (t *Timer) Running(ch int) (running bool, load uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.channels[ch]
	return c.enable == 1 && c.mask == 0 && c.control == 0, c.load
}

// Clears returns how many times channel ch's interrupt was cleared
func (t *Timer) Clears(ch int) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cleared[ch]
}

// Pending reports channel ch's status bit
func (t *Timer) Pending(ch int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status&(1<<ch) != 0
}
