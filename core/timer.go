package core

// JH7110 general purpose timer block (4 channels, 24MHz APB clock) plus the
// tick counter the periodic channel advances.

import (
	"visionfw/jh7110"
)

// TimerMode selects continuous or one-shot counting
type TimerMode uint32

const (
	TimerContinuous TimerMode = 0
	TimerSingle     TimerMode = 1
)

// Timer is the register map of one timer channel
type Timer struct {
	Base    uintptr
	Channel uint32
}

// NewTimer returns JH7110 timer channel ch
func NewTimer(ch uint32) Timer {
	return Timer{Base: jh7110.TimerBase, Channel: ch}
}

func (t Timer) reg(offset uintptr) uintptr {
	return t.Base + jh7110.TimerChannelStride*uintptr(t.Channel) + offset
}

// IRQ returns the PLIC source of the channel
func (t Timer) IRQ() uint32 {
	return jh7110.IRQTimer0 + t.Channel
}

// IntPending reads the channel's bit of the shared status register
func (t Timer) IntPending() bool {
	return MustBus().Load32(t.Base+jh7110.TimerIntStatusOffset)&(1<<t.Channel) != 0
}

// SetMode selects continuous or single run
func (t Timer) SetMode(mode TimerMode) {
	MustBus().Store32(t.reg(jh7110.TimerControlOffset), uint32(mode))
}

// Mode reads the run mode
func (t Timer) Mode() TimerMode {
	return TimerMode(MustBus().Load32(t.reg(jh7110.TimerControlOffset)) & 1)
}

// SetLoad sets the value loaded into the counter at start and on reload
func (t Timer) SetLoad(load uint32) {
	MustBus().Store32(t.reg(jh7110.TimerLoadOffset), load)
}

// Load reads the load value
func (t Timer) Load() uint32 {
	return MustBus().Load32(t.reg(jh7110.TimerLoadOffset))
}

// SetEnabled starts or stops the counter
func (t Timer) SetEnabled(enabled bool) {
	v := uint32(0)
	if enabled {
		v = 1
	}
	MustBus().Store32(t.reg(jh7110.TimerEnableOffset), v)
}

// Enabled reports whether the counter runs
func (t Timer) Enabled() bool {
	return MustBus().Load32(t.reg(jh7110.TimerEnableOffset))&1 != 0
}

// ReloadCounter reloads the counter from the load value
func (t Timer) ReloadCounter() {
	MustBus().Store32(t.reg(jh7110.TimerReloadOffset), 1)
}

// Counter reads the counter value
func (t Timer) Counter() uint32 {
	return MustBus().Load32(t.reg(jh7110.TimerValueOffset))
}

// ClearBusy reports whether a previous interrupt clear is still in progress
func (t Timer) ClearBusy() bool {
	return (MustBus().Load32(t.reg(jh7110.TimerIntClearOffset))>>jh7110.TimerIntClearBusyBit)&1 != 0
}

// ClearInterrupt clears the channel's interrupt status
func (t Timer) ClearInterrupt() {
	MustBus().Store32(t.reg(jh7110.TimerIntClearOffset), 1)
}

// SetMasked masks (true) or unmasks the channel interrupt
func (t Timer) SetMasked(masked bool) {
	v := uint32(0)
	if masked {
		v = 1
	}
	MustBus().Store32(t.reg(jh7110.TimerIntMaskOffset), v)
}

// Masked reads the interrupt mask
func (t Timer) Masked() bool {
	return MustBus().Load32(t.reg(jh7110.TimerIntMaskOffset))&1 != 0
}

// StartPeriodic programs a continuous interrupt every load counts. The
// interrupt stays masked while the channel is reprogrammed.
func (t Timer) StartPeriodic(load uint32) {
	t.SetMasked(true)
	t.SetEnabled(false)
	if t.ClearBusy() {
		Logln("timer " + utoa(t.Channel) + " int clear still busy")
	}
	t.ClearInterrupt()
	t.SetMode(TimerContinuous)
	t.SetLoad(load)
	t.ReloadCounter()
	t.SetMasked(false)
	t.SetEnabled(true)
}

// DumpRegisters writes the channel registers through the debug writer
func (t Timer) DumpRegisters() {
	b := MustBus()
	debugPrintln("TIMER " + utoa(t.Channel) + " base " + hex32(uint32(t.reg(0))))
	debugPrintln("  INT_STATUS " + hex32(b.Load32(t.Base+jh7110.TimerIntStatusOffset)))
	debugPrintln("  CONTROL    " + hex32(b.Load32(t.reg(jh7110.TimerControlOffset))))
	debugPrintln("  LOAD       " + hex32(b.Load32(t.reg(jh7110.TimerLoadOffset))))
	debugPrintln("  ENABLE     " + hex32(b.Load32(t.reg(jh7110.TimerEnableOffset))))
	debugPrintln("  VALUE      " + hex32(b.Load32(t.reg(jh7110.TimerValueOffset))))
	debugPrintln("  INT_CLEAR  " + hex32(b.Load32(t.reg(jh7110.TimerIntClearOffset))))
	debugPrintln("  INT_MASK   " + hex32(b.Load32(t.reg(jh7110.TimerIntMaskOffset))))
}

// TimerLoadForMillis converts a period to a load value at the APB clock
func TimerLoadForMillis(ms uint32) uint32 {
	return ms * (jh7110.TimerClockHz / 1000)
}

// GetTime returns the number of periodic ticks since boot
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the tick counter (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}
