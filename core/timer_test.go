package core

import (
	"testing"

	"visionfw/jh7110"
)

func TestTimerStartPeriodic(t *testing.T) {
	soc := newTestSoC(t)
	tm := NewTimer(2)
	if tm.IRQ() != jh7110.IRQTimer2 {
		t.Errorf("Expected IRQ %d, got %d", jh7110.IRQTimer2, tm.IRQ())
	}

	soc.Bus.StartTrace()
	tm.StartPeriodic(TimerLoadForMillis(1))

	if running, load := soc.Timer.Running(2); !running || load != 24_000 {
		t.Errorf("running=%v load=%d", running, load)
	}
	if tm.Counter() != 24_000 {
		t.Errorf("counter not reloaded: %d", tm.Counter())
	}

	// the channel stays masked until it is fully programmed
	mask := soc.Bus.StoresTo(jh7110.TimerBase + 2*jh7110.TimerChannelStride + jh7110.TimerIntMaskOffset)
	if len(mask) != 2 || mask[0] != 1 || mask[1] != 0 {
		t.Errorf("unexpected mask sequence %v", mask)
	}
}

func TestTimerClearInterrupt(t *testing.T) {
	soc := newTestSoC(t)
	tm := NewTimer(1)
	tm.StartPeriodic(1000)

	soc.Timer.Fire(1)
	if !tm.IntPending() {
		t.Fatal("status bit not set")
	}
	tm.ClearInterrupt()
	if tm.IntPending() {
		t.Error("status bit not cleared")
	}
}

func TestTimerClearBusyLogged(t *testing.T) {
	soc := newTestSoC(t)
	log := captureLog(t)
	soc.Timer.SetClearBusy(3, true)

	NewTimer(3).StartPeriodic(1000)
	if !log.contains("timer 3 int clear still busy") {
		t.Errorf("busy clear not logged: %q", log.lines)
	}
}

func TestTimerDumpRegisters(t *testing.T) {
	newTestSoC(t)
	log := captureLog(t)
	tm := NewTimer(0)
	tm.StartPeriodic(0x100)
	tm.DumpRegisters()
	if !log.contains("LOAD       0x00000100") {
		t.Errorf("dump missing load: %q", log.lines)
	}
}

func TestTimerLoadForMillis(t *testing.T) {
	if got := TimerLoadForMillis(DefaultTickMillis); got != 240_000 {
		t.Errorf("Expected 240000, got %d", got)
	}
}

func TestTickAdvancesTime(t *testing.T) {
	newTestSoC(t)
	SetTime(41)
	t.Cleanup(func() { SetTime(0) })

	d := NewDebouncer(1)
	d.Init()
	if err := d.HandleTick(); err != nil {
		t.Fatalf("HandleTick: %v", err)
	}
	if GetTime() != 42 {
		t.Errorf("Expected time 42, got %d", GetTime())
	}
}
