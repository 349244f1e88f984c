package core

import (
	"errors"
	"testing"

	"visionfw/jh7110"
	"visionfw/sim"
)

type stubPlatform struct {
	calls []string
}

func (p *stubPlatform) ConfigureClocks() { p.calls = append(p.calls, "clocks") }
func (p *stubPlatform) ConfigurePins()   { p.calls = append(p.calls, "pins") }
func (p *stubPlatform) ConfigureDDR()    { p.calls = append(p.calls, "ddr") }

func newTestFirmware(t *testing.T) (*Firmware, *sim.SoC) {
	t.Helper()
	soc := newTestSoC(t)
	fw := NewFirmware()
	cfg := DefaultBoardConfig()
	cfg.Step.Period, cfg.Step.High, cfg.Step.MoveLength = 100, 50, 4
	if err := fw.Configure(cfg, NewSysGPIO()); err != nil {
		t.Fatal(err)
	}
	return fw, soc
}

// tick expires the debounce timer and services the interrupt
func tick(fw *Firmware, soc *sim.SoC, n int) {
	for i := 0; i < n; i++ {
		soc.Timer.Fire(1)
		fw.HandleExternal()
	}
}

// edge drives pin 37 and services the GPIO interrupt
func edge(fw *Firmware, soc *sim.SoC, high bool) {
	soc.GPIO.SetLevel(uint32(testPin), high)
	fw.HandleExternal()
}

func inputState(fw *Firmware) SignalState {
	var st SignalState
	fw.Inputs.With(func(d *Debouncer) {
		s, _ := d.Lookup(testPin)
		st = s.State
	})
	return st
}

func TestFirmwareBootOrder(t *testing.T) {
	p := &stubPlatform{}
	NewFirmware().Boot(p)
	if len(p.calls) != 3 || p.calls[0] != "clocks" || p.calls[1] != "pins" || p.calls[2] != "ddr" {
		t.Errorf("unexpected boot order %v", p.calls)
	}
}

func TestFirmwareConfigureRoutes(t *testing.T) {
	soc := newTestSoC(t)
	router := NewPLIC()
	router.Enable(Hart2, MachineMode, 5) // stale enable from a previous stage

	fw := NewFirmware()
	if err := fw.Configure(DefaultBoardConfig(), NewSysGPIO()); err != nil {
		t.Fatal(err)
	}

	if router.IsEnabled(Hart2, MachineMode, 5) {
		t.Error("stale enable survived configuration")
	}
	for _, src := range []uint32{jh7110.IRQSysIOMUX, jh7110.IRQTimer1, jh7110.IRQPTC1} {
		if !router.IsEnabled(AppHart, MachineMode, src) {
			t.Errorf("source %d not enabled", src)
		}
		if router.GetPriority(src) != Priority7 {
			t.Errorf("source %d priority %d", src, router.GetPriority(src))
		}
		if _, ok := fw.Vectors.Lookup(src); !ok {
			t.Errorf("source %d has no vector", src)
		}
	}
	if running, load := soc.Timer.Running(1); !running || load != 240_000 {
		t.Errorf("tick timer: running=%v load=%d", running, load)
	}
	if criticalDepth != 0 {
		t.Errorf("critical section left open: %d", criticalDepth)
	}
}

func TestFirmwareDebounceRoundTrip(t *testing.T) {
	fw, soc := newTestFirmware(t)

	// settle low first
	tick(fw, soc, 1+DefaultStableTicks)
	if st := inputState(fw); st != StateStableLow {
		t.Fatalf("Expected stable-low, got %s", st)
	}

	// switch closes with bounce
	edge(fw, soc, true)
	tick(fw, soc, 2)
	edge(fw, soc, false)
	edge(fw, soc, true)
	tick(fw, soc, 4)
	edge(fw, soc, false)
	tick(fw, soc, 1)
	edge(fw, soc, true)

	tick(fw, soc, DefaultStableTicks-1)
	if st := inputState(fw); st != StateStabilizingHigh {
		t.Fatalf("settled early: %s", st)
	}
	tick(fw, soc, 1)
	if st := inputState(fw); st != StateStableHigh {
		t.Fatalf("Expected stable-high, got %s", st)
	}

	// no interrupt left behind
	if soc.PLIC.Pending(jh7110.IRQSysIOMUX) || soc.PLIC.Pending(jh7110.IRQTimer1) {
		t.Error("source left pending")
	}
	if s := fw.Dispatch.Stats(); s.Unassigned != 0 || s.HandlerErrors != 0 {
		t.Errorf("unexpected dispatch stats %+v", s)
	}
}

func TestFirmwareStepThroughDispatcher(t *testing.T) {
	fw, soc := newTestFirmware(t)

	for i := 0; i < 4; i++ {
		soc.PTC.Match(1, 50) // HRC, ignored
		fw.HandleExternal()
		soc.PTC.EndOfPeriod(1)
		fw.HandleExternal()
	}

	var cmd StepMoveCommand
	var st StepStats
	fw.Stepper.With(func(q *StepSequencer) {
		cmd, st = q.Command(), q.Stats()
	})
	if cmd.Remaining != 4 || cmd.Direction != Retrograde {
		t.Errorf("Expected a fresh retrograde leg, got %d/%s", cmd.Remaining, cmd.Direction)
	}
	if st.Matches != 8 || st.Steps != 4 || st.Ignored != 4 {
		t.Errorf("unexpected stats %+v", st)
	}
	if soc.PLIC.Pending(jh7110.IRQPTC1) {
		t.Error("PTC interrupt left pending")
	}
}

func TestFirmwareWithoutStepper(t *testing.T) {
	newTestSoC(t)
	cfg := DefaultBoardConfig()
	cfg.StepEnabled = false
	fw := NewFirmware()
	if err := fw.Configure(cfg, NewSysGPIO()); err != nil {
		t.Fatal(err)
	}
	if _, ok := fw.Vectors.Lookup(jh7110.IRQPTC1); ok {
		t.Error("PTC vector assigned with the stepper disabled")
	}
	if fw.Router.IsEnabled(AppHart, MachineMode, jh7110.IRQPTC1) {
		t.Error("PTC routed with the stepper disabled")
	}
}

func TestFirmwareConfigureRejectsMaskedPriority(t *testing.T) {
	newTestSoC(t)

	cfg := DefaultBoardConfig()
	cfg.InputPriority = Priority1
	if err := NewFirmware().Configure(cfg, NewSysGPIO()); !errors.Is(err, ErrPriorityMasked) {
		t.Errorf("input priority 1: expected ErrPriorityMasked, got %v", err)
	}

	cfg = DefaultBoardConfig()
	cfg.StepPriority = Priority1
	if err := NewFirmware().Configure(cfg, NewSysGPIO()); !errors.Is(err, ErrPriorityMasked) {
		t.Errorf("step priority 1: expected ErrPriorityMasked, got %v", err)
	}
}
