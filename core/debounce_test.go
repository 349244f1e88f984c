package core

import (
	"errors"
	"testing"

	"visionfw/jh7110"
	"visionfw/sim"
)

const testPin GPIOPin = 37

// newTestDebouncer configures a debouncer on tick channel 1 watching pins
func newTestDebouncer(t *testing.T, pins ...GPIOPin) (*Debouncer, *sim.SoC) {
	t.Helper()
	soc := newTestSoC(t)
	d := NewDebouncer(1)
	if err := d.Configure(NewPLIC(), pins, TimerLoadForMillis(DefaultTickMillis), Priority7); err != nil {
		t.Fatal(err)
	}
	return d, soc
}

func TestDebounceEdgeFromUnknown(t *testing.T) {
	s := Signal{Pin: testPin}
	DebounceEdge(&s, LevelHigh)
	if s.State != StateStabilizingHigh || s.Count != 0 {
		t.Errorf("Expected stabilizing-high/0, got %s/%d", s.State, s.Count)
	}

	s = Signal{Pin: testPin}
	DebounceEdge(&s, LevelLow)
	if s.State != StateStabilizingLow {
		t.Errorf("Expected stabilizing-low, got %s", s.State)
	}
}

func TestDebounceEdgeWhileStabilizingResetsCount(t *testing.T) {
	for _, level := range []Level{LevelLow, LevelHigh} {
		s := Signal{Pin: testPin, State: StateStabilizingHigh, Count: 4}
		DebounceEdge(&s, level)
		if s.State != StateStabilizingHigh || s.Count != 0 {
			t.Errorf("edge %s: expected stabilizing-high/0, got %s/%d", level, s.State, s.Count)
		}
	}
}

func TestDebounceEdgeInStableState(t *testing.T) {
	log := captureLog(t)

	s := Signal{Pin: testPin, State: StateStableLow}
	DebounceEdge(&s, LevelHigh)
	if s.State != StateStabilizingHigh || s.Count != 0 {
		t.Errorf("Expected stabilizing-high/0, got %s/%d", s.State, s.Count)
	}
	if !log.contains("gpio 37: unexpected high while stable-low") {
		t.Errorf("unexpected level not logged: %q", log.lines)
	}

	s = Signal{Pin: testPin, State: StateStableHigh}
	DebounceEdge(&s, LevelLow)
	if s.State != StateStabilizingLow {
		t.Errorf("Expected stabilizing-low, got %s", s.State)
	}

	// same-level glitch is verbose only
	log.lines = nil
	s = Signal{Pin: testPin, State: StateStableHigh}
	DebounceEdge(&s, LevelHigh)
	if s.State != StateStabilizingHigh {
		t.Errorf("Expected stabilizing-high, got %s", s.State)
	}
	if len(log.lines) != 0 {
		t.Errorf("glitch logged without debug enabled: %q", log.lines)
	}
}

func TestDebounceTicksSettleAtThreshold(t *testing.T) {
	d, soc := newTestDebouncer(t, testPin)
	soc.GPIO.SetLevel(uint32(testPin), true)

	s := d.signal(testPin)
	s.State, s.Count = StateStabilizingHigh, 3

	d.HandleTick()
	if s.State != StateStabilizingHigh || s.Count != 4 {
		t.Fatalf("after 1 tick: expected stabilizing-high/4, got %s/%d", s.State, s.Count)
	}
	d.HandleTick()
	if s.State != StateStableHigh || s.Count != 0 {
		t.Fatalf("after 2 ticks: expected stable-high/0, got %s/%d", s.State, s.Count)
	}
	d.HandleTick()
	if s.State != StateStableHigh || s.Count != 0 {
		t.Errorf("tick in stable state changed it to %s/%d", s.State, s.Count)
	}
	if d.Stats().Settled != 1 {
		t.Errorf("Expected 1 settle, got %d", d.Stats().Settled)
	}
}

func TestDebounceFewerTicksStayStabilizing(t *testing.T) {
	d, _ := newTestDebouncer(t, testPin)
	s := d.signal(testPin)
	s.State = StateStabilizingHigh

	for i := 0; i < DefaultStableTicks-1; i++ {
		d.HandleTick()
	}
	if s.State != StateStabilizingHigh {
		t.Errorf("settled after %d ticks", DefaultStableTicks-1)
	}
	d.HandleTick()
	if s.State != StateStableHigh {
		t.Errorf("not settled after %d ticks: %s", DefaultStableTicks, s.State)
	}
}

func TestDebounceUnknownTickSamplesLevel(t *testing.T) {
	d, _ := newTestDebouncer(t, testPin)
	d.HandleTick()
	if got, _ := d.Lookup(testPin); got.State != StateStabilizingLow {
		t.Errorf("low pin bootstrapped to %s", got.State)
	}

	d, _ = newTestDebouncer(t, testPin)
	d.BootstrapHigh = true
	d.HandleTick()
	if got, _ := d.Lookup(testPin); got.State != StateStabilizingHigh {
		t.Errorf("BootstrapHigh gave %s", got.State)
	}
}

func TestDebounceTickClearsTimerInterrupt(t *testing.T) {
	d, soc := newTestDebouncer(t, testPin)
	before := soc.Timer.Clears(1)
	soc.Timer.Fire(1)
	d.HandleTick()
	if soc.Timer.Pending(1) {
		t.Error("timer status not cleared")
	}
	if soc.Timer.Clears(1) != before+1 {
		t.Errorf("Expected one clear, got %d", soc.Timer.Clears(1)-before)
	}
}

func TestDebounceHandleEdgeClearsExactBits(t *testing.T) {
	d, soc := newTestDebouncer(t, testPin, 40)
	soc.GPIO.SetLevel(uint32(testPin), true)

	soc.Bus.StartTrace()
	if err := d.HandleEdge(); err != nil {
		t.Fatal(err)
	}

	if got, _ := d.Lookup(testPin); got.State != StateStabilizingHigh {
		t.Errorf("pin 37: expected stabilizing-high, got %s", got.State)
	}
	if got, _ := d.Lookup(40); got.State != StateUnknown {
		t.Errorf("pin 40 without an edge changed to %s", got.State)
	}

	ic := jh7110.SysIOMUXBase + jh7110.GPIOICOffset + jh7110.GPIOBlockStride
	stores := soc.Bus.StoresTo(ic)
	if len(stores) != 2 {
		t.Fatalf("Expected 2 stores to IC, got %v", stores)
	}
	if stores[0]&(1<<5) != 0 || stores[1]&(1<<5) == 0 {
		t.Errorf("clear was not 0 then 1: %#x %#x", stores[0], stores[1])
	}
	if stores[0]^stores[1] != 1<<5 {
		t.Errorf("clear toggled bits beyond the status read: %#x %#x", stores[0], stores[1])
	}
	if len(soc.Bus.StoresTo(jh7110.SysIOMUXBase+jh7110.GPIOICOffset)) != 0 {
		t.Error("block 0 touched with empty status")
	}
	if soc.GPIO.EdgePending(uint32(testPin)) {
		t.Error("edge still pending")
	}
}

func TestDebounceCustomEdgeCallback(t *testing.T) {
	soc := newTestSoC(t)
	d := NewDebouncer(1)
	d.Init()

	var seen []Level
	d.Register(testPin, func(s *Signal, level Level) {
		seen = append(seen, level)
		s.State = StateStableHigh
	})
	d.GPIO.ConfigureEdgeInterrupt(testPin)
	d.GPIO.EnableInterrupts()

	soc.GPIO.SetLevel(uint32(testPin), true)
	d.HandleEdge()

	if len(seen) != 1 || seen[0] != LevelHigh {
		t.Fatalf("callback saw %v", seen)
	}
	if got, _ := d.Lookup(testPin); got.State != StateStableHigh {
		t.Errorf("callback state not kept: %s", got.State)
	}
}

func TestDebounceRegistryFull(t *testing.T) {
	newTestSoC(t)
	log := captureLog(t)
	d := NewDebouncer(1)
	d.Init()

	for pin := GPIOPin(0); pin < MaxSignals; pin++ {
		if err := d.Register(pin, nil); err != nil {
			t.Fatalf("register %d: %v", pin, err)
		}
	}
	err := d.Register(testPin, nil)
	if !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("Expected ErrRegistryFull, got %v", err)
	}
	if d.Len() != MaxSignals {
		t.Errorf("Expected %d signals, got %d", MaxSignals, d.Len())
	}
	if d.Stats().Dropped != 1 {
		t.Errorf("Expected 1 dropped, got %d", d.Stats().Dropped)
	}
	if !log.contains("gpio 37: not registered") {
		t.Errorf("full registry not logged: %q", log.lines)
	}
	if LastEvent().EventType != EvtRegistryFull {
		t.Error("full registry not recorded")
	}

	if err := d.Register(jh7110.NumGPIO, nil); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("Expected ErrInvalidPin, got %v", err)
	}
}

func TestDebounceOnStable(t *testing.T) {
	d, soc := newTestDebouncer(t, testPin)
	var got []Level
	d.OnStable = func(pin GPIOPin, level Level) {
		if pin != testPin {
			t.Errorf("OnStable for pin %d", pin)
		}
		got = append(got, level)
	}

	soc.GPIO.SetLevel(uint32(testPin), true)
	d.HandleEdge()
	for i := 0; i < DefaultStableTicks; i++ {
		d.HandleTick()
	}
	if len(got) != 1 || got[0] != LevelHigh {
		t.Errorf("Expected one high notification, got %v", got)
	}
}

func TestDebounceSettleMismatchLogged(t *testing.T) {
	d, _ := newTestDebouncer(t, testPin)
	log := captureLog(t)
	s := d.signal(testPin)
	s.State, s.Count = StateStabilizingHigh, DefaultStableTicks-1

	d.HandleTick() // pin reads low
	if !log.contains("gpio 37: settled high but pin reads low") {
		t.Errorf("mismatch not logged: %q", log.lines)
	}
}

func TestDebounceConfigureSelectsEdgeSense(t *testing.T) {
	d, soc := newTestDebouncer(t, testPin, 3)

	is1 := soc.Bus.Load32(jh7110.SysIOMUXBase + jh7110.GPIOISOffset + jh7110.GPIOBlockStride)
	if is1&(1<<5) == 0 {
		t.Errorf("Expected IS bit 5 set for gpio37, got %#x", is1)
	}
	is0 := soc.Bus.Load32(jh7110.SysIOMUXBase + jh7110.GPIOISOffset)
	if is0&(1<<3) == 0 {
		t.Errorf("Expected IS bit 3 set for gpio3, got %#x", is0)
	}

	// a held level latches once; after the clear nothing retriggers
	soc.GPIO.SetLevel(uint32(testPin), true)
	if err := d.HandleEdge(); err != nil {
		t.Fatal(err)
	}
	if soc.GPIO.EdgePending(uint32(testPin)) {
		t.Error("edge still pending after HandleEdge")
	}
	soc.GPIO.SetLevel(uint32(testPin), true)
	if d.GPIO.MaskedStatus(1) != 0 {
		t.Errorf("held level retriggered: masked status %#x", d.GPIO.MaskedStatus(1))
	}
	if d.Stats().Edges != 1 {
		t.Errorf("Expected 1 edge, got %d", d.Stats().Edges)
	}
}

func TestDebounceConfigureLogsInvalidPin(t *testing.T) {
	log := captureLog(t)
	d, _ := newTestDebouncer(t, jh7110.NumGPIO, testPin)

	if d.Len() != 1 {
		t.Errorf("Expected 1 signal, got %d", d.Len())
	}
	if !log.contains("gpio 64: not registered, invalid GPIO pin") {
		t.Errorf("invalid pin not logged: %q", log.lines)
	}
	if _, ok := d.Lookup(testPin); !ok {
		t.Error("valid pin after the bad one not registered")
	}
}
