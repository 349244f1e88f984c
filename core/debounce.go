// Debounced digital inputs for mechanical switches and noisy sensors
// Two interrupt sources drive each signal: the GPIO edge interrupt says
// "something changed", the periodic timer says "nothing changed for N ticks".
package core

import (
	"iter"

	"visionfw/jh7110"
)

// Level is a logic level observed on a pin
type Level uint8

const (
	LevelLow  Level = 0
	LevelHigh Level = 1
)

func (l Level) String() string {
	return levelString(l == LevelHigh)
}

// levelFromBit converts a register bit test into a Level
func levelFromBit(set bool) Level {
	if set {
		return LevelHigh
	}
	return LevelLow
}

// SignalState is the debounce state of one input
type SignalState uint8

const (
	StateUnknown SignalState = iota
	StateStableLow
	StateStableHigh
	StateStabilizingLow
	StateStabilizingHigh
)

func (s SignalState) String() string {
	switch s {
	case StateStableLow:
		return "stable-low"
	case StateStableHigh:
		return "stable-high"
	case StateStabilizingLow:
		return "stabilizing-low"
	case StateStabilizingHigh:
		return "stabilizing-high"
	}
	return "unknown"
}

// Stabilizing reports whether the state is waiting for the input to settle
func (s SignalState) Stabilizing() bool {
	return s == StateStabilizingLow || s == StateStabilizingHigh
}

func stabilizing(l Level) SignalState {
	if l == LevelHigh {
		return StateStabilizingHigh
	}
	return StateStabilizingLow
}

const (
	// MaxSignals bounds the registry by the number of SYS GPIO pins
	MaxSignals = jh7110.NumGPIO

	// DefaultStableTicks is how many quiet timer ticks make a level stable
	DefaultStableTicks = 5

	// DefaultTickMillis is the timer period of the reference configuration
	DefaultTickMillis = 10
)

// EdgeFunc is called for every edge on a registered pin with the
// synchronized level read in the same interrupt. It owns the transition.
type EdgeFunc func(s *Signal, level Level)

// StableFunc is called when a signal reaches a stable level
type StableFunc func(pin GPIOPin, level Level)

// Signal is one monitored digital input
type Signal struct {
	Pin    GPIOPin
	State  SignalState
	Count  uint32 // stabilization ticks, zeroed on every state change
	OnEdge EdgeFunc
}

// enter moves to st and restarts the stabilization counter
func (s *Signal) enter(st SignalState) {
	s.State = st
	s.Count = 0
}

// DebounceEdge is the default edge policy. Any edge restarts stabilization;
// an edge out of a stable state starts stabilizing toward the observed level.
func DebounceEdge(s *Signal, level Level) {
	switch s.State {
	case StateUnknown:
		s.enter(stabilizing(level))

	case StateStableLow, StateStableHigh:
		stable := LevelLow
		if s.State == StateStableHigh {
			stable = LevelHigh
		}
		if level != stable {
			// Possible noise or a hardware fault; stabilization decides
			Logln("gpio " + utoa(uint32(s.Pin)) + ": unexpected " + level.String() +
				" while " + s.State.String())
		} else {
			DebugPrintln("gpio " + utoa(uint32(s.Pin)) + ": glitch while " + s.State.String())
		}
		s.enter(stabilizing(level))

	case StateStabilizingLow, StateStabilizingHigh:
		// Bounce: keep the target, start counting again
		s.Count = 0
	}
}

// DebounceStats counts handler activity
type DebounceStats struct {
	Edges   uint32 // edges delivered to a signal
	Ticks   uint32 // timer interrupts
	Settled uint32 // transitions into a stable state
	Dropped uint32 // registrations refused because the registry was full
}

// Debouncer owns the signal registry and both interrupt handlers
type Debouncer struct {
	GPIO  SysGPIO
	Timer Timer

	// Threshold is the number of quiet ticks before a level is stable
	Threshold uint32

	// BootstrapHigh makes an Unknown signal assume high on the first tick
	// instead of sampling the pin.
	BootstrapHigh bool

	// OnStable, if set, is notified of every settled level
	OnStable StableFunc

	signals ArrayVec[Signal]
	storage [MaxSignals]Signal
	stats   DebounceStats
}

// NewDebouncer returns a debouncer on the SYS GPIO block ticking from timer
// channel ch. Init still has to run before use.
func NewDebouncer(ch uint32) *Debouncer {
	return &Debouncer{
		GPIO:      NewSysGPIO(),
		Timer:     NewTimer(ch),
		Threshold: DefaultStableTicks,
	}
}

// Init binds and empties the registry. It is the point at which the registry
// becomes valid; nothing may be registered before it runs.
func (d *Debouncer) Init() {
	d.signals.Init(d.storage[:])
	d.stats = DebounceStats{}
	if d.Threshold == 0 {
		d.Threshold = DefaultStableTicks
	}
}

// Register adds a signal for pin in state Unknown. A nil onEdge uses
// DebounceEdge. A full registry or a bad pin is logged and reported, never
// fatal.
func (d *Debouncer) Register(pin GPIOPin, onEdge EdgeFunc) error {
	if pin >= jh7110.NumGPIO {
		Logln("gpio " + utoa(uint32(pin)) + ": not registered, " + ErrInvalidPin.Error())
		return ErrInvalidPin
	}
	err := d.signals.TryPush(Signal{Pin: pin, State: StateUnknown, OnEdge: onEdge})
	if err != nil {
		d.stats.Dropped++
		RecordEvent(EvtRegistryFull, uint8(pin), uint32(d.signals.Len()), 0)
		Logln("gpio " + utoa(uint32(pin)) + ": not registered, " + err.Error())
		return err
	}
	return nil
}

// Configure registers pins, sets them up as both-edge inputs, starts the
// tick timer and routes both sources through the router. Must run before
// interrupts are enabled globally. Pins that fail to register are skipped.
func (d *Debouncer) Configure(router PLIC, pins []GPIOPin, tickLoad uint32, prio Priority) error {
	d.Init()
	for _, pin := range pins {
		if err := d.Register(pin, nil); err != nil {
			continue
		}
		if err := d.GPIO.ConfigureInput(pin); err != nil {
			return err
		}
		if err := d.GPIO.ConfigureEdgeInterrupt(pin); err != nil {
			return err
		}
	}
	d.GPIO.EnableInterrupts()
	d.Timer.StartPeriodic(tickLoad)

	if err := router.EnableInterrupt(jh7110.IRQSysIOMUX, prio); err != nil {
		return err
	}
	return router.EnableInterrupt(d.Timer.IRQ(), prio)
}

// HandleEdge services the GPIO edge interrupt. Every registered signal whose
// pin shows in the masked status gets its edge callback with the synchronized
// level, then exactly the status bits read are cleared.
func (d *Debouncer) HandleEdge() error {
	var status, value [2]uint32
	for block := uint32(0); block < 2; block++ {
		status[block] = d.GPIO.MaskedStatus(block)
		if status[block] != 0 {
			value[block] = d.GPIO.SyncValue(block)
		}
	}

	for s := range d.signals.Pointers() {
		block, mask := pinBlock(s.Pin)
		if status[block]&mask == 0 {
			continue
		}
		level := levelFromBit(value[block]&mask != 0)
		d.stats.Edges++
		RecordEvent(EvtEdge, uint8(s.Pin), uint32(level), uint32(s.State))

		onEdge := s.OnEdge
		if onEdge == nil {
			onEdge = DebounceEdge
		}
		onEdge(s, level)
	}

	for block := uint32(0); block < 2; block++ {
		d.GPIO.ClearEdges(block, status[block])
	}
	return nil
}

// HandleTick services the periodic timer interrupt. Stabilizing signals count
// up and settle at Threshold; Unknown signals are bootstrapped.
func (d *Debouncer) HandleTick() error {
	d.stats.Ticks++
	advanceSystemTicks()

	for s := range d.signals.Pointers() {
		switch s.State {
		case StateUnknown:
			level := LevelHigh
			if !d.BootstrapHigh {
				level = levelFromBit(d.GPIO.ReadPin(s.Pin))
			}
			s.enter(stabilizing(level))

		case StateStabilizingLow, StateStabilizingHigh:
			s.Count++
			if s.Count >= d.Threshold {
				d.settle(s)
			}
		}
	}

	d.Timer.ClearInterrupt()
	return nil
}

// settle moves a stabilizing signal to the matching stable state
func (d *Debouncer) settle(s *Signal) {
	level, stable := LevelLow, StateStableLow
	if s.State == StateStabilizingHigh {
		level, stable = LevelHigh, StateStableHigh
	}
	s.enter(stable)
	d.stats.Settled++
	RecordEvent(EvtSettle, uint8(s.Pin), uint32(level), GetTime())

	if live := levelFromBit(d.GPIO.ReadPin(s.Pin)); live != level {
		Logln("gpio " + utoa(uint32(s.Pin)) + ": settled " + level.String() +
			" but pin reads " + live.String())
	}
	if d.OnStable != nil {
		d.OnStable(s.Pin, level)
	}
}

// Len returns the number of registered signals
func (d *Debouncer) Len() int {
	return d.signals.Len()
}

// Signals yields a copy of each registered signal in registration order
func (d *Debouncer) Signals() iter.Seq2[int, Signal] {
	return d.signals.All()
}

// Lookup returns a copy of the first signal registered for pin
func (d *Debouncer) Lookup(pin GPIOPin) (Signal, bool) {
	for _, s := range d.signals.All() {
		if s.Pin == pin {
			return s, true
		}
	}
	return Signal{}, false
}

// signal returns the registered signal for pin so tests can seed a state
func (d *Debouncer) signal(pin GPIOPin) *Signal {
	for s := range d.signals.Pointers() {
		if s.Pin == pin {
			return s
		}
	}
	return nil
}

// Stats returns a copy of the handler counters
func (d *Debouncer) Stats() DebounceStats {
	return d.stats
}
