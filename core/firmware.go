package core

// Board bring-up and the wiring between the interrupt router, the vector
// table and the two control loops.

import (
	"visionfw/jh7110"
)

// Platform is the board bring-up done before the core is configured. The
// calls are order dependent and return nothing the core inspects.
type Platform interface {
	ConfigureClocks()
	ConfigurePins()
	ConfigureDDR()
}

// BoardConfig is everything the firmware needs to configure the core
type BoardConfig struct {
	Signals       []GPIOPin // debounced inputs, in registration order
	TickChannel   uint32    // timer channel driving the debounce tick
	TickLoad      uint32    // timer load value (APB clocks per tick)
	StableTicks   uint32    // quiet ticks before a level is stable
	BootstrapHigh bool      // Unknown signals assume high instead of sampling
	InputPriority Priority

	StepEnabled  bool
	Step         StepConfig
	StepPriority Priority
}

// DefaultBoardConfig is the VisionFive 2 bench setup: a switch on GPIO37
// sampled every 10ms, and a stepper driver with STEP on PTC1 (GPIO59) and
// DIR on GPIO39.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		Signals:       []GPIOPin{37},
		TickChannel:   1,
		TickLoad:      TimerLoadForMillis(DefaultTickMillis),
		StableTicks:   DefaultStableTicks,
		InputPriority: Priority7,

		StepEnabled: true,
		Step: StepConfig{
			Channel:    1,
			Period:     5_000_000,
			High:       2_500_000,
			MoveLength: 200,
			DirPin:     39,
		},
		StepPriority: Priority7,
	}
}

// Firmware holds the process-wide state of the application hart
type Firmware struct {
	Router   PLIC
	Vectors  VectorTable
	Dispatch *Dispatcher

	Inputs  Owned[Debouncer]
	Stepper Owned[StepSequencer]

	stepEnabled bool

	traps           uint32
	strayInterrupts uint32
}

// NewFirmware returns firmware state bound to the JH7110 PLIC
func NewFirmware() *Firmware {
	f := &Firmware{Router: NewPLIC()}
	f.Dispatch = NewDispatcher(f.Router, &f.Vectors)
	return f
}

// Boot runs platform bring-up
func (f *Firmware) Boot(p Platform) {
	p.ConfigureClocks()
	p.ConfigurePins()
	p.ConfigureDDR()
}

// Configure resets the router, configures both control loops and fills the
// vector table. Interrupts must still be globally disabled.
func (f *Firmware) Configure(cfg BoardConfig, gpio GPIODriver) error {
	f.Router.ClearAllEnables()
	f.Router.ClearAllPriorities()

	var err error
	f.Inputs.With(func(d *Debouncer) {
		*d = Debouncer{
			GPIO:          NewSysGPIO(),
			Timer:         NewTimer(cfg.TickChannel),
			Threshold:     cfg.StableTicks,
			BootstrapHigh: cfg.BootstrapHigh,
		}
		err = d.Configure(f.Router, cfg.Signals, cfg.TickLoad, cfg.InputPriority)
	})
	if err != nil {
		return err
	}

	f.stepEnabled = cfg.StepEnabled
	if cfg.StepEnabled {
		f.Stepper.With(func(q *StepSequencer) {
			*q = *NewStepSequencer(cfg.Step, gpio)
			err = q.Configure(f.Router, cfg.StepPriority)
		})
		if err != nil {
			return err
		}
	}

	return f.buildVectors(cfg)
}

// buildVectors assigns the handlers of every source the core enabled
func (f *Firmware) buildVectors(cfg BoardConfig) error {
	f.Vectors = VectorTable{}

	if err := f.Vectors.Assign(jh7110.IRQSysIOMUX, f.handleEdge); err != nil {
		return err
	}
	if err := f.Vectors.Assign(jh7110.IRQTimer0+cfg.TickChannel, f.handleTick); err != nil {
		return err
	}
	if f.stepEnabled {
		if err := f.Vectors.Assign(jh7110.IRQPTC0+cfg.Step.Channel, f.handleMatch); err != nil {
			return err
		}
	}
	return nil
}

func (f *Firmware) handleEdge() error {
	var err error
	f.Inputs.With(func(d *Debouncer) { err = d.HandleEdge() })
	return err
}

func (f *Firmware) handleTick() error {
	var err error
	f.Inputs.With(func(d *Debouncer) { err = d.HandleTick() })
	return err
}

func (f *Firmware) handleMatch() error {
	var err error
	f.Stepper.With(func(q *StepSequencer) { err = q.HandleMatch() })
	return err
}

// HandleExternal is the machine external interrupt entry point
func (f *Firmware) HandleExternal() {
	f.Dispatch.HandleExternal()
}

// Start enables interrupts globally. Configure must have completed.
func (f *Firmware) Start() {
	enableGlobalInterrupts()
}

// Idle parks the hart between interrupts; it never returns
func (f *Firmware) Idle() {
	for {
		waitForInterrupt()
	}
}

// Halt reports a fatal condition and parks the hart for good. There is no
// watchdog recovery.
func Halt(reason string) {
	disableInterrupts()
	Logln("halt: " + reason)
	DumpEvents()
	Park()
}

// Park stops the calling hart for good. Harts other than AppHart get no
// interrupts routed, so they never leave.
func Park() {
	for {
		waitForInterrupt()
	}
}
