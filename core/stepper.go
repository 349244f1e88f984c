package core

// Interrupt-driven step pulse generation
// The PTC channel produces the step pulses in hardware; its match interrupt
// counts them, reverses direction at the end of each leg and uses one-shot
// mode so the last pulse of a leg is not followed by a spurious one.

import (
	"errors"

	"visionfw/jh7110"
)

// Direction of travel
type Direction uint8

const (
	Forward Direction = iota
	Retrograde
)

func (d Direction) String() string {
	if d == Retrograde {
		return "retrograde"
	}
	return "forward"
}

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Forward {
		return Retrograde
	}
	return Forward
}

// StepMoveCommand is the move in flight
type StepMoveCommand struct {
	Remaining uint32 // pulses left in this leg
	Direction Direction
}

// MatchQualifier decides from the counter registers whether a match
// interrupt marks a pulse boundary
type MatchQualifier func(cntr, hrc, lrc uint32) bool

// DefaultQualifier treats a match as a pulse boundary when the counter is
// below the high reference or sits exactly on the low reference. Derived from
// register dumps of the PTC rollover.
func DefaultQualifier(cntr, hrc, lrc uint32) bool {
	return cntr < hrc || cntr == lrc
}

// ErrInvalidMoveLength is returned for a zero move length
var ErrInvalidMoveLength = errors.New("move length must be at least one step")

// StepConfig is the static configuration of one step channel
type StepConfig struct {
	Channel    uint32  // PTC channel generating STEP
	Period     uint32  // LRC, PTC clocks per pulse
	High       uint32  // HRC, PTC clocks the output stays high
	MoveLength uint32  // pulses per leg
	DirPin     GPIOPin // direction select output
	InvertDir  bool    // drive DIR low for Forward
}

// StepStats counts match interrupts
type StepStats struct {
	Matches uint32 // every match interrupt
	Steps   uint32 // qualifying matches
	Ignored uint32 // matches that were not a pulse boundary
	Legs    uint32 // completed legs (direction reversals)
}

// StepSequencer owns the move command and the PTC match handler
type StepSequencer struct {
	PWM        PTC
	Dir        GPIODriver
	DirPin     GPIOPin
	InvertDir  bool
	MoveLength uint32
	Period     uint32
	High       uint32

	// Qualify classifies match interrupts; nil uses DefaultQualifier
	Qualify MatchQualifier

	cmd   StepMoveCommand
	stats StepStats
}

// NewStepSequencer builds a sequencer from cfg driving DIR through dir
func NewStepSequencer(cfg StepConfig, dir GPIODriver) *StepSequencer {
	return &StepSequencer{
		PWM:        NewPTC(cfg.Channel),
		Dir:        dir,
		DirPin:     cfg.DirPin,
		InvertDir:  cfg.InvertDir,
		MoveLength: cfg.MoveLength,
		Period:     cfg.Period,
		High:       cfg.High,
		cmd:        StepMoveCommand{Remaining: cfg.MoveLength, Direction: Forward},
	}
}

// Configure sets the direction output, starts the PTC channel in continuous
// mode and routes its interrupt. Must run before interrupts are enabled.
func (q *StepSequencer) Configure(router PLIC, prio Priority) error {
	if q.MoveLength == 0 {
		return ErrInvalidMoveLength
	}
	if q.cmd.Remaining == 0 {
		q.cmd.Remaining = q.MoveLength
	}
	if err := q.Dir.ConfigureOutput(q.DirPin); err != nil {
		return err
	}
	if err := q.driveDirection(); err != nil {
		return err
	}

	q.PWM.Configure(q.Period, q.High)
	q.PWM.SetOneShot(q.cmd.Remaining == 1)

	return router.EnableInterrupt(q.PWM.IRQ(), prio)
}

// Start replaces the command in flight and drives its direction. A zero
// Remaining starts a full leg. A counter stopped by one-shot mode is
// restarted.
func (q *StepSequencer) Start(cmd StepMoveCommand) error {
	if cmd.Remaining == 0 {
		cmd.Remaining = q.MoveLength
	}
	q.cmd = cmd
	err := q.driveDirection()
	q.PWM.SetOneShot(cmd.Remaining == 1)
	q.PWM.SetCtrlBits(jh7110.PTCCtrlEN)
	return err
}

// HandleMatch services the PTC match interrupt
func (q *StepSequencer) HandleMatch() error {
	q.stats.Matches++
	cntr, hrc, lrc := q.PWM.Counter(), q.PWM.HighRef(), q.PWM.LowRef()

	qualify := q.Qualify
	if qualify == nil {
		qualify = DefaultQualifier
	}
	if !qualify(cntr, hrc, lrc) {
		q.stats.Ignored++
		q.PWM.ClearInterrupt()
		return nil
	}

	q.stats.Steps++
	if q.cmd.Remaining > 0 {
		q.cmd.Remaining--
	}
	RecordEvent(EvtStep, uint8(q.PWM.Channel), q.cmd.Remaining, cntr)

	var err error
	switch q.cmd.Remaining {
	case 0:
		err = q.reload()
	case 1:
		// The next pulse ends the leg: stop the counter after it
		q.PWM.SetOneShot(true)
	}

	q.PWM.ClearInterrupt()
	return err
}

// reload starts the next leg in the opposite direction
func (q *StepSequencer) reload() error {
	q.cmd.Remaining = q.MoveLength
	q.cmd.Direction = q.cmd.Direction.Flip()
	q.stats.Legs++
	RecordEvent(EvtReload, uint8(q.PWM.Channel), uint32(q.cmd.Direction), q.stats.Legs)

	q.PWM.ResetCounter()
	err := q.driveDirection()

	// Single mode clears EN when the counter stops; restart free running
	// unless the new leg is itself one pulse long.
	q.PWM.SetOneShot(q.cmd.Remaining == 1)
	q.PWM.SetCtrlBits(jh7110.PTCCtrlEN)
	return err
}

// driveDirection sets the DIR output for the current direction
func (q *StepSequencer) driveDirection() error {
	high := q.cmd.Direction == Retrograde
	if q.InvertDir {
		high = !high
	}
	return q.Dir.SetPin(q.DirPin, high)
}

// Command returns a copy of the move in flight
func (q *StepSequencer) Command() StepMoveCommand {
	return q.cmd
}

// Stats returns a copy of the match counters
func (q *StepSequencer) Stats() StepStats {
	return q.stats
}
