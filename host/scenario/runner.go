package scenario

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/buildkite/shellwords"

	"visionfw/config"
	"visionfw/core"
	"visionfw/sim"
)

// maxService bounds one service pass; a source that keeps re-pending past
// this is reported instead of looping forever
const maxService = 64

var (
	errNoStepper    = errors.New("board has no stepper")
	errNotDelivered = errors.New("interrupt pending but not claimable by the application hart")
)

// SignalResult is the final state of one signal
type SignalResult struct {
	Name  string
	Pin   core.GPIOPin
	State core.SignalState
}

// Result is what a scenario run leaves behind
type Result struct {
	Signals   []SignalResult
	Stepper   bool
	Step      core.StepMoveCommand
	StepStats core.StepStats
	Inputs    core.DebounceStats
	Dispatch  core.DispatchStats
	Failures  []string
}

// Passed reports whether every expectation held
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Runner owns a simulated SoC with the firmware configured on it. The core
// keeps its bus and log writer in package state, so only one Runner may be
// active at a time.
type Runner struct {
	board *config.Board
	cfg   core.BoardConfig
	out   io.Writer

	soc *sim.SoC
	fw  *core.Firmware

	failures []string
}

// NewRunner configures the firmware for board on a fresh simulated SoC.
// Firmware log lines and command output go to out.
func NewRunner(board *config.Board, out io.Writer) (*Runner, error) {
	cfg, err := board.ToCore()
	if err != nil {
		return nil, err
	}

	r := &Runner{board: board, cfg: cfg, out: out, soc: sim.NewSoC()}
	core.SetBus(r.soc.Bus)
	core.SetCurrentHart(core.AppHart)
	core.SetDebugWriter(func(s string) { fmt.Fprintln(out, "fw: "+s) })
	core.SetDebugEnabled(board.Debug)
	core.ClearEvents()

	r.fw = core.NewFirmware()
	core.SetGPIODriver(core.NewSysGPIO())
	if err := r.fw.Configure(cfg, core.MustGPIO()); err != nil {
		return nil, fmt.Errorf("configure firmware: %w", err)
	}
	r.fw.Start()
	return r, nil
}

// SoC exposes the simulated hardware
func (r *Runner) SoC() *sim.SoC {
	return r.soc
}

// Run executes every step. A step that cannot be executed stops the run with
// an error; failed expectations are collected in the result.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	for i, step := range s.Steps {
		if err := r.Exec(step); err != nil {
			return r.Result(), fmt.Errorf("step %d %q: %w", i+1, step, err)
		}
	}
	return r.Result(), nil
}

// Exec runs one command line
func (r *Runner) Exec(line string) error {
	args, err := shellwords.SplitPosix(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "tick":
		n, err := optCount(args)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			r.soc.Timer.Fire(int(r.cfg.TickChannel))
			if err := r.service(); err != nil {
				return err
			}
		}
	case "edge", "level":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <pin> <high|low>", cmd)
		}
		pin, err := r.pin(args[0])
		if err != nil {
			return err
		}
		high, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		r.soc.GPIO.SetLevel(uint32(pin), high)
		if cmd == "edge" {
			return r.service()
		}
	case "bounce":
		return r.bounce(args)
	case "service":
		return r.service()
	case "step":
		n, err := optCount(args)
		if err != nil {
			return err
		}
		return r.step(n)
	case "expect":
		return r.expect(args)
	case "expect-step":
		return r.expectStep(args)
	case "debug":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("usage: debug <on|off>")
		}
		core.SetDebugEnabled(args[0] == "on")
	case "dump":
		r.dump()
	case "echo":
		fmt.Fprintln(r.out, strings.Join(args, " "))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// service takes the external interrupt until nothing is pending. A pending
// source the application hart cannot claim is reported; the firmware would
// never see it.
func (r *Runner) service() error {
	for i := 0; i < maxService; i++ {
		if !r.soc.PLIC.AnyPending() {
			return nil
		}
		before := r.fw.Dispatch.Stats().Spurious
		r.fw.HandleExternal()
		if r.fw.Dispatch.Stats().Spurious != before {
			return errNotDelivered
		}
	}
	return fmt.Errorf("interrupt storm: still pending after %d claims", maxService)
}

func (r *Runner) bounce(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: bounce <pin> <high|low> <edges>")
	}
	pin, err := r.pin(args[0])
	if err != nil {
		return err
	}
	high, err := parseLevel(args[1])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[2])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid edge count %q", args[2])
	}
	// n alternating edges from the current level, plus one more if they
	// did not end on the requested level
	level := r.soc.GPIO.Level(uint32(pin))
	for i := 0; i < n || level != high; i++ {
		level = !level
		r.soc.GPIO.SetLevel(uint32(pin), level)
		if err := r.service(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) step(n int) error {
	if !r.cfg.StepEnabled {
		return errNoStepper
	}
	ch := int(r.cfg.Step.Channel)
	for i := 0; i < n; i++ {
		if r.soc.PTC.Match(ch, r.cfg.Step.High) {
			if err := r.service(); err != nil {
				return err
			}
		}
		if r.soc.PTC.EndOfPeriod(ch) {
			if err := r.service(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) expect(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: expect <pin|name> <state>")
	}
	pin, err := r.pin(args[0])
	if err != nil {
		return err
	}
	want, err := parseState(args[1])
	if err != nil {
		return err
	}

	var (
		sig core.Signal
		ok  bool
	)
	r.fw.Inputs.With(func(d *core.Debouncer) { sig, ok = d.Lookup(pin) })
	if !ok {
		return fmt.Errorf("pin %d is not a registered signal", pin)
	}
	if sig.State != want {
		r.fail(fmt.Sprintf("%s: expected %s, got %s", args[0], want, sig.State))
	}
	return nil
}

func (r *Runner) expectStep(args []string) error {
	if !r.cfg.StepEnabled {
		return errNoStepper
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: expect-step remaining=N direction=D legs=N")
	}
	var (
		cmd   core.StepMoveCommand
		stats core.StepStats
	)
	r.fw.Stepper.With(func(q *core.StepSequencer) { cmd, stats = q.Command(), q.Stats() })

	for _, kv := range args {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			return fmt.Errorf("expected key=value, got %q", kv)
		}
		var got string
		switch key {
		case "remaining":
			got = strconv.FormatUint(uint64(cmd.Remaining), 10)
		case "direction":
			got = cmd.Direction.String()
		case "legs":
			got = strconv.FormatUint(uint64(stats.Legs), 10)
		case "steps":
			got = strconv.FormatUint(uint64(stats.Steps), 10)
		default:
			return fmt.Errorf("unknown step field %q", key)
		}
		if got != value {
			r.fail(fmt.Sprintf("step %s: expected %s, got %s", key, value, got))
		}
	}
	return nil
}

func (r *Runner) dump() {
	r.fw.Router.DumpEnables()
	r.fw.Router.DumpPending()
	core.NewTimer(r.cfg.TickChannel).DumpRegisters()
	core.DumpEvents()
}

func (r *Runner) fail(msg string) {
	fmt.Fprintln(r.out, "FAIL "+msg)
	r.failures = append(r.failures, msg)
}

// Result collects the current state of the firmware
func (r *Runner) Result() *Result {
	res := &Result{
		Stepper:  r.cfg.StepEnabled,
		Dispatch: r.fw.Dispatch.Stats(),
		Failures: append([]string(nil), r.failures...),
	}
	r.fw.Inputs.With(func(d *core.Debouncer) {
		for _, s := range d.Signals() {
			res.Signals = append(res.Signals, SignalResult{
				Name:  r.board.SignalName(s.Pin),
				Pin:   s.Pin,
				State: s.State,
			})
		}
		res.Inputs = d.Stats()
	})
	if r.cfg.StepEnabled {
		r.fw.Stepper.With(func(q *core.StepSequencer) {
			res.Step, res.StepStats = q.Command(), q.Stats()
		})
	}
	return res
}

// pin resolves a signal name or a pin number
func (r *Runner) pin(s string) (core.GPIOPin, error) {
	for _, sig := range r.board.Signals {
		if sig.Name == s {
			return config.ParsePin(sig.Pin)
		}
	}
	return config.ParsePin(s)
}

func optCount(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", args[0])
	}
	return n, nil
}

func parseLevel(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "high", "1":
		return true, nil
	case "low", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid level %q", s)
}

func parseState(s string) (core.SignalState, error) {
	for st := core.StateUnknown; st <= core.StateStabilizingHigh; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("invalid state %q", s)
}

// Summary writes the result as a short report
func (res *Result) Summary(w io.Writer) {
	for _, s := range res.Signals {
		fmt.Fprintf(w, "signal %-12s gpio%-2d %s\n", s.Name, s.Pin, s.State)
	}
	if res.Stepper {
		fmt.Fprintf(w, "stepper remaining=%d direction=%s legs=%d steps=%d ignored=%d\n",
			res.Step.Remaining, res.Step.Direction, res.StepStats.Legs, res.StepStats.Steps, res.StepStats.Ignored)
	}
	fmt.Fprintf(w, "interrupts handled=%d spurious=%d unassigned=%d errors=%d\n",
		res.Dispatch.Handled, res.Dispatch.Spurious, res.Dispatch.Unassigned, res.Dispatch.HandlerErrors)
	if res.Passed() {
		fmt.Fprintln(w, "PASS")
	} else {
		fmt.Fprintf(w, "FAIL (%d expectations)\n", len(res.Failures))
	}
}
