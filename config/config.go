package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"visionfw/core"
	"visionfw/jh7110"
)

// Load reads and parses a board file
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board file: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes a board file, applies defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Board, error) {
	var b Board
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parse board file: %w", err)
	}

	applyDefaults(&b)

	if err := Validate(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Marshal encodes a board back to YAML
func Marshal(b *Board) ([]byte, error) {
	return yaml.Marshal(b)
}

// applyDefaults fills in missing values with the reference configuration
func applyDefaults(b *Board) {
	if b.Name == "" {
		b.Name = "visionfive2"
	}

	d := &b.Debounce
	if d.TickMs == 0 {
		d.TickMs = core.DefaultTickMillis
	}
	if d.StableTicks == 0 {
		d.StableTicks = core.DefaultStableTicks
	}
	if d.Priority == 0 {
		d.Priority = uint32(core.Priority7)
	}
	// timer channel 0 is a valid choice, so it has no default

	for i := range b.Signals {
		if b.Signals[i].Name == "" {
			b.Signals[i].Name = b.Signals[i].Pin
		}
	}

	if s := b.Stepper; s != nil {
		if s.Priority == 0 {
			s.Priority = uint32(core.Priority7)
		}
		if s.High == 0 {
			s.High = s.Period / 2 // 50% duty
		}
	}
}

// Validate checks the board for values the hardware cannot take.
// It does not modify the board.
func Validate(b *Board) error {
	if len(b.Signals) == 0 {
		return fmt.Errorf("board %q: no signals defined", b.Name)
	}

	d := b.Debounce
	if d.TimerChannel >= jh7110.NumTimers {
		return fmt.Errorf("debounce: timer_channel %d out of range (0-%d)", d.TimerChannel, jh7110.NumTimers-1)
	}
	if err := checkPriority(d.Priority); err != nil {
		return fmt.Errorf("debounce: %w", err)
	}
	if d.TickMs == 0 || uint64(d.TickMs)*(jh7110.TimerClockHz/1000) > 0xffff_ffff {
		return fmt.Errorf("debounce: tick_ms %d does not fit the timer", d.TickMs)
	}

	used := make(map[core.GPIOPin]string)
	for _, s := range b.Signals {
		pin, err := ParsePin(s.Pin)
		if err != nil {
			return fmt.Errorf("signal %q: %w", s.Name, err)
		}
		if prev, exists := used[pin]; exists {
			return fmt.Errorf("signal %q: pin %d already used by %q", s.Name, pin, prev)
		}
		used[pin] = s.Name
	}

	s := b.Stepper
	if s == nil {
		return nil
	}
	if s.Channel >= jh7110.NumPTC {
		return fmt.Errorf("stepper: channel %d out of range (0-%d)", s.Channel, jh7110.NumPTC-1)
	}
	if err := checkPriority(s.Priority); err != nil {
		return fmt.Errorf("stepper: %w", err)
	}
	if s.MoveLength == 0 {
		return fmt.Errorf("stepper: move_length must be at least 1")
	}
	if s.Period == 0 || s.High == 0 || s.High >= s.Period {
		return fmt.Errorf("stepper: high %d must be between 1 and period %d", s.High, s.Period)
	}
	pin, err := ParsePin(s.DirPin)
	if err != nil {
		return fmt.Errorf("stepper: dir_pin: %w", err)
	}
	if prev, exists := used[pin]; exists {
		return fmt.Errorf("stepper: dir_pin %d already used by signal %q", pin, prev)
	}
	return nil
}

// checkPriority rejects priorities the router threshold would mask
func checkPriority(prio uint32) error {
	if prio <= uint32(core.RouteThreshold) || prio > uint32(core.Priority7) {
		return fmt.Errorf("priority %d out of range (%d-7)", prio, core.RouteThreshold+1)
	}
	return nil
}

// ParsePin accepts "gpio37", "GPIO37" or "37"
func ParsePin(s string) (core.GPIOPin, error) {
	num := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "gpio")
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", s)
	}
	if n >= jh7110.NumGPIO {
		return 0, fmt.Errorf("pin %q out of range (0-%d)", s, jh7110.NumGPIO-1)
	}
	return core.GPIOPin(n), nil
}

// ToCore converts a validated board into the firmware configuration
func (b *Board) ToCore() (core.BoardConfig, error) {
	cfg := core.BoardConfig{
		TickChannel:   b.Debounce.TimerChannel,
		TickLoad:      core.TimerLoadForMillis(b.Debounce.TickMs),
		StableTicks:   b.Debounce.StableTicks,
		BootstrapHigh: b.Debounce.BootstrapHigh,
		InputPriority: core.Priority(b.Debounce.Priority),
	}
	for _, s := range b.Signals {
		pin, err := ParsePin(s.Pin)
		if err != nil {
			return core.BoardConfig{}, fmt.Errorf("signal %q: %w", s.Name, err)
		}
		cfg.Signals = append(cfg.Signals, pin)
	}

	if s := b.Stepper; s != nil {
		dir, err := ParsePin(s.DirPin)
		if err != nil {
			return core.BoardConfig{}, fmt.Errorf("stepper: %w", err)
		}
		cfg.StepEnabled = true
		cfg.StepPriority = core.Priority(s.Priority)
		cfg.Step = core.StepConfig{
			Channel:    s.Channel,
			Period:     s.Period,
			High:       s.High,
			MoveLength: s.MoveLength,
			DirPin:     dir,
			InvertDir:  s.InvertDir,
		}
	}
	return cfg, nil
}

// SignalName returns the configured name of pin, or "" when it is not a signal
func (b *Board) SignalName(pin core.GPIOPin) string {
	for _, s := range b.Signals {
		if p, err := ParsePin(s.Pin); err == nil && p == pin {
			return s.Name
		}
	}
	return ""
}

// Default returns the VisionFive 2 bench setup as a board file
func Default() *Board {
	return &Board{
		Name: "visionfive2",
		Debounce: DebounceConfig{
			TimerChannel: 1,
			TickMs:       core.DefaultTickMillis,
			StableTicks:  core.DefaultStableTicks,
			Priority:     uint32(core.Priority7),
		},
		Signals: []SignalConfig{
			{Name: "switch", Pin: "gpio37"},
		},
		Stepper: &StepperConfig{
			Channel:    1,
			Period:     5_000_000,
			High:       2_500_000,
			MoveLength: 200,
			DirPin:     "gpio39",
			Priority:   uint32(core.Priority7),
		},
	}
}
