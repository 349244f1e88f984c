// Package scenario drives the firmware core on the simulated SoC from a
// script of hardware events, for bench-free checks of a board file.
//
// A scenario is YAML with a list of steps; each step is one command line:
//
//	tick [n]                     expire the debounce timer n times
//	edge <pin> <high|low>        drive an input and service the interrupt
//	bounce <pin> <high|low> <n>  n alternating edges, ending on the level
//	level <pin> <high|low>       drive an input without servicing
//	service                      service every pending interrupt
//	step [n]                     run n step periods (HRC then LRC match)
//	expect <pin|name> <state>    check a signal state, e.g. stable-high
//	expect-step key=value...     check remaining=, direction=, legs=
//	debug <on|off>               verbose firmware output
//	dump                         PLIC, timer and event ring dumps
//	echo <text...>               print text
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one script
type Scenario struct {
	Name  string   `yaml:"name"`
	Board string   `yaml:"board,omitempty"` // board file, relative to the scenario
	Steps []string `yaml:"steps"`

	dir string
}

// Load reads a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

// Parse decodes a scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", s.Name)
	}
	return &s, nil
}

// BoardPath returns the board file named by the scenario, resolved against
// the scenario's directory, or "" when none is named
func (s *Scenario) BoardPath() string {
	if s.Board == "" || filepath.IsAbs(s.Board) {
		return s.Board
	}
	return filepath.Join(s.dir, s.Board)
}
