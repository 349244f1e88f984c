package core

import (
	"strings"
	"testing"

	"visionfw/sim"
)

// newTestSoC installs a fresh simulated SoC as the register bus
func newTestSoC(t *testing.T) *sim.SoC {
	t.Helper()
	soc := sim.NewSoC()
	SetBus(soc.Bus)
	SetCurrentHart(AppHart)
	ClearEvents()
	t.Cleanup(func() { SetBus(nil) })
	return soc
}

type logCapture struct {
	lines []string
}

func (c *logCapture) contains(substr string) bool {
	for _, l := range c.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// captureLog collects every line written through the debug writer
func captureLog(t *testing.T) *logCapture {
	t.Helper()
	c := &logCapture{}
	SetDebugWriter(func(s string) { c.lines = append(c.lines, s) })
	t.Cleanup(func() {
		SetDebugWriter(nil)
		SetDebugEnabled(false)
	})
	return c
}
