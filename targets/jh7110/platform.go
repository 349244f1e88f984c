//go:build jh7110

package main

import "visionfw/core"

// visionFive2 is the board bring-up. The SPL and OpenSBI have already set up
// clocks, pin muxing and DDR by the time the payload runs, so each step only
// reports itself.
type visionFive2 struct{}

func (visionFive2) ConfigureClocks() {
	core.DebugPrintln("clocks: boot loader defaults")
}

func (visionFive2) ConfigurePins() {
	core.DebugPrintln("pins: boot loader defaults")
}

func (visionFive2) ConfigureDDR() {
	core.DebugPrintln("ddr: trained by SPL")
}
