//go:build tinygo

package core

import (
	"device/riscv"
	"runtime/interrupt"
)

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// enableGlobalInterrupts unmasks machine external interrupts and sets MIE.
// Everything the core serves arrives through the PLIC.
func enableGlobalInterrupts() {
	riscv.MIE.SetBits(riscv.MIE_MEIE)
	riscv.MSTATUS.SetBits(riscv.MSTATUS_MIE)
}

// waitForInterrupt stalls the hart until the next interrupt
func waitForInterrupt() {
	riscv.Asm("wfi")
}
