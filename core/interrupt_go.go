//go:build !tinygo

package core

// State is a placeholder for interrupt state on regular Go
type State uintptr

// criticalDepth counts nested critical sections so tests can check that
// shared state is only touched with interrupts masked.
var criticalDepth int

// disableInterrupts is a no-op on regular Go (for testing)
func disableInterrupts() State {
	criticalDepth++
	return 0
}

// restoreInterrupts is a no-op on regular Go (for testing)
func restoreInterrupts(state State) {
	criticalDepth--
}

// enableGlobalInterrupts is a no-op on regular Go
func enableGlobalInterrupts() {}

// waitForInterrupt returns immediately on regular Go
func waitForInterrupt() {}
