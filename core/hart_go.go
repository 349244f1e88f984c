//go:build !tinygo

package core

var simulatedHart = AppHart

// CurrentHart returns the hart the caller runs on (simulated on regular Go)
func CurrentHart() Hart {
	return simulatedHart
}

// SetCurrentHart changes the simulated hart id (for testing)
func SetCurrentHart(h Hart) {
	simulatedHart = h
}
