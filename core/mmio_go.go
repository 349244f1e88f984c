//go:build !tinygo

package core

// defaultBus returns nil on regular Go; tests install a simulated bus.
func defaultBus() Bus {
	return nil
}
