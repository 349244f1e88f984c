package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Captured log files replayed through the monitor
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the board's debug UART
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the VisionFive 2 debug UART settings
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200, // U-Boot and firmware console rate
		ReadTimeout: 100,    // 100ms read timeout
	}
}
