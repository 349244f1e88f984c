//go:build jh7110

package main

import (
	"visionfw/core"
	"visionfw/jh7110"
)

// uartSpinLimit bounds the wait for the transmit holding register so a stuck
// UART cannot wedge an interrupt handler that logs
const uartSpinLimit = 10000

// debugUART writes to UART0 as left configured by the boot loader
type debugUART struct {
	base    uintptr
	dropped uint32
}

// Write implements io.Writer. Bytes that cannot be sent within the spin
// limit are dropped and counted.
func (u *debugUART) Write(p []byte) (int, error) {
	bus := core.MustBus()
	for _, c := range p {
		ready := false
		for i := 0; i < uartSpinLimit; i++ {
			if bus.Load32(u.base+jh7110.UARTLSROffset)&jh7110.UARTLSRTHRE != 0 {
				ready = true
				break
			}
		}
		if !ready {
			u.dropped++
			continue
		}
		bus.Store32(u.base+jh7110.UARTTHROffset, uint32(c))
	}
	return len(p), nil
}
