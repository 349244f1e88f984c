//go:build jh7110

// Runtime support for the JH7110 application hart. This tree is copied over
// $TINYGOROOT before building with -target=jh7110.

package runtime

import (
	"device/riscv"
	"runtime/volatile"
	"unsafe"
)

type timeUnit int64

const (
	clintMTime = 0x0200_bff8
	mtimeHz    = 4_000_000

	uart0Base   = 0x1000_0000
	uartLSR     = 0x14
	uartLSRDR   = 1 << 0
	uartLSRTHRE = 1 << 5
)

//export main
func main() {
	preinit()

	// Every trap, interrupt or exception, goes through handleInterrupt.
	// The address must be aligned so the MODE bits stay zero.
	riscv.MTVEC.Set(uintptr(unsafe.Pointer(&handleInterruptASM)))

	run()
	exit(0)
}

//go:extern handleInterruptASM
var handleInterruptASM [0]uintptr

// firmwareTrap is defined by the firmware image
//
//export jh7110_trap
func firmwareTrap(cause, epc, tval uint64)

//export handleInterrupt
func handleInterrupt() {
	firmwareTrap(uint64(riscv.MCAUSE.Get()), uint64(riscv.MEPC.Get()), uint64(riscv.MTVAL.Get()))

	// Zero MCAUSE so that it can later be used to see whether we're in an
	// interrupt or not.
	riscv.MCAUSE.Set(0)
}

func uartReg(offset uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(uart0Base) + offset))
}

func putchar(c byte) {
	for uartReg(uartLSR).Get()&uartLSRTHRE == 0 {
	}
	uartReg(0).Set(uint32(c))
}

func getchar() byte {
	for buffered() == 0 {
		Gosched()
	}
	return byte(uartReg(0).Get())
}

func buffered() int {
	if uartReg(uartLSR).Get()&uartLSRDR != 0 {
		return 1
	}
	return 0
}

var mtime = (*volatile.Register64)(unsafe.Pointer(uintptr(clintMTime)))

func ticks() timeUnit {
	return timeUnit(mtime.Get())
}

// sleepTicks spins on mtime; the machine timer interrupt stays masked.
func sleepTicks(d timeUnit) {
	target := ticks() + d
	for ticks() < target {
	}
}

// One mtime tick is 250ns.
func ticksToNanoseconds(ticks timeUnit) int64 {
	return int64(ticks) * (1_000_000_000 / mtimeHz)
}

func nanosecondsToTicks(ns int64) timeUnit {
	return timeUnit(ns / (1_000_000_000 / mtimeHz))
}
