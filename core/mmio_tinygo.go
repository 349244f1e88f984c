//go:build tinygo

package core

import (
	"runtime/volatile"
	"unsafe"
)

// volatileBus dereferences physical addresses directly.
type volatileBus struct{}

func (volatileBus) Load32(addr uintptr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (volatileBus) Store32(addr uintptr, value uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(addr)), value)
}

// defaultBus returns the volatile MMIO bus
func defaultBus() Bus {
	return volatileBus{}
}
