//go:build tinygo

package core

import "device/riscv"

// CurrentHart reads mhartid
func CurrentHart() Hart {
	return Hart(riscv.MHARTID.Get())
}
