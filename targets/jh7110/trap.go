//go:build jh7110

package main

import "visionfw/core"

// jh7110Trap is called by the runtime's trap handler for every machine trap
// taken on the application hart. Exceptions are fatal.
//
//export jh7110_trap
func jh7110Trap(cause, epc, tval uint64) {
	if fw == nil {
		core.Halt("trap before configure: " + core.Cause(cause).String())
	}
	if err := fw.HandleTrap(core.Cause(cause), epc, tval); err != nil {
		core.Halt(err.Error())
	}
}
