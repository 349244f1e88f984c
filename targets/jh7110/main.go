//go:build jh7110

// Firmware image for the VisionFive 2. Hart 1 runs the interrupt-driven
// debounce and step loops; every other hart parks. Build with the TinyGo
// overlay in _tinygo/ copied over $TINYGOROOT:
//
//	tinygo build -target=jh7110 -o visionfw.elf ./targets/jh7110
package main

import (
	"visionfw/core"
	"visionfw/jh7110"
	"visionfw/logline"
)

var fw *core.Firmware

func main() {
	if core.CurrentHart() != core.AppHart {
		core.Park()
	}

	uart := &debugUART{base: jh7110.UART0Base}
	out := logline.NewWriter(uart)
	core.SetDebugWriter(out.Println)
	core.SetDebugEnabled(true)
	core.Logln("visionfw: hart " + itoa(int(core.CurrentHart())) + " up")

	fw = core.NewFirmware()
	fw.Boot(visionFive2{})

	core.SetGPIODriver(core.NewSysGPIO())
	cfg := core.DefaultBoardConfig()
	if err := fw.Configure(cfg, core.MustGPIO()); err != nil {
		core.Halt("configure: " + err.Error())
	}
	fw.Router.DumpEnables()

	fw.Start()
	core.Logln("visionfw: running")
	fw.Idle()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
