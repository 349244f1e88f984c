package sim

import (
	"visionfw/jh7110"
)

// PLICSize is the mapped size of the PLIC model
const PLICSize = 0x400_0000

// SoC is a bus with every modeled JH7110 peripheral at its datasheet address
type SoC struct {
	Bus   *Bus
	PLIC  *PLIC
	GPIO  *GPIO
	Timer *Timer
	PTC   *PTC
}

// NewSoC builds and maps all peripheral models
func NewSoC() *SoC {
	s := &SoC{Bus: NewBus(), PLIC: NewPLIC()}
	s.GPIO = NewGPIO(s.PLIC, jh7110.IRQSysIOMUX)
	s.Timer = NewTimer(s.PLIC)
	s.PTC = NewPTC(s.PLIC)

	s.Bus.Map(jh7110.PLICBase, PLICSize, s.PLIC)
	s.Bus.Map(jh7110.SysIOMUXBase, GPIOSize, s.GPIO)
	s.Bus.Map(jh7110.TimerBase, TimerSize, s.Timer)
	s.Bus.Map(jh7110.PTCBase, PTCSize, s.PTC)
	return s
}
