// Package jh7110 holds the physical memory map and interrupt numbers of the
// StarFive JH7110 SoC that the firmware touches. Offsets follow the JH7110
// datasheet and the SiFive U74-MC core complex manual.
package jh7110

// Peripheral base addresses
const (
	PLICBase     uintptr = 0x0C00_0000
	SysIOMUXBase uintptr = 0x1304_0000 // SYS_IOMUX (pinctrl + GPIO interrupt block)
	TimerBase    uintptr = 0x1305_0000
	PTCBase      uintptr = 0x120D_0000 // 8 channel OpenCores PTC (PWM)
	CLINTBase    uintptr = 0x0200_0000
)

// PLIC layout
const (
	PLICPriorityOffset  = 0x0000
	PLICPendingOffset   = 0x1000
	PLICEnableOffset    = 0x2000
	PLICEnableStride    = 0x80
	PLICContextOffset   = 0x20_0000
	PLICContextStride   = 0x1000
	PLICThresholdOffset = 0x0
	PLICClaimOffset     = 0x4

	// Number of global interrupt sources wired on the JH7110 (1..136)
	NumInterrupts = 137
)

// Global interrupt numbers used by the firmware
const (
	IRQWatchdog = 68
	IRQPTC0     = 60
	IRQPTC1     = 61
	IRQTimer0   = 69
	IRQTimer1   = 70
	IRQTimer2   = 71
	IRQTimer3   = 72
	IRQAonIOMUX = 85
	IRQSysIOMUX = 86
)

// SYS_IOMUX GPIO output select and interrupt block. Each of the paired
// registers covers pins 0..31 (first) and 32..63 (second).
const (
	GPODoenOffset = 0x00 // output enable select, 8 bits per pin, 0 = driven
	GPODoutOffset = 0x40 // output value select, 8 bits per pin

	GPIOENOffset    = 0xdc  // global GPIO interrupt enable
	GPIOISOffset    = 0xe0  // interrupt sense: 1 edge, 0 level
	GPIOICOffset    = 0xe8  // interrupt clear
	GPIOIBEOffset   = 0xf0  // interrupt on both edges
	GPIOIEVOffset   = 0xf8  // interrupt event: 1 rising/high
	GPIOIEOffset    = 0x100 // interrupt mask: 1 unmasked
	GPIORISOffset   = 0x108 // raw interrupt status
	GPIOMISOffset   = 0x110 // masked interrupt status
	GPIOSyncOffset  = 0x118 // synchronized input value
	GPIOBlockStride = 0x4

	NumGPIO = 64
)

// Timer block: one shared status register, then 0x40 byte channels
const (
	TimerIntStatusOffset = 0x00
	TimerChannelStride   = 0x40
	TimerControlOffset   = 0x04
	TimerLoadOffset      = 0x08
	TimerEnableOffset    = 0x10
	TimerReloadOffset    = 0x14
	TimerValueOffset     = 0x18
	TimerIntClearOffset  = 0x20
	TimerIntMaskOffset   = 0x24
	TimerIntClearBusyBit = 1
	NumTimers            = 4
	TimerClockHz         = 24_000_000 // APB clock feeding the timers
)

// PTC channel layout
const (
	PTCChannelStride = 0x10
	PTCCntrOffset    = 0x0
	PTCHrcOffset     = 0x4
	PTCLrcOffset     = 0x8
	PTCCtrlOffset    = 0xC
	NumPTC           = 8
)

// PTC CTRL bits
const (
	PTCCtrlEN      = 1 << 0 // counter increments
	PTCCtrlECLK    = 1 << 1 // external clock
	PTCCtrlNEC     = 1 << 2 // negative edge for external clock
	PTCCtrlOE      = 1 << 3 // output driver enable
	PTCCtrlSINGLE  = 1 << 4 // one-shot, counter stops at LRC
	PTCCtrlINTE    = 1 << 5 // interrupt enable
	PTCCtrlINT     = 1 << 6 // interrupt pending
	PTCCtrlCNTRRST = 1 << 7 // counter reset
	PTCCtrlCAPTE   = 1 << 8 // capture enable
)

// CLINT machine timer
const (
	CLINTMSIPOffset     = 0x0000
	CLINTMTimeCmpOffset = 0x4000
	CLINTMTimeOffset    = 0xbff8
)

// UART0 (8250 compatible, 32-bit register stride), left configured at
// 115200 8N1 by the boot loader
const (
	UART0Base uintptr = 0x1000_0000

	UARTTHROffset = 0x00 // transmit holding
	UARTLSROffset = 0x14 // line status (reg 5 << 2)
	UARTLSRTHRE   = 1 << 5
)
