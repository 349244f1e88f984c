package core

import "errors"

// Cause is the raw mcause value of an RV64 machine trap. The top bit is set
// for interrupts; the rest is the interrupt or exception code.
type Cause uint64

const causeInterrupt Cause = 1 << 63

// Interrupt codes
const (
	CauseSoftware Cause = causeInterrupt | 3
	CauseTimer    Cause = causeInterrupt | 7
	CauseExternal Cause = causeInterrupt | 11
)

// Exception codes
const (
	CauseInstructionMisaligned Cause = 0
	CauseInstructionFault      Cause = 1
	CauseIllegalInstruction    Cause = 2
	CauseBreakpoint            Cause = 3
	CauseLoadMisaligned        Cause = 4
	CauseLoadFault             Cause = 5
	CauseStoreMisaligned       Cause = 6
	CauseStoreFault            Cause = 7
	CauseEnvCallM              Cause = 11
)

// ErrException is wrapped by every TrapError
var ErrException = errors.New("synchronous exception")

// IsInterrupt reports whether the trap was asynchronous
func (c Cause) IsInterrupt() bool {
	return c&causeInterrupt != 0
}

// Code strips the interrupt bit
func (c Cause) Code() uint32 {
	return uint32(c &^ causeInterrupt)
}

func (c Cause) String() string {
	switch c {
	case CauseSoftware:
		return "machine software interrupt"
	case CauseTimer:
		return "machine timer interrupt"
	case CauseExternal:
		return "machine external interrupt"
	case CauseInstructionMisaligned:
		return "instruction address misaligned"
	case CauseInstructionFault:
		return "instruction access fault"
	case CauseIllegalInstruction:
		return "illegal instruction"
	case CauseBreakpoint:
		return "breakpoint"
	case CauseLoadMisaligned:
		return "load address misaligned"
	case CauseLoadFault:
		return "load access fault"
	case CauseStoreMisaligned:
		return "store address misaligned"
	case CauseStoreFault:
		return "store access fault"
	case CauseEnvCallM:
		return "environment call from M-mode"
	}
	if c.IsInterrupt() {
		return "interrupt " + utoa(c.Code())
	}
	return "exception " + utoa(c.Code())
}

// TrapError is a synchronous exception taken on the application hart.
// Nothing resumes after one.
type TrapError struct {
	Cause Cause
	EPC   uint64
	TVal  uint64
}

func (e *TrapError) Error() string {
	return e.Cause.String() + " at epc=" + hex64(e.EPC) + " tval=" + hex64(e.TVal)
}

func (e *TrapError) Unwrap() error { return ErrException }

// HandleTrap decodes one machine trap. External interrupts go through the
// PLIC dispatcher; other interrupts are logged and dropped since nothing
// unmasks them. Exceptions come back as a *TrapError.
func (f *Firmware) HandleTrap(cause Cause, epc, tval uint64) error {
	if !cause.IsInterrupt() {
		f.traps++
		return &TrapError{Cause: cause, EPC: epc, TVal: tval}
	}
	if cause == CauseExternal {
		f.HandleExternal()
		return nil
	}
	f.strayInterrupts++
	Logln("trap: ignoring " + cause.String())
	return nil
}

// TrapCounts reports exceptions and unexpected interrupts seen so far
func (f *Firmware) TrapCounts() (exceptions, stray uint32) {
	return f.traps, f.strayInterrupts
}
