package core

import (
	"errors"
	"testing"

	"visionfw/jh7110"
)

func TestCauseDecode(t *testing.T) {
	tests := []struct {
		cause     Cause
		interrupt bool
		code      uint32
		name      string
	}{
		{CauseExternal, true, 11, "machine external interrupt"},
		{CauseTimer, true, 7, "machine timer interrupt"},
		{CauseEnvCallM, false, 11, "environment call from M-mode"},
		{CauseLoadFault, false, 5, "load access fault"},
		{Cause(24), false, 24, "exception 24"},
		{causeInterrupt | 16, true, 16, "interrupt 16"},
	}
	for _, tt := range tests {
		if tt.cause.IsInterrupt() != tt.interrupt {
			t.Errorf("%s: Expected interrupt=%v", tt.name, tt.interrupt)
		}
		if tt.cause.Code() != tt.code {
			t.Errorf("%s: Expected code %d, got %d", tt.name, tt.code, tt.cause.Code())
		}
		if tt.cause.String() != tt.name {
			t.Errorf("Expected %q, got %q", tt.name, tt.cause.String())
		}
	}
}

func TestHandleTrapServesExternalInterrupt(t *testing.T) {
	fw, soc := newTestFirmware(t)

	soc.Timer.Fire(1)
	if err := fw.HandleTrap(CauseExternal, 0x4000_1000, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if soc.PLIC.Pending(jh7110.IRQTimer1) {
		t.Error("tick left pending after external trap")
	}
	if claims, completes := soc.PLIC.Counts(); claims != 1 || completes != 1 {
		t.Errorf("Expected 1 claim and 1 complete, got %d/%d", claims, completes)
	}
}

func TestHandleTrapReportsException(t *testing.T) {
	fw, soc := newTestFirmware(t)

	err := fw.HandleTrap(CauseIllegalInstruction, 0x4000_2a10, 0xdead)
	if !errors.Is(err, ErrException) {
		t.Fatalf("Expected exception error, got %v", err)
	}
	var te *TrapError
	if !errors.As(err, &te) || te.EPC != 0x4000_2a10 {
		t.Fatalf("Expected TrapError at 0x40002a10, got %v", err)
	}
	want := "illegal instruction at epc=0x0000000040002a10 tval=0x000000000000dead"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
	if claims, _ := soc.PLIC.Counts(); claims != 0 {
		t.Errorf("exception touched the PLIC: %d claims", claims)
	}
	if exc, _ := fw.TrapCounts(); exc != 1 {
		t.Errorf("Expected 1 exception, got %d", exc)
	}
}

func TestHandleTrapDropsStrayInterrupt(t *testing.T) {
	log := captureLog(t)
	fw, soc := newTestFirmware(t)

	if err := fw.HandleTrap(CauseTimer, 0, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if claims, _ := soc.PLIC.Counts(); claims != 0 {
		t.Errorf("stray interrupt claimed from the PLIC: %d", claims)
	}
	if _, stray := fw.TrapCounts(); stray != 1 {
		t.Errorf("Expected 1 stray interrupt, got %d", stray)
	}
	if !log.contains("trap: ignoring machine timer interrupt") {
		t.Errorf("stray interrupt not logged: %q", log.lines)
	}
}
