package core

// Hart identifies one U74-MC hardware thread. Hart 0 is the S7 monitor core.
type Hart uint8

const (
	Hart0 Hart = iota
	Hart1
	Hart2
	Hart3
	Hart4

	NumHarts = 5
)

// AppHart is the only hart that runs the interrupt-driven control loops.
const AppHart = Hart1

// Mode is the privilege mode a PLIC context belongs to
type Mode uint8

const (
	MachineMode Mode = iota
	SupervisorMode
)

func (m Mode) String() string {
	if m == SupervisorMode {
		return "S"
	}
	return "M"
}
