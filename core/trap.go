package core

// External interrupt demultiplexing. The machine external interrupt trap
// lands in Dispatcher.HandleExternal, which claims the source from the PLIC,
// runs the handler registered in the vector table and completes the source.

import (
	"visionfw/jh7110"
)

// Handler services one interrupt source. A returned error is logged; the
// source is completed either way.
type Handler func() error

// Vector is one slot of the interrupt vector table
type Vector struct {
	Handler  Handler
	Assigned bool
}

// VectorTable maps a global interrupt number to its handler. It is built once
// by the target before interrupts are enabled and only read afterwards.
type VectorTable [jh7110.NumInterrupts]Vector

// Assign fills slot source. Only for use while building the table.
func (t *VectorTable) Assign(source uint32, h Handler) error {
	if !validSource(source) {
		return ErrInvalidSource
	}
	t[source] = Vector{Handler: h, Assigned: h != nil}
	return nil
}

// Lookup returns the vector for source and whether it is assigned
func (t *VectorTable) Lookup(source uint32) (Vector, bool) {
	if source >= uint32(len(t)) {
		return Vector{}, false
	}
	v := t[source]
	return v, v.Assigned && v.Handler != nil
}

// DispatchStats counts what the dispatcher has seen
type DispatchStats struct {
	Handled       uint32 // claims with an assigned vector
	Spurious      uint32 // claims that returned 0
	Unassigned    uint32 // claims with no vector
	HandlerErrors uint32 // handlers that returned an error
	Nested        uint32 // entries while already dispatching
}

// Dispatcher is the single external interrupt entry point for a hart
type Dispatcher struct {
	Router PLIC
	Mode   Mode
	Table  *VectorTable

	dispatching bool
	stats       DispatchStats
}

// NewDispatcher returns an M-mode dispatcher over table
func NewDispatcher(router PLIC, table *VectorTable) *Dispatcher {
	return &Dispatcher{
		Router: router,
		Mode:   MachineMode,
		Table:  table,
	}
}

// HandleExternal services one external interrupt: claim, dispatch, complete.
// A claim of 0 returns without completing anything.
func (d *Dispatcher) HandleExternal() {
	hart := CurrentHart()
	source := d.Router.Claim(hart, d.Mode)
	if source == 0 {
		d.stats.Spurious++
		RecordEvent(EvtSpurious, uint8(hart), 0, 0)
		return
	}

	wasDispatching := d.dispatching
	if wasDispatching {
		d.stats.Nested++
	}
	d.dispatching = true
	RecordEvent(EvtClaim, uint8(source), uint32(hart), 0)

	d.dispatch(source)

	// Always complete; an uncompleted source never fires again
	d.Router.Complete(hart, d.Mode, source)
	d.dispatching = wasDispatching
}

// dispatch runs the vector for source. Panics are not recovered here; a
// panicking handler is a firmware bug that ends in the exception path.
func (d *Dispatcher) dispatch(source uint32) {
	var (
		v  Vector
		ok bool
	)
	if d.Table != nil {
		v, ok = d.Table.Lookup(source)
	}
	if !ok {
		d.stats.Unassigned++
		RecordEvent(EvtUnassigned, uint8(source), 0, 0)
		Logln("unassigned interrupt " + utoa(source))
		return
	}

	d.stats.Handled++
	if err := v.Handler(); err != nil {
		d.stats.HandlerErrors++
		RecordEvent(EvtHandlerError, uint8(source), 0, 0)
		Logln("interrupt " + utoa(source) + " handler: " + err.Error())
	}
}

// Dispatching reports whether a handler is currently running
func (d *Dispatcher) Dispatching() bool {
	return d.dispatching
}

// Stats returns a copy of the dispatch counters
func (d *Dispatcher) Stats() DispatchStats {
	return d.stats
}
