package core

// Owned wraps process-wide state that interrupt handlers mutate. The value is
// only reachable through With, which runs with interrupts masked on the
// owning hart.
type Owned[T any] struct {
	v T
}

// With runs fn with interrupts disabled and a pointer to the owned value.
// Calls may nest; handlers already run masked by the PLIC threshold.
func (o *Owned[T]) With(fn func(v *T)) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn(&o.v)
}
