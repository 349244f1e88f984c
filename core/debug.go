package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// InterruptEvent captures one interrupt-side event for post-mortem analysis
type InterruptEvent struct {
	EventType uint8  // Event type code
	Source    uint8  // Interrupt source, pin or channel
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtClaim        = 1 // PLIC claim returned a source
	EvtSpurious     = 2 // claim returned 0
	EvtUnassigned   = 3 // claimed source has no vector
	EvtHandlerError = 4 // vector handler returned an error
	EvtEdge         = 5 // GPIO edge seen on a registered pin
	EvtSettle       = 6 // signal reached a stable level
	EvtStep         = 7 // qualifying PWM match
	EvtReload       = 8 // step leg finished, direction flipped
	EvtRegistryFull = 9 // signal registration dropped
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether verbose output is active
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]InterruptEvent
	eventRingHead uint8       // Next write position
	eventEnabled  bool = true // Always capture events
)

// SetDebugWriter sets the platform-specific line writer. The writer must not
// block; a failed write is the writer's problem, not the caller's.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables verbose output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether verbose output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a verbose message when debug output is enabled
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// Logln writes a diagnostic line regardless of the debug switch. Used for
// the error classes the firmware recovers from locally.
func Logln(msg string) {
	debugPrintln(msg)
}

// RecordEvent captures an event in the ring buffer
// This is always non-blocking and safe from interrupt context
func RecordEvent(eventType, source uint8, value1, value2 uint32) {
	if !eventEnabled {
		return
	}
	idx := eventRingHead
	eventRing[idx] = InterruptEvent{
		EventType: eventType,
		Source:    source,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// LastEvent returns the most recently recorded event
func LastEvent() InterruptEvent {
	return eventRing[(eventRingHead+EventRingSize-1)%EventRingSize]
}

// eventName maps an event code to its dump label
func eventName(code uint8) string {
	switch code {
	case EvtClaim:
		return "CLAIM"
	case EvtSpurious:
		return "SPURIOUS"
	case EvtUnassigned:
		return "UNASSIGNED!"
	case EvtHandlerError:
		return "HANDLER_ERR!"
	case EvtEdge:
		return "EDGE"
	case EvtSettle:
		return "SETTLE"
	case EvtStep:
		return "STEP"
	case EvtReload:
		return "RELOAD"
	case EvtRegistryFull:
		return "REG_FULL!"
	}
	return "UNKNOWN"
}

// DumpEvents outputs the event ring, oldest first (call on halt or from the
// idle loop, never from a handler)
func DumpEvents() {
	debugPrintln("[EVENTS] === Interrupt Event Dump ===")

	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		idx := (start + i) % EventRingSize
		evt := &eventRing[idx]
		if evt.EventType == 0 {
			continue // Empty slot
		}

		debugPrintln("[EVENTS] " + eventName(evt.EventType) +
			" src=" + itoa(int(evt.Source)) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents clears the event buffer
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = InterruptEvent{}
	}
	eventRingHead = 0
}
