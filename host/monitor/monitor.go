package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"visionfw/host/serial"
	"visionfw/logline"
)

// maxFrame bounds a line before it is dropped as noise
const maxFrame = logline.MaxText + 8

// ErrNotConnected is returned by Run before Connect or Attach
var ErrNotConnected = errors.New("monitor not connected")

// Line is one line read from the board
type Line struct {
	Time time.Time
	Text string // frame text, or the raw line when Err is set
	Err  error  // nil for a valid frame
}

// Halt reports whether the line is the firmware's fatal-stop report
func (l Line) Halt() bool {
	return l.Err == nil && strings.HasPrefix(l.Text, "halt:")
}

// Stats counts what the monitor has seen
type Stats struct {
	Lines   int // valid frames
	Corrupt int // frames with a bad checksum
	Invalid int // lines without a frame, and overlong lines
}

// Monitor reads framed log lines from the board UART
type Monitor struct {
	// Transport layer
	port   io.ReadCloser
	follow bool

	// Partial line carried between reads
	pending []byte
	overrun bool

	mu    sync.Mutex
	stats Stats
	done  chan struct{}

	// Connection state
	connected bool
}

// NewMonitor creates a new Monitor (not yet connected)
func NewMonitor() *Monitor {
	return &Monitor{
		done: make(chan struct{}),
	}
}

// Connect opens the board UART
func (m *Monitor) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the board UART with a custom serial config. Read
// timeouts on an idle line are retried.
func (m *Monitor) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return fmt.Errorf("failed to flush serial port: %w", err)
	}
	m.port = port
	m.follow = true
	m.connected = true
	return nil
}

// Attach reads from r instead of a serial port, e.g. a captured log. Run
// returns at the end of r.
func (m *Monitor) Attach(r io.ReadCloser) {
	m.port = r
	m.follow = false
	m.connected = true
}

// Close closes the connection to the board
func (m *Monitor) Close() error {
	m.Stop()
	m.connected = false
	if m.port != nil {
		return m.port.Close()
	}
	return nil
}

// Stop makes Run return after its current read
func (m *Monitor) Stop() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

// Run reads lines and passes each one to handle until the input ends, Stop
// is called or the port fails
func (m *Monitor) Run(handle func(Line)) error {
	if !m.connected {
		return ErrNotConnected
	}

	buf := make([]byte, 256)
	for {
		select {
		case <-m.done:
			return nil
		default:
		}

		n, err := m.port.Read(buf)
		for _, line := range m.Feed(buf[:n]) {
			handle(line)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if m.follow {
				continue // read timeout on an idle line
			}
			if len(m.pending) > 0 {
				handle(m.decode(m.pending))
				m.pending = m.pending[:0]
			}
			return nil
		}
		return fmt.Errorf("read from board: %w", err)
	}
}

// Feed splits data into lines and decodes every complete one. A partial line
// is kept for the next call.
func (m *Monitor) Feed(data []byte) []Line {
	var out []Line
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			m.appendPending(data)
			break
		}
		m.appendPending(data[:i])
		data = data[i+1:]

		if m.overrun {
			out = append(out, m.invalid(fmt.Errorf("line longer than %d bytes", maxFrame)))
			m.overrun = false
		} else if len(bytes.TrimSpace(m.pending)) > 0 {
			out = append(out, m.decode(m.pending))
		}
		m.pending = m.pending[:0]
	}
	return out
}

func (m *Monitor) appendPending(b []byte) {
	if m.overrun {
		return
	}
	if len(m.pending)+len(b) > maxFrame {
		m.overrun = true
		m.pending = m.pending[:0]
		return
	}
	m.pending = append(m.pending, b...)
}

func (m *Monitor) decode(raw []byte) Line {
	text, err := logline.Decode(raw)
	line := Line{Time: time.Now(), Text: text, Err: err}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err == nil:
		m.stats.Lines++
	case errors.Is(err, logline.ErrChecksum):
		m.stats.Corrupt++
	default:
		m.stats.Invalid++
		line.Text = string(bytes.TrimRight(raw, "\r"))
	}
	return line
}

func (m *Monitor) invalid(err error) Line {
	m.mu.Lock()
	m.stats.Invalid++
	m.mu.Unlock()
	return Line{Time: time.Now(), Err: err}
}

// Stats returns a copy of the line counters
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// IsConnected returns whether a port is attached
func (m *Monitor) IsConnected() bool {
	return m.connected
}
