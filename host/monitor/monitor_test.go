package monitor

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"visionfw/logline"
)

func frames(lines ...string) []byte {
	var out []byte
	for _, l := range lines {
		out = logline.Append(out, l)
	}
	return out
}

func TestFeedSplitsAcrossReads(t *testing.T) {
	m := NewMonitor()
	data := frames("gpio 37: settled high", "halt: exception 2")

	var got []Line
	for i := 0; i < len(data); i += 7 {
		end := min(i+7, len(data))
		got = append(got, m.Feed(data[i:end])...)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(got))
	}
	if got[0].Text != "gpio 37: settled high" || got[0].Err != nil {
		t.Errorf("unexpected first line %+v", got[0])
	}
	if !got[1].Halt() {
		t.Error("halt line not recognised")
	}
	if m.Stats().Lines != 2 {
		t.Errorf("Expected 2 valid lines, got %d", m.Stats().Lines)
	}
}

func TestFeedFlagsCorruptAndUnframed(t *testing.T) {
	m := NewMonitor()
	bad := frames("unassigned interrupt 71")
	bad[2] ^= 0x01

	data := append(bad, []byte("U-Boot SPL 2021.10\r\n\r\n")...)
	got := m.Feed(data)

	if len(got) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %+v", len(got), got)
	}
	if !errors.Is(got[0].Err, logline.ErrChecksum) {
		t.Errorf("Expected checksum error, got %v", got[0].Err)
	}
	if !errors.Is(got[1].Err, logline.ErrNoChecksum) || got[1].Text != "U-Boot SPL 2021.10" {
		t.Errorf("unexpected unframed line %+v", got[1])
	}
	st := m.Stats()
	if st.Corrupt != 1 || st.Invalid != 1 || st.Lines != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestFeedDropsOverlongLine(t *testing.T) {
	m := NewMonitor()
	got := m.Feed([]byte(strings.Repeat("z", 2*maxFrame) + "\n"))
	if len(got) != 1 || got[0].Err == nil {
		t.Fatalf("overlong line not flagged: %+v", got)
	}
	got = m.Feed(frames("ok"))
	if len(got) != 1 || got[0].Text != "ok" {
		t.Errorf("monitor did not recover: %+v", got)
	}
}

func TestRunReplaysCapture(t *testing.T) {
	m := NewMonitor()
	data := append(frames("one", "two"), []byte("three*00")...) // no trailing newline
	m.Attach(io.NopCloser(bytes.NewReader(data)))

	var got []string
	if err := m.Run(func(l Line) { got = append(got, l.Text) }); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "one" || got[1] != "two" || got[2] != "three" {
		t.Errorf("unexpected lines %q", got)
	}
}

func TestRunStops(t *testing.T) {
	m := NewMonitor()
	m.Attach(io.NopCloser(bytes.NewReader(frames("a", "b"))))

	n := 0
	m.Run(func(l Line) {
		n++
		m.Stop()
	})
	// both lines of the first read are delivered before Run checks Stop
	if n != 2 {
		t.Errorf("Expected 2 lines before stop, got %d", n)
	}
}

func TestRunNotConnected(t *testing.T) {
	if err := NewMonitor().Run(func(Line) {}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}
