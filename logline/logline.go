// Package logline frames diagnostic lines for the board UART. A frame is the
// text, a '*', the CRC-8 of the text as two hex digits and CRLF:
//
//	gpio 37: unexpected high while stable-low*73\r\n
//
// The checksum lets the host monitor tell line noise from firmware output.
// The package avoids fmt so it stays small on the target.
package logline

import (
	"errors"
	"io"

	"github.com/sigurn/crc8"
)

// CRC-8/SMBUS: poly 0x07, init 0, no reflection
var table = crc8.MakeTable(crc8.CRC8)

var (
	ErrNoChecksum = errors.New("logline: missing checksum")
	ErrMalformed  = errors.New("logline: malformed checksum")
	ErrChecksum   = errors.New("logline: checksum mismatch")
)

const (
	separator = '*'
	hexDigits = "0123456789ABCDEF"
)

// MaxText bounds the text of one frame; longer text is truncated
const MaxText = 240

// Checksum returns the CRC-8 of text
func Checksum(text []byte) uint8 {
	return crc8.Checksum(text, table)
}

// Append appends the frame of text to dst
func Append(dst []byte, text string) []byte {
	if len(text) > MaxText {
		text = text[:MaxText]
	}
	start := len(dst)
	dst = append(dst, text...)
	sum := Checksum(dst[start:])
	return append(dst, separator, hexDigits[sum>>4], hexDigits[sum&0xf], '\r', '\n')
}

// Encode returns the frame of text
func Encode(text string) []byte {
	return Append(make([]byte, 0, len(text)+5), text)
}

// Decode validates a frame and returns its text. Trailing CR/LF is optional.
func Decode(frame []byte) (string, error) {
	for len(frame) > 0 && (frame[len(frame)-1] == '\n' || frame[len(frame)-1] == '\r') {
		frame = frame[:len(frame)-1]
	}
	n := len(frame)
	if n < 3 || frame[n-3] != separator {
		return "", ErrNoChecksum
	}
	hi, ok1 := unhex(frame[n-2])
	lo, ok2 := unhex(frame[n-1])
	if !ok1 || !ok2 {
		return "", ErrMalformed
	}
	text := frame[:n-3]
	if Checksum(text) != hi<<4|lo {
		return string(text), ErrChecksum
	}
	return string(text), nil
}

func unhex(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// Writer frames every line written through it. It matches the firmware's
// debug writer signature; write errors are dropped.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a Writer on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, 0, MaxText+5)}
}

// Println writes text as one frame
func (lw *Writer) Println(text string) {
	lw.buf = Append(lw.buf[:0], text)
	lw.w.Write(lw.buf)
}
