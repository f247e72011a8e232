package rip

import (
	"encoding/binary"
	"math"

	"github.com/Faultbox/ripconv/pkg/encoding"
)

// Cursor is a forward-only reader over an in-memory byte buffer.
// It is not safe for concurrent use.
type Cursor struct {
	data []byte
	off  int
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int {
	return c.off
}

// Len returns the number of unread bytes.
func (c *Cursor) Len() int {
	return len(c.data) - c.off
}

// ReadBytes returns the next n bytes. The returned slice aliases the
// underlying buffer. Fewer than n remaining bytes is an error and the
// position is left unchanged.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > c.Len() {
		return nil, &ParseError{
			Kind:     ErrUnexpectedEOF,
			Offset:   c.off,
			Expected: uint64(max(n, 0)),
			Actual:   uint64(c.Len()),
		}
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadFloat32 reads a little-endian IEEE 754 float32.
func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadCString reads a null-terminated CP437 string. Reaching the end of
// the buffer without a terminator is not an error: the bytes read so far
// are returned.
func (c *Cursor) ReadCString() string {
	raw := encoding.CString(c.data[c.off:])
	c.off += len(raw)
	if c.off < len(c.data) {
		c.off++ // terminator
	}
	return encoding.CP437ToUTF8(raw)
}
