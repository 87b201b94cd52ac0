// Package cursor provides bounds-checked sequential reads over an immutable
// input buffer. All multi-byte reads are big-endian, matching the PSD
// format. A read past the end of the buffer returns a structured
// unexpected-EOF error carrying the absolute byte offset; the cursor never
// panics and never reads out of bounds.
package cursor

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/wippyai/rawpsd/errors"
)

// Cursor reads sequentially from a byte slice. The zero value is not usable;
// construct with New. Child cursors created with Sub share the underlying
// buffer but report absolute positions, so error offsets always refer to the
// original input.
type Cursor struct {
	buf   []byte
	pos   int
	base  int
	phase errors.Phase
}

// New returns a cursor over buf. The phase is attached to every error the
// cursor produces so failures are attributable to the section being read.
func New(buf []byte, phase errors.Phase) *Cursor {
	return &Cursor{buf: buf, phase: phase}
}

// SetPhase switches the phase attached to subsequent errors. Section drivers
// sharing one cursor call this as they move between sections.
func (c *Cursor) SetPhase(phase errors.Phase) {
	c.phase = phase
}

// Position returns the absolute offset from the start of the original input.
func (c *Cursor) Position() int {
	return c.base + c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

func (c *Cursor) need(n int) error {
	if n < 0 || n > len(c.buf)-c.pos {
		return errors.UnexpectedEOF(c.phase, c.Position(), n-(len(c.buf)-c.pos))
	}
	return nil
}

// U8 reads one byte.
func (c *Cursor) U8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// U16 reads a big-endian uint16.
func (c *Cursor) U16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// U32 reads a big-endian uint32.
func (c *Cursor) U32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// U64 reads a big-endian uint64.
func (c *Cursor) U64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

// I16 reads a big-endian int16.
func (c *Cursor) I16() (int16, error) {
	v, err := c.U16()
	return int16(v), err
}

// I32 reads a big-endian int32.
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// Bytes reads n bytes and returns a copy, so callers can retain the result
// without pinning the whole input buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out, nil
}

// Signature reads a 4-byte tag and returns it as a string, e.g. "8BPS".
func (c *Cursor) Signature() (string, error) {
	if err := c.need(4); err != nil {
		return "", err
	}
	s := string(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return s, nil
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Sub consumes the next n bytes and returns a child cursor over exactly that
// region. The child reports absolute positions and inherits the phase.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	sub := &Cursor{
		buf:   c.buf[c.pos : c.pos+n],
		base:  c.base + c.pos,
		phase: c.phase,
	}
	c.pos += n
	return sub, nil
}

// PascalString reads a 1-byte length prefix and that many bytes, then skips
// zero padding so the prefix plus bytes together occupy a multiple of pad
// bytes. Resource blocks pad to 2, layer record names to 4.
func (c *Cursor) PascalString(pad int) (string, error) {
	n, err := c.U8()
	if err != nil {
		return "", err
	}
	raw, err := c.Bytes(int(n))
	if err != nil {
		return "", err
	}
	if pad > 1 {
		if rem := (int(n) + 1) % pad; rem != 0 {
			if err := c.Skip(pad - rem); err != nil {
				return "", err
			}
		}
	}
	return string(raw), nil
}

// UnicodeString reads a 4-byte code unit count followed by that many UTF-16
// big-endian code units. No padding follows. The declared count is validated
// against the remaining input before any allocation.
func (c *Cursor) UnicodeString() (string, error) {
	n, err := c.U32()
	if err != nil {
		return "", err
	}
	byteLen := int(n) * 2
	if err := c.need(byteLen); err != nil {
		return "", err
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(c.buf[c.pos+i*2:])
	}
	c.pos += byteLen
	return string(utf16.Decode(units)), nil
}
