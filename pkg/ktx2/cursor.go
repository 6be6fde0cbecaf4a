package ktx2

import (
	"encoding/binary"
	"fmt"
)

// maxSafeInteger is the largest integer a float64 holds exactly. Offsets and
// lengths beyond it cannot be addressed by loaders that use doubles.
const maxSafeInteger = 1<<53 - 1

// cursor reads little-endian values from the window [base, end) of data.
type cursor struct {
	data     []byte
	base     uint64
	off      uint64
	end      uint64
	warnings []string
}

func newCursor(data []byte, offset, length uint64) (*cursor, error) {
	end := offset + length
	if end < offset || end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: range [%d, +%d) exceeds buffer of %d bytes",
			ErrStructuralOverrun, offset, length, len(data))
	}
	return &cursor{data: data, base: offset, off: offset, end: end}, nil
}

func (c *cursor) readN(n uint64) ([]byte, error) {
	next := c.off + n
	if next < c.off || next > c.end {
		return nil, fmt.Errorf("%w: read of %d bytes at offset %d crosses bound %d",
			ErrStructuralOverrun, n, c.off-c.base, c.end-c.base)
	}
	b := c.data[c.off:next]
	c.off = next
	return b, nil
}

func (c *cursor) readU8() (uint8, error) {
	b, err := c.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU16() (uint16, error) {
	b, err := c.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readU64 combines two 32-bit reads, low word first. Values above
// maxSafeInteger are returned intact but recorded as a precision warning.
func (c *cursor) readU64() (uint64, error) {
	if c.remaining() < 8 {
		return 0, fmt.Errorf("%w: read of 8 bytes at offset %d crosses bound %d",
			ErrStructuralOverrun, c.off-c.base, c.end-c.base)
	}
	lo, err := c.readU32()
	if err != nil {
		return 0, err
	}
	hi, err := c.readU32()
	if err != nil {
		return 0, err
	}
	v := uint64(lo) | uint64(hi)<<32
	if v > maxSafeInteger {
		c.warnings = append(c.warnings,
			fmt.Sprintf("value %d at offset %d exceeds 2^53-1; precision may be lost", v, c.off-8))
	}
	return v, nil
}

func (c *cursor) skip(n uint64) error {
	_, err := c.readN(n)
	return err
}

// bytes returns a view of the next n bytes without copying.
func (c *cursor) bytes(n uint64) ([]byte, error) {
	return c.readN(n)
}

func (c *cursor) offset() uint64 {
	return c.off - c.base
}

func (c *cursor) remaining() uint64 {
	return c.end - c.off
}
