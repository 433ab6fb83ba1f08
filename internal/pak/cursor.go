package pak

import (
	"encoding/binary"
	"fmt"
)

// cursor is a bounds-checked little-endian reader over the archive bytes.
// Seeks are offsets into the mapped data, so a short read surfaces as
// ErrCorruptData instead of running past the mapping.
type cursor struct {
	data []byte
	off  int
}

func newCursor(data []byte, off uint64) (*cursor, error) {
	if off > uint64(len(data)) {
		return nil, fmt.Errorf("%w: offset %#x past end of archive (%d bytes)", ErrCorruptData, off, len(data))
	}
	return &cursor{data: data, off: int(off)}, nil
}

func (c *cursor) remaining() int {
	return len(c.data) - c.off
}

func (c *cursor) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrCorruptData, n)
	}
	if n > c.remaining() {
		return nil, fmt.Errorf("%w: read of %d bytes at offset %#x past end of archive", ErrCorruptData, n, c.off)
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readU64() (uint64, error) {
	b, err := c.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
