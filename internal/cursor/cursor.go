// Package cursor provides bounds-checked, byte-order-aware reads over an
// immutable archive source.
package cursor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/sizing"
)

// scanChunk is the read size used when searching for string terminators.
const scanChunk = 64

// Cursor reads fixed-width fields at absolute offsets.
//
// Every read is checked against the source size before it is issued and
// fails with sarctype.ErrOutOfBounds when offset+width exceeds it. Cursor
// holds no position state; it is safe for concurrent use when the source is.
type Cursor struct {
	src   io.ReaderAt
	size  uint64
	order binary.ByteOrder
}

// New creates a Cursor over src, which holds size bytes.
func New(src io.ReaderAt, size int64, order binary.ByteOrder) *Cursor {
	if size < 0 {
		size = 0
	}
	return &Cursor{src: src, size: uint64(size), order: order}
}

// Order returns the byte order applied to multi-byte reads.
func (c *Cursor) Order() binary.ByteOrder {
	return c.order
}

// Size returns the number of readable bytes.
func (c *Cursor) Size() uint64 {
	return c.size
}

// U16 reads an unsigned 16-bit integer at off.
func (c *Cursor) U16(off uint64) (uint16, error) {
	var buf [2]byte
	if err := c.readAt(buf[:], off); err != nil {
		return 0, err
	}
	return c.order.Uint16(buf[:]), nil
}

// U32 reads an unsigned 32-bit integer at off.
func (c *Cursor) U32(off uint64) (uint32, error) {
	var buf [4]byte
	if err := c.readAt(buf[:], off); err != nil {
		return 0, err
	}
	return c.order.Uint32(buf[:]), nil
}

// FixedString reads n bytes at off as a string, without trimming.
func (c *Cursor) FixedString(off uint64, n int) (string, error) {
	b, err := c.Bytes(off, uint64(n)) //nolint:gosec // n is a small field width
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes returns a copy of n bytes starting at off.
func (c *Cursor) Bytes(off, n uint64) ([]byte, error) {
	if _, _, ok := sizing.Span(0, off, n, c.size); !ok {
		return nil, outOfBounds(off, n)
	}
	size, err := sizing.ToInt(n, sarctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if err := c.readAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

// CString reads a NUL-terminated string starting at off. The terminator must
// appear before limit (an absolute offset, clamped to the source size).
// It returns the string and the number of bytes consumed including the NUL.
func (c *Cursor) CString(off, limit uint64) (string, uint64, error) {
	if limit > c.size {
		limit = c.size
	}
	if off >= limit {
		return "", 0, outOfBounds(off, 1)
	}

	var out []byte
	var chunk [scanChunk]byte
	pos := off
	for pos < limit {
		n := min(uint64(scanChunk), limit-pos)
		if err := c.readAt(chunk[:n], pos); err != nil {
			return "", 0, err
		}
		if i := bytes.IndexByte(chunk[:n], 0); i >= 0 {
			out = append(out, chunk[:i]...)
			return string(out), uint64(len(out)) + 1, nil
		}
		out = append(out, chunk[:n]...)
		pos += n
	}
	return "", 0, fmt.Errorf("unterminated string at %#x: %w", off, sarctype.ErrOutOfBounds)
}

func (c *Cursor) readAt(buf []byte, off uint64) error {
	width := uint64(len(buf))
	if _, _, ok := sizing.Span(0, off, width, c.size); !ok {
		return outOfBounds(off, width)
	}
	n, err := c.src.ReadAt(buf, int64(off)) //nolint:gosec // off < size <= MaxInt64
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return outOfBounds(off, width)
	}
	return fmt.Errorf("read %d bytes at %#x: %w", width, off, err)
}

func outOfBounds(off, width uint64) error {
	return fmt.Errorf("read %d bytes at %#x: %w", width, off, sarctype.ErrOutOfBounds)
}
