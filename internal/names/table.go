package names

import (
	"fmt"
	"iter"

	"github.com/meigma/sarc/internal/cursor"
	"github.com/meigma/sarc/internal/sfat"
)

// StringTable reads NUL-terminated names from the packed SFNT data.
//
// Offsets are relative to the first byte after the SFNT header. Names are
// read on demand; nothing is materialized up front.
type StringTable struct {
	c     *cursor.Cursor
	start uint64
	end   uint64
}

// NewStringTable returns a table over the absolute range [start, end).
func NewStringTable(c *cursor.Cursor, start, end uint64) *StringTable {
	if end < start {
		end = start
	}
	return &StringTable{c: c, start: start, end: end}
}

// Lookup returns the name stored at off.
func (t *StringTable) Lookup(off uint32) (string, error) {
	name, _, err := t.c.CString(t.start+uint64(off), t.end)
	if err != nil {
		return "", fmt.Errorf("string table offset %#x: %w", off, err)
	}
	return name, nil
}

// All yields every (offset, name) pair in storage order. Each name starts on
// a 4-byte boundary; empty slots (padding) are skipped. Iteration stops at
// the end of the table or at the first unterminated name.
//
// The sequence is restartable: every range over it walks the table afresh.
func (t *StringTable) All() iter.Seq2[uint32, string] {
	return func(yield func(uint32, string) bool) {
		var off uint64
		for t.start+off < t.end {
			name, n, err := t.c.CString(t.start+off, t.end)
			if err != nil {
				return
			}
			if name != "" && !yield(uint32(off), name) { //nolint:gosec // table is bounded by a u32 file size
				return
			}
			off = alignUp(off+n, sfat.NameAlignment)
		}
	}
}

func alignUp(n, align uint64) uint64 {
	if r := n % align; r != 0 {
		return n + align - r
	}
	return n
}
