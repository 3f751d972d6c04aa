package testutil

import (
	"encoding/binary"
	"testing"
)

// Layout constants mirrored from the format so tests can patch fields.
const (
	ArchiveHeaderSize   = 0x14
	TableHeaderSize     = 0x0C
	NameTableHeaderSize = 0x08
	NodeSize            = 0x10
	DefaultMultiplier   = 0x65
)

// File describes one entry of a synthetic archive.
type File struct {
	// Name is written to the string table when Unnamed is false, and is the
	// input to the entry hash unless Hash is set.
	Name string

	// Data is the payload.
	Data []byte

	// Unnamed omits the name from the string table and clears the
	// embedded-name flag.
	Unnamed bool

	// Hash overrides the computed name hash when non-zero.
	Hash uint32
}

// Archive describes a synthetic archive.
type Archive struct {
	// LittleEndian selects the little-endian byte-order mark.
	LittleEndian bool

	// Multiplier is the hash multiplier; zero means DefaultMultiplier.
	Multiplier uint32

	// DataAlign aligns the data section and every payload; zero means 4.
	DataAlign int

	// Files are written in order; the table is not sorted.
	Files []File
}

// Built is an encoded archive plus the offsets tests need to patch it.
type Built struct {
	Data            []byte
	Order           binary.ByteOrder
	TableOffset     int
	NameTableOffset int
	DataOffset      int
}

// NodeOffset returns the absolute offset of table entry i.
func (b *Built) NodeOffset(i int) int {
	return b.TableOffset + TableHeaderSize + i*NodeSize
}

// PutU16 overwrites a 16-bit field in the archive's byte order.
func (b *Built) PutU16(off int, v uint16) {
	b.Order.PutUint16(b.Data[off:], v)
}

// PutU32 overwrites a 32-bit field in the archive's byte order.
func (b *Built) PutU32(off int, v uint32) {
	b.Order.PutUint32(b.Data[off:], v)
}

// Hash is an independent implementation of the name hash.
func Hash(name string, multiplier uint32) uint32 {
	var h uint32
	for _, c := range []byte(name) {
		h = h*multiplier + uint32(c)
	}
	return h
}

// BuildArchive encodes a synthetic archive.
func BuildArchive(tb testing.TB, a Archive) *Built {
	tb.Helper()

	var order binary.ByteOrder = binary.BigEndian
	if a.LittleEndian {
		order = binary.LittleEndian
	}
	mult := a.Multiplier
	if mult == 0 {
		mult = DefaultMultiplier
	}
	align := a.DataAlign
	if align <= 0 {
		align = 4
	}

	// Name table.
	var names []byte
	nameOffsets := make([]int, len(a.Files))
	for i, f := range a.Files {
		if f.Unnamed {
			continue
		}
		nameOffsets[i] = len(names)
		names = append(names, f.Name...)
		names = append(names, 0)
		for len(names)%4 != 0 {
			names = append(names, 0)
		}
	}

	tableOffset := ArchiveHeaderSize
	nameTableOffset := tableOffset + TableHeaderSize + len(a.Files)*NodeSize
	dataOffset := alignUp(nameTableOffset+NameTableHeaderSize+len(names), align)

	// Payloads, each aligned relative to the data section.
	var payload []byte
	ranges := make([][2]int, len(a.Files))
	for i, f := range a.Files {
		for len(payload)%align != 0 {
			payload = append(payload, 0)
		}
		ranges[i] = [2]int{len(payload), len(payload) + len(f.Data)}
		payload = append(payload, f.Data...)
	}

	total := dataOffset + len(payload)
	buf := make([]byte, total)

	copy(buf[0:], "SARC")
	order.PutUint16(buf[4:], ArchiveHeaderSize)
	order.PutUint16(buf[6:], 0xFEFF)
	order.PutUint32(buf[8:], uint32(total))       //nolint:gosec // test sizes are small
	order.PutUint32(buf[12:], uint32(dataOffset)) //nolint:gosec // test sizes are small
	order.PutUint32(buf[16:], 0x0100)

	copy(buf[tableOffset:], "SFAT")
	order.PutUint16(buf[tableOffset+4:], TableHeaderSize)
	order.PutUint16(buf[tableOffset+6:], uint16(len(a.Files))) //nolint:gosec // test sizes are small
	order.PutUint32(buf[tableOffset+8:], mult)

	for i, f := range a.Files {
		off := tableOffset + TableHeaderSize + i*NodeSize
		hash := f.Hash
		if hash == 0 {
			hash = Hash(f.Name, mult)
		}
		var attrs uint32
		if !f.Unnamed {
			attrs = 1<<24 | uint32(nameOffsets[i]) //nolint:gosec // test sizes are small
		}
		order.PutUint32(buf[off:], hash)
		order.PutUint32(buf[off+4:], attrs)
		order.PutUint32(buf[off+8:], uint32(ranges[i][0]))  //nolint:gosec // test sizes are small
		order.PutUint32(buf[off+12:], uint32(ranges[i][1])) //nolint:gosec // test sizes are small
	}

	copy(buf[nameTableOffset:], "SFNT")
	order.PutUint16(buf[nameTableOffset+4:], NameTableHeaderSize)
	copy(buf[nameTableOffset+NameTableHeaderSize:], names)
	copy(buf[dataOffset:], payload)

	return &Built{
		Data:            buf,
		Order:           order,
		TableOffset:     tableOffset,
		NameTableOffset: nameTableOffset,
		DataOffset:      dataOffset,
	}
}

func alignUp(n, align int) int {
	if r := n % align; r != 0 {
		return n + align - r
	}
	return n
}
