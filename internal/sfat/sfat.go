// Package sfat parses the fixed-layout headers of a SARC archive: the archive
// header, the SFAT file-allocation table and the SFNT string-table header.
package sfat

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/meigma/sarc/internal/cursor"
	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/sizing"
)

// Section magics.
const (
	ArchiveMagic   = "SARC"
	TableMagic     = "SFAT"
	NameTableMagic = "SFNT"
)

// Fixed layout constants.
const (
	// ArchiveHeaderSize is the size of the archive header fields.
	ArchiveHeaderSize = 0x14

	// TableHeaderSize is the size of the SFAT header fields.
	TableHeaderSize = 0x0C

	// NameTableHeaderSize is the size of the SFNT header fields.
	NameTableHeaderSize = 0x08

	// NodeSize is the size of one file-allocation table entry.
	NodeSize = 0x10

	// BOMOffset is the position of the byte-order mark in the archive header.
	BOMOffset = 6

	// BOMLittleEndian is the byte-order mark value, read big-endian, that
	// selects little-endian for the rest of the archive.
	BOMLittleEndian = 0xFFFE

	// NameAlignment is the alignment of every string-table name.
	NameAlignment = 4
)

// ArchiveHeader is the header at offset zero.
type ArchiveHeader struct {
	Magic      string
	HeaderSize uint16
	BOM        uint16
	FileSize   uint32
	DataOffset uint32
	Reserved   uint32
}

// TableHeader is the SFAT header that precedes the entry table.
type TableHeader struct {
	Magic          string
	HeaderSize     uint16
	NodeCount      uint16
	HashMultiplier uint32
}

// Node is one file-allocation table entry.
type Node struct {
	Hash       uint32
	Attributes uint32
	RangeStart uint32
	RangeEnd   uint32
}

// HasEmbeddedName reports whether the string table carries this node's name.
func (n Node) HasEmbeddedName() bool {
	return (n.Attributes>>24)&0xFF == 1
}

// NameOffset returns the byte offset of the node's name, relative to the
// first byte after the string-table header.
func (n Node) NameOffset() uint32 {
	return n.Attributes & 0xFFFF
}

// NameTableHeader is the SFNT header that precedes the packed names.
type NameTableHeader struct {
	Magic      string
	HeaderSize uint16
	Reserved   uint16
}

// Layout is the parsed header structure of an archive.
type Layout struct {
	// Order is the byte order detected from the byte-order mark.
	Order binary.ByteOrder

	Archive   ArchiveHeader
	Table     TableHeader
	NameTable NameTableHeader

	// TableOffset is the absolute offset of the SFAT header.
	TableOffset uint64

	// Nodes holds the file-allocation table in stored order.
	Nodes []Node

	// NameTableOffset is the absolute offset of the SFNT header.
	NameTableOffset uint64

	// NamesStart and NamesEnd bound the packed name data.
	NamesStart uint64
	NamesEnd   uint64
}

// PayloadRange returns the absolute byte range [start, end) of a node's data.
// The range was validated by Parse.
func (l *Layout) PayloadRange(n Node) (start, end uint64) {
	base := uint64(l.Archive.DataOffset)
	return base + uint64(n.RangeStart), base + uint64(n.RangeEnd)
}

// DetectOrder reads the byte-order mark and returns the archive byte order.
//
// The mark is read big-endian; BOMLittleEndian selects little-endian and any
// other value selects big-endian.
func DetectOrder(src io.ReaderAt, size int64) (binary.ByteOrder, error) {
	bom, err := cursor.New(src, size, binary.BigEndian).U16(BOMOffset)
	if err != nil {
		return nil, fmt.Errorf("sfat: byte-order mark: %w", err)
	}
	if bom == BOMLittleEndian {
		return binary.LittleEndian, nil
	}
	return binary.BigEndian, nil
}

// Parse reads the archive, table and name-table headers from src.
//
// It fails with sarctype.ErrMalformedHeader when a magic does not match and
// with sarctype.ErrOutOfBounds when any computed offset or payload range
// falls outside the source or the declared file size.
func Parse(src io.ReaderAt, size int64) (*Layout, error) {
	order, err := DetectOrder(src, size)
	if err != nil {
		return nil, err
	}
	c := cursor.New(src, size, order)
	l := &Layout{Order: order}

	if err := parseArchiveHeader(c, &l.Archive); err != nil {
		return nil, err
	}

	l.TableOffset = uint64(l.Archive.HeaderSize)
	if err := parseTableHeader(c, l.TableOffset, &l.Table); err != nil {
		return nil, err
	}

	nodesStart := l.TableOffset + uint64(l.Table.HeaderSize)
	nodesLen := uint64(l.Table.NodeCount) * NodeSize
	if _, _, ok := sizing.Span(nodesStart, 0, nodesLen, c.Size()); !ok {
		return nil, fmt.Errorf("sfat: %d nodes at %#x: %w", l.Table.NodeCount, nodesStart, sarctype.ErrOutOfBounds)
	}
	l.Nodes = make([]Node, l.Table.NodeCount)
	for i := range l.Nodes {
		if err := parseNode(c, nodesStart+uint64(i)*NodeSize, &l.Nodes[i]); err != nil {
			return nil, fmt.Errorf("sfat: node %d: %w", i, err)
		}
	}

	l.NameTableOffset = nodesStart + nodesLen
	if err := parseNameTableHeader(c, l.NameTableOffset, &l.NameTable); err != nil {
		return nil, err
	}
	l.NamesStart = l.NameTableOffset + uint64(l.NameTable.HeaderSize)
	l.NamesEnd = max(uint64(l.Archive.DataOffset), l.NamesStart)

	if err := l.validateRanges(c.Size()); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layout) validateRanges(sourceSize uint64) error {
	fileSize := uint64(l.Archive.FileSize)
	dataOffset := uint64(l.Archive.DataOffset)
	if fileSize > sourceSize {
		return fmt.Errorf("sfat: file size %#x exceeds buffer size %#x: %w", fileSize, sourceSize, sarctype.ErrOutOfBounds)
	}
	if dataOffset > fileSize {
		return fmt.Errorf("sfat: data offset %#x exceeds file size %#x: %w", dataOffset, fileSize, sarctype.ErrOutOfBounds)
	}
	for i, n := range l.Nodes {
		if n.RangeStart > n.RangeEnd {
			return fmt.Errorf("sfat: node %d range [%#x, %#x) is inverted: %w", i, n.RangeStart, n.RangeEnd, sarctype.ErrOutOfBounds)
		}
		if _, _, ok := sizing.Span(dataOffset, uint64(n.RangeEnd), 0, fileSize); !ok {
			return fmt.Errorf("sfat: node %d range ends at %#x past file size %#x: %w",
				i, dataOffset+uint64(n.RangeEnd), fileSize, sarctype.ErrOutOfBounds)
		}
	}
	return nil
}

func parseArchiveHeader(c *cursor.Cursor, h *ArchiveHeader) error {
	var err error
	if h.Magic, err = readMagic(c, 0, ArchiveMagic); err != nil {
		return err
	}
	if h.HeaderSize, err = c.U16(4); err != nil {
		return fmt.Errorf("sfat: archive header: %w", err)
	}
	if h.HeaderSize < ArchiveHeaderSize {
		return fmt.Errorf("sfat: archive header size %#x: %w", h.HeaderSize, sarctype.ErrMalformedHeader)
	}
	if h.BOM, err = c.U16(BOMOffset); err != nil {
		return fmt.Errorf("sfat: archive header: %w", err)
	}
	if h.FileSize, err = c.U32(8); err != nil {
		return fmt.Errorf("sfat: archive header: %w", err)
	}
	if h.DataOffset, err = c.U32(12); err != nil {
		return fmt.Errorf("sfat: archive header: %w", err)
	}
	if h.Reserved, err = c.U32(16); err != nil {
		return fmt.Errorf("sfat: archive header: %w", err)
	}
	return nil
}

func parseTableHeader(c *cursor.Cursor, off uint64, h *TableHeader) error {
	var err error
	if h.Magic, err = readMagic(c, off, TableMagic); err != nil {
		return err
	}
	if h.HeaderSize, err = c.U16(off + 4); err != nil {
		return fmt.Errorf("sfat: table header: %w", err)
	}
	if h.HeaderSize < TableHeaderSize {
		return fmt.Errorf("sfat: table header size %#x: %w", h.HeaderSize, sarctype.ErrMalformedHeader)
	}
	if h.NodeCount, err = c.U16(off + 6); err != nil {
		return fmt.Errorf("sfat: table header: %w", err)
	}
	if h.HashMultiplier, err = c.U32(off + 8); err != nil {
		return fmt.Errorf("sfat: table header: %w", err)
	}
	return nil
}

func parseNode(c *cursor.Cursor, off uint64, n *Node) error {
	var err error
	if n.Hash, err = c.U32(off); err != nil {
		return err
	}
	if n.Attributes, err = c.U32(off + 4); err != nil {
		return err
	}
	if n.RangeStart, err = c.U32(off + 8); err != nil {
		return err
	}
	n.RangeEnd, err = c.U32(off + 12)
	return err
}

func parseNameTableHeader(c *cursor.Cursor, off uint64, h *NameTableHeader) error {
	var err error
	if h.Magic, err = readMagic(c, off, NameTableMagic); err != nil {
		return err
	}
	if h.HeaderSize, err = c.U16(off + 4); err != nil {
		return fmt.Errorf("sfat: name table header: %w", err)
	}
	if h.HeaderSize < NameTableHeaderSize {
		return fmt.Errorf("sfat: name table header size %#x: %w", h.HeaderSize, sarctype.ErrMalformedHeader)
	}
	if h.Reserved, err = c.U16(off + 6); err != nil {
		return fmt.Errorf("sfat: name table header: %w", err)
	}
	return nil
}

func readMagic(c *cursor.Cursor, off uint64, want string) (string, error) {
	got, err := c.FixedString(off, len(want))
	if err != nil {
		return "", fmt.Errorf("sfat: %s magic: %w", want, err)
	}
	if got != want {
		return "", fmt.Errorf("sfat: expected %q at %#x, found %q: %w", want, off, got, sarctype.ErrMalformedHeader)
	}
	return got, nil
}
