package sarc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"

	"github.com/meigma/sarc/internal/cursor"
	"github.com/meigma/sarc/internal/names"
	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/sfat"
	"github.com/meigma/sarc/internal/sizing"
	"github.com/meigma/sarc/internal/unwrap"
)

// Re-export types from internal packages for the public API.
type (
	// Entry is a resolved archive entry: a name bound to a payload range.
	Entry = sarctype.Entry

	// NameSource records which tier produced an entry's name.
	NameSource = sarctype.NameSource

	// ProgressEvent represents a progress update during extraction.
	ProgressEvent = sarctype.ProgressEvent

	// ProgressFunc receives progress updates during extraction.
	ProgressFunc = sarctype.ProgressFunc

	// Format identifies the outer compression layer of a container.
	Format = unwrap.Format
)

// Name sources.
const (
	NameEmbedded = sarctype.NameEmbedded
	NameManifest = sarctype.NameManifest
	NameSniffed  = sarctype.NameSniffed
)

// Container formats.
const (
	FormatPlain = unwrap.Plain
	FormatYaz0  = unwrap.Yaz0
	FormatZstd  = unwrap.Zstd
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// Archive is a decoded SARC archive.
//
// Decoding happens once, in New. Afterwards an Archive is immutable and
// safe for concurrent use.
type Archive struct {
	src    ByteSource
	closer io.Closer
	format Format
	layout *sfat.Layout

	entries    []Entry
	nodes      []sfat.Node
	notes      []*EntryError
	byName     map[string]int
	unmatched  []string
	collisions []Collision
	orphans    []string
	tree       *tree

	manifest       *Manifest
	maxFileSize    uint64
	maxDecodedSize uint64
	logger         *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// New decodes the archive held by src.
//
// A Yaz0 or zstd wrapped container is expanded into memory first. Header
// and range errors are fatal and wrap ErrMalformedHeader or ErrOutOfBounds.
// Entries that could not be named from the archive or the manifest are
// still decoded; they are listed by Notes.
func New(src ByteSource, opts ...Option) (*Archive, error) {
	a := &Archive{
		maxFileSize:    DefaultMaxFileSize,
		maxDecodedSize: DefaultMaxDecodedSize,
	}
	for _, opt := range opts {
		opt(a)
	}

	src, format, err := a.unwrap(src)
	if err != nil {
		return nil, err
	}
	a.src = src
	a.format = format

	layout, err := sfat.Parse(src, src.Size())
	if err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	a.layout = layout

	c := cursor.New(src, src.Size(), layout.Order)
	res, err := names.NewResolver(layout, c, a.manifest).Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve names: %w", err)
	}
	a.index(res)

	a.log().Debug("archive decoded",
		"format", format,
		"entries", len(a.entries),
		"notes", len(a.notes),
		"multiplier", layout.Table.HashMultiplier)
	return a, nil
}

// Open maps the file at path and decodes it. The returned Archive must be
// closed to release the mapping.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	a, err := New(f, opts...)
	if err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.closer = f
	return a, nil
}

// Close releases the file mapping held by an Archive from Open. It is a
// no-op for archives created with New.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// unwrap expands a compressed container into memory.
func (a *Archive) unwrap(src ByteSource) (ByteSource, Format, error) {
	var head [4]byte
	n, err := src.ReadAt(head[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, FormatPlain, fmt.Errorf("read container magic: %w", err)
	}
	format := unwrap.Detect(head[:n])
	if format == FormatPlain {
		return src, format, nil
	}

	limit := a.maxDecodedSize
	if limit == 0 {
		limit = uint64(src.Size()) //nolint:gosec // size is non-negative
	}
	packed, err := sizing.ReadAllWithLimit(io.NewSectionReader(src, 0, src.Size()), limit, sarctype.ErrSizeOverflow)
	if err != nil {
		return nil, format, fmt.Errorf("read %s container: %w", format, err)
	}
	data, err := unwrap.NewDecoder(a.maxDecodedSize).Decode(format, packed)
	if err != nil {
		return nil, format, err
	}
	a.log().Debug("container expanded", "format", format, "packed", len(packed), "size", len(data))
	return NewBytesSource(data), format, nil
}

// index records resolution results and builds the name lookups.
func (a *Archive) index(res *names.Result) {
	a.entries = make([]Entry, len(res.Entries))
	a.nodes = make([]sfat.Node, len(res.Entries))
	a.byName = make(map[string]int, len(res.Entries))
	for i, r := range res.Entries {
		a.entries[i] = r.Entry
		a.nodes[i] = r.Node
		if _, dup := a.byName[r.Entry.Name]; !dup {
			a.byName[r.Entry.Name] = i
		}
		if r.Note != nil {
			a.notes = append(a.notes, &EntryError{Index: i, Name: r.Entry.Name, Err: r.Note})
			if errors.Is(r.Note, ErrHashMismatch) {
				a.log().Warn("name does not match hash", "index", i, "name", r.Entry.Name)
			} else {
				a.log().Debug("name synthesized", "index", i, "name", r.Entry.Name, "reason", r.Note)
			}
		}
	}
	a.unmatched = res.Unmatched
	a.collisions = res.Collisions
	a.orphans = res.Unreferenced
	a.tree = newTree(a.entries)
}

// Len returns the number of entries in the file-allocation table.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries yields every entry in table order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range a.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Entry returns the entry with the given resolved name. If several entries
// share a name, the first in table order is returned.
func (a *Archive) Entry(name string) (Entry, bool) {
	i, ok := a.byName[name]
	if !ok {
		return Entry{}, false
	}
	return a.entries[i], true
}

// Notes returns the non-fatal findings of name resolution, in table order.
// Each wraps ErrUnresolvedName, ErrHashMismatch, or a string-table lookup
// error.
func (a *Archive) Notes() []*EntryError {
	return append([]*EntryError(nil), a.notes...)
}

// Unmatched returns the manifest names that bound no entry. A name whose
// hash belongs to an entry named by the string table is unmatched too.
func (a *Archive) Unmatched() []string {
	return append([]string(nil), a.unmatched...)
}

// Collisions returns the manifest names dropped because an earlier name
// had the same hash.
func (a *Archive) Collisions() []Collision {
	return append([]Collision(nil), a.collisions...)
}

// ByteOrder returns the byte order selected by the archive's byte-order mark.
func (a *Archive) ByteOrder() binary.ByteOrder {
	return a.layout.Order
}

// HashMultiplier returns the multiplier used for name hashes.
func (a *Archive) HashMultiplier() uint32 {
	return a.layout.Table.HashMultiplier
}

// Format returns the compression layer the container was wrapped in.
func (a *Archive) Format() Format {
	return a.format
}

// Size returns the size in bytes of the unwrapped container.
func (a *Archive) Size() int64 {
	return a.src.Size()
}
