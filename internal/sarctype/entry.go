package sarctype

import "strings"

// NameSource records which resolution tier produced an entry's name.
type NameSource uint8

const (
	// NameEmbedded means the name came from the archive's string table.
	NameEmbedded NameSource = iota

	// NameManifest means the name came from an external manifest.
	NameManifest

	// NameSniffed means the name was synthesized from the hash and payload.
	NameSniffed
)

// String returns the human-readable name of the source.
func (s NameSource) String() string {
	switch s {
	case NameEmbedded:
		return "embedded"
	case NameManifest:
		return "manifest"
	case NameSniffed:
		return "sniffed"
	default:
		return "unknown"
	}
}

// Entry is a resolved archive entry: a name bound to an absolute byte range.
type Entry struct {
	// Index is the entry's position in the file-allocation table.
	Index int

	// Hash is the name hash stored in the file-allocation table.
	Hash uint32

	// Name is the resolved slash-separated name. A trailing slash marks a
	// directory entry.
	Name string

	// Source is the resolution tier that produced Name.
	Source NameSource

	// Start is the absolute offset of the first payload byte.
	Start uint64

	// End is the absolute offset one past the last payload byte.
	End uint64
}

// Size returns the payload length in bytes.
func (e *Entry) Size() uint64 {
	return e.End - e.Start
}

// IsDir reports whether the entry is a directory marker.
func (e *Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}
