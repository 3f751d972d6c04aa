package sarctype

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive operations.
var (
	// ErrOutOfBounds is returned when a computed offset or length falls
	// outside the archive buffer. It is fatal for the whole decode.
	ErrOutOfBounds = errors.New("sarc: offset out of bounds")

	// ErrMalformedHeader is returned when a section magic does not match.
	ErrMalformedHeader = errors.New("sarc: malformed header")

	// ErrUnresolvedName marks an entry that had neither an embedded nor a
	// manifest name and was named from its hash and content.
	ErrUnresolvedName = errors.New("sarc: unresolved name")

	// ErrHashMismatch is returned when a name does not hash to its entry's hash.
	ErrHashMismatch = errors.New("sarc: hash mismatch")

	// ErrWriteFailure wraps a filesystem error for a single extracted entry.
	ErrWriteFailure = errors.New("sarc: write failed")

	// ErrUnsupportedCompression is returned for a compression format the
	// unwrap layer cannot decode.
	ErrUnsupportedCompression = errors.New("sarc: unsupported compression")

	// ErrDecompression is returned when an outer compression layer is corrupt.
	ErrDecompression = errors.New("sarc: decompression failed")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("sarc: size overflow")
)

// EntryError describes a failure tied to one archive entry.
type EntryError struct {
	// Index is the entry's position in the file-allocation table.
	Index int

	// Name is the entry's resolved name.
	Name string

	// Err is the underlying error.
	Err error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
