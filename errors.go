package sarc

import (
	"github.com/meigma/sarc/internal/names"
	"github.com/meigma/sarc/internal/sarctype"
)

// Sentinel errors re-exported from internal/sarctype.
var (
	// ErrOutOfBounds is returned when an offset or range falls outside the
	// archive. It is fatal for New and Open.
	ErrOutOfBounds = sarctype.ErrOutOfBounds

	// ErrMalformedHeader is returned when a section magic does not match.
	ErrMalformedHeader = sarctype.ErrMalformedHeader

	// ErrUnresolvedName marks an entry whose name was synthesized.
	ErrUnresolvedName = sarctype.ErrUnresolvedName

	// ErrHashMismatch marks an embedded name that does not hash to its
	// entry's stored hash.
	ErrHashMismatch = sarctype.ErrHashMismatch

	// ErrWriteFailure wraps a filesystem error for one extracted entry.
	ErrWriteFailure = sarctype.ErrWriteFailure

	// ErrUnsupportedCompression is returned for an outer layer that cannot
	// be decoded.
	ErrUnsupportedCompression = sarctype.ErrUnsupportedCompression

	// ErrDecompression is returned when an outer compression layer is corrupt.
	ErrDecompression = sarctype.ErrDecompression

	// ErrSizeOverflow is returned when byte counts exceed configured limits.
	ErrSizeOverflow = sarctype.ErrSizeOverflow

	// ErrInvalidManifest is returned when manifest content cannot be parsed.
	ErrInvalidManifest = names.ErrInvalidManifest
)

// EntryError describes a failure or finding tied to one entry. Match the
// cause with errors.Is against the sentinels above.
type EntryError = sarctype.EntryError
