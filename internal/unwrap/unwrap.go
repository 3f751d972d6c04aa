// Package unwrap removes the outer compression layer that SARC containers
// are commonly shipped in.
package unwrap

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/sizing"
)

const yaz0Magic = "Yaz0"

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Format identifies the outer layer of a container.
type Format uint8

const (
	// Plain means no outer layer; the bytes are parsed as they are.
	Plain Format = iota

	// Yaz0 is the Nintendo LZ scheme, usually with an .szs extension.
	Yaz0

	// Zstd is a Zstandard frame, usually with a .zs extension.
	Zstd
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case Plain:
		return "plain"
	case Yaz0:
		return "yaz0"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Detect identifies the outer layer from the leading bytes. Anything not
// recognized is Plain.
func Detect(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, []byte(yaz0Magic)):
		return Yaz0
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	default:
		return Plain
	}
}

// Decoder expands compressed containers. It is safe for concurrent use.
type Decoder struct {
	maxSize uint64
	zstd    *zstdPool
}

// NewDecoder returns a decoder whose output is limited to maxSize bytes.
// Zero means no limit.
func NewDecoder(maxSize uint64) *Decoder {
	return &Decoder{maxSize: maxSize, zstd: newZstdPool(maxSize)}
}

// Decode expands data according to f. Plain data is returned unchanged.
func (d *Decoder) Decode(f Format, data []byte) ([]byte, error) {
	switch f {
	case Plain:
		return data, nil
	case Yaz0:
		return DecodeYaz0(data, d.maxSize)
	case Zstd:
		return d.decodeZstd(data)
	default:
		return nil, fmt.Errorf("%w: %s", sarctype.ErrUnsupportedCompression, f)
	}
}

func (d *Decoder) decodeZstd(data []byte) ([]byte, error) {
	dec, release, err := d.zstd.get(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zstd: create decoder: %w: %v", sarctype.ErrDecompression, err)
	}
	defer release()

	limit := d.maxSize
	if limit == 0 {
		limit = math.MaxInt - 1
	}
	out, err := sizing.ReadAllWithLimit(dec, limit, sarctype.ErrSizeOverflow)
	switch {
	case errors.Is(err, sarctype.ErrSizeOverflow), errors.Is(err, zstd.ErrDecoderSizeExceeded),
		errors.Is(err, zstd.ErrWindowSizeExceeded):
		return nil, fmt.Errorf("zstd: decoded size exceeds limit %d: %w", d.maxSize, sarctype.ErrSizeOverflow)
	case err != nil:
		return nil, fmt.Errorf("zstd: %w: %v", sarctype.ErrDecompression, err)
	}
	return out, nil
}
