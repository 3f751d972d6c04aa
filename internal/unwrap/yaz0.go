package unwrap

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/sarc/internal/sarctype"
)

// Yaz0 stream layout.
const (
	yaz0HeaderSize = 16
	yaz0SizeOffset = 4
)

// DecodeYaz0 expands a Yaz0 stream. The decoded size is taken from the
// header and must not exceed maxSize (zero means no limit).
//
// The body is a sequence of groups. Each group starts with a code byte whose
// bits, most significant first, select a literal byte (1) or a back
// reference (0) for the next eight chunks.
func DecodeYaz0(src []byte, maxSize uint64) ([]byte, error) {
	if len(src) < yaz0HeaderSize || string(src[:4]) != yaz0Magic {
		return nil, fmt.Errorf("yaz0: missing header: %w", sarctype.ErrDecompression)
	}
	size := uint64(binary.BigEndian.Uint32(src[yaz0SizeOffset:]))
	if maxSize != 0 && size > maxSize {
		return nil, fmt.Errorf("yaz0: decoded size %d exceeds limit %d: %w", size, maxSize, sarctype.ErrSizeOverflow)
	}

	out := make([]byte, 0, size)
	in := src[yaz0HeaderSize:]
	pos := 0
	var code byte
	var bits int

	for uint64(len(out)) < size {
		if bits == 0 {
			if pos >= len(in) {
				return nil, truncated(len(out), size)
			}
			code = in[pos]
			pos++
			bits = 8
		}

		if code&0x80 != 0 {
			if pos >= len(in) {
				return nil, truncated(len(out), size)
			}
			out = append(out, in[pos])
			pos++
		} else {
			if pos+2 > len(in) {
				return nil, truncated(len(out), size)
			}
			b1, b2 := in[pos], in[pos+1]
			pos += 2
			dist := (int(b1&0x0F)<<8 | int(b2)) + 1
			n := int(b1 >> 4)
			if n == 0 {
				if pos >= len(in) {
					return nil, truncated(len(out), size)
				}
				n = int(in[pos]) + 0x12
				pos++
			} else {
				n += 2
			}
			if dist > len(out) {
				return nil, fmt.Errorf("yaz0: back reference %d before start at %d: %w",
					dist, len(out), sarctype.ErrDecompression)
			}
			// Byte-wise copy: the source and destination may overlap.
			from := len(out) - dist
			for i := 0; i < n && uint64(len(out)) < size; i++ {
				out = append(out, out[from+i])
			}
		}

		code <<= 1
		bits--
	}
	return out, nil
}

func truncated(have int, want uint64) error {
	return fmt.Errorf("yaz0: stream ends after %d of %d bytes: %w", have, want, sarctype.ErrDecompression)
}
