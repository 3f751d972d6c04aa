package testutil

import "encoding/binary"

// Yaz0Literal wraps data in a Yaz0 stream that uses only literal bytes.
func Yaz0Literal(data []byte) []byte {
	out := make([]byte, 16, 16+len(data)+len(data)/8+1)
	copy(out, "Yaz0")
	binary.BigEndian.PutUint32(out[4:], uint32(len(data))) //nolint:gosec // test sizes are small
	for i := 0; i < len(data); i += 8 {
		n := min(8, len(data)-i)
		out = append(out, byte(0xFF<<(8-n)))
		out = append(out, data[i:i+n]...)
	}
	return out
}
