package unwrap

import (
	"bytes"
	"sync"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/testutil"
)

func yaz0(size uint32, body ...byte) []byte {
	out := []byte{'Y', 'a', 'z', '0', byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size), 0, 0, 0, 0, 0, 0, 0, 0}
	return append(out, body...)
}

func zstdFrame(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		head []byte
		want Format
	}{
		{[]byte("SARC"), Plain},
		{[]byte("Yaz0\x00\x00"), Yaz0},
		{[]byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}, Zstd},
		{[]byte("Ya"), Plain},
		{nil, Plain},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.head), "%q", tt.head)
	}
	assert.Equal(t, "yaz0", Yaz0.String())
	assert.Equal(t, "format(9)", Format(9).String())
}

func TestDecodeYaz0(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"literals", testutil.Yaz0Literal([]byte("SARC archive bytes")), []byte("SARC archive bytes")},
		{"empty", yaz0(0), []byte{}},
		{
			"short back reference",
			// a b c, then copy 6 bytes from 3 back.
			yaz0(9, 0xE0, 'a', 'b', 'c', 0x40, 0x02),
			[]byte("abcabcabc"),
		},
		{
			"long back reference",
			// a, then copy 0x0D+0x12 bytes from 1 back.
			yaz0(32, 0x80, 'a', 0x00, 0x00, 0x0D),
			bytes.Repeat([]byte("a"), 32),
		},
		{
			"copy clipped to declared size",
			yaz0(5, 0xE0, 'a', 'b', 'c', 0x40, 0x02),
			[]byte("abcab"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeYaz0(tt.in, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeYaz0_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		max  uint64
		want error
	}{
		{"no header", []byte("Yaz0"), 0, sarctype.ErrDecompression},
		{"wrong magic", append([]byte("Yaz1"), make([]byte, 12)...), 0, sarctype.ErrDecompression},
		{"truncated literal", yaz0(4, 0xF0, 'a', 'b'), 0, sarctype.ErrDecompression},
		{"truncated group", yaz0(9, 0xFF, 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h'), 0, sarctype.ErrDecompression},
		{"truncated reference", yaz0(8, 0x00, 0x40), 0, sarctype.ErrDecompression},
		{"reference before start", yaz0(8, 0x00, 0x40, 0x05), 0, sarctype.ErrDecompression},
		{"over limit", testutil.Yaz0Literal([]byte("0123456789")), 9, sarctype.ErrSizeOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeYaz0(tt.in, tt.max)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecoder_Zstd(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("SARC zstd payload "), 64)
	frame := zstdFrame(t, payload)
	require.Equal(t, Zstd, Detect(frame))

	d := NewDecoder(0)
	got, err := d.Decode(Zstd, frame)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Decoders are pooled; concurrent use must be safe.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := d.Decode(Zstd, frame)
			assert.NoError(t, err)
			assert.Equal(t, payload, out)
		}()
	}
	wg.Wait()
}

func TestDecoder_ZstdErrors(t *testing.T) {
	t.Parallel()

	frame := zstdFrame(t, bytes.Repeat([]byte{0x42}, 4096))

	_, err := NewDecoder(100).Decode(Zstd, frame)
	require.ErrorIs(t, err, sarctype.ErrSizeOverflow)

	corrupt := append([]byte{0x28, 0xB5, 0x2F, 0xFD}, bytes.Repeat([]byte{0xFF}, 32)...)
	_, err = NewDecoder(0).Decode(Zstd, corrupt)
	require.ErrorIs(t, err, sarctype.ErrDecompression)
}

func TestDecoder_Plain(t *testing.T) {
	t.Parallel()

	in := []byte("SARC")
	out, err := NewDecoder(0).Decode(Plain, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = NewDecoder(0).Decode(Format(7), in)
	require.ErrorIs(t, err, sarctype.ErrUnsupportedCompression)
}
