package sarc

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sarc/internal/testutil"
)

// theme is a small archive shaped like a theme layout container.
var theme = testutil.Archive{
	DataAlign: 0x10,
	Files: []testutil.File{
		{Name: "o.json", Data: []byte(`{"Files":[]}`)},
		{Name: "anim/RdtBase_In.bflan", Data: []byte("FLAN\x00\x01")},
		{Name: "blyt/RdtBase.bflyt", Data: []byte("FLYT\x00\x02")},
		{Name: "timg/__Combined.bntx", Data: []byte("BNTX\x00\x03")},
	},
}

func decode(t *testing.T, a testutil.Archive, opts ...Option) (*Archive, *testutil.Built) {
	t.Helper()
	built := testutil.BuildArchive(t, a)
	arc, err := New(NewBytesSource(built.Data), opts...)
	require.NoError(t, err)
	return arc, built
}

func TestHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0xC3EF161F), Hash("o.json", DefaultHashMultiplier))
	assert.Equal(t, Hash("o.json", DefaultHashMultiplier), Hash("o.json", DefaultHashMultiplier))
	assert.Zero(t, Hash("", DefaultHashMultiplier))
}

func TestNew_ByteOrders(t *testing.T) {
	t.Parallel()

	for _, little := range []bool{false, true} {
		fixture := theme
		fixture.LittleEndian = little
		arc, _ := decode(t, fixture)

		if little {
			assert.Equal(t, binary.LittleEndian, arc.ByteOrder())
		} else {
			assert.Equal(t, binary.BigEndian, arc.ByteOrder())
		}
		assert.Equal(t, FormatPlain, arc.Format())
		assert.Equal(t, uint32(DefaultHashMultiplier), arc.HashMultiplier())
		require.Equal(t, 4, arc.Len())
		assert.Empty(t, arc.Notes())

		var got []string
		for e := range arc.Entries() {
			got = append(got, e.Name)
			assert.Equal(t, NameEmbedded, e.Source)
			assert.Equal(t, Hash(e.Name, DefaultHashMultiplier), e.Hash)
		}
		assert.Equal(t, []string{"o.json", "anim/RdtBase_In.bflan", "blyt/RdtBase.bflyt", "timg/__Combined.bntx"}, got)

		e, ok := arc.Entry("o.json")
		require.True(t, ok)
		assert.Equal(t, 0, e.Index)
		data, err := arc.ReadFile("o.json")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"Files":[]}`), data)
	}
}

func TestNew_EmbeddedNameIgnoresManifest(t *testing.T) {
	t.Parallel()

	arc, _ := decode(t, testutil.Archive{Files: []testutil.File{{Name: "o.json", Data: []byte("{}")}}},
		WithManifest(NewManifest(ManifestRecord{FileName: "something/else.bin"})))

	e, ok := arc.Entry("o.json")
	require.True(t, ok)
	assert.Equal(t, NameEmbedded, e.Source)
	assert.Equal(t, []string{"something/else.bin"}, arc.Unmatched())
}

func TestNew_ManifestNameOfEmbeddedEntryUnmatched(t *testing.T) {
	t.Parallel()

	arc, _ := decode(t, testutil.Archive{Files: []testutil.File{{Name: "o.json", Data: []byte("{}")}}},
		WithManifest(NewManifest(ManifestRecord{FileName: "o.json"})))

	e, ok := arc.Entry("o.json")
	require.True(t, ok)
	assert.Equal(t, NameEmbedded, e.Source)
	assert.Equal(t, []string{"o.json"}, arc.Unmatched())
}

func TestNew_SecondEmbeddedNameAtByteOffset(t *testing.T) {
	t.Parallel()

	built := testutil.BuildArchive(t, testutil.Archive{Files: []testutil.File{
		{Name: "a.bin", Data: []byte("1111")},
		{Name: "b.txt", Data: []byte("2222")},
	}})
	built.PutU32(built.NodeOffset(1)+4, 1<<24|8)

	arc, err := New(NewBytesSource(built.Data))
	require.NoError(t, err)
	got := slices.Collect(arc.Entries())
	require.Len(t, got, 2)
	assert.Equal(t, "a.bin", got[0].Name)
	assert.Equal(t, "b.txt", got[1].Name)
	assert.Equal(t, NameEmbedded, got[1].Source)
	assert.Empty(t, arc.Notes())
}

func TestNew_UnnamedEntrySniffed(t *testing.T) {
	t.Parallel()

	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}
	arc, _ := decode(t, testutil.Archive{Files: []testutil.File{
		{Data: png, Unnamed: true, Hash: 0xDEADBEEF},
	}})

	e, ok := arc.Entry("DEADBEEF.png")
	require.True(t, ok)
	assert.Equal(t, NameSniffed, e.Source)
	require.Len(t, arc.Notes(), 1)
	require.ErrorIs(t, arc.Notes()[0], ErrUnresolvedName)

	dest := t.TempDir()
	stats, err := arc.Extract(t.Context(), dest)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	require.Len(t, stats.Notes, 1)

	got, err := os.ReadFile(filepath.Join(dest, "DEADBEEF.png"))
	require.NoError(t, err)
	assert.Equal(t, png, got)
}

func TestNew_ManifestNamesUnnamedEntries(t *testing.T) {
	t.Parallel()

	m, err := ParseManifestJSON([]byte(`{"Files":[
		{"FileName":"blyt/RdtBase.bflyt"},
		{"FileName":"timg/__Combined.bntx"},
		{"FileName":"anim/Missing.bflan"}
	]}`))
	require.NoError(t, err)

	arc, _ := decode(t, testutil.Archive{Files: []testutil.File{
		{Name: "timg/__Combined.bntx", Data: []byte("BNTX"), Unnamed: true},
		{Name: "blyt/RdtBase.bflyt", Data: []byte("FLYT"), Unnamed: true},
		{Name: "not/declared.bflim", Data: []byte("FLIM"), Unnamed: true},
	}}, WithManifest(m))

	var sources []NameSource
	var got []string
	for e := range arc.Entries() {
		got = append(got, e.Name)
		sources = append(sources, e.Source)
	}
	wantHash := Hash("not/declared.bflim", DefaultHashMultiplier)
	assert.Equal(t, []string{
		"timg/__Combined.bntx",
		"blyt/RdtBase.bflyt",
		fmt.Sprintf("%08X.bclim", wantHash),
	}, got)
	assert.Equal(t, []NameSource{NameManifest, NameManifest, NameSniffed}, sources)
	assert.Equal(t, []string{"anim/Missing.bflan"}, arc.Unmatched())
	assert.Empty(t, arc.Collisions())
}

func TestNew_FatalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		patch func(b *testutil.Built) []byte
		want  error
	}{
		{
			name:  "bad archive magic",
			patch: func(b *testutil.Built) []byte { copy(b.Data, "CRAS"); return b.Data },
			want:  ErrMalformedHeader,
		},
		{
			name: "bad table magic",
			patch: func(b *testutil.Built) []byte {
				copy(b.Data[b.TableOffset:], "SFAX")
				return b.Data
			},
			want: ErrMalformedHeader,
		},
		{
			name: "range end past file size",
			patch: func(b *testutil.Built) []byte {
				b.PutU32(b.NodeOffset(0)+12, uint32(len(b.Data)))
				return b.Data
			},
			want: ErrOutOfBounds,
		},
		{
			name:  "truncated",
			patch: func(b *testutil.Built) []byte { return b.Data[:len(b.Data)-1] },
			want:  ErrOutOfBounds,
		},
		{
			name:  "too short for a header",
			patch: func(b *testutil.Built) []byte { return b.Data[:6] },
			want:  ErrOutOfBounds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			built := testutil.BuildArchive(t, theme)
			_, err := New(NewBytesSource(tt.patch(built)))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_CompressedContainers(t *testing.T) {
	t.Parallel()

	built := testutil.BuildArchive(t, theme)
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zs := enc.EncodeAll(built.Data, nil)
	require.NoError(t, enc.Close())

	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"yaz0", testutil.Yaz0Literal(built.Data), FormatYaz0},
		{"zstd", zs, FormatZstd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			arc, err := New(NewBytesSource(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.format, arc.Format())
			assert.Equal(t, int64(len(built.Data)), arc.Size())
			assert.Equal(t, 4, arc.Len())

			data, err := arc.ReadFile("blyt/RdtBase.bflyt")
			require.NoError(t, err)
			assert.Equal(t, []byte("FLYT\x00\x02"), data)

			_, err = New(NewBytesSource(tt.data), WithMaxDecodedSize(64))
			require.ErrorIs(t, err, ErrSizeOverflow)
		})
	}
}

func TestOpen_MappedFile(t *testing.T) {
	t.Parallel()

	built := testutil.BuildArchive(t, theme)
	path := filepath.Join(t.TempDir(), "theme.sarc")
	require.NoError(t, os.WriteFile(path, built.Data, 0o600))

	arc, err := Open(path)
	require.NoError(t, err)
	data, err := arc.ReadFile("timg/__Combined.bntx")
	require.NoError(t, err)
	assert.Equal(t, []byte("BNTX\x00\x03"), data)
	require.NoError(t, arc.Close())
	require.NoError(t, arc.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.sarc"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.sarc")
	require.NoError(t, os.WriteFile(bad, []byte("not an archive at all, just bytes"), 0o600))
	_, err = Open(bad)
	require.ErrorIs(t, err, ErrMalformedHeader)
}

func TestNew_DuplicateNamesFirstWins(t *testing.T) {
	t.Parallel()

	arc, _ := decode(t, testutil.Archive{Files: []testutil.File{
		{Name: "dup.bin", Data: []byte("first")},
		{Name: "dup.bin", Data: []byte("second")},
	}})
	e, ok := arc.Entry("dup.bin")
	require.True(t, ok)
	assert.Equal(t, 0, e.Index)

	all := slices.Collect(arc.Entries())
	require.Len(t, all, 2)
	assert.Equal(t, "dup.bin", all[1].Name)

	data, err := arc.ReadFile("dup.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}

func TestNew_ReaderAtEOFAtEnd(t *testing.T) {
	t.Parallel()

	built := testutil.BuildArchive(t, theme)
	src := testutil.NewMockByteSource(built.Data)
	arc, err := New(src)
	require.NoError(t, err)

	// The last payload ends at the end of the source, where the mock
	// returns io.EOF alongside a full read.
	data, err := arc.ReadFile("timg/__Combined.bntx")
	require.NoError(t, err)
	assert.Equal(t, []byte("BNTX\x00\x03"), data)
	assert.Positive(t, src.Reads())
}
