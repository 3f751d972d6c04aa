package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/testutil"
)

func resolve(t *testing.T, a testutil.Archive, m *Manifest) *Result {
	t.Helper()
	_, l, c := parsed(t, a)
	res, err := NewResolver(l, c, m).Resolve()
	require.NoError(t, err)
	return res
}

func TestResolve_EmbeddedAtOffsetZero(t *testing.T) {
	t.Parallel()

	a := testutil.Archive{Files: []testutil.File{{Name: "o.json", Data: []byte(`{"Files":[]}`)}}}

	for _, m := range []*Manifest{nil, NewManifest("other.bin"), NewManifest("o.json")} {
		res := resolve(t, a, m)
		require.Len(t, res.Entries, 1)
		got := res.Entries[0]
		assert.Equal(t, "o.json", got.Entry.Name)
		assert.Equal(t, sarctype.NameEmbedded, got.Entry.Source)
		assert.Equal(t, uint32(0xC3EF161F), got.Entry.Hash)
		assert.Zero(t, got.Node.NameOffset())
		assert.NoError(t, got.Note)
	}
}

func TestResolve_ManifestForUnnamedEntries(t *testing.T) {
	t.Parallel()

	res := resolve(t, testutil.Archive{
		LittleEndian: true,
		Files: []testutil.File{
			{Name: "blyt/RdtBase.bflyt", Data: []byte("FLYT...."), Unnamed: true},
			{Name: "timg/__Combined.bntx", Data: []byte("BNTX...."), Unnamed: true},
		},
	}, NewManifest("timg/__Combined.bntx", "blyt/RdtBase.bflyt", "anim/missing.bflan"))

	require.Len(t, res.Entries, 2)
	assert.Equal(t, "blyt/RdtBase.bflyt", res.Entries[0].Entry.Name)
	assert.Equal(t, sarctype.NameManifest, res.Entries[0].Entry.Source)
	assert.Equal(t, "timg/__Combined.bntx", res.Entries[1].Entry.Name)
	assert.NoError(t, res.Entries[1].Note)
	assert.Equal(t, []string{"anim/missing.bflan"}, res.Unmatched)
	assert.Empty(t, res.Collisions)
}

func TestResolve_EmbeddedBeatsManifest(t *testing.T) {
	t.Parallel()

	// The manifest names the same hash differently; the embedded name wins.
	const mult = 1
	res := resolve(t, testutil.Archive{
		Multiplier: mult,
		Files:      []testutil.File{{Name: "ab", Data: []byte("x")}},
	}, NewManifest("ba"))

	assert.Equal(t, "ab", res.Entries[0].Entry.Name)
	assert.Equal(t, sarctype.NameEmbedded, res.Entries[0].Entry.Source)
	assert.Equal(t, []string{"ba"}, res.Unmatched)
}

func TestResolve_ManifestCollision(t *testing.T) {
	t.Parallel()

	res := resolve(t, testutil.Archive{
		Multiplier: 1,
		Files:      []testutil.File{{Name: "ab", Data: []byte("x"), Unnamed: true}},
	}, NewManifest("ba", "ab"))

	assert.Equal(t, "ba", res.Entries[0].Entry.Name)
	require.Len(t, res.Collisions, 1)
	assert.Equal(t, "ab", res.Collisions[0].Dropped)
}

func TestResolve_Sniffed(t *testing.T) {
	t.Parallel()

	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	res := resolve(t, testutil.Archive{Files: []testutil.File{
		{Data: png, Unnamed: true, Hash: 0xDEADBEEF},
		{Data: []byte("ab"), Unnamed: true, Hash: 0x00000001},
		{Data: nil, Unnamed: true, Hash: 0x0000ABCD},
	}}, nil)

	want := []string{"DEADBEEF.png", "00000001.bin", "0000ABCD.bin"}
	for i, r := range res.Entries {
		assert.Equal(t, want[i], r.Entry.Name)
		assert.Equal(t, sarctype.NameSniffed, r.Entry.Source)
		require.ErrorIs(t, r.Note, sarctype.ErrUnresolvedName)
	}
	assert.Equal(t, uint64(len(png)), res.Entries[0].Entry.Size())
}

func TestResolve_EmptyEmbeddedNameFallsBack(t *testing.T) {
	t.Parallel()

	built, l, c := parsed(t, testutil.Archive{Files: []testutil.File{
		{Name: "a.bin", Data: []byte("FLAN")},
	}})
	// Blank the stored name in place.
	for i := range len("a.bin") {
		built.Data[int(l.NamesStart)+i] = 0
	}

	res, err := NewResolver(l, c, nil).Resolve()
	require.NoError(t, err)
	got := res.Entries[0]
	assert.Equal(t, sarctype.NameSniffed, got.Entry.Source)
	assert.Equal(t, ".bflan", got.Entry.Name[8:])
	require.ErrorIs(t, got.Note, sarctype.ErrUnresolvedName)
}

func TestResolve_HashMismatchIsNoted(t *testing.T) {
	t.Parallel()

	res := resolve(t, testutil.Archive{Files: []testutil.File{
		{Name: "real.txt", Data: []byte("x"), Hash: 0x11111111},
	}}, nil)

	got := res.Entries[0]
	assert.Equal(t, "real.txt", got.Entry.Name)
	assert.Equal(t, sarctype.NameEmbedded, got.Entry.Source)
	require.ErrorIs(t, got.Note, sarctype.ErrHashMismatch)
}

func TestResolve_NameOffsetOutsideTable(t *testing.T) {
	t.Parallel()

	built, l, c := parsed(t, testutil.Archive{Files: []testutil.File{
		{Name: "x", Data: []byte("CLAN")},
	}})
	built.PutU32(built.NodeOffset(0)+4, 1<<24|0x4000)
	l.Nodes[0].Attributes = 1<<24 | 0x4000

	res, err := NewResolver(l, c, nil).Resolve()
	require.NoError(t, err)
	got := res.Entries[0]
	assert.Equal(t, sarctype.NameSniffed, got.Entry.Source)
	assert.Contains(t, got.Entry.Name, ".bclan")
	require.ErrorIs(t, got.Note, sarctype.ErrOutOfBounds)
}

func TestResolve_EmbeddedNameAtByteOffset(t *testing.T) {
	t.Parallel()

	built, l, c := parsed(t, testutil.Archive{Files: []testutil.File{
		{Name: "a.bin", Data: []byte("1111")},
		{Name: "b.txt", Data: []byte("2222")},
	}})
	// "a.bin\x00" pads to 8 bytes, so the second name starts at byte 8.
	built.PutU32(built.NodeOffset(1)+4, 1<<24|8)
	l.Nodes[1].Attributes = 1<<24 | 8

	res, err := NewResolver(l, c, nil).Resolve()
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	for i, want := range []string{"a.bin", "b.txt"} {
		got := res.Entries[i]
		assert.Equal(t, want, got.Entry.Name)
		assert.Equal(t, sarctype.NameEmbedded, got.Entry.Source)
		assert.NoError(t, got.Note)
	}
	assert.Equal(t, uint32(8), res.Entries[1].Node.NameOffset())
}

func TestResolve_ManifestNameOfEmbeddedEntryUnmatched(t *testing.T) {
	t.Parallel()

	res := resolve(t, testutil.Archive{Files: []testutil.File{
		{Name: "o.json", Data: []byte("{}")},
		{Name: "timg/a.bntx", Data: []byte("BNTX"), Unnamed: true},
	}}, NewManifest("o.json", "timg/a.bntx"))

	assert.Equal(t, sarctype.NameEmbedded, res.Entries[0].Entry.Source)
	assert.Equal(t, sarctype.NameManifest, res.Entries[1].Entry.Source)
	assert.Equal(t, []string{"o.json"}, res.Unmatched)
}

func TestResolve_UnreferencedNames(t *testing.T) {
	t.Parallel()

	files := []testutil.File{
		{Name: "a.bin", Data: []byte("1111")},
		{Name: "b.txt", Data: []byte("2222")},
		{Name: "c.dat", Data: []byte("3333"), Unnamed: true},
	}
	assert.Empty(t, resolve(t, testutil.Archive{Files: files}, nil).Unreferenced)

	built, l, c := parsed(t, testutil.Archive{Files: files})
	// Point the second entry at the first name; "b.txt" is left orphaned.
	built.PutU32(built.NodeOffset(1)+4, 1<<24)
	l.Nodes[1].Attributes = 1 << 24

	res, err := NewResolver(l, c, nil).Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, res.Unreferenced)
	assert.Equal(t, "a.bin", res.Entries[1].Entry.Name)
	require.ErrorIs(t, res.Entries[1].Note, sarctype.ErrHashMismatch)
}
