package names

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/sarc/internal/cursor"
	"github.com/meigma/sarc/internal/sfat"
	"github.com/meigma/sarc/internal/testutil"
)

// parsed builds a synthetic archive and returns its layout and cursor.
func parsed(t *testing.T, a testutil.Archive) (*testutil.Built, *sfat.Layout, *cursor.Cursor) {
	t.Helper()
	built := testutil.BuildArchive(t, a)
	src := bytes.NewReader(built.Data)
	l, err := sfat.Parse(src, src.Size())
	require.NoError(t, err)
	return built, l, cursor.New(src, src.Size(), l.Order)
}
