package sarc

import (
	"bytes"
	"fmt"

	"golang.org/x/exp/mmap"

	"github.com/meigma/sarc/internal/sarctype"
)

// ByteSource provides random access to archive bytes.
type ByteSource = sarctype.ByteSource

// NewBytesSource returns a ByteSource over data. data must not be modified
// while an archive built on it is in use.
func NewBytesSource(data []byte) ByteSource {
	return bytes.NewReader(data)
}

// MappedFile is a read-only memory-mapped file.
type MappedFile struct {
	r *mmap.ReaderAt
}

// OpenFile maps the file at path for reading. Close releases the mapping.
func OpenFile(path string) (*MappedFile, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return &MappedFile{r: r}, nil
}

// ReadAt implements io.ReaderAt.
func (m *MappedFile) ReadAt(p []byte, off int64) (int, error) {
	return m.r.ReadAt(p, off)
}

// Size returns the mapped length.
func (m *MappedFile) Size() int64 {
	return int64(m.r.Len())
}

// Close unmaps the file.
func (m *MappedFile) Close() error {
	return m.r.Close()
}

// Interface compliance.
var _ ByteSource = (*MappedFile)(nil)
