// Package file provides fs.File and fs.FileInfo implementations for
// resolved archive entries and the directories synthesized from them.
package file

import (
	"io"
	"io/fs"
	"time"

	"github.com/meigma/sarc/internal/pathutil"
	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/sizing"
)

// Entry is an alias for sarctype.Entry.
type Entry = sarctype.Entry

// fileMode is reported for every regular entry; archives carry no modes.
const fileMode fs.FileMode = 0o444

// File is an open archive entry. It reads the payload directly from the
// archive source and supports random access.
type File struct {
	*io.SectionReader
	info *Info
}

// Interface compliance.
var (
	_ fs.File     = (*File)(nil)
	_ io.ReaderAt = (*File)(nil)
	_ io.Seeker   = (*File)(nil)
)

// Open returns a File reading entry's payload from src. The payload range
// must lie within src.
func Open(src io.ReaderAt, entry *Entry) (*File, error) {
	info, err := NewInfo(entry, pathutil.Base(entry.Name))
	if err != nil {
		return nil, err
	}
	off, err := sizing.ToInt64(entry.Start, sarctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	return &File{SectionReader: io.NewSectionReader(src, off, info.size), info: info}, nil
}

// Stat implements fs.File.
func (f *File) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

// Close implements fs.File. The archive source stays open.
func (f *File) Close() error {
	return nil
}

// Info implements fs.FileInfo for regular entries.
type Info struct {
	entry Entry
	name  string
	size  int64
}

// NewInfo creates an Info from an entry.
func NewInfo(entry *Entry, name string) (*Info, error) {
	size, err := sizing.ToInt64(entry.Size(), sarctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	return &Info{entry: *entry, name: name, size: size}, nil
}

func (fi *Info) Name() string       { return fi.name }
func (fi *Info) Size() int64        { return fi.size }
func (fi *Info) Mode() fs.FileMode  { return fileMode }
func (fi *Info) ModTime() time.Time { return time.Time{} }
func (fi *Info) IsDir() bool        { return false }

// Sys returns the underlying *Entry.
func (fi *Info) Sys() any { return &fi.entry }

// DirInfo implements fs.FileInfo for synthetic directories.
type DirInfo struct {
	name string
}

// NewDirInfo creates a DirInfo with the given name.
func NewDirInfo(name string) *DirInfo {
	return &DirInfo{name: name}
}

func (di *DirInfo) Name() string       { return di.name }
func (di *DirInfo) Size() int64        { return 0 }
func (di *DirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (di *DirInfo) ModTime() time.Time { return time.Time{} }
func (di *DirInfo) IsDir() bool        { return true }
func (di *DirInfo) Sys() any           { return nil }

// DirEntry implements fs.DirEntry by wrapping fs.FileInfo.
type DirEntry struct {
	info fs.FileInfo
}

// NewDirEntry creates a DirEntry wrapping the given FileInfo.
func NewDirEntry(info fs.FileInfo) *DirEntry {
	return &DirEntry{info: info}
}

func (de *DirEntry) Name() string               { return de.info.Name() }
func (de *DirEntry) IsDir() bool                { return de.info.IsDir() }
func (de *DirEntry) Type() fs.FileMode          { return de.info.Mode().Type() }
func (de *DirEntry) Info() (fs.FileInfo, error) { return de.info, nil }
func (de *DirEntry) String() string             { return fs.FormatDirEntry(de) }
