package sarc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"

	"github.com/meigma/sarc/internal/file"
	"github.com/meigma/sarc/internal/pathutil"
	"github.com/meigma/sarc/internal/sizing"
)

var errIsDir = errors.New("is a directory")

// tree is the directory view over resolved names. Entries whose names are
// not clean relative paths are left out. A name that is both a file and a
// directory prefix is shown as the directory.
type tree struct {
	files    map[string]int      // path -> entry index
	children map[string][]string // dir path -> sorted child names
}

func newTree(entries []Entry) *tree {
	files := make(map[string]int, len(entries))
	kids := map[string]map[string]struct{}{".": {}}

	var addDir func(dir string)
	addDir = func(dir string) {
		if _, ok := kids[dir]; ok {
			return
		}
		kids[dir] = map[string]struct{}{}
		parent := path.Dir(dir)
		addDir(parent)
		kids[parent][path.Base(dir)] = struct{}{}
	}

	for i := range entries {
		clean, isDir, err := pathutil.Clean(entries[i].Name)
		if err != nil {
			continue
		}
		if isDir {
			addDir(clean)
			continue
		}
		if _, dup := files[clean]; dup {
			continue
		}
		files[clean] = i
		dir := path.Dir(clean)
		addDir(dir)
		kids[dir][path.Base(clean)] = struct{}{}
	}
	for p := range files {
		if _, ok := kids[p]; ok {
			delete(files, p)
		}
	}

	t := &tree{files: files, children: make(map[string][]string, len(kids))}
	for dir, set := range kids {
		list := make([]string, 0, len(set))
		for name := range set {
			list = append(list, name)
		}
		slices.Sort(list)
		t.children[dir] = list
	}
	return t
}

func (t *tree) isDir(name string) bool {
	_, ok := t.children[name]
	return ok
}

// Open implements fs.FS.
//
// Files support Read, ReadAt and Seek directly over the archive source.
// Directories are synthesized from entry names and directory markers.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if i, ok := a.tree.files[name]; ok {
		f, err := file.Open(a.src, &a.entries[i])
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return f, nil
	}
	if a.tree.isDir(name) {
		return &openDir{a: a, name: name}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Stat implements fs.StatFS.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if i, ok := a.tree.files[name]; ok {
		info, err := file.NewInfo(&a.entries[i], pathutil.Base(name))
		if err != nil {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
		}
		return info, nil
	}
	if a.tree.isDir(name) {
		return file.NewDirInfo(pathutil.Base(name)), nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadFile implements fs.ReadFileFS. Payloads larger than the configured
// maximum file size fail with ErrSizeOverflow.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	i, ok := a.tree.files[name]
	if !ok {
		if a.tree.isDir(name) {
			return nil, &fs.PathError{Op: "readfile", Path: name, Err: errIsDir}
		}
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	data, err := a.payload(&a.entries[i])
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	if !a.tree.isDir(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return a.dirEntries(name), nil
}

func (a *Archive) dirEntries(dir string) []fs.DirEntry {
	names := a.tree.children[dir]
	out := make([]fs.DirEntry, 0, len(names))
	for _, child := range names {
		full := child
		if dir != "." {
			full = dir + "/" + child
		}
		if a.tree.isDir(full) {
			out = append(out, file.NewDirEntry(file.NewDirInfo(child)))
			continue
		}
		info, err := file.NewInfo(&a.entries[a.tree.files[full]], child)
		if err != nil {
			continue
		}
		out = append(out, file.NewDirEntry(info))
	}
	return out
}

// payload reads an entry's bytes, honoring the maximum file size.
func (a *Archive) payload(e *Entry) ([]byte, error) {
	size := e.Size()
	if a.maxFileSize != 0 && size > a.maxFileSize {
		return nil, fmt.Errorf("%d bytes exceeds limit %d: %w", size, a.maxFileSize, ErrSizeOverflow)
	}
	n, err := sizing.ToInt(size, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	off, err := sizing.ToInt64(e.Start, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	got, err := a.src.ReadAt(data, off)
	if got == n {
		return data, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("short read (%d of %d bytes): %w", got, n, ErrOutOfBounds)
	}
	return nil, fmt.Errorf("read payload: %w", err)
}

// openDir implements fs.ReadDirFile for synthetic directories.
type openDir struct {
	a       *Archive
	name    string
	entries []fs.DirEntry
	offset  int
	loaded  bool
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: errIsDir}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return file.NewDirInfo(pathutil.Base(d.name)), nil
}

func (d *openDir) Close() error {
	return nil
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		d.entries = d.a.dirEntries(d.name)
		d.loaded = true
	}
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(rest))
	d.offset += n
	return rest[:n], nil
}
