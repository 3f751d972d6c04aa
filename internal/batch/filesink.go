package batch

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meigma/sarc/internal/pathutil"
)

// tempPrefix names in-flight files so they are recognizable if a crash
// leaves one behind.
const tempPrefix = ".sarc-"

// FileSink writes entries below a destination directory.
//
// Every filesystem operation goes through an os.Root opened on the
// destination, so no entry can create or replace anything outside it.
// By default, files are written to a temporary file in the same directory
// and renamed to the final path on Commit.
type FileSink struct {
	destDir     string
	overwrite   bool
	directWrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithDirectWrites disables temp files and writes directly to the final path.
func WithDirectWrites(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// NewFileSink creates a FileSink that writes to destDir. The directory must
// exist.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldProcess returns false if the file already exists and overwrite is
// disabled. Unsafe names are let through so Writer can report them.
func (s *FileSink) ShouldProcess(entry *Entry) bool {
	if s.overwrite || entry.IsDir() {
		return true
	}
	rel, _, err := pathutil.Clean(entry.Name)
	if err != nil {
		return true
	}
	_, err = os.Lstat(filepath.Join(s.destDir, filepath.FromSlash(rel)))
	return errors.Is(err, os.ErrNotExist)
}

// MakeDir creates the entry's directory and any missing parents.
func (s *FileSink) MakeDir(entry *Entry) error {
	rel, _, err := pathutil.Clean(entry.Name)
	if err != nil {
		return fmt.Errorf("%q: %w", entry.Name, err)
	}
	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	defer root.Close()
	if err := root.MkdirAll(filepath.FromSlash(rel), 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", rel, err)
	}
	return nil
}

// Writer returns a Committer for the entry's file. Parent directories are
// created as needed.
func (s *FileSink) Writer(entry *Entry) (Committer, error) {
	rel, isDir, err := pathutil.Clean(entry.Name)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", entry.Name, err)
	}
	if isDir {
		return nil, fmt.Errorf("%q: directory marker has no content", entry.Name)
	}
	destRel := filepath.FromSlash(rel)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	if dir := filepath.Dir(destRel); dir != "." {
		if err := root.MkdirAll(dir, 0o750); err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if s.directWrite {
		file, err := root.OpenFile(destRel, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
		if err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create file %s: %w", rel, err)
		}
		return &directCommitter{destRel: destRel, file: file, root: root}, nil
	}

	tempFile, tempRel, err := createTempFile(root, filepath.Dir(destRel))
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileCommitter{destRel: destRel, tempFile: tempFile, tempRel: tempRel, root: root}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destRel  string
	tempFile *os.File
	tempRel  string
	root     *os.Root
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *fileCommitter) Commit() error {
	defer c.root.Close()
	if err := c.tempFile.Close(); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := c.root.Rename(c.tempRel, c.destRel); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destRel, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	defer c.root.Close()
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	return c.root.Remove(c.tempRel)
}

// directCommitter writes directly to the final path.
type directCommitter struct {
	destRel string
	file    *os.File
	root    *os.Root
}

// Write implements io.Writer.
func (c *directCommitter) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

// Commit closes the file.
func (c *directCommitter) Commit() error {
	defer c.root.Close()
	if err := c.file.Close(); err != nil {
		_ = c.root.Remove(c.destRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// Discard closes and removes the partially written file.
func (c *directCommitter) Discard() error {
	defer c.root.Close()
	_ = c.file.Close() //nolint:errcheck // best-effort cleanup
	return c.root.Remove(c.destRel)
}

func createTempFile(root *os.Root, dir string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, tempPrefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
