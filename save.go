package sarc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Save writes the unwrapped container to path. For a Yaz0 or zstd wrapped
// input this is the decompressed archive.
//
// Uses an atomic write (temp file + rename). Parent directories are
// created as needed.
func (a *Archive) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := streamFileAtomic(path, io.NewSectionReader(a.src, 0, a.src.Size())); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// streamFileAtomic streams from r to a temp file then renames to target.
func streamFileAtomic(target string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".sarc-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
