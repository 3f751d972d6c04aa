package batch

import (
	"io"

	"github.com/meigma/sarc/internal/sarctype"
)

// Entry is an alias for sarctype.Entry.
type Entry = sarctype.Entry

// Sink receives entry payloads during extraction.
//
// Implementations determine where content is written and can filter which
// entries to process. They must be safe for concurrent use when the
// processor runs with more than one worker.
type Sink interface {
	// ShouldProcess returns false if this entry should be skipped.
	ShouldProcess(entry *Entry) bool

	// Writer returns a writer for the entry's content. The caller writes
	// the payload, then calls Commit, or Discard on any error.
	Writer(entry *Entry) (Committer, error)

	// MakeDir creates the directory for a directory-marker entry. It
	// succeeds if the directory already exists.
	MakeDir(entry *Entry) error
}

// Committer is a writer that can be committed or discarded.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
