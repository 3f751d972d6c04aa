package sarctype

// ProgressEvent represents a progress update during extraction.
type ProgressEvent struct {
	// Name is the entry currently being processed, if applicable.
	Name string

	// BytesDone is the number of payload bytes written so far.
	BytesDone uint64

	// BytesTotal is the total payload bytes scheduled for extraction.
	BytesTotal uint64

	// FilesDone is the number of entries completed, including failures.
	FilesDone int

	// FilesTotal is the total number of entries scheduled.
	FilesTotal int
}

// ProgressFunc receives progress updates during extraction.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
