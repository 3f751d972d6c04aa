package sarctype

import "io"

// ByteSource provides random access to an archive buffer.
//
// Implementations exist for in-memory buffers and memory-mapped files.
// The content must not change while an archive built on it is alive.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}
