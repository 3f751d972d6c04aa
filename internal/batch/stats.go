package batch

import "github.com/meigma/sarc/internal/sarctype"

// ProcessStats contains statistics from a batch processing operation.
type ProcessStats struct {
	// Written is the number of files committed to the sink.
	Written int

	// Dirs is the number of directory-marker entries created.
	Dirs int

	// Skipped is the number of entries skipped (ShouldProcess returned false).
	Skipped int

	// Bytes is the sum of payload sizes for all written files.
	Bytes uint64

	// Failures holds one error per entry that could not be extracted, in
	// table order.
	Failures []*sarctype.EntryError
}

// Failed returns the number of entries that could not be extracted.
func (s *ProcessStats) Failed() int {
	return len(s.Failures)
}

// outcome is the result of processing a single entry.
type outcome uint8

const (
	outcomeWritten outcome = iota
	outcomeDir
	outcomeSkipped
	outcomeFailed
)

// add accumulates one entry result.
func (s *ProcessStats) add(o outcome, size uint64, err *sarctype.EntryError) {
	switch o {
	case outcomeWritten:
		s.Written++
		s.Bytes += size
	case outcomeDir:
		s.Dirs++
	case outcomeSkipped:
		s.Skipped++
	case outcomeFailed:
		s.Failures = append(s.Failures, err)
	}
}
