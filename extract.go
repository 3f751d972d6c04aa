package sarc

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/meigma/sarc/internal/batch"
)

// ExtractStats summarizes an extraction.
type ExtractStats struct {
	// Written is the number of files written.
	Written int

	// Dirs is the number of directory-marker entries created.
	Dirs int

	// Skipped is the number of existing files left in place.
	Skipped int

	// Bytes is the total payload size written.
	Bytes uint64

	// Failures holds one error per entry that was not extracted, in table
	// order. Each wraps ErrWriteFailure, ErrOutOfBounds, ErrSizeOverflow or
	// ErrUnresolvedName.
	Failures []*EntryError

	// Notes holds the archive's name-resolution findings (see Archive.Notes).
	Notes []*EntryError
}

// Extract writes every entry below destDir, in table order, creating
// directories as needed. destDir is created if it does not exist.
//
// Extraction is not transactional: a failed entry is recorded in the stats
// and the remaining entries are still written. The returned error is
// non-nil only when ctx is canceled, destDir cannot be created, or strict
// mode is enabled and at least one entry failed. Names that would resolve
// outside destDir are rejected.
func (a *Archive) Extract(ctx context.Context, destDir string, opts ...ExtractOption) (*ExtractStats, error) {
	cfg := extractConfig{overwrite: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}

	sink := batch.NewFileSink(destDir,
		batch.WithOverwrite(cfg.overwrite),
		batch.WithDirectWrites(cfg.directWrite),
	)
	procOpts := []batch.ProcessorOption{
		batch.WithWorkers(cfg.workers),
		batch.WithMaxFileSize(a.maxFileSize),
	}
	if cfg.progress != nil {
		procOpts = append(procOpts, batch.WithProgress(cfg.progress))
	}
	if a.logger != nil {
		procOpts = append(procOpts, batch.WithLogger(a.logger))
	}

	ps, err := batch.NewProcessor(a.src, procOpts...).Process(ctx, a.entries, sink)
	stats := &ExtractStats{
		Written:  ps.Written,
		Dirs:     ps.Dirs,
		Skipped:  ps.Skipped,
		Bytes:    ps.Bytes,
		Failures: ps.Failures,
		Notes:    a.Notes(),
	}
	if err != nil {
		return stats, err
	}

	a.log().Info("extracted",
		"dest", destDir,
		"written", stats.Written,
		"dirs", stats.Dirs,
		"skipped", stats.Skipped,
		"failed", ps.Failed(),
		"bytes", stats.Bytes)
	if stats.Skipped > 0 {
		a.log().Warn("existing files left in place", "dest", destDir, "skipped", stats.Skipped)
	}

	if cfg.strict && len(stats.Failures) > 0 {
		errs := make([]error, len(stats.Failures))
		for i, f := range stats.Failures {
			errs[i] = f
		}
		return stats, errors.Join(errs...)
	}
	return stats, nil
}
