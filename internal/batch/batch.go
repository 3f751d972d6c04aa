// Package batch extracts resolved archive entries to a sink.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/sizing"
)

// Processor copies entry payloads from an archive source to a Sink.
//
// Entries are handled in table order. A failure on one entry is recorded
// and processing moves on; earlier writes are kept. Only cancellation of the
// context stops a run early.
type Processor struct {
	source      sarctype.ByteSource
	maxFileSize uint64
	workers     int // <=1 = serial
	progress    sarctype.ProgressFunc
	logger      *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of entries written concurrently. Values
// below 2 process serially.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithMaxFileSize limits the payload size of a single entry (0 for no limit).
func WithMaxFileSize(n uint64) ProcessorOption {
	return func(p *Processor) {
		p.maxFileSize = n
	}
}

// WithProgress sets a callback invoked after each entry completes.
func WithProgress(fn sarctype.ProgressFunc) ProcessorOption {
	return func(p *Processor) {
		p.progress = fn
	}
}

// WithLogger sets the logger for per-entry events.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a processor reading payloads from source.
func NewProcessor(source sarctype.ByteSource, opts ...ProcessorOption) *Processor {
	p := &Processor{source: source}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.New(slog.DiscardHandler)
}

// Process writes every entry to sink.
//
// The returned stats are complete even when some entries failed; the error
// is non-nil only if ctx was canceled, in which case the stats cover the
// entries finished before cancellation was observed.
func (p *Processor) Process(ctx context.Context, entries []Entry, sink Sink) (*ProcessStats, error) {
	t := &tracker{total: len(entries), progress: p.progress}
	for i := range entries {
		t.bytesTotal += entries[i].Size()
	}

	results := make([]result, len(entries))
	var err error
	if w := p.workerCount(len(entries)); w < 2 {
		err = p.processSerial(ctx, entries, sink, results, t)
	} else {
		err = p.processParallel(ctx, entries, sink, results, t, w)
	}

	stats := &ProcessStats{}
	for _, r := range results {
		if r.done {
			stats.add(r.outcome, r.size, r.err)
		}
	}
	return stats, err
}

func (p *Processor) processSerial(ctx context.Context, entries []Entry, sink Sink, results []result, t *tracker) error {
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		results[i] = p.processEntry(&entries[i], sink)
		t.finish(&entries[i], results[i])
	}
	return nil
}

func (p *Processor) processParallel(ctx context.Context, entries []Entry, sink Sink, results []result, t *tracker, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns results[i]; no other synchronization needed.
			results[i] = p.processEntry(&entries[i], sink)
			t.finish(&entries[i], results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// result is the outcome of one entry.
type result struct {
	done    bool
	outcome outcome
	size    uint64
	err     *sarctype.EntryError
}

func (p *Processor) processEntry(entry *Entry, sink Sink) result {
	fail := func(err error) result {
		p.log().Warn("entry not extracted", "index", entry.Index, "name", entry.Name, "error", err)
		return result{
			done:    true,
			outcome: outcomeFailed,
			err:     &sarctype.EntryError{Index: entry.Index, Name: entry.Name, Err: err},
		}
	}

	if entry.Name == "" {
		return fail(fmt.Errorf("empty name: %w", sarctype.ErrUnresolvedName))
	}
	if entry.IsDir() {
		if err := sink.MakeDir(entry); err != nil {
			return fail(fmt.Errorf("%w: %w", sarctype.ErrWriteFailure, err))
		}
		p.log().Debug("directory created", "name", entry.Name)
		return result{done: true, outcome: outcomeDir}
	}
	if !sink.ShouldProcess(entry) {
		p.log().Debug("entry skipped", "name", entry.Name)
		return result{done: true, outcome: outcomeSkipped}
	}

	size := entry.Size()
	if p.maxFileSize != 0 && size > p.maxFileSize {
		return fail(fmt.Errorf("payload of %d bytes exceeds limit %d: %w", size, p.maxFileSize, sarctype.ErrSizeOverflow))
	}
	data, err := p.read(entry)
	if err != nil {
		return fail(err)
	}

	w, err := sink.Writer(entry)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", sarctype.ErrWriteFailure, err))
	}
	if err := writeAll(w, data); err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return fail(fmt.Errorf("%w: %w", sarctype.ErrWriteFailure, err))
	}
	if err := w.Commit(); err != nil {
		return fail(fmt.Errorf("%w: commit: %w", sarctype.ErrWriteFailure, err))
	}
	p.log().Debug("entry written", "name", entry.Name, "size", size)
	return result{done: true, outcome: outcomeWritten, size: size}
}

// read returns the entry's payload.
func (p *Processor) read(entry *Entry) ([]byte, error) {
	if entry.End < entry.Start || entry.End > uint64(p.source.Size()) { //nolint:gosec // size is non-negative
		return nil, fmt.Errorf("range [%#x, %#x): %w", entry.Start, entry.End, sarctype.ErrOutOfBounds)
	}
	n, err := sizing.ToInt(entry.Size(), sarctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	got, err := p.source.ReadAt(data, int64(entry.Start)) //nolint:gosec // bounded by source size
	if got == n {
		return data, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("short read (%d of %d bytes): %w", got, n, sarctype.ErrOutOfBounds)
	}
	return nil, fmt.Errorf("read payload: %w", err)
}

// workerCount determines the number of workers to use for processing.
func (p *Processor) workerCount(entries int) int {
	if p.workers < 2 || entries < 2 {
		return 1
	}
	return min(p.workers, entries)
}

// tracker accumulates progress across workers.
type tracker struct {
	mu         sync.Mutex
	total      int
	bytesTotal uint64
	files      int
	bytes      atomic.Uint64
	progress   sarctype.ProgressFunc
}

func (t *tracker) finish(entry *Entry, r result) {
	if r.outcome == outcomeWritten {
		t.bytes.Add(r.size)
	}
	if t.progress == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files++
	t.progress(sarctype.ProgressEvent{
		Name:       entry.Name,
		BytesDone:  t.bytes.Load(),
		BytesTotal: t.bytesTotal,
		FilesDone:  t.files,
		FilesTotal: t.total,
	})
}

func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}
