package sarc

import "log/slog"

// Default limits.
const (
	// DefaultMaxFileSize bounds a single entry read into memory.
	DefaultMaxFileSize = 256 << 20

	// DefaultMaxDecodedSize bounds the expanded size of a compressed
	// container.
	DefaultMaxDecodedSize = 1 << 30
)

// Option configures an Archive.
type Option func(*Archive)

// WithManifest names entries that have no embedded name.
func WithManifest(m *Manifest) Option {
	return func(a *Archive) {
		a.manifest = m
	}
}

// WithLogger sets the logger for decode and extraction events.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithMaxFileSize limits the size of a single entry read by ReadFile or
// written by Extract. Set limit to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(a *Archive) {
		a.maxFileSize = limit
	}
}

// WithMaxDecodedSize limits the expanded size of a Yaz0 or zstd wrapped
// container. Set limit to 0 to disable the limit.
func WithMaxDecodedSize(limit uint64) Option {
	return func(a *Archive) {
		a.maxDecodedSize = limit
	}
}

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	workers     int
	overwrite   bool
	directWrite bool
	strict      bool
	progress    ProgressFunc
}

// ExtractWithWorkers writes up to n entries concurrently. Values below 2
// extract serially, which is the default.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithOverwrite controls whether existing files are replaced, which
// is the default. With overwrite disabled they are left in place and counted
// as skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithDirectWrites writes each file in place instead of through a
// temporary file and rename.
func ExtractWithDirectWrites(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.directWrite = enabled
	}
}

// ExtractWithStrict makes Extract return an error joining every per-entry
// failure. Extraction still visits every entry.
func ExtractWithStrict(strict bool) ExtractOption {
	return func(c *extractConfig) {
		c.strict = strict
	}
}

// ExtractWithProgress sets a callback invoked after each entry.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}
