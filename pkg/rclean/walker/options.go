// Package walker provides deterministic directory traversal for the rclean
// detritus cleaner. It yields a read-only snapshot of every entry under a
// root in a stable depth-first order (directories before their contents,
// siblings by name) so that a deletion plan built from one pass can be
// replayed on an unchanged tree.
//
// Symlinks are reported as entries with their target but are never
// traversed into, which sidesteps cycle handling entirely. Entries that
// cannot be stat'd become error-entries rather than failing the walk.
package walker

import (
	"time"

	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// DefaultWorkers is the worker count used when options request concurrency
// without a specific value.
const DefaultWorkers = 4

// Progress reports real-time walk progress.
type Progress struct {
	// Dirs is the number of directories visited so far.
	Dirs int64

	// Files is the number of files and symlinks visited so far.
	Files int64

	// Errors is the number of error-entries produced so far.
	Errors int64

	// CurrentPath is the path most recently visited.
	CurrentPath string
}

// Options configures a Walker.
type Options struct {
	// Root is the directory to traverse. It must exist and be a
	// directory; Walk fails with ErrInvalidRoot otherwise.
	Root string

	// Exclude contains patterns for paths to skip entirely. A pattern
	// matches as a path prefix, against the entry basename, or against
	// the full path. Excluded directories are not descended into.
	Exclude []string

	// Workers enables the concurrent traversal mode when greater than 1.
	// Entries are buffered and reordered into the canonical sequential
	// order before being returned, so planning stays deterministic.
	// The effective count is capped by the process file descriptor limit.
	Workers int

	// StatTimeout bounds each metadata call. A timed-out stat produces
	// an error-entry instead of blocking the walk. Zero disables the
	// timeout.
	StatTimeout time.Duration

	// OnProgress is called periodically with walk progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(Progress)
}

// Validate applies defaults for invalid option values.
func (o *Options) Validate() {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Workers < 0 {
		o.Workers = 0
	}
	if o.Workers > 1 {
		o.Workers = capWorkers(o.Workers)
	}
}

// Result is the outcome of one walk pass: the ordered entries plus summary
// counters. Error-entries appear both in Entries (so classification sees
// them) and tallied in Errors.
type Result struct {
	// Entries holds every discovered entry in canonical order.
	Entries []types.Entry

	// Dirs, Files record how many of each were visited.
	Dirs  int64
	Files int64

	// Errors counts error-entries.
	Errors int64

	// Elapsed is the total walk duration.
	Elapsed time.Duration
}
