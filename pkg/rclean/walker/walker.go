package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// ErrInvalidRoot indicates that the walk root does not exist or is not a
// directory. This is fatal and aborts before any traversal.
var ErrInvalidRoot = errors.New("invalid root directory")

// Walker traverses a root directory, yielding each filesystem entry with
// its metadata. Each call to Walk begins a fresh traversal; nothing is
// cached across calls.
type Walker struct {
	opts Options

	// Atomic counters for thread-safe progress reporting.
	dirs  atomic.Int64
	files atomic.Int64
	errs  atomic.Int64

	// lastProgress throttles progress callbacks.
	lastProgress atomic.Int64

	// root is the resolved absolute path being walked.
	root string
}

// New creates a Walker with the given options. Options are validated and
// defaults applied.
func New(opts Options) *Walker {
	opts.Validate()
	return &Walker{opts: opts}
}

// Walk performs a full traversal and returns the ordered result. It blocks
// until complete or the context is cancelled. Entries are produced in the
// canonical order: depth-first, directories before their contents, siblings
// sorted by name.
func (w *Walker) Walk(ctx context.Context) (*Result, error) {
	start := time.Now()

	root, err := w.validateRoot()
	if err != nil {
		return nil, err
	}
	w.root = root
	w.dirs.Store(0)
	w.files.Store(0)
	w.errs.Store(0)

	var entries []types.Entry
	if w.opts.Workers > 1 {
		entries, err = w.walkConcurrent(ctx)
	} else {
		entries, err = w.walkSequential(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Entries: entries,
		Dirs:    w.dirs.Load(),
		Files:   w.files.Load(),
		Errors:  w.errs.Load(),
		Elapsed: time.Since(start),
	}, nil
}

// Root returns the resolved absolute root of the last walk.
func (w *Walker) Root() string { return w.root }

// validateRoot resolves the root path to absolute and verifies that it is
// an existing directory.
func (w *Walker) validateRoot() (string, error) {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidRoot, w.opts.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidRoot, w.opts.Root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %q is not a directory", ErrInvalidRoot, w.opts.Root)
	}

	return root, nil
}

// frame is one pending entry on the explicit traversal stack. Traversal
// uses an explicit stack rather than recursion so stack depth stays bounded
// on deep trees.
type frame struct {
	path  string
	depth int
}

// walkSequential is the default single-threaded traversal. It emits each
// directory entry before descending into it, with siblings in name order.
func (w *Walker) walkSequential(ctx context.Context) ([]types.Entry, error) {
	var entries []types.Entry

	// Seed with the root's children; the root itself is never a
	// deletion candidate and is not emitted.
	stack := make([]frame, 0, 64)
	rootChildren, err := w.listDir(w.root)
	if err != nil {
		// An unreadable root is fatal: nothing can be classified.
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRoot, w.root, err)
	}
	pushFrames(&stack, rootChildren, 1)

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entry := w.statEntry(f.path, f.depth)

		if entry.Type == types.TypeDir && entry.AccessErr == "" {
			children, err := w.listDir(f.path)
			if err != nil {
				entry.AccessErr = err.Error()
				w.errs.Add(1)
			} else {
				entry.Children = len(children)
				entries = append(entries, entry)
				pushFrames(&stack, children, f.depth+1)
				continue
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// listDir returns the sorted child paths of dir, minus exclusions.
func (w *Walker) listDir(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	// os.ReadDir sorts by name already.
	children := make([]string, 0, len(dirents))
	for _, d := range dirents {
		path := filepath.Join(dir, d.Name())
		if w.isExcluded(path) {
			continue
		}
		children = append(children, path)
	}
	return children, nil
}

// pushFrames pushes child paths in reverse so the explicit stack pops them
// in name order.
func pushFrames(stack *[]frame, children []string, depth int) {
	for i := len(children) - 1; i >= 0; i-- {
		*stack = append(*stack, frame{path: children[i], depth: depth})
	}
}

// statEntry builds an Entry snapshot for path, tolerating stat failures by
// producing an error-entry.
func (w *Walker) statEntry(path string, depth int) types.Entry {
	entry := types.Entry{Path: path, Depth: depth}

	info, err := w.lstat(path)
	if err != nil {
		entry.AccessErr = err.Error()
		w.errs.Add(1)
		w.reportProgress(path)
		return entry
	}

	entry.Size = info.Size()
	entry.ModTime = info.ModTime()
	entry.Mode = info.Mode()

	switch {
	case info.IsDir():
		entry.Type = types.TypeDir
		w.dirs.Add(1)
	case info.Mode()&fs.ModeSymlink != 0:
		entry.Type = types.TypeSymlink
		w.files.Add(1)
		if target, err := os.Readlink(path); err == nil {
			entry.LinkTarget = target
		}
		if _, err := os.Stat(path); err != nil {
			entry.TargetMissing = true
		}
	default:
		entry.Type = types.TypeFile
		w.files.Add(1)
	}

	w.reportProgress(path)
	return entry
}

// lstat stats the path without following symlinks, bounded by the
// configured timeout.
func (w *Walker) lstat(path string) (fs.FileInfo, error) {
	return w.statWithTimeout(func() (fs.FileInfo, error) {
		return os.Lstat(path)
	})
}

// statWithTimeout runs one metadata call bounded by the configured
// timeout. A timed-out call is abandoned and reported as an access
// error; the goroutine finishing late is discarded.
func (w *Walker) statWithTimeout(stat func() (fs.FileInfo, error)) (fs.FileInfo, error) {
	if w.opts.StatTimeout <= 0 {
		return stat()
	}

	type statResult struct {
		info fs.FileInfo
		err  error
	}
	ch := make(chan statResult, 1)
	go func() {
		info, err := stat()
		ch <- statResult{info, err}
	}()

	timer := time.NewTimer(w.opts.StatTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.info, r.err
	case <-timer.C:
		return nil, fmt.Errorf("stat timed out after %v", w.opts.StatTimeout)
	}
}

// isExcluded checks if a path matches any exclusion pattern.
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.opts.Exclude {
		if w.matchesExclusionPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchesExclusionPattern checks if a path matches a single exclusion
// pattern: as an exact path or path prefix, as a basename glob, or as a
// full-path glob.
func (w *Walker) matchesExclusionPattern(path, pattern string) bool {
	if pattern == "" {
		return false
	}

	if path == pattern {
		return true
	}
	if len(path) > len(pattern) && strings.HasPrefix(path, pattern+string(filepath.Separator)) {
		return true
	}

	if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
		return true
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	return false
}

// reportProgress calls the progress callback if configured, throttled to
// every 10ms to avoid excessive overhead.
func (w *Walker) reportProgress(path string) {
	if w.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := w.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !w.lastProgress.CompareAndSwap(last, now) {
		return
	}

	w.opts.OnProgress(Progress{
		Dirs:        w.dirs.Load(),
		Files:       w.files.Load(),
		Errors:      w.errs.Load(),
		CurrentPath: path,
	})
}

// pathLess orders paths in the canonical walk order: component-wise
// comparison so a directory always sorts immediately before its contents
// and siblings sort by name. Comparing whole path strings would interleave
// "a.txt" between "a" and "a/b"; component comparison does not.
func pathLess(a, b string) bool {
	for {
		ai := strings.IndexRune(a, filepath.Separator)
		bi := strings.IndexRune(b, filepath.Separator)

		switch {
		case ai < 0 && bi < 0:
			return a < b
		case ai < 0:
			// a is a leaf component, b has more components.
			if a == b[:bi] {
				return true // parent before contents
			}
			return a < b[:bi]
		case bi < 0:
			if a[:ai] == b {
				return false
			}
			return a[:ai] < b
		default:
			if a[:ai] != b[:bi] {
				return a[:ai] < b[:bi]
			}
			a, b = a[ai+1:], b[bi+1:]
		}
	}
}
