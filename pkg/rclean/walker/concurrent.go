package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// walkConcurrent traverses using fastwalk's parallel walker, then buffers
// and reorders the collected entries into the canonical sequential order so
// the planner sees the same deterministic sequence either way.
func (w *Walker) walkConcurrent(ctx context.Context) ([]types.Entry, error) {
	conf := fastwalk.Config{
		Follow:     false, // symlinks are leaves, never traversed
		NumWorkers: w.opts.Workers,
	}

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		<-walkCtx.Done()
		close(done)
	}()

	var (
		mu      sync.Mutex
		entries []types.Entry
	)

	walkErr := fastwalk.Walk(&conf, w.root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		if path == w.root {
			if err != nil {
				return err
			}
			return nil
		}

		if err != nil {
			entry := types.Entry{Path: path, AccessErr: err.Error()}
			w.errs.Add(1)
			mu.Lock()
			entries = append(entries, entry)
			mu.Unlock()
			return nil
		}

		if w.isExcluded(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		entry := w.buildEntry(path, d)
		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()
		return nil
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, walkErr
	}

	w.finalize(entries)

	sort.Slice(entries, func(i, j int) bool {
		return pathLess(entries[i].Path, entries[j].Path)
	})
	return entries, nil
}

// buildEntry constructs an Entry from a fastwalk dirent, tolerating stat
// failures by producing an error-entry.
func (w *Walker) buildEntry(path string, d fs.DirEntry) types.Entry {
	entry := types.Entry{Path: path}

	info, err := w.statWithTimeout(d.Info)
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
	case d.IsDir():
		entry.Type = types.TypeDir
		w.dirs.Add(1)
	case d.Type()&fs.ModeSymlink != 0:
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

// finalize fills in depth and per-directory child counts, which the
// parallel walk cannot track in flight.
func (w *Walker) finalize(entries []types.Entry) {
	children := make(map[string]int, len(entries)/4)
	for i := range entries {
		children[filepath.Dir(entries[i].Path)]++
	}

	sep := string(filepath.Separator)
	for i := range entries {
		e := &entries[i]
		rel, err := filepath.Rel(w.root, e.Path)
		if err == nil {
			e.Depth = 1 + strings.Count(rel, sep)
		}
		if e.Type == types.TypeDir {
			e.Children = children[e.Path]
		}
	}
}
