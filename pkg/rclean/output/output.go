// Package output provides formatters for displaying cleaning reports
// in various output formats (pretty, plain, json, yaml).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/rclean/pkg/rclean/exec"
	"github.com/jamesainslie/rclean/pkg/rclean/plan"
	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// Item is one planned entry prepared for display. Outcome and Reason
// are empty on a dry run.
type Item struct {
	// Path is the absolute path of the entry.
	Path string `json:"path" yaml:"path"`

	// Type is the entry type: file, directory, or symlink.
	Type string `json:"type" yaml:"type"`

	// Category is the matched rule's category, e.g. "cache".
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Pattern is the matched rule's pattern.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Disposition is the classifier verdict for the entry.
	Disposition string `json:"disposition" yaml:"disposition"`

	// Size is the entry size in bytes (zero for dirs and symlinks).
	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the IEC-formatted size (e.g. "1.5 MiB").
	SizeHuman string `json:"size_human" yaml:"size_human"`

	// Outcome records what the executor did: deleted, skipped, failed.
	Outcome string `json:"outcome,omitempty" yaml:"outcome,omitempty"`

	// Reason carries the skip reason or failure message.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CategoryStat aggregates planned entries by rule category.
type CategoryStat struct {
	Category   string `json:"category" yaml:"category"`
	Count      int    `json:"count" yaml:"count"`
	Bytes      int64  `json:"bytes" yaml:"bytes"`
	BytesHuman string `json:"bytes_human" yaml:"bytes_human"`
}

// ConflictInfo describes a symlink whose target is itself planned for
// deletion.
type ConflictInfo struct {
	Link   string `json:"link" yaml:"link"`
	Target string `json:"target" yaml:"target"`
}

// Summary carries run-level totals.
type Summary struct {
	// Entries is the number of planned actions.
	Entries int `json:"entries" yaml:"entries"`

	// Kept is the number of scanned entries left alone.
	Kept int `json:"kept" yaml:"kept"`

	// Reclaimable is the plan's byte estimate.
	Reclaimable      int64  `json:"reclaimable" yaml:"reclaimable"`
	ReclaimableHuman string `json:"reclaimable_human" yaml:"reclaimable_human"`

	// Execution totals, zero on a dry run.
	Deleted    int   `json:"deleted" yaml:"deleted"`
	Skipped    int   `json:"skipped" yaml:"skipped"`
	Failed     int   `json:"failed" yaml:"failed"`
	BytesFreed int64 `json:"bytes_freed" yaml:"bytes_freed"`

	// Duration is the executor elapsed time, zero on a dry run.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Report is the complete output data for formatting: the plan, the
// optional execution result, and any warnings collected along the way.
type Report struct {
	// Root is the directory that was cleaned.
	Root string `json:"root" yaml:"root"`

	// DryRun is true when nothing was executed.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Cancelled is true when execution stopped early.
	Cancelled bool `json:"cancelled" yaml:"cancelled"`

	// Items lists every planned entry in plan order.
	Items []Item `json:"items" yaml:"items"`

	// Categories aggregates items by rule category, largest first.
	Categories []CategoryStat `json:"categories" yaml:"categories"`

	// Conflicts lists symlink/target overlaps detected by the planner.
	Conflicts []ConflictInfo `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	// Warnings carries access errors and other non-fatal problems.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Summary Summary `json:"summary" yaml:"summary"`
}

// BuildReport assembles a Report from a plan and an optional execution
// result. Pass a nil result for dry runs.
func BuildReport(p *plan.Plan, res *exec.Result, warnings []string) *Report {
	r := &Report{
		Root:     p.Root,
		DryRun:   res == nil,
		Warnings: warnings,
		Summary: Summary{
			Entries:          p.Len(),
			Kept:             p.Kept,
			Reclaimable:      p.EstimateBytes(),
			ReclaimableHuman: types.FormatSize(p.EstimateBytes()),
		},
	}

	outcomes := make(map[string]exec.Outcome, len(p.Actions))
	if res != nil {
		r.Cancelled = res.Cancelled
		r.Summary.Deleted = res.Deleted
		r.Summary.Skipped = res.Skipped
		r.Summary.Failed = res.Failed
		r.Summary.BytesFreed = res.BytesFreed
		r.Summary.Duration = res.Elapsed
		for _, o := range res.Outcomes {
			outcomes[o.Action.Entry.Path] = o
		}
	}

	stats := make(map[string]*CategoryStat)
	for _, action := range p.Actions {
		item := Item{
			Path:        action.Entry.Path,
			Type:        action.Entry.Type.String(),
			Disposition: action.Disposition.String(),
			Size:        action.Entry.Size,
			SizeHuman:   types.FormatSize(action.Entry.Size),
		}
		if action.Rule != nil {
			item.Category = string(action.Rule.Category)
			item.Pattern = action.Rule.Pattern
		}
		if o, ok := outcomes[action.Entry.Path]; ok {
			item.Outcome = o.Status.String()
			switch {
			case o.Err != nil:
				item.Reason = o.Err.Error()
			case o.Reason != "":
				item.Reason = o.Reason
			}
		}
		r.Items = append(r.Items, item)

		cat := item.Category
		if cat == "" {
			cat = "other"
		}
		st, ok := stats[cat]
		if !ok {
			st = &CategoryStat{Category: cat}
			stats[cat] = st
		}
		st.Count++
		if action.Entry.Type == types.TypeFile {
			st.Bytes += action.Entry.Size
		}
	}

	for _, st := range stats {
		st.BytesHuman = types.FormatSize(st.Bytes)
		r.Categories = append(r.Categories, *st)
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		if r.Categories[i].Bytes != r.Categories[j].Bytes {
			return r.Categories[i].Bytes > r.Categories[j].Bytes
		}
		return r.Categories[i].Category < r.Categories[j].Category
	})

	for _, c := range p.Conflicts {
		r.Conflicts = append(r.Conflicts, ConflictInfo{Link: c.Link, Target: c.Target})
	}

	return r
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any
// existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
