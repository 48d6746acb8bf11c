// Package exec carries out deletion plans. It walks a plan's actions
// in order, resolves each against the live filesystem, and reports a
// per-action outcome. A failed action never aborts the batch; the
// executor records the failure and moves on.
package exec

import (
	"context"
	"os"
	"time"

	"github.com/jamesainslie/rclean/pkg/rclean/plan"
	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// Status describes what happened to a single planned action.
type Status int

const (
	StatusDeleted Status = iota
	StatusSkipped
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Skip reasons reported in Outcome.Reason.
const (
	SkipNotFound    = "not found"
	SkipUnconfirmed = "unconfirmed"
)

// Outcome records the result of one planned action. Reason is set for
// skips; Err is set for failures.
type Outcome struct {
	Action plan.Action
	Status Status
	Reason string
	Err    error
}

// Result summarizes an execution run. Cancelled is true when the
// context expired before all actions were attempted; Outcomes then
// covers only the actions reached.
type Result struct {
	Outcomes   []Outcome
	Deleted    int
	Skipped    int
	Failed     int
	BytesFreed int64
	Cancelled  bool
	Elapsed    time.Duration
}

// Confirm decides whether a NeedsConfirmation action may proceed.
type Confirm func(plan.Action) bool

// Options configures an execution run.
type Options struct {
	// Deleter performs the deletions. Defaults to OSDeleter.
	Deleter Deleter

	// Confirm gates NeedsConfirmation actions. When nil, such
	// actions are skipped as unconfirmed.
	Confirm Confirm
}

// Execute runs every action in the plan against the filesystem. Paths
// that vanished since scanning, including children of a directory
// already removed whole, are skipped rather than failed. The returned
// result is complete unless ctx is cancelled mid-run, in which case it
// covers the actions attempted so far and carries the Cancelled flag.
func Execute(ctx context.Context, p *plan.Plan, opts Options) *Result {
	deleter := opts.Deleter
	if deleter == nil {
		deleter = OSDeleter{}
	}

	start := time.Now()
	res := &Result{Outcomes: make([]Outcome, 0, p.Len())}

	for _, action := range p.Actions {
		select {
		case <-ctx.Done():
			res.Cancelled = true
			res.Elapsed = time.Since(start)
			return res
		default:
		}
		res.record(runAction(action, deleter, opts.Confirm))
	}

	res.Elapsed = time.Since(start)
	return res
}

func runAction(action plan.Action, deleter Deleter, confirm Confirm) Outcome {
	if action.Disposition == types.NeedsConfirmation {
		if confirm == nil || !confirm(action) {
			return Outcome{Action: action, Status: StatusSkipped, Reason: SkipUnconfirmed}
		}
	}

	if _, err := os.Lstat(action.Entry.Path); err != nil {
		if os.IsNotExist(err) {
			return Outcome{Action: action, Status: StatusSkipped, Reason: SkipNotFound}
		}
		return Outcome{Action: action, Status: StatusFailed, Err: err}
	}

	if err := remove(action, deleter); err != nil {
		return Outcome{Action: action, Status: StatusFailed, Err: err}
	}
	return Outcome{Action: action, Status: StatusDeleted}
}

// remove picks the delete primitive for an action. Directories with an
// unconditional Delete verdict, and confirmed non-empty matches, come
// off whole; DeleteIfEmpty directories use plain Remove so any content
// that appeared since scanning makes the action fail instead of
// destroying it.
func remove(action plan.Action, deleter Deleter) error {
	if action.Entry.Type == types.TypeDir {
		if action.Disposition == types.DeleteIfEmpty {
			return deleter.Remove(action.Entry.Path)
		}
		return deleter.RemoveAll(action.Entry.Path)
	}
	return deleter.Remove(action.Entry.Path)
}

func (r *Result) record(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusDeleted:
		r.Deleted++
		if o.Action.Entry.Type == types.TypeFile {
			r.BytesFreed += o.Action.Entry.Size
		}
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

// FailedPaths lists the paths of all failed actions, in plan order.
func (r *Result) FailedPaths() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o.Action.Entry.Path)
		}
	}
	return out
}
