// Package plan aggregates classifier verdicts into an ordered deletion
// plan. The builder owns action ordering: symlinks are scheduled before the
// entries they point to, and directory contents before the directory
// itself, so executing the plan front to back never trips over its own
// pending work. A plan is immutable once built; re-planning requires a
// fresh walker pass.
package plan

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jamesainslie/rclean/pkg/rclean/classify"
	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// Action is one scheduled deletion: a non-Keep verdict at a fixed position
// in the plan.
type Action struct {
	classify.Verdict
}

// Conflict records a symlink whose resolved target is itself scheduled for
// deletion. Conflicts are informational: the ordering guarantees the link
// is removed first, but callers may want to report the overlap.
type Conflict struct {
	// Link is the symlink's path.
	Link string

	// Target is the resolved target path, also present in the plan.
	Target string
}

// Plan is the ordered set of deletion actions derived from one walker pass
// over one root. Plans are never merged across roots or passes.
type Plan struct {
	// Root is the walk root the plan was built from.
	Root string

	// CreatedAt is when the plan was built.
	CreatedAt time.Time

	// Actions holds the scheduled deletions in execution order.
	Actions []Action

	// Conflicts lists symlink/target overlaps detected during ordering.
	Conflicts []Conflict

	// Kept counts the verdicts excluded from the plan.
	Kept int
}

// Build constructs a plan from the verdicts of one classification pass.
// Keep verdicts are dropped (counted in Kept); the rest are ordered:
//
//  1. Symlinks first, so no action ever deletes a link's target while the
//     link still awaits deletion. When one planned symlink points at
//     another, the pointing link is scheduled earlier.
//  2. Everything else in reverse canonical path order, which places every
//     entry before the directory that contains it (post-order).
//
// The result is deterministic for a given verdict set.
func Build(root string, verdicts []classify.Verdict) *Plan {
	p := &Plan{Root: root, CreatedAt: time.Now()}

	var links, rest []Action
	planned := make(map[string]struct{})

	for _, v := range verdicts {
		if !v.Disposition.Destructive() {
			p.Kept++
			continue
		}
		a := Action{Verdict: v}
		planned[v.Entry.Path] = struct{}{}
		if v.Entry.IsSymlink() {
			links = append(links, a)
		} else {
			rest = append(rest, a)
		}
	}

	orderLinks(links)

	sort.SliceStable(rest, func(i, j int) bool {
		return pathAfter(rest[i].Entry.Path, rest[j].Entry.Path)
	})

	p.Actions = append(links, rest...)
	p.Conflicts = findConflicts(links, planned)
	return p
}

// EstimateBytes returns the exact sum of file sizes for File-type actions
// with disposition Delete or DeleteIfEmpty. Directories and symlinks
// contribute zero intrinsic size, and NeedsConfirmation actions are
// excluded until confirmed.
func (p *Plan) EstimateBytes() int64 {
	var total int64
	for _, a := range p.Actions {
		if a.Entry.Type != types.TypeFile {
			continue
		}
		if a.Disposition == types.Delete || a.Disposition == types.DeleteIfEmpty {
			total += a.Entry.Size
		}
	}
	return total
}

// Len returns the number of scheduled actions.
func (p *Plan) Len() int { return len(p.Actions) }

// orderLinks sorts the symlink block: reverse canonical path order for
// determinism, then a stable pass hoisting any link that points at another
// planned link above its target. Chains of symlinks are short in practice;
// the pass repeats until stable with a bound to stay safe against cycles.
func orderLinks(links []Action) {
	sort.SliceStable(links, func(i, j int) bool {
		return pathAfter(links[i].Entry.Path, links[j].Entry.Path)
	})

	index := func(path string) int {
		for i := range links {
			if links[i].Entry.Path == path {
				return i
			}
		}
		return -1
	}

	for pass := 0; pass < len(links); pass++ {
		moved := false
		for i := range links {
			target := resolveTarget(links[i].Entry)
			j := index(target)
			if j >= 0 && j < i {
				// Link at i points at an earlier link: hoist it
				// directly above its target.
				a := links[i]
				copy(links[j+1:i+1], links[j:i])
				links[j] = a
				moved = true
			}
		}
		if !moved {
			break
		}
	}
}

// findConflicts reports planned symlinks whose resolved targets are also
// scheduled for deletion.
func findConflicts(links []Action, planned map[string]struct{}) []Conflict {
	var conflicts []Conflict
	for _, a := range links {
		target := resolveTarget(a.Entry)
		if target == "" {
			continue
		}
		if _, ok := planned[target]; ok {
			conflicts = append(conflicts, Conflict{Link: a.Entry.Path, Target: target})
		}
	}
	return conflicts
}

// resolveTarget returns the symlink target as an absolute path, resolving
// relative targets against the link's directory.
func resolveTarget(e types.Entry) string {
	if e.LinkTarget == "" {
		return ""
	}
	if filepath.IsAbs(e.LinkTarget) {
		return filepath.Clean(e.LinkTarget)
	}
	return filepath.Join(filepath.Dir(e.Path), e.LinkTarget)
}

// pathAfter orders a before b when a sorts after b in canonical walk
// order, i.e. reverse pre-order. Since a directory precedes its contents
// in walk order, reversing puts contents before the directory.
func pathAfter(a, b string) bool {
	return pathLess(b, a)
}

// pathLess is the canonical component-wise path order shared with the
// walker: a directory sorts immediately before its contents, siblings by
// name.
func pathLess(a, b string) bool {
	for {
		ai := strings.IndexRune(a, filepath.Separator)
		bi := strings.IndexRune(b, filepath.Separator)

		switch {
		case ai < 0 && bi < 0:
			return a < b
		case ai < 0:
			if a == b[:bi] {
				return true
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
