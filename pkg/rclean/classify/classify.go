// Package classify matches walker entries against a rule set and produces
// verdicts. Classification is a pure function of its inputs: it performs no
// I/O, never mutates an entry, and yields the same verdict for the same
// entry, rule set, and reference time.
package classify

import (
	"github.com/jamesainslie/rclean/pkg/rclean/rules"
	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// Reasons attached to verdicts for reporting.
const (
	// ReasonUnmatched marks entries no rule matched.
	ReasonUnmatched = "unmatched"
	// ReasonAccessError marks error-entries the walker could not stat.
	ReasonAccessError = "access error"
	// ReasonTooNew marks older-than matches younger than the rule's age.
	ReasonTooNew = "newer than threshold"
	// ReasonNotEmpty marks delete-if-empty matches that are not empty.
	ReasonNotEmpty = "not empty"
	// ReasonBrokenSymlink marks symlinks scheduled because their target
	// is gone.
	ReasonBrokenSymlink = "broken symlink"
)

// Verdict is the classifier's decision for one entry: the disposition, the
// rule that produced it (nil for Keep-by-default), and a short reason for
// reporting.
type Verdict struct {
	Entry       types.Entry
	Rule        *rules.Rule
	Disposition types.Disposition
	Reason      string
}

// Classify produces the verdict for one entry against the rule set, using
// now (Unix seconds) as the reference time for age thresholds.
//
// Error-entries and unmatched entries default to Keep. A delete-if-empty
// rule matching a non-empty entry yields NeedsConfirmation rather than
// silently demoting to Keep or escalating to Delete: destructive action on
// a non-empty match requires an explicit caller decision.
func Classify(entry types.Entry, rs *rules.RuleSet, now int64) Verdict {
	if entry.AccessErr != "" {
		return Verdict{Entry: entry, Disposition: types.Keep, Reason: ReasonAccessError}
	}

	rule := rs.Match(entry)
	if rule == nil {
		return Verdict{Entry: entry, Disposition: types.Keep, Reason: ReasonUnmatched}
	}

	v := Verdict{Entry: entry, Rule: rule, Reason: rule.Pattern}

	switch rule.Policy {
	case rules.PolicyDelete:
		v.Disposition = types.Delete

	case rules.PolicyDeleteIfOlder:
		cutoff := now - int64(rule.MaxAge.Seconds())
		if entry.ModTime.Unix() <= cutoff {
			v.Disposition = types.Delete
		} else {
			v.Disposition = types.Keep
			v.Reason = ReasonTooNew
		}

	case rules.PolicyDeleteIfEmpty:
		if isEmpty(entry) {
			v.Disposition = types.DeleteIfEmpty
		} else {
			v.Disposition = types.NeedsConfirmation
			v.Reason = ReasonNotEmpty
		}

	default:
		v.Disposition = types.Keep
	}

	return v
}

// All classifies every entry in order and returns one verdict per entry.
func All(entries []types.Entry, rs *rules.RuleSet, now int64) []Verdict {
	verdicts := make([]Verdict, len(entries))
	for i, e := range entries {
		verdicts[i] = Classify(e, rs, now)
	}
	return verdicts
}

// isEmpty reports whether the entry is empty for delete-if-empty purposes:
// a directory with no children, or a zero-byte regular file. Symlinks are
// never empty; their target's state is irrelevant to the link itself.
func isEmpty(entry types.Entry) bool {
	switch entry.Type {
	case types.TypeDir:
		return entry.Children == 0
	case types.TypeFile:
		return entry.Size == 0
	default:
		return false
	}
}
