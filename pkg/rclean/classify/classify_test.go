package classify

import (
	"testing"
	"time"

	"github.com/jamesainslie/rclean/pkg/rclean/rules"
	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

func testRuleSet(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Compile([]rules.Rule{
		{Pattern: ".pyc", Kind: rules.KindSuffix, Category: rules.CategoryBuild, Policy: rules.PolicyDelete},
		{Pattern: "__pycache__", Kind: rules.KindDirName, Category: rules.CategoryCache, Policy: rules.PolicyDeleteIfEmpty},
		{Pattern: ".log", Kind: rules.KindSuffix, Category: rules.CategoryLog, Policy: rules.PolicyDeleteIfOlder, MaxAge: 30 * rules.Day},
		{Pattern: ".stamp", Kind: rules.KindSuffix, Policy: rules.PolicyDeleteIfEmpty},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return rs
}

func TestClassifyDispositions(t *testing.T) {
	rs := testRuleSet(t)
	now := time.Now().Unix()

	tests := []struct {
		name   string
		entry  types.Entry
		want   types.Disposition
		reason string
	}{
		{
			name:  "suffix rule deletes",
			entry: types.Entry{Path: "/r/a.pyc", Type: types.TypeFile, Size: 10},
			want:  types.Delete,
		},
		{
			name:   "unmatched keeps",
			entry:  types.Entry{Path: "/r/main.go", Type: types.TypeFile},
			want:   types.Keep,
			reason: ReasonUnmatched,
		},
		{
			name:   "error-entry keeps",
			entry:  types.Entry{Path: "/r/locked", AccessErr: "permission denied"},
			want:   types.Keep,
			reason: ReasonAccessError,
		},
		{
			name:  "empty dir deletes if empty",
			entry: types.Entry{Path: "/r/__pycache__", Type: types.TypeDir, Children: 0},
			want:  types.DeleteIfEmpty,
		},
		{
			name:   "non-empty dir needs confirmation",
			entry:  types.Entry{Path: "/r/__pycache__", Type: types.TypeDir, Children: 1},
			want:   types.NeedsConfirmation,
			reason: ReasonNotEmpty,
		},
		{
			name:  "zero-byte file deletes if empty",
			entry: types.Entry{Path: "/r/build.stamp", Type: types.TypeFile, Size: 0},
			want:  types.DeleteIfEmpty,
		},
		{
			name:   "non-empty file needs confirmation",
			entry:  types.Entry{Path: "/r/build.stamp", Type: types.TypeFile, Size: 5},
			want:   types.NeedsConfirmation,
			reason: ReasonNotEmpty,
		},
		{
			name: "old file deletes under older-than",
			entry: types.Entry{
				Path: "/r/old.log", Type: types.TypeFile,
				ModTime: time.Unix(now, 0).Add(-31 * 24 * time.Hour),
			},
			want: types.Delete,
		},
		{
			name: "fresh file kept under older-than",
			entry: types.Entry{
				Path: "/r/fresh.log", Type: types.TypeFile,
				ModTime: time.Unix(now, 0).Add(-1 * time.Hour),
			},
			want:   types.Keep,
			reason: ReasonTooNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.entry, rs, now)
			if v.Disposition != tt.want {
				t.Errorf("disposition = %v, want %v", v.Disposition, tt.want)
			}
			if tt.reason != "" && v.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", v.Reason, tt.reason)
			}
		})
	}
}

// Classifying the same entry twice against the same immutable rule set
// must yield identical verdicts.
func TestClassifyIsDeterministic(t *testing.T) {
	rs := testRuleSet(t)
	now := time.Now().Unix()

	entries := []types.Entry{
		{Path: "/r/a.pyc", Type: types.TypeFile, Size: 10},
		{Path: "/r/__pycache__", Type: types.TypeDir, Children: 2},
		{Path: "/r/main.go", Type: types.TypeFile},
		{Path: "/r/err", AccessErr: "stat timed out"},
	}

	for _, e := range entries {
		first := Classify(e, rs, now)
		second := Classify(e, rs, now)
		if first.Disposition != second.Disposition || first.Reason != second.Reason {
			t.Errorf("%s: verdicts differ: %+v vs %+v", e.Path, first, second)
		}
	}
}

func TestClassifyDoesNotMutateEntry(t *testing.T) {
	rs := testRuleSet(t)
	entry := types.Entry{Path: "/r/a.pyc", Type: types.TypeFile, Size: 42}
	before := entry

	_ = Classify(entry, rs, time.Now().Unix())

	if entry != before {
		t.Error("Classify mutated its entry argument")
	}
}

// Zero-byte files are never escalated past their rule's declared policy:
// a plain delete rule on an empty file is still just Delete.
func TestClassifyNoSizeEscalation(t *testing.T) {
	rs := testRuleSet(t)
	v := Classify(types.Entry{Path: "/r/empty.pyc", Type: types.TypeFile, Size: 0}, rs, time.Now().Unix())
	if v.Disposition != types.Delete {
		t.Errorf("disposition = %v, want Delete", v.Disposition)
	}
}

func TestAll(t *testing.T) {
	rs := testRuleSet(t)
	entries := []types.Entry{
		{Path: "/r/a.pyc", Type: types.TypeFile},
		{Path: "/r/keep.go", Type: types.TypeFile},
	}

	verdicts := All(entries, rs, time.Now().Unix())
	if len(verdicts) != 2 {
		t.Fatalf("len = %d, want 2", len(verdicts))
	}
	if verdicts[0].Disposition != types.Delete {
		t.Errorf("verdict[0] = %v, want Delete", verdicts[0].Disposition)
	}
	if verdicts[1].Disposition != types.Keep {
		t.Errorf("verdict[1] = %v, want Keep", verdicts[1].Disposition)
	}
}
