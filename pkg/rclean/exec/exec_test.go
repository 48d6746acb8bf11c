package exec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/rclean/pkg/rclean/classify"
	"github.com/jamesainslie/rclean/pkg/rclean/plan"
	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

func writeFile(t *testing.T, path, content string) types.Entry {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return types.Entry{Path: path, Type: types.TypeFile, Size: int64(len(content))}
}

func makeDir(t *testing.T, path string, children int) types.Entry {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	return types.Entry{Path: path, Type: types.TypeDir, Children: children}
}

func makeLink(t *testing.T, path, target string) types.Entry {
	t.Helper()
	if err := os.Symlink(target, path); err != nil {
		t.Fatal(err)
	}
	return types.Entry{Path: path, Type: types.TypeSymlink, LinkTarget: target}
}

func verdict(e types.Entry, d types.Disposition) classify.Verdict {
	return classify.Verdict{Entry: e, Disposition: d}
}

func gone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Errorf("%s still exists (err=%v)", path, err)
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	root := t.TempDir()
	apyc := writeFile(t, filepath.Join(root, "a.pyc"), "bytecode")
	blog := writeFile(t, filepath.Join(root, "b.log"), "log")
	cache := makeDir(t, filepath.Join(root, "__pycache__"), 0)
	link := makeLink(t, filepath.Join(root, "link"), filepath.Join(root, "a.pyc"))

	p := plan.Build(root, []classify.Verdict{
		verdict(apyc, types.Delete),
		verdict(blog, types.Delete),
		verdict(cache, types.DeleteIfEmpty),
		verdict(link, types.Delete),
	})

	res := Execute(context.Background(), p, Options{})

	if res.Deleted != 4 || res.Skipped != 0 || res.Failed != 0 {
		t.Fatalf("got deleted=%d skipped=%d failed=%d", res.Deleted, res.Skipped, res.Failed)
	}
	if want := int64(len("bytecode") + len("log")); res.BytesFreed != want {
		t.Errorf("BytesFreed = %d, want %d", res.BytesFreed, want)
	}
	if res.Cancelled {
		t.Error("run reported cancelled")
	}
	gone(t, apyc.Path)
	gone(t, blog.Path)
	gone(t, cache.Path)
	gone(t, link.Path)
}

// Replaying the same plan on the now-clean tree must skip everything
// as "not found", never fail.
func TestExecuteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	apyc := writeFile(t, filepath.Join(root, "a.pyc"), "x")
	cache := makeDir(t, filepath.Join(root, "__pycache__"), 0)

	p := plan.Build(root, []classify.Verdict{
		verdict(apyc, types.Delete),
		verdict(cache, types.DeleteIfEmpty),
	})

	first := Execute(context.Background(), p, Options{})
	if first.Deleted != 2 {
		t.Fatalf("first run deleted %d, want 2", first.Deleted)
	}

	second := Execute(context.Background(), p, Options{})
	if second.Deleted != 0 || second.Failed != 0 {
		t.Fatalf("second run deleted=%d failed=%d", second.Deleted, second.Failed)
	}
	if second.Skipped != 2 {
		t.Fatalf("second run skipped %d, want 2", second.Skipped)
	}
	for _, o := range second.Outcomes {
		if o.Reason != SkipNotFound {
			t.Errorf("%s skipped with %q, want %q", o.Action.Entry.Path, o.Reason, SkipNotFound)
		}
	}
}

func TestExecuteUnconfirmedSkipped(t *testing.T) {
	root := t.TempDir()
	apyc := writeFile(t, filepath.Join(root, "a.pyc"), "x")
	blog := writeFile(t, filepath.Join(root, "b.log"), "y")
	stamp := writeFile(t, filepath.Join(root, "big.stamp"), "not empty")

	p := plan.Build(root, []classify.Verdict{
		verdict(apyc, types.Delete),
		verdict(blog, types.Delete),
		verdict(stamp, types.NeedsConfirmation),
	})

	res := Execute(context.Background(), p, Options{
		Confirm: func(plan.Action) bool { return false },
	})

	if res.Deleted != 2 || res.Skipped != 1 {
		t.Fatalf("got deleted=%d skipped=%d", res.Deleted, res.Skipped)
	}
	for _, o := range res.Outcomes {
		if o.Status == StatusSkipped && o.Reason != SkipUnconfirmed {
			t.Errorf("skip reason %q, want %q", o.Reason, SkipUnconfirmed)
		}
	}
	if _, err := os.Lstat(stamp.Path); err != nil {
		t.Errorf("unconfirmed entry was deleted: %v", err)
	}
}

func TestExecuteNilConfirmSkips(t *testing.T) {
	root := t.TempDir()
	stamp := writeFile(t, filepath.Join(root, "big.stamp"), "not empty")

	p := plan.Build(root, []classify.Verdict{
		verdict(stamp, types.NeedsConfirmation),
	})

	res := Execute(context.Background(), p, Options{})
	if res.Skipped != 1 || res.Outcomes[0].Reason != SkipUnconfirmed {
		t.Fatalf("got %+v, want one unconfirmed skip", res.Outcomes)
	}
}

func TestExecuteConfirmedDeletes(t *testing.T) {
	root := t.TempDir()
	dist := makeDir(t, filepath.Join(root, "dist"), 1)
	writeFile(t, filepath.Join(dist.Path, "app.js"), "js")

	p := plan.Build(root, []classify.Verdict{
		verdict(dist, types.NeedsConfirmation),
	})

	res := Execute(context.Background(), p, Options{
		Confirm: func(plan.Action) bool { return true },
	})

	if res.Deleted != 1 {
		t.Fatalf("got deleted=%d, want 1", res.Deleted)
	}
	gone(t, dist.Path)
}

func TestExecuteOutOfBandDeletion(t *testing.T) {
	root := t.TempDir()
	apyc := writeFile(t, filepath.Join(root, "a.pyc"), "x")
	blog := writeFile(t, filepath.Join(root, "b.log"), "y")

	p := plan.Build(root, []classify.Verdict{
		verdict(apyc, types.Delete),
		verdict(blog, types.Delete),
	})

	// Simulate a race: one entry vanishes between plan and execute.
	if err := os.Remove(apyc.Path); err != nil {
		t.Fatal(err)
	}

	res := Execute(context.Background(), p, Options{})

	if res.Deleted != 1 || res.Skipped != 1 || res.Failed != 0 {
		t.Fatalf("got deleted=%d skipped=%d failed=%d", res.Deleted, res.Skipped, res.Failed)
	}
	gone(t, blog.Path)
}

func TestExecuteFailureContinues(t *testing.T) {
	root := t.TempDir()
	apyc := writeFile(t, filepath.Join(root, "a.pyc"), "x")
	blog := writeFile(t, filepath.Join(root, "b.log"), "y")

	fake := &FakeDeleter{FailOn: map[string]error{
		apyc.Path: errors.New("permission denied"),
	}}

	p := plan.Build(root, []classify.Verdict{
		verdict(apyc, types.Delete),
		verdict(blog, types.Delete),
	})

	res := Execute(context.Background(), p, Options{Deleter: fake})

	if res.Failed != 1 || res.Deleted != 1 {
		t.Fatalf("got failed=%d deleted=%d", res.Failed, res.Deleted)
	}
	failed := res.FailedPaths()
	if len(failed) != 1 || failed[0] != apyc.Path {
		t.Errorf("FailedPaths() = %v, want [%s]", failed, apyc.Path)
	}
	if len(fake.Calls) != 2 {
		t.Errorf("deleter calls = %v, want both attempted", fake.Calls)
	}
}

// A directory slated for unconditional deletion comes off whole, even
// when some of its contents matched no rule of their own.
func TestExecuteDeleteDirCascades(t *testing.T) {
	root := t.TempDir()
	nm := makeDir(t, filepath.Join(root, "node_modules"), 1)
	writeFile(t, filepath.Join(nm.Path, "readme.md"), "unplanned")

	p := plan.Build(root, []classify.Verdict{
		verdict(nm, types.Delete),
	})

	res := Execute(context.Background(), p, Options{})
	if res.Deleted != 1 || res.Failed != 0 {
		t.Fatalf("got deleted=%d failed=%d", res.Deleted, res.Failed)
	}
	gone(t, nm.Path)
}

// A DeleteIfEmpty directory that gained content since scanning must
// not be destroyed; the plain remove fails and the content survives.
func TestExecuteDeleteIfEmptyRefusesNewContent(t *testing.T) {
	root := t.TempDir()
	cache := makeDir(t, filepath.Join(root, "__pycache__"), 0)

	p := plan.Build(root, []classify.Verdict{
		verdict(cache, types.DeleteIfEmpty),
	})

	writeFile(t, filepath.Join(cache.Path, "late.pyc"), "appeared after scan")

	res := Execute(context.Background(), p, Options{})
	if res.Failed != 1 {
		t.Fatalf("got failed=%d, want 1", res.Failed)
	}
	if _, err := os.Lstat(cache.Path); err != nil {
		t.Errorf("directory was removed despite content: %v", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	root := t.TempDir()
	apyc := writeFile(t, filepath.Join(root, "a.pyc"), "x")

	p := plan.Build(root, []classify.Verdict{
		verdict(apyc, types.Delete),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Execute(ctx, p, Options{})
	if !res.Cancelled {
		t.Fatal("result not marked cancelled")
	}
	if len(res.Outcomes) != 0 {
		t.Errorf("got %d outcomes on pre-cancelled context", len(res.Outcomes))
	}
	if _, err := os.Lstat(apyc.Path); err != nil {
		t.Errorf("entry deleted after cancellation: %v", err)
	}
}

// FakeDeleter backs dry runs: every action is attempted and recorded,
// nothing touches the disk.
func TestExecuteFakeDeleterTouchesNothing(t *testing.T) {
	root := t.TempDir()
	apyc := writeFile(t, filepath.Join(root, "a.pyc"), "x")
	cache := makeDir(t, filepath.Join(root, "__pycache__"), 0)

	fake := &FakeDeleter{}
	p := plan.Build(root, []classify.Verdict{
		verdict(apyc, types.Delete),
		verdict(cache, types.DeleteIfEmpty),
	})

	res := Execute(context.Background(), p, Options{Deleter: fake})

	if res.Deleted != 2 {
		t.Fatalf("got deleted=%d, want 2", res.Deleted)
	}
	if _, err := os.Lstat(apyc.Path); err != nil {
		t.Errorf("file missing after fake run: %v", err)
	}
	if _, err := os.Lstat(cache.Path); err != nil {
		t.Errorf("dir missing after fake run: %v", err)
	}
	if len(fake.Calls) != 2 {
		t.Errorf("calls = %v, want 2 recorded", fake.Calls)
	}
}

func TestStatusString(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{StatusDeleted, "deleted"},
		{StatusSkipped, "skipped"},
		{StatusFailed, "failed"},
		{Status(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}
