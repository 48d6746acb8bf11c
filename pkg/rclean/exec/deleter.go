package exec

import (
	"fmt"
	"os"

	"github.com/jamesainslie/rclean/pkg/rclean/trash"
)

// Deleter abstracts filesystem delete operations so tests can prove
// dry runs never touch the disk and so trash-backed deletion can be
// swapped in without changing the executor.
type Deleter interface {
	// Remove deletes a single file, symlink, or empty directory.
	Remove(path string) error
	// RemoveAll deletes a path and any contents beneath it.
	RemoveAll(path string) error
}

// OSDeleter performs real deletions through the os package.
type OSDeleter struct{}

func (OSDeleter) Remove(path string) error    { return os.Remove(path) }
func (OSDeleter) RemoveAll(path string) error { return os.RemoveAll(path) }

// TrashDeleter routes deletions to the system trash. Both operations
// map to a trash move since the trash takes directories whole.
type TrashDeleter struct{}

func (TrashDeleter) Remove(path string) error    { return trash.Move(path) }
func (TrashDeleter) RemoveAll(path string) error { return trash.Move(path) }

// FakeDeleter records delete calls without touching the filesystem.
// FailOn maps paths to errors the next matching call should return.
type FakeDeleter struct {
	Calls  []string
	FailOn map[string]error
}

func (f *FakeDeleter) Remove(path string) error {
	f.Calls = append(f.Calls, "rm:"+path)
	return f.failure(path)
}

func (f *FakeDeleter) RemoveAll(path string) error {
	f.Calls = append(f.Calls, "rmall:"+path)
	return f.failure(path)
}

func (f *FakeDeleter) failure(path string) error {
	if err, ok := f.FailOn[path]; ok {
		return fmt.Errorf("fake deleter: %w", err)
	}
	return nil
}
