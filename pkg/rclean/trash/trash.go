// Package trash moves condemned paths to the system trash when the
// platform provides one, falling back to permanent removal otherwise.
// Trashed entries remain recoverable through the desktop environment.
package trash

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// commandTimeout bounds how long an external trash command may run.
const commandTimeout = 30 * time.Second

// linuxTools lists trash helpers in preference order. gio covers
// GNOME/GTK desktops; trash-put is the XDG-compliant trash-cli tool.
var linuxTools = [][]string{
	{"gio", "trash"},
	{"trash-put"},
}

// Move sends a file or directory to the system trash. On macOS it asks
// Finder via AppleScript so entries support "Put Back". On Linux it
// tries the tools in linuxTools. When no trash mechanism is available
// the path is permanently removed instead.
func Move(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve %q: %w", path, err)
	}

	switch runtime.GOOS {
	case "darwin":
		return moveDarwin(abs)
	case "linux":
		return moveLinux(abs)
	default:
		return removePermanently(abs)
	}
}

// Supported reports whether the current platform has a usable trash
// mechanism. When false, Move degrades to permanent removal.
func Supported() bool {
	switch runtime.GOOS {
	case "darwin":
		return true
	case "linux":
		for _, tool := range linuxTools {
			if _, err := exec.LookPath(tool[0]); err == nil {
				return true
			}
		}
	}
	return false
}

func moveDarwin(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return removePermanently(path)
	}
	return nil
}

func moveLinux(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	for _, tool := range linuxTools {
		bin, err := exec.LookPath(tool[0])
		if err != nil {
			continue
		}
		args := append(tool[1:], path)
		if err := exec.CommandContext(ctx, bin, args...).Run(); err == nil {
			return nil
		}
	}
	return removePermanently(path)
}

func removePermanently(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}
