// Package types provides the core data types for the rclean detritus
// cleaner. It defines the filesystem entry snapshot produced by the walker,
// the dispositions assigned by the classifier, and utility functions for
// parsing and formatting byte sizes.
package types

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// EntryType identifies the kind of filesystem object an Entry describes.
type EntryType int

const (
	// TypeFile is a regular file.
	TypeFile EntryType = iota
	// TypeDir is a directory.
	TypeDir
	// TypeSymlink is a symbolic link. Symlinks are never dereferenced
	// during traversal; the link itself is the entry.
	TypeSymlink
)

// String returns the string representation of the entry type.
func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	case TypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Entry is a read-only snapshot of one filesystem object discovered by the
// walker. It becomes stale if the filesystem changes between classification
// and execution; the executor tolerates vanished entries as a non-fatal
// outcome rather than treating staleness as a correctness bug.
type Entry struct {
	// Path is the absolute path to the entry.
	Path string `json:"path"`

	// Type identifies the entry as a file, directory, or symlink.
	Type EntryType `json:"type"`

	// Size is the entry size in bytes. Directories and symlinks report
	// whatever lstat returned; only file sizes feed the byte estimate.
	Size int64 `json:"size"`

	// ModTime is the last modification time of the entry.
	ModTime time.Time `json:"mod_time"`

	// Mode is the entry's permission and mode bits.
	Mode fs.FileMode `json:"mode"`

	// LinkTarget is the symlink target as stored on disk. Empty for
	// non-symlink entries.
	LinkTarget string `json:"link_target,omitempty"`

	// TargetMissing marks a symlink whose target did not resolve at
	// walk time. Always false for non-symlink entries.
	TargetMissing bool `json:"target_missing,omitempty"`

	// Children is the number of direct children of a directory entry.
	// Zero for files and symlinks.
	Children int `json:"children,omitempty"`

	// Depth is the directory depth relative to the walk root. The root
	// itself has depth zero.
	Depth int `json:"depth"`

	// AccessErr marks an error-entry: the walker could not stat or read
	// this path. Error-entries always classify as Keep and are surfaced
	// to the caller as warnings.
	AccessErr string `json:"access_err,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool { return e.Type == TypeDir }

// IsSymlink reports whether the entry is a symbolic link.
func (e *Entry) IsSymlink() bool { return e.Type == TypeSymlink }

// HumanSize returns the entry size formatted as a human-readable string.
func (e *Entry) HumanSize() string { return FormatSize(e.Size) }

// Disposition is the classifier's decision for one entry.
type Disposition int

const (
	// Keep leaves the entry untouched. Entries unmatched by any rule,
	// and error-entries, default to Keep.
	Keep Disposition = iota
	// Delete removes the entry unconditionally. Directories with this
	// disposition are removed with their contents.
	Delete
	// DeleteIfEmpty removes a directory only when it has no children
	// (or a file only when it is zero bytes).
	DeleteIfEmpty
	// NeedsConfirmation defers the destructive decision to the caller's
	// confirm function. Produced when a delete-if-empty rule matches a
	// non-empty entry.
	NeedsConfirmation
)

// String returns the string representation of the disposition.
func (d Disposition) String() string {
	switch d {
	case Keep:
		return "keep"
	case Delete:
		return "delete"
	case DeleteIfEmpty:
		return "delete-if-empty"
	case NeedsConfirmation:
		return "needs-confirmation"
	default:
		return "unknown"
	}
}

// Destructive reports whether the disposition schedules filesystem mutation.
// NeedsConfirmation counts as destructive: it enters the plan even though
// execution may skip it.
func (d Disposition) Destructive() bool {
	return d == Delete || d == DeleteIfEmpty || d == NeedsConfirmation
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in
// bytes. It supports plain bytes ("1024"), byte suffixes ("512B"), and
// K/M/G/T with optional B or iB ("100K", "50MiB", "2GB"). Decimal values
// are truncated to the nearest byte.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units for consistency with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
