//go:build unix

package walker

import "golang.org/x/sys/unix"

// capWorkers bounds the requested worker count by the process open-file
// limit. Each walker worker holds a directory handle plus a stat in
// flight, so a quarter of the soft limit leaves ample headroom for the
// rest of the process.
func capWorkers(n int) int {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return n
	}

	maxWorkers := int(limit.Cur / 4)
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}
