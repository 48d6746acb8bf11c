//go:build !unix

package walker

// capWorkers is a no-op where rlimits are unavailable.
func capWorkers(n int) int { return n }
