// Package lockout holds the escalation policy for repeated account locks.
package lockout

import "time"

// FailureThreshold is the number of consecutive wrong-password attempts
// that triggers an account lock.
const FailureThreshold = 5

// LockDuration maps how many times an account has been locked before to how
// long the next lock lasts. Pure and total: negative counts behave like zero.
func LockDuration(priorLockCount int) time.Duration {
	switch {
	case priorLockCount <= 0:
		return 30 * time.Minute
	case priorLockCount == 1:
		return 60 * time.Minute
	case priorLockCount == 2:
		return 90 * time.Minute
	case priorLockCount == 3:
		return 120 * time.Minute
	default:
		return 24 * time.Hour
	}
}
