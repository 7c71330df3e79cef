// Package ipblock tracks temporarily blocked client IPs. Blocks are applied
// when an account lockout fires and cleared by any subsequent successful
// login from the same IP.
package ipblock

import (
	"context"
	"time"
)

// Registry is the IP block store. Block overwrites any existing entry (last
// call wins, no merging); IsBlocked treats expired entries as absent.
// Implementations must be safe for concurrent use.
type Registry interface {
	Block(ctx context.Context, ip string, ttl time.Duration) error
	IsBlocked(ctx context.Context, ip string) (bool, error)
	Unblock(ctx context.Context, ip string) error
}
