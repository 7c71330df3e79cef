package ipblock

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is the single-instance fallback: a process-local map of
// ip -> expiry. State is lost on restart and not shared across instances;
// multi-instance deployments should use the Redis registry instead.
type MemoryRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRegistry) Block(_ context.Context, ip string, ttl time.Duration) error {
	if ip == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[ip] = r.now().Add(ttl)
	return nil
}

func (r *MemoryRegistry) IsBlocked(_ context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.entries[ip]
	if !ok {
		return false, nil
	}
	if r.now().After(until) {
		// Lazy eviction: an expired entry is as good as absent.
		delete(r.entries, ip)
		return false, nil
	}
	return true, nil
}

func (r *MemoryRegistry) Unblock(_ context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, ip)
	return nil
}
