package memory

import (
	"context"
	"sync"
	"time"
)

// Denylist is the in-memory counterpart of the Redis denylist.
type Denylist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{entries: make(map[string]time.Time)}
}

func (d *Denylist) InvalidateToken(_ context.Context, token string, expiration time.Duration) error {
	if expiration <= 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[token] = time.Now().Add(expiration)
	return nil
}

func (d *Denylist) IsTokenInvalidated(_ context.Context, token string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	deadline, ok := d.entries[token]
	if !ok {
		return false, nil
	}
	return time.Now().Before(deadline), nil
}
