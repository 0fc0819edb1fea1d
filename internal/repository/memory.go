package repository

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how many calls may pass between expired-entry sweeps.
const sweepEvery = 1024

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryRateLimitRepository is the single-process fallback for the Redis
// counter.
type MemoryRateLimitRepository struct {
	mu      sync.Mutex
	entries map[int64]*rateLimitEntry
	calls   int
	now     func() time.Time
}

func NewMemoryRateLimitRepository() *MemoryRateLimitRepository {
	return &MemoryRateLimitRepository{
		entries: make(map[int64]*rateLimitEntry),
		now:     time.Now,
	}
}

func (r *MemoryRateLimitRepository) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.calls%sweepEvery == 0 {
		for id, e := range r.entries {
			if !now.Before(e.expiresAt) {
				delete(r.entries, id)
			}
		}
	}

	entry, ok := r.entries[userID]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.entries[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// Len reports the number of tracked users.
func (r *MemoryRateLimitRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
