package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimitRepository(t *testing.T) {
	repo := NewMemoryRateLimitRepository()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := repo.CheckRateLimit(ctx, 1, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := repo.CheckRateLimit(ctx, 1, 2, time.Minute)
	assert.False(t, allowed)

	allowed, _ = repo.CheckRateLimit(ctx, 2, 2, time.Minute)
	assert.True(t, allowed)

	now = now.Add(time.Minute)
	allowed, _ = repo.CheckRateLimit(ctx, 1, 2, time.Minute)
	assert.True(t, allowed, "window boundary starts a new window")
}

func TestMemoryRateLimitRepository_Sweep(t *testing.T) {
	repo := NewMemoryRateLimitRepository()
	now := time.Now()
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	for id := int64(0); id < 100; id++ {
		_, _ = repo.CheckRateLimit(ctx, id, 10, time.Second)
	}
	assert.Equal(t, 100, repo.Len())

	now = now.Add(time.Hour)
	for i := 100; i < sweepEvery; i++ {
		_, _ = repo.CheckRateLimit(ctx, 500, 10_000, time.Hour)
	}
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryRateLimitRepository_Concurrent(t *testing.T) {
	repo := NewMemoryRateLimitRepository()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := repo.CheckRateLimit(ctx, 7, 10, time.Minute)
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}
