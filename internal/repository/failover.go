package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const defaultRetryAfter = time.Minute

// FailoverRateLimitRepository uses primary until it fails, then fallback.
// The primary is retried once retryAfter has passed since the last failure.
type FailoverRateLimitRepository struct {
	primary    domain.RateLimitRepository
	fallback   domain.RateLimitRepository
	logger     *zerolog.Logger
	retryAfter time.Duration
	isDown     atomic.Bool
	lastFail   atomic.Int64
	now        func() time.Time
}

func NewFailoverRateLimitRepository(primary, fallback domain.RateLimitRepository, logger *zerolog.Logger) *FailoverRateLimitRepository {
	return &FailoverRateLimitRepository{
		primary:    primary,
		fallback:   fallback,
		logger:     logger,
		retryAfter: defaultRetryAfter,
		now:        time.Now,
	}
}

// Degraded reports whether calls currently go to the fallback.
func (r *FailoverRateLimitRepository) Degraded() bool {
	return r.isDown.Load()
}

func (r *FailoverRateLimitRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() || r.now().Sub(time.Unix(0, r.lastFail.Load())) > r.retryAfter {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			if r.isDown.CompareAndSwap(true, false) {
				r.logger.Info().Msg("Primary rate limit store recovered")
			}
			return allowed, nil
		}

		r.lastFail.Store(r.now().UnixNano())
		if !r.isDown.Swap(true) {
			r.logger.Error().Err(err).Msg("Primary rate limit store failed, falling back to memory")
		}
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
