package jobs

import (
	"context"

	"github.com/wonny/bitex/backend/pkg/logger"
	"github.com/wonny/bitex/backend/pkg/redis"
)

// LimiterCleanupJob drops idle in-process rate limiter buckets
type LimiterCleanupJob struct {
	limiter *redis.RateLimiter
	logger  *logger.Logger
}

// NewLimiterCleanupJob creates a new limiter cleanup job
func NewLimiterCleanupJob(limiter *redis.RateLimiter, log *logger.Logger) *LimiterCleanupJob {
	return &LimiterCleanupJob{
		limiter: limiter,
		logger:  log,
	}
}

func (j *LimiterCleanupJob) Name() string {
	return "limiter_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *LimiterCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run prunes the limiter buckets
func (j *LimiterCleanupJob) Run(ctx context.Context) error {
	if count := j.limiter.PruneLocal(); count > 0 {
		j.logger.WithField("removed", count).Debug("Rate limiter cleanup completed")
	}
	return nil
}
