package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bitex/backend/internal/matching"
	"github.com/wonny/bitex/backend/pkg/logger"
	"github.com/wonny/bitex/backend/pkg/redis"
)

type stubReconciler struct {
	report *matching.ReconcileReport
	err    error
}

func (s stubReconciler) Reconcile(context.Context) (*matching.ReconcileReport, error) {
	return s.report, s.err
}

func TestReconcileJob(t *testing.T) {
	report := &matching.ReconcileReport{
		Checked:       3,
		Discrepancies: []matching.Discrepancy{{OrderID: 7, Symbol: "BTCBRL", Reason: "missing"}},
	}
	job := NewReconcileJob(stubReconciler{report: report}, "0 */1 * * * *", logger.Nop())

	assert.Equal(t, "reconcile", job.Name())
	assert.Equal(t, "0 */1 * * * *", job.Schedule())
	assert.Nil(t, job.LastReport())

	// discrepancies are reported, not retried
	require.NoError(t, job.Run(context.Background()))
	assert.Same(t, report, job.LastReport())
}

func TestReconcileJob_Error(t *testing.T) {
	boom := errors.New("store down")
	job := NewReconcileJob(stubReconciler{err: boom}, "@every 1m", logger.Nop())

	assert.ErrorIs(t, job.Run(context.Background()), boom)
	assert.Nil(t, job.LastReport())
}

func TestLimiterCleanupJob(t *testing.T) {
	limiter := redis.NewRateLimiter(redis.Disabled(), "test")
	_, _, err := limiter.Allow(context.Background(), redis.RateLimitConfig{Key: "k", Limit: 1, Window: time.Millisecond})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	job := NewLimiterCleanupJob(limiter, logger.Nop())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, limiter.PruneLocal())
}
