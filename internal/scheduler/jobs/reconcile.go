package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/bitex/backend/internal/matching"
	"github.com/wonny/bitex/backend/pkg/logger"
)

// Reconciler is implemented by matching.Engine
type Reconciler interface {
	Reconcile(ctx context.Context) (*matching.ReconcileReport, error)
}

// ReconcileJob checks the in-memory books against the order store.
// Discrepancies are logged at error level; only a failure to reconcile fails the job.
type ReconcileJob struct {
	engine   Reconciler
	schedule string
	logger   *logger.Logger

	mu   sync.Mutex
	last *matching.ReconcileReport
}

// NewReconcileJob creates a reconcile job running on schedule
func NewReconcileJob(engine Reconciler, schedule string, log *logger.Logger) *ReconcileJob {
	return &ReconcileJob{
		engine:   engine,
		schedule: schedule,
		logger:   log.WithComponent("reconcile"),
	}
}

func (j *ReconcileJob) Name() string {
	return "reconcile"
}

func (j *ReconcileJob) Schedule() string {
	return j.schedule
}

// Run executes one reconciliation
func (j *ReconcileJob) Run(ctx context.Context) error {
	report, err := j.engine.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile: %w", err)
	}

	j.mu.Lock()
	j.last = report
	j.mu.Unlock()

	for _, d := range report.Discrepancies {
		j.logger.WithFields(logger.Fields{
			"order_id": d.OrderID,
			"symbol":   d.Symbol,
			"reason":   d.Reason,
		}).Error("Order book discrepancy")
	}

	j.logger.WithFields(logger.Fields{
		"checked":       report.Checked,
		"discrepancies": len(report.Discrepancies),
	}).Info("Reconciliation completed")

	return nil
}

// LastReport returns the report of the latest successful run, nil before the first
func (j *ReconcileJob) LastReport() *matching.ReconcileReport {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}
