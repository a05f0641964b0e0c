package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bitex/backend/internal/matching"
	"github.com/wonny/bitex/backend/internal/scheduler"
	"github.com/wonny/bitex/backend/internal/scheduler/jobs"
)

var workerOnce bool

// workerCmd runs the scheduled maintenance jobs
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "백그라운드 워커 (정합성 검사, 레이트 리미터 정리)",
	Long: `스케줄 작업을 실행하는 워커입니다.

이 워커는:
- RECONCILE_SCHEDULE 마다 호가창과 저장소 정합성 검사
- 5분마다 유휴 레이트 리미터 정리
- Graceful shutdown 지원 (Ctrl+C)

Example:
  go run ./cmd/bitex worker
  go run ./cmd/bitex worker --once`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "reconcile once, print the report and exit")
}

// storeReconciler rebuilds the books from PostgreSQL on every run, since order
// entry happens in other processes.
type storeReconciler struct {
	app *app
}

func (r storeReconciler) Reconcile(ctx context.Context) (*matching.ReconcileReport, error) {
	cfg := r.app.engineConfig()
	cfg.Limiter = nil
	engine, err := matching.NewEngine(r.app.orders, r.app.cache, cfg, r.app.log)
	if err != nil {
		return nil, err
	}
	if err := engine.Load(ctx); err != nil {
		return nil, err
	}
	return engine.Reconcile(ctx)
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	reconcile := jobs.NewReconcileJob(storeReconciler{a}, a.cfg.ReconcileSchedule, a.log)

	sched := scheduler.New(a.log)
	if err := sched.AddJob(reconcile); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewLimiterCleanupJob(a.limiter, a.log)); err != nil {
		return err
	}

	if workerOnce {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return reconcileOnce(ctx, sched, reconcile)
	}

	fmt.Println("=== bitex Background Worker ===")
	fmt.Printf("Jobs: %v\n", sched.Jobs())
	fmt.Printf("Reconcile schedule: %s\n\n", a.cfg.ReconcileSchedule)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	fmt.Println("🚀 Worker started")
	fmt.Println("   Press Ctrl+C to stop gracefully")

	<-ctx.Done()
	fmt.Println("\n⚠️  Shutdown signal received")
	sched.Stop()
	fmt.Println("✅ Worker stopped gracefully")
	return nil
}

func reconcileOnce(ctx context.Context, sched *scheduler.Scheduler, job *jobs.ReconcileJob) error {
	result, err := sched.RunNow(ctx, job.Name())
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("❌ Reconcile failed after %d attempts: %s", result.Attempts, result.Error)
	}

	report := job.LastReport()
	PrintDoubleSeparator()
	fmt.Printf("  Checked %d resting orders in %v\n", report.Checked, result.Duration)
	PrintSeparator()
	if report.OK() {
		fmt.Println("  ✅ No discrepancies")
	}
	for _, d := range report.Discrepancies {
		fmt.Printf("  ❌ %s\n", d)
	}
	PrintDoubleSeparator()

	if !report.OK() {
		return fmt.Errorf("%d discrepancies found", len(report.Discrepancies))
	}
	return nil
}
