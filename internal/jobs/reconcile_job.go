package jobs

import (
	"context"
	"time"

	"github.com/intellibotic/bot-api/internal/domain"
	"go.uber.org/zap"
)

// ReconcileJobName is the name of the mirror reconcile job
const ReconcileJobName = "mirror_reconcile"

// DefaultReconcileTimeout bounds a single reconcile run
const DefaultReconcileTimeout = 5 * time.Minute

// MirrorReconciler defines the interface for converging mirror files with
// the record store. This interface allows the job to call the service
// without importing the service package directly.
type MirrorReconciler interface {
	// ReconcileMirrors rewrites every mirror file from the store and removes
	// files that no longer correspond to a live bot.
	ReconcileMirrors(ctx context.Context) (*domain.ReconcileResultDTO, error)
}

// ReconcileJob periodically converges the mirror directory with the record
// store, repairing any mirror write that was missed after a crash.
type ReconcileJob struct {
	reconciler MirrorReconciler
	logger     *zap.Logger
	timeout    time.Duration
}

// NewReconcileJob creates a new mirror reconcile job.
func NewReconcileJob(reconciler MirrorReconciler, logger *zap.Logger, timeout time.Duration) *ReconcileJob {
	return &ReconcileJob{
		reconciler: reconciler,
		logger:     logger,
		timeout:    timeout,
	}
}

// Run executes one reconcile pass.
// This is called by the scheduler according to the cron expression.
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting mirror reconcile job")

	result, err := j.reconciler.ReconcileMirrors(ctx)
	if err != nil {
		j.logger.Error("mirror reconcile job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("mirror reconcile job completed",
		zap.Int("rewritten", result.Rewritten),
		zap.Int("removed", result.Removed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterReconcileJob registers the mirror reconcile job with the scheduler.
// If runOnStartup is true, one pass runs immediately in a background
// goroutine so it doesn't block API startup.
func RegisterReconcileJob(scheduler *Scheduler, reconciler MirrorReconciler, logger *zap.Logger, cronExpr string, runOnStartup bool) error {
	job := NewReconcileJob(reconciler, logger, DefaultReconcileTimeout)

	if runOnStartup {
		go job.Run()
	}

	return scheduler.AddJob(ReconcileJobName, cronExpr, job.Run)
}
