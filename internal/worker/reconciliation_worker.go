package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/ayo6706/mobile-money-ledger/internal/observability"
	"github.com/ayo6706/mobile-money-ledger/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	workerName      = "reconciliation"
	DefaultSchedule = "@every 1h"
)

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context) (service.ReconciliationReport, error)
}

// ReconciliationWorker runs periodic ledger reconciliation checks on a cron schedule.
type ReconciliationWorker struct {
	svc      Reconciler
	schedule string
	cron     *cron.Cron
	initial  sync.WaitGroup
	stopOnce sync.Once
}

// NewReconciliationWorker constructs a worker with the default hourly schedule.
func NewReconciliationWorker(svc Reconciler) *ReconciliationWorker {
	return &ReconciliationWorker{
		svc:      svc,
		schedule: DefaultSchedule,
	}
}

// WithSchedule updates the cron spec. Blank specs are ignored.
func (w *ReconciliationWorker) WithSchedule(schedule string) *ReconciliationWorker {
	if schedule != "" {
		w.schedule = schedule
	}
	return w
}

// Start registers the job, runs it once immediately and starts the scheduler.
func (w *ReconciliationWorker) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", w.schedule, err)
	}
	w.cron = c

	zap.L().Info("reconciliation worker starting", zap.String("schedule", w.schedule))
	w.initial.Add(1)
	go func() {
		defer w.initial.Done()
		w.RunOnce(ctx)
	}()
	c.Start()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for any running pass, including the
// initial one, to finish.
func (w *ReconciliationWorker) Stop() {
	w.stopOnce.Do(func() {
		if w.cron == nil {
			return
		}
		<-w.cron.Stop().Done()
		w.initial.Wait()
		zap.L().Info("reconciliation worker stopped")
	})
}

// Run starts the worker and returns a stop function.
func (w *ReconciliationWorker) Run(ctx context.Context) (func(), error) {
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w.Stop, nil
}

// RunOnce performs a single reconciliation pass and records the outcome.
func (w *ReconciliationWorker) RunOnce(ctx context.Context) {
	report, err := w.svc.Run(ctx)
	if err != nil {
		observability.IncrementWorkerRun(workerName, "failed")
		zap.L().Error("reconciliation run failed", zap.Error(err))
		return
	}
	if !report.Balanced {
		observability.IncrementWorkerRun(workerName, "imbalanced")
		return
	}
	observability.IncrementWorkerRun(workerName, "success")
}
