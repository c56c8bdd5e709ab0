package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (c *countingReconciler) Run(context.Context) (service.ReconciliationReport, error) {
	c.calls.Add(1)
	return service.ReconciliationReport{Balanced: true}, c.err
}

type slowReconciler struct {
	delay    time.Duration
	finished atomic.Bool
}

func (s *slowReconciler) Run(context.Context) (service.ReconciliationReport, error) {
	time.Sleep(s.delay)
	s.finished.Store(true)
	return service.ReconciliationReport{Balanced: true}, nil
}

func TestWorkerRunsImmediatelyAndOnSchedule(t *testing.T) {
	rec := &countingReconciler{}
	w := NewReconciliationWorker(rec).WithSchedule("@every 1s")

	stop, err := w.Run(context.Background())
	require.NoError(t, err)
	defer stop()

	assert.Eventually(t, func() bool { return rec.calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func TestWorkerRejectsBadSchedule(t *testing.T) {
	w := NewReconciliationWorker(&countingReconciler{}).WithSchedule("whenever")
	_, err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestWorkerStopsWithContext(t *testing.T) {
	rec := &countingReconciler{err: errors.New("db down")}
	w := NewReconciliationWorker(rec).WithSchedule("@every 1h")

	ctx, cancel := context.WithCancel(context.Background())
	_, err := w.Run(ctx)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return rec.calls.Load() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	w.Stop()
	w.Stop()
	assert.Equal(t, int32(1), rec.calls.Load())
}

func TestWorkerStopWaitsForInitialRun(t *testing.T) {
	rec := &slowReconciler{delay: 200 * time.Millisecond}
	w := NewReconciliationWorker(rec).WithSchedule("@every 1h")

	stop, err := w.Run(context.Background())
	require.NoError(t, err)
	stop()

	assert.True(t, rec.finished.Load(), "stop returned while the initial pass was still running")
}
