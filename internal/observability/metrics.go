package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	ledgerImbalanceCounter *prometheus.CounterVec
	idempotencyCounter     *prometheus.CounterVec
	pendingEntriesGauge    prometheus.Gauge
	transferCounter        *prometheus.CounterVec
	depositCounter         *prometheus.CounterVec
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerImbalanceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Reconciliation checks that found the ledger out of balance",
		}, []string{"check"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		pendingEntriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_pending_entries",
			Help: "Ledger entries still pending at the last reconciliation run",
		})

		transferCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transfers_total",
			Help: "Peer-to-peer transfer outcomes",
		}, []string{"result"})

		depositCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deposits_total",
			Help: "Admin-approved deposit outcomes",
		}, []string{"result"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerImbalanceCounter,
			idempotencyCounter,
			pendingEntriesGauge,
			transferCounter,
			depositCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerImbalance(check string) {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.WithLabelValues(check).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func SetPendingEntries(count int64) {
	if pendingEntriesGauge == nil {
		return
	}
	pendingEntriesGauge.Set(float64(count))
}

func IncrementTransfer(result string) {
	if transferCounter == nil {
		return
	}
	transferCounter.WithLabelValues(result).Inc()
}

func IncrementDeposit(result string) {
	if depositCounter == nil {
		return
	}
	depositCounter.WithLabelValues(result).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
