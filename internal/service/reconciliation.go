package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/observability"
	"go.uber.org/zap"
)

// ReconciliationReport is the outcome of one reconciliation run.
type ReconciliationReport struct {
	Totals   models.LedgerTotals
	Balanced bool
}

// ReconciliationService verifies ledger integrity invariants.
type ReconciliationService struct {
	store QueryStore
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run checks that all balances sum to the completed deposits and that no
// account is negative. Imbalances are reported, not returned as errors.
func (s *ReconciliationService) Run(ctx context.Context) (ReconciliationReport, error) {
	totals, err := s.store.Queries().GetLedgerTotals(ctx)
	if err != nil {
		return ReconciliationReport{}, fmt.Errorf("run ledger totals query: %w", err)
	}

	observability.SetPendingEntries(totals.PendingEntries)
	report := ReconciliationReport{Totals: totals, Balanced: true}

	if totals.BalanceSum != totals.DepositSum {
		report.Balanced = false
		observability.IncrementLedgerImbalance("conservation")
		zap.L().Error("CRITICAL: ledger imbalance detected",
			zap.String("balance_sum", totals.BalanceSum.String()),
			zap.String("deposit_sum", totals.DepositSum.String()))
	}
	if totals.NegativeAccounts > 0 {
		report.Balanced = false
		observability.IncrementLedgerImbalance("negative_balance")
		zap.L().Error("CRITICAL: negative account balances detected", zap.Int64("accounts", totals.NegativeAccounts))
	}

	if report.Balanced {
		zap.L().Info("Ledger Balanced", zap.Int64("pending_entries", totals.PendingEntries))
	}
	return report, nil
}
