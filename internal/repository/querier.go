package repository

import (
	"context"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/google/uuid"
)

// Querier is the storage contract used by the services. *Queries is the
// PostgreSQL implementation.
type Querier interface {
	CreateAccount(ctx context.Context, arg CreateAccountParams) (models.Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (models.Account, error)
	GetAccountByPhone(ctx context.Context, phoneNumber string) (models.Account, error)
	GetAccountBalance(ctx context.Context, id uuid.UUID) (domain.Amount, error)
	LockAccountForUpdate(ctx context.Context, id uuid.UUID) (domain.Amount, error)
	AdjustAccountBalance(ctx context.Context, arg AdjustAccountBalanceParams) (domain.Amount, error)
	UpdateAccountKYCStatus(ctx context.Context, arg UpdateAccountKYCStatusParams) (domain.KYCStatus, error)

	InsertLedgerEntry(ctx context.Context, arg InsertLedgerEntryParams) (models.LedgerEntry, error)
	GetLedgerEntryForUpdate(ctx context.Context, id int64) (models.LedgerEntry, error)
	UpdateLedgerEntryStatus(ctx context.Context, arg UpdateLedgerEntryStatusParams) (models.LedgerEntry, error)
	ListLedgerEntriesForAccount(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error)
	ListLedgerEntriesByStatus(ctx context.Context, status domain.EntryStatus) ([]models.LedgerEntry, error)
	GetLedgerTotals(ctx context.Context) (models.LedgerTotals, error)

	InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (models.AuditLog, error)
}

var _ Querier = (*Queries)(nil)
