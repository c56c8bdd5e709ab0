package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/events"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/observability"
	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"go.uber.org/zap"
)

type TransferService struct {
	store     QueryStore
	ledger    *LedgerService
	publisher events.Publisher
}

func NewTransferService(store QueryStore, ledger *LedgerService, publisher events.Publisher) *TransferService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &TransferService{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
	}
}

// TransferResult is returned by a completed transfer.
type TransferResult struct {
	EntryID    int64
	NewBalance domain.Amount
}

// Transfer moves amount from the caller to the account registered under
// recipientPhone. Debit, credit and the completed entry commit together; on
// any failure inside the transaction nothing is applied and the attempt is
// recorded as a failed entry.
func (s *TransferService) Transfer(ctx context.Context, caller auth.Identity, recipientPhone string, amount domain.Amount) (TransferResult, error) {
	if err := auth.Authorize(caller.Role, auth.TransferRoles...); err != nil {
		return TransferResult{}, err
	}
	if !amount.Positive() {
		return TransferResult{}, domain.ErrInvalidAmount
	}

	queries := s.store.Queries()
	recipient, err := queries.GetAccountByPhone(ctx, strings.TrimSpace(recipientPhone))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TransferResult{}, domain.ErrRecipientNotFound
		}
		return TransferResult{}, fmt.Errorf("resolve recipient: %w", err)
	}
	if recipient.ID == caller.AccountID {
		return TransferResult{}, domain.ErrSelfTransfer
	}

	// Fast-path rejection only; the guarded debit below decides under the row lock.
	balance, err := queries.GetAccountBalance(ctx, caller.AccountID)
	if err != nil {
		return TransferResult{}, accountError(err)
	}
	if balance < amount {
		observability.IncrementTransfer(outcome(domain.ErrInsufficientFunds))
		return TransferResult{}, domain.ErrInsufficientFunds
	}

	req := NewEntry{
		Type:       domain.EntryTransfer,
		SenderID:   caller.AccountID,
		ReceiverID: recipient.ID,
		Amount:     amount,
		Status:     domain.EntryPending,
	}
	actor := caller.AccountID

	var (
		completed  models.LedgerEntry
		newBalance domain.Amount
	)
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		if err := lockAccounts(ctx, q, caller.AccountID, recipient.ID); err != nil {
			return err
		}
		pending, err := s.ledger.appendTx(ctx, q, req, &actor)
		if err != nil {
			return err
		}
		newBalance, err = adjustBalance(ctx, q, caller.AccountID, -amount)
		if err != nil {
			return err
		}
		if _, err := adjustBalance(ctx, q, recipient.ID, amount); err != nil {
			return err
		}
		completed, err = transitionEntry(ctx, q, s.ledger.audit, pending.ID, domain.EntryCompleted, &actor, "status_completed")
		return err
	})
	if err != nil {
		observability.IncrementTransfer(outcome(err))
		s.ledger.RecordFailed(ctx, req, err, &actor)
		if domain.KindOf(err) == domain.KindInternal {
			zap.L().Error("transfer failed",
				zap.String("sender_id", caller.AccountID.String()),
				zap.String("receiver_id", recipient.ID.String()),
				zap.Error(err))
			return TransferResult{}, fmt.Errorf("transfer: %w", err)
		}
		return TransferResult{}, err
	}

	observability.IncrementTransfer(outcome(nil))
	zap.L().Info("transfer completed",
		zap.Int64("entry_id", completed.ID),
		zap.String("sender_id", caller.AccountID.String()),
		zap.String("receiver_id", recipient.ID.String()),
		zap.String("amount", amount.String()))
	publish(ctx, s.publisher, domain.EventTransferCompleted, completed)

	return TransferResult{EntryID: completed.ID, NewBalance: newBalance}, nil
}
