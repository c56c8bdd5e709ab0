package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/google/uuid"
)

var entryTransitions = map[domain.EntryStatus]map[domain.EntryStatus]struct{}{
	domain.EntryPending: {
		domain.EntryCompleted: {},
		domain.EntryFailed:    {},
	},
	domain.EntryCompleted: {},
	domain.EntryFailed:    {},
}

func canTransition(current, next domain.EntryStatus) bool {
	nextStates, ok := entryTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

// transitionEntry moves a locked entry to next and audits the change. A
// terminal entry never transitions again, including to its current state.
func transitionEntry(ctx context.Context, q repository.Querier, audit *AuditService, entryID int64, next domain.EntryStatus, actorID *uuid.UUID, action string) (models.LedgerEntry, error) {
	current, err := q.GetLedgerEntryForUpdate(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.LedgerEntry{}, domain.ErrEntryNotFound
		}
		return models.LedgerEntry{}, fmt.Errorf("get current entry state: %w", err)
	}

	if !canTransition(current.Status, next) {
		return models.LedgerEntry{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, next)
	}

	updated, err := q.UpdateLedgerEntryStatus(ctx, repository.UpdateLedgerEntryStatusParams{
		ID:     entryID,
		Status: next,
	})
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("update entry state: %w", err)
	}

	if err := audit.Write(ctx, q, auditEntityLedgerEntry, strconv.FormatInt(entryID, 10), actorID, action, string(current.Status), string(next), nil); err != nil {
		return models.LedgerEntry{}, err
	}
	return updated, nil
}
