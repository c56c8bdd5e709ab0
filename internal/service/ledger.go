package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/events"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewEntry describes a ledger entry to append.
type NewEntry struct {
	Type       domain.EntryType
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Amount     domain.Amount
	Status     domain.EntryStatus
	Reference  *string
	Metadata   map[string]string
}

func (e NewEntry) validate() error {
	if !e.Type.Valid() {
		return domain.ErrInvalidEntryType
	}
	if !e.Amount.Positive() {
		return domain.ErrInvalidAmount
	}
	if e.Status != domain.EntryPending && e.Status != domain.EntryCompleted {
		return fmt.Errorf("%w: entries are created pending or completed", domain.ErrInvalidStatus)
	}
	return nil
}

// LedgerService appends ledger entries and drives their status lifecycle.
type LedgerService struct {
	store     QueryStore
	audit     *AuditService
	publisher events.Publisher
}

func NewLedgerService(store QueryStore, publisher events.Publisher) *LedgerService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &LedgerService{
		store:     store,
		audit:     NewAuditService(),
		publisher: publisher,
	}
}

// Append records a new entry in its own transaction.
func (s *LedgerService) Append(ctx context.Context, e NewEntry, actorID *uuid.UUID) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		var err error
		entry, err = s.appendTx(ctx, q, e, actorID)
		return err
	})
	return entry, err
}

func (s *LedgerService) appendTx(ctx context.Context, q repository.Querier, e NewEntry, actorID *uuid.UUID) (models.LedgerEntry, error) {
	if err := e.validate(); err != nil {
		return models.LedgerEntry{}, err
	}

	entry, err := q.InsertLedgerEntry(ctx, repository.InsertLedgerEntryParams{
		Type:       e.Type,
		SenderID:   e.SenderID,
		ReceiverID: e.ReceiverID,
		Amount:     e.Amount,
		Status:     e.Status,
		Reference:  e.Reference,
		Metadata:   e.Metadata,
	})
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("append %s entry: %w", e.Type, err)
	}

	if err := s.audit.Write(ctx, q, auditEntityLedgerEntry, strconv.FormatInt(entry.ID, 10), actorID, "created", "", string(entry.Status), e.Metadata); err != nil {
		return models.LedgerEntry{}, err
	}
	return entry, nil
}

// SetStatus moves entryID from pending to a terminal status in its own transaction.
func (s *LedgerService) SetStatus(ctx context.Context, entryID int64, status domain.EntryStatus, actorID *uuid.UUID) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		var err error
		entry, err = transitionEntry(ctx, q, s.audit, entryID, status, actorID, "status_"+string(status))
		return err
	})
	return entry, err
}

// History returns every entry where accountID is sender or receiver, newest first.
func (s *LedgerService) History(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error) {
	entries, err := s.store.Queries().ListLedgerEntriesForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", accountID, err)
	}
	return entries, nil
}

// Pending returns every entry still awaiting a terminal status, newest first.
func (s *LedgerService) Pending(ctx context.Context) ([]models.LedgerEntry, error) {
	entries, err := s.store.Queries().ListLedgerEntriesByStatus(ctx, domain.EntryPending)
	if err != nil {
		return nil, fmt.Errorf("load pending entries: %w", err)
	}
	return entries, nil
}

// RecordFailed persists an attempt that was rolled back as a failed entry.
// It runs detached from ctx so a cancelled request still leaves a record;
// errors are logged, never returned.
func (s *LedgerService) RecordFailed(ctx context.Context, e NewEntry, cause error, actorID *uuid.UUID) {
	if e.validate() != nil {
		return
	}
	ctx, cancel := detached(ctx)
	defer cancel()

	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[domain.MetaFailureReason] = failureReason(cause)
	e.Metadata = meta
	e.Status = domain.EntryPending

	var failed models.LedgerEntry
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		pending, err := s.appendTx(ctx, q, e, actorID)
		if err != nil {
			return err
		}
		failed, err = transitionEntry(ctx, q, s.audit, pending.ID, domain.EntryFailed, actorID, "status_failed")
		return err
	})
	if err != nil {
		zap.L().Error("record failed entry",
			zap.String("type", string(e.Type)),
			zap.String("sender_id", e.SenderID.String()),
			zap.String("receiver_id", e.ReceiverID.String()),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	publish(ctx, s.publisher, domain.EventEntryFailed, failed)
}
