package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/events"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/observability"
	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DepositService struct {
	store     QueryStore
	ledger    *LedgerService
	publisher events.Publisher
}

func NewDepositService(store QueryStore, ledger *LedgerService, publisher events.Publisher) *DepositService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &DepositService{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
	}
}

// DepositRecord describes an approved deposit.
type DepositRecord struct {
	ID       int64         `json:"id"`
	AgentID  uuid.UUID     `json:"agent_id"`
	Amount   domain.Amount `json:"amount"`
	Method   string        `json:"method"`
	Verified bool          `json:"verified"`
}

// ApproveDeposit credits amount of cash received by an agent. Only admins may
// approve deposits and only agent accounts can receive them.
func (s *DepositService) ApproveDeposit(ctx context.Context, caller auth.Identity, agentID uuid.UUID, amount domain.Amount, method string) (DepositRecord, error) {
	if err := auth.Authorize(caller.Role, auth.AdminRoles...); err != nil {
		return DepositRecord{}, err
	}
	if !amount.Positive() {
		return DepositRecord{}, domain.ErrInvalidAmount
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return DepositRecord{}, fmt.Errorf("%w: method is required", domain.ErrInvalidInput)
	}

	agent, err := s.store.Queries().GetAccountByID(ctx, agentID)
	if err != nil {
		return DepositRecord{}, accountError(err)
	}
	if agent.Role != domain.RoleAgent {
		return DepositRecord{}, domain.ErrNotAnAgent
	}

	req := NewEntry{
		Type:       domain.EntryDeposit,
		SenderID:   agentID,
		ReceiverID: agentID,
		Amount:     amount,
		Status:     domain.EntryCompleted,
		Metadata:   map[string]string{domain.MetaDepositMethod: method},
	}
	actor := caller.AccountID

	var entry models.LedgerEntry
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		var err error
		entry, err = s.ledger.appendTx(ctx, q, req, &actor)
		if err != nil {
			return err
		}
		_, err = adjustBalance(ctx, q, agentID, amount)
		return err
	})
	if err != nil {
		observability.IncrementDeposit(outcome(err))
		s.ledger.RecordFailed(ctx, req, err, &actor)
		if domain.KindOf(err) == domain.KindInternal {
			zap.L().Error("deposit failed", zap.String("agent_id", agentID.String()), zap.Error(err))
			return DepositRecord{}, fmt.Errorf("deposit: %w", err)
		}
		return DepositRecord{}, err
	}

	observability.IncrementDeposit(outcome(nil))
	zap.L().Info("deposit approved",
		zap.Int64("entry_id", entry.ID),
		zap.String("agent_id", agentID.String()),
		zap.String("admin_id", caller.AccountID.String()),
		zap.String("amount", amount.String()))
	publish(ctx, s.publisher, domain.EventDepositCompleted, entry)

	return DepositRecord{
		ID:       entry.ID,
		AgentID:  agentID,
		Amount:   amount,
		Method:   method,
		Verified: true,
	}, nil
}
