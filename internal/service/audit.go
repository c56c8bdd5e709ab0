package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/google/uuid"
)

const (
	auditEntityLedgerEntry = "ledger_entry"
	auditEntityAccount     = "account"
)

// AuditService writes immutable audit trail entries.
type AuditService struct{}

func NewAuditService() *AuditService {
	return &AuditService{}
}

// Write stores a single immutable audit record within the caller's transaction.
func (s *AuditService) Write(ctx context.Context, q repository.Querier, entityType, entityID string, actorID *uuid.UUID, action, prevState, nextState string, metadata map[string]string) error {
	var raw []byte
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		raw = encoded
	}

	if _, err := q.InsertAuditLog(ctx, repository.InsertAuditLogParams{
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     action,
		PrevState:  textParam(prevState),
		NextState:  textParam(nextState),
		Metadata:   raw,
	}); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func textParam(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
