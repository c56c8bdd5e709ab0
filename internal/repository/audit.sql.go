package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/google/uuid"
)

const insertAuditLog = `-- name: InsertAuditLog :one
INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp())
RETURNING id, entity_type, entity_id, actor_id, action, prev_state, next_state, metadata, created_at`

type InsertAuditLogParams struct {
	EntityType string
	EntityID   string
	ActorID    *uuid.UUID
	Action     string
	PrevState  *string
	NextState  *string
	Metadata   []byte
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (models.AuditLog, error) {
	var a models.AuditLog
	err := q.db.QueryRow(ctx, insertAuditLog,
		arg.EntityType, arg.EntityID, arg.ActorID, arg.Action, arg.PrevState, arg.NextState, arg.Metadata,
	).Scan(&a.ID, &a.EntityType, &a.EntityID, &a.ActorID, &a.Action, &a.PrevState, &a.NextState, &a.Metadata, &a.CreatedAt)
	if err != nil {
		return models.AuditLog{}, fmt.Errorf("insert audit log: %w", err)
	}
	return a, nil
}
