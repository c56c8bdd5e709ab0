package models

import (
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID        `json:"id"`
	PhoneNumber  string           `json:"phone_number"`
	Role         domain.Role      `json:"role"`
	PasswordHash string           `json:"-"`
	Balance      domain.Amount    `json:"balance"`
	KYCStatus    domain.KYCStatus `json:"kyc_status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// LedgerEntry is one funds movement. SenderPhone and ReceiverPhone are only
// populated by listing queries.
type LedgerEntry struct {
	ID            int64              `json:"id"`
	Type          domain.EntryType   `json:"type"`
	SenderID      uuid.UUID          `json:"sender_id"`
	ReceiverID    uuid.UUID          `json:"receiver_id"`
	Amount        domain.Amount      `json:"amount"`
	Status        domain.EntryStatus `json:"status"`
	Reference     *string            `json:"reference,omitempty"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
	SenderPhone   string             `json:"sender_phone,omitempty"`
	ReceiverPhone string             `json:"receiver_phone,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type AuditLog struct {
	ID         int64      `json:"id"`
	EntityType string     `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Action     string     `json:"action"`
	PrevState  *string    `json:"prev_state,omitempty"`
	NextState  *string    `json:"next_state,omitempty"`
	Metadata   []byte     `json:"metadata,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// LedgerTotals feeds the reconciliation check.
type LedgerTotals struct {
	BalanceSum       domain.Amount
	DepositSum       domain.Amount
	NegativeAccounts int64
	PendingEntries   int64
}
