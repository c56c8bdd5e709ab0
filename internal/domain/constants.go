package domain

import "strings"

// Role is the closed set of account roles.
type Role string

const (
	RoleClient Role = "client"
	RoleAgent  Role = "agent"
	RoleAdmin  Role = "admin"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}

// KYCStatus is the administrative verification state of an account.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

func ParseKYCStatus(s string) (KYCStatus, error) {
	k := KYCStatus(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KYCPending, KYCApproved, KYCRejected:
		return k, nil
	default:
		return "", ErrInvalidStatus
	}
}

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryTransfer EntryType = "transfer"
	EntryDeposit  EntryType = "deposit"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryTransfer, EntryDeposit:
		return true
	default:
		return false
	}
}

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCompleted EntryStatus = "completed"
	EntryFailed    EntryStatus = "failed"
)

func ParseEntryStatus(s string) (EntryStatus, error) {
	st := EntryStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case EntryPending, EntryCompleted, EntryFailed:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Terminal reports whether no further transition is allowed from s.
func (s EntryStatus) Terminal() bool {
	return s == EntryCompleted || s == EntryFailed
}

// Metadata keys stored on ledger entries.
const (
	MetaDepositMethod = "method"
	MetaFailureReason = "failure_reason"
)

// Event routing keys.
const (
	EventTransferCompleted = "ledger.transfer.completed"
	EventDepositCompleted  = "ledger.deposit.completed"
	EventEntryFailed       = "ledger.entry.failed"
)
