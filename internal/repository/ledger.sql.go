package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const entryColumns = `l.id, l.type, l.sender_id, l.receiver_id, l.amount, l.status, l.reference, l.metadata, l.created_at, l.updated_at`

func scanEntry(row interface{ Scan(...any) error }, extra ...any) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	var typ, status string
	var amount int64
	dest := []any{&e.ID, &typ, &e.SenderID, &e.ReceiverID, &amount, &status, &e.Reference, &e.Metadata, &e.CreatedAt, &e.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	e.Type = domain.EntryType(typ)
	e.Status = domain.EntryStatus(status)
	e.Amount = domain.Amount(amount)
	return e, err
}

const insertLedgerEntry = `-- name: InsertLedgerEntry :one
INSERT INTO ledger_entries AS l (type, sender_id, receiver_id, amount, status, reference, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp(), clock_timestamp())
RETURNING ` + entryColumns

type InsertLedgerEntryParams struct {
	Type       domain.EntryType
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Amount     domain.Amount
	Status     domain.EntryStatus
	Reference  *string
	Metadata   map[string]string
}

func (q *Queries) InsertLedgerEntry(ctx context.Context, arg InsertLedgerEntryParams) (models.LedgerEntry, error) {
	metadata := arg.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	row := q.db.QueryRow(ctx, insertLedgerEntry,
		string(arg.Type), arg.SenderID, arg.ReceiverID, int64(arg.Amount), string(arg.Status), arg.Reference, metadata)
	e, err := scanEntry(row)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", translate(err))
	}
	return e, nil
}

const getLedgerEntryForUpdate = `-- name: GetLedgerEntryForUpdate :one
SELECT ` + entryColumns + ` FROM ledger_entries l WHERE l.id = $1 FOR UPDATE`

func (q *Queries) GetLedgerEntryForUpdate(ctx context.Context, id int64) (models.LedgerEntry, error) {
	e, err := scanEntry(q.db.QueryRow(ctx, getLedgerEntryForUpdate, id))
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("get ledger entry %d: %w", id, translate(err))
	}
	return e, nil
}

const updateLedgerEntryStatus = `-- name: UpdateLedgerEntryStatus :one
UPDATE ledger_entries AS l SET status = $2, updated_at = clock_timestamp()
WHERE l.id = $1
RETURNING ` + entryColumns

type UpdateLedgerEntryStatusParams struct {
	ID     int64
	Status domain.EntryStatus
}

func (q *Queries) UpdateLedgerEntryStatus(ctx context.Context, arg UpdateLedgerEntryStatusParams) (models.LedgerEntry, error) {
	e, err := scanEntry(q.db.QueryRow(ctx, updateLedgerEntryStatus, arg.ID, string(arg.Status)))
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("update ledger entry status: %w", translate(err))
	}
	return e, nil
}

const listLedgerEntriesForAccount = `-- name: ListLedgerEntriesForAccount :many
SELECT ` + entryColumns + `, s.phone_number, r.phone_number
FROM ledger_entries l
JOIN accounts s ON s.id = l.sender_id
JOIN accounts r ON r.id = l.receiver_id
WHERE l.sender_id = $1 OR l.receiver_id = $1
ORDER BY l.id DESC`

func (q *Queries) ListLedgerEntriesForAccount(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntriesForAccount, accountID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return collectEntries(rows)
}

const listLedgerEntriesByStatus = `-- name: ListLedgerEntriesByStatus :many
SELECT ` + entryColumns + `, s.phone_number, r.phone_number
FROM ledger_entries l
JOIN accounts s ON s.id = l.sender_id
JOIN accounts r ON r.id = l.receiver_id
WHERE l.status = $1
ORDER BY l.id DESC`

func (q *Queries) ListLedgerEntriesByStatus(ctx context.Context, status domain.EntryStatus) ([]models.LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntriesByStatus, string(status))
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by status: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var senderPhone, receiverPhone string
		e, err := scanEntry(rows, &senderPhone, &receiverPhone)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.SenderPhone = senderPhone
		e.ReceiverPhone = receiverPhone
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

const getLedgerTotals = `-- name: GetLedgerTotals :one
SELECT
	(SELECT COALESCE(SUM(balance), 0)::BIGINT FROM accounts),
	(SELECT COALESCE(SUM(amount), 0)::BIGINT FROM ledger_entries WHERE type = 'deposit' AND status = 'completed'),
	(SELECT COUNT(*) FROM accounts WHERE balance < 0),
	(SELECT COUNT(*) FROM ledger_entries WHERE status = 'pending')`

func (q *Queries) GetLedgerTotals(ctx context.Context) (models.LedgerTotals, error) {
	var balances, deposits int64
	var t models.LedgerTotals
	if err := q.db.QueryRow(ctx, getLedgerTotals).Scan(&balances, &deposits, &t.NegativeAccounts, &t.PendingEntries); err != nil {
		return models.LedgerTotals{}, fmt.Errorf("get ledger totals: %w", err)
	}
	t.BalanceSum = domain.Amount(balances)
	t.DepositSum = domain.Amount(deposits)
	return t, nil
}
