package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/google/uuid"
)

const accountColumns = `id, phone_number, role, password_hash, balance, kyc_status, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (models.Account, error) {
	var a models.Account
	var role, kyc string
	var balance int64
	err := row.Scan(&a.ID, &a.PhoneNumber, &role, &a.PasswordHash, &balance, &kyc, &a.CreatedAt, &a.UpdatedAt)
	a.Role = domain.Role(role)
	a.KYCStatus = domain.KYCStatus(kyc)
	a.Balance = domain.Amount(balance)
	return a, err
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, phone_number, role, password_hash, balance, kyc_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, 'pending', clock_timestamp(), clock_timestamp())
RETURNING ` + accountColumns

type CreateAccountParams struct {
	ID           uuid.UUID
	PhoneNumber  string
	Role         domain.Role
	PasswordHash string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (models.Account, error) {
	row := q.db.QueryRow(ctx, createAccount, arg.ID, arg.PhoneNumber, string(arg.Role), arg.PasswordHash)
	a, err := scanAccount(row)
	if err != nil {
		return models.Account{}, fmt.Errorf("create account: %w", translate(err))
	}
	return a, nil
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

func (q *Queries) GetAccountByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	a, err := scanAccount(q.db.QueryRow(ctx, getAccountByID, id))
	if err != nil {
		return models.Account{}, fmt.Errorf("get account: %w", translate(err))
	}
	return a, nil
}

const getAccountByPhone = `-- name: GetAccountByPhone :one
SELECT ` + accountColumns + ` FROM accounts WHERE phone_number = $1`

func (q *Queries) GetAccountByPhone(ctx context.Context, phoneNumber string) (models.Account, error) {
	a, err := scanAccount(q.db.QueryRow(ctx, getAccountByPhone, phoneNumber))
	if err != nil {
		return models.Account{}, fmt.Errorf("get account by phone: %w", translate(err))
	}
	return a, nil
}

const getAccountBalance = `-- name: GetAccountBalance :one
SELECT balance FROM accounts WHERE id = $1`

func (q *Queries) GetAccountBalance(ctx context.Context, id uuid.UUID) (domain.Amount, error) {
	var balance int64
	if err := q.db.QueryRow(ctx, getAccountBalance, id).Scan(&balance); err != nil {
		return 0, fmt.Errorf("get balance: %w", translate(err))
	}
	return domain.Amount(balance), nil
}

const lockAccountForUpdate = `-- name: LockAccountForUpdate :one
SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`

// LockAccountForUpdate takes the row lock for the rest of the transaction and
// returns the locked balance.
func (q *Queries) LockAccountForUpdate(ctx context.Context, id uuid.UUID) (domain.Amount, error) {
	var balance int64
	if err := q.db.QueryRow(ctx, lockAccountForUpdate, id).Scan(&balance); err != nil {
		return 0, fmt.Errorf("lock account %s: %w", id, translate(err))
	}
	return domain.Amount(balance), nil
}

const adjustAccountBalance = `-- name: AdjustAccountBalance :one
UPDATE accounts
SET balance = balance + $2, updated_at = clock_timestamp()
WHERE id = $1 AND balance + $2 >= 0
RETURNING balance`

const accountExists = `-- name: AccountExists :one
SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`

type AdjustAccountBalanceParams struct {
	ID    uuid.UUID
	Delta domain.Amount
}

// AdjustAccountBalance applies delta under the row lock taken by the UPDATE.
// A guarded miss is disambiguated into ErrNotFound or ErrInsufficientBalance.
func (q *Queries) AdjustAccountBalance(ctx context.Context, arg AdjustAccountBalanceParams) (domain.Amount, error) {
	var balance int64
	err := q.db.QueryRow(ctx, adjustAccountBalance, arg.ID, int64(arg.Delta)).Scan(&balance)
	if err == nil {
		return domain.Amount(balance), nil
	}
	err = translate(err)
	if err != ErrNotFound {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}

	var exists bool
	if err := q.db.QueryRow(ctx, accountExists, arg.ID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check account: %w", translate(err))
	}
	if !exists {
		return 0, fmt.Errorf("adjust balance: %w", ErrNotFound)
	}
	return 0, fmt.Errorf("adjust balance: %w", ErrInsufficientBalance)
}

const updateAccountKYCStatus = `-- name: UpdateAccountKYCStatus :one
UPDATE accounts SET kyc_status = $2, updated_at = clock_timestamp() WHERE id = $1
RETURNING kyc_status`

type UpdateAccountKYCStatusParams struct {
	ID     uuid.UUID
	Status domain.KYCStatus
}

func (q *Queries) UpdateAccountKYCStatus(ctx context.Context, arg UpdateAccountKYCStatusParams) (domain.KYCStatus, error) {
	var status string
	if err := q.db.QueryRow(ctx, updateAccountKYCStatus, arg.ID, string(arg.Status)).Scan(&status); err != nil {
		return "", fmt.Errorf("update kyc status: %w", translate(err))
	}
	return domain.KYCStatus(status), nil
}
