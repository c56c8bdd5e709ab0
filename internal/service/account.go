package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AccountService struct {
	store     QueryStore
	passwords *auth.Passwords
	tokens    *auth.Tokens
	audit     *AuditService
}

func NewAccountService(store QueryStore, passwords *auth.Passwords, tokens *auth.Tokens) *AccountService {
	return &AccountService{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		audit:     NewAuditService(),
	}
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token   string
	Account models.Account
}

// Register creates an account with a zero balance and pending KYC.
func (s *AccountService) Register(ctx context.Context, phoneNumber, role, password string) (models.Account, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return models.Account{}, fmt.Errorf("%w: phone_number is required", domain.ErrInvalidInput)
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return models.Account{}, err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return models.Account{}, err
	}

	account, err := s.store.Queries().CreateAccount(ctx, repository.CreateAccountParams{
		ID:           uuid.New(),
		PhoneNumber:  phoneNumber,
		Role:         parsedRole,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Account{}, domain.ErrDuplicatePhone
		}
		return models.Account{}, fmt.Errorf("register account: %w", err)
	}

	zap.L().Info("account registered", zap.String("account_id", account.ID.String()), zap.String("role", string(account.Role)))
	return account, nil
}

// Login verifies the password for phoneNumber and issues an access token.
func (s *AccountService) Login(ctx context.Context, phoneNumber, password string) (LoginResult, error) {
	account, err := s.FindByPhone(ctx, phoneNumber)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.passwords.Check(account.PasswordHash, password); err != nil {
		return LoginResult{}, err
	}
	token, err := s.tokens.Issue(account)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Account: account}, nil
}

func (s *AccountService) FindByPhone(ctx context.Context, phoneNumber string) (models.Account, error) {
	account, err := s.store.Queries().GetAccountByPhone(ctx, strings.TrimSpace(phoneNumber))
	if err != nil {
		return models.Account{}, accountError(err)
	}
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	account, err := s.store.Queries().GetAccountByID(ctx, accountID)
	if err != nil {
		return models.Account{}, accountError(err)
	}
	return account, nil
}

// GetBalance returns the committed balance of accountID.
func (s *AccountService) GetBalance(ctx context.Context, accountID uuid.UUID) (domain.Amount, error) {
	balance, err := s.store.Queries().GetAccountBalance(ctx, accountID)
	if err != nil {
		return 0, accountError(err)
	}
	return balance, nil
}

// AdjustBalance applies delta to accountID in its own transaction.
func (s *AccountService) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta domain.Amount) (domain.Amount, error) {
	var balance domain.Amount
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		var err error
		balance, err = adjustBalance(ctx, q, accountID, delta)
		return err
	})
	return balance, err
}

// UpdateKYCStatus sets the KYC status of accountID. Only admins may call it.
func (s *AccountService) UpdateKYCStatus(ctx context.Context, caller auth.Identity, accountID uuid.UUID, status string) (domain.KYCStatus, error) {
	if err := auth.Authorize(caller.Role, auth.AdminRoles...); err != nil {
		return "", err
	}
	next, err := domain.ParseKYCStatus(status)
	if err != nil {
		return "", err
	}

	var updated domain.KYCStatus
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		if err := lockAccounts(ctx, q, accountID); err != nil {
			return err
		}
		current, err := q.GetAccountByID(ctx, accountID)
		if err != nil {
			return accountError(err)
		}
		updated, err = q.UpdateAccountKYCStatus(ctx, repository.UpdateAccountKYCStatusParams{ID: accountID, Status: next})
		if err != nil {
			return accountError(err)
		}
		actor := caller.AccountID
		return s.audit.Write(ctx, q, auditEntityAccount, accountID.String(), &actor, "kyc_updated", string(current.KYCStatus), string(updated), nil)
	})
	if err != nil {
		return "", err
	}
	return updated, nil
}

// adjustBalance is the only balance mutation point. The guarded update takes
// the row lock, so concurrent adjustments on one account serialize.
func adjustBalance(ctx context.Context, q repository.Querier, accountID uuid.UUID, delta domain.Amount) (domain.Amount, error) {
	balance, err := q.AdjustAccountBalance(ctx, repository.AdjustAccountBalanceParams{ID: accountID, Delta: delta})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientBalance):
			return 0, domain.ErrInsufficientFunds
		case errors.Is(err, repository.ErrOutOfRange):
			return 0, fmt.Errorf("%w: balance would overflow", domain.ErrInvalidAmount)
		}
		return 0, accountError(err)
	}
	return balance, nil
}

// lockAccounts takes row locks in ascending id order.
func lockAccounts(ctx context.Context, q repository.Querier, ids ...uuid.UUID) error {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	var prev uuid.UUID
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		prev = id
		if _, err := q.LockAccountForUpdate(ctx, id); err != nil {
			return accountError(err)
		}
	}
	return nil
}

func accountError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrAccountNotFound
	}
	if _, ok := domain.AsError(err); ok {
		return err
	}
	return fmt.Errorf("account store: %w", err)
}
