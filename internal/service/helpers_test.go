package service

import (
	"context"
	"sync"
	"testing"

	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/events"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/repository"
	"github.com/ayo6706/mobile-money-ledger/internal/testutil/pgtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-test-secret-test-secret"

type fixture struct {
	t         *testing.T
	db        *pgtest.DB
	store     *repository.Store
	faults    *faultyStore
	events    *events.Recorder
	accounts  *AccountService
	ledger    *LedgerService
	transfers *TransferService
	deposits  *DepositService
	admin     auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := pgtest.Require(t, testDB, testDBErr)

	tokens, err := auth.NewTokens(testSecret, "ledger-test", "")
	require.NoError(t, err)

	store := repository.NewStore(db.Pool)
	faults := &faultyStore{QueryStore: store, failures: make(map[uuid.UUID]error)}
	rec := events.NewRecorder()
	ledger := NewLedgerService(faults, rec)
	f := &fixture{
		t:         t,
		db:        db,
		store:     store,
		faults:    faults,
		events:    rec,
		accounts:  NewAccountService(store, auth.NewPasswords(bcrypt.MinCost), tokens),
		ledger:    ledger,
		transfers: NewTransferService(faults, ledger, rec),
		deposits:  NewDepositService(faults, ledger, rec),
	}
	f.admin = f.register(t, "+1000", domain.RoleAdmin)
	return f
}

func (f *fixture) register(t *testing.T, phone string, role domain.Role) auth.Identity {
	t.Helper()
	acct, err := f.accounts.Register(context.Background(), phone, string(role), "password")
	require.NoError(t, err)
	return auth.Identity{AccountID: acct.ID, Role: acct.Role, PhoneNumber: acct.PhoneNumber}
}

func (f *fixture) deposit(t *testing.T, agent auth.Identity, amount string) {
	t.Helper()
	_, err := f.deposits.ApproveDeposit(context.Background(), f.admin, agent.AccountID, domain.MustAmount(amount), "cash")
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, id auth.Identity) domain.Amount {
	t.Helper()
	b, err := f.accounts.GetBalance(context.Background(), id.AccountID)
	require.NoError(t, err)
	return b
}

// failAdjustments makes every balance adjustment on id fail with err inside
// the transfer and deposit transactions. A nil err clears it.
func (f *fixture) failAdjustments(id uuid.UUID, err error) {
	f.faults.set(id, err)
}

func (f *fixture) entriesWith(typ domain.EntryType, status domain.EntryStatus) []models.LedgerEntry {
	f.t.Helper()
	entries, err := f.store.Queries().ListLedgerEntriesByStatus(context.Background(), status)
	require.NoError(f.t, err)
	var out []models.LedgerEntry
	for _, e := range entries {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (f *fixture) entryCount() int {
	return f.db.Count(f.t, "ledger_entries", "")
}

func (f *fixture) totalBalance(t *testing.T, ids ...auth.Identity) domain.Amount {
	t.Helper()
	var sum domain.Amount
	for _, id := range ids {
		sum += f.balance(t, id)
	}
	return sum
}

var unknownAccount = auth.Identity{AccountID: uuid.New(), Role: domain.RoleClient}

// faultyStore injects storage failures into the transactions it runs.
type faultyStore struct {
	QueryStore
	mu       sync.Mutex
	failures map[uuid.UUID]error
}

func (s *faultyStore) set(id uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, id)
		return
	}
	s.failures[id] = err
}

func (s *faultyStore) failure(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[id]
}

func (s *faultyStore) RunInTx(ctx context.Context, fn func(q repository.Querier) error) error {
	return s.QueryStore.RunInTx(ctx, func(q repository.Querier) error {
		return fn(faultyQuerier{Querier: q, store: s})
	})
}

type faultyQuerier struct {
	repository.Querier
	store *faultyStore
}

func (q faultyQuerier) AdjustAccountBalance(ctx context.Context, arg repository.AdjustAccountBalanceParams) (domain.Amount, error) {
	if err := q.store.failure(arg.ID); err != nil {
		return 0, err
	}
	return q.Querier.AdjustAccountBalance(ctx, arg)
}
