package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agent := f.register(t, "+1", domain.RoleAgent)
	client := f.register(t, "+2", domain.RoleClient)
	assert.Equal(t, domain.Amount(0), f.balance(t, agent))
	assert.Equal(t, domain.Amount(0), f.balance(t, client))

	f.deposit(t, agent, "500")
	assert.Equal(t, domain.MustAmount("500"), f.balance(t, agent))
	require.Len(t, f.entriesWith(domain.EntryDeposit, domain.EntryCompleted), 1)

	res, err := f.transfers.Transfer(ctx, agent, "+2", domain.MustAmount("200"))
	require.NoError(t, err)
	assert.Equal(t, domain.MustAmount("300"), res.NewBalance)
	assert.Equal(t, domain.MustAmount("300"), f.balance(t, agent))
	assert.Equal(t, domain.MustAmount("200"), f.balance(t, client))

	completed := f.entriesWith(domain.EntryTransfer, domain.EntryCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, res.EntryID, completed[0].ID)
	assert.Empty(t, f.entriesWith(domain.EntryTransfer, domain.EntryPending))

	agentHistory, err := f.ledger.History(ctx, agent.AccountID)
	require.NoError(t, err)
	require.Len(t, agentHistory, 2)
	assert.Equal(t, domain.EntryTransfer, agentHistory[0].Type)
	assert.Equal(t, domain.EntryDeposit, agentHistory[1].Type)

	clientHistory, err := f.ledger.History(ctx, client.AccountID)
	require.NoError(t, err)
	require.Len(t, clientHistory, 1)
	assert.Equal(t, res.EntryID, clientHistory[0].ID)
	assert.Equal(t, "+1", clientHistory[0].SenderPhone)
	assert.Equal(t, "+2", clientHistory[0].ReceiverPhone)

	published := f.events.Events(domain.EventTransferCompleted)
	require.Len(t, published, 1)
	assert.Equal(t, res.EntryID, published[0].EntryID)
	assert.Equal(t, domain.EntryCompleted, published[0].Status)
}

func TestTransferInsufficientFunds(t *testing.T) {
	f := newFixture(t)

	a := f.register(t, "+1", domain.RoleAgent)
	b := f.register(t, "+2", domain.RoleClient)
	f.deposit(t, a, "100")

	_, err := f.transfers.Transfer(context.Background(), a, "+2", domain.MustAmount("150"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, domain.KindInsufficientFunds, domain.KindOf(err))

	assert.Equal(t, domain.MustAmount("100"), f.balance(t, a))
	assert.Equal(t, domain.Amount(0), f.balance(t, b))
	assert.Empty(t, f.entriesWith(domain.EntryTransfer, domain.EntryCompleted))
	assert.Empty(t, f.entriesWith(domain.EntryTransfer, domain.EntryPending))
}

func TestTransferRejections(t *testing.T) {
	f := newFixture(t)

	a := f.register(t, "+1", domain.RoleAgent)
	b := f.register(t, "+2", domain.RoleClient)
	f.deposit(t, a, "100")

	tests := []struct {
		name   string
		caller auth.Identity
		phone  string
		amount domain.Amount
		want   error
	}{
		{"zero amount", a, "+2", 0, domain.ErrInvalidAmount},
		{"negative amount", a, "+2", domain.MustAmount("-5"), domain.ErrInvalidAmount},
		{"unknown recipient", a, "+999", domain.MustAmount("5"), domain.ErrRecipientNotFound},
		{"self transfer", a, "+1", domain.MustAmount("5"), domain.ErrSelfTransfer},
		{"admin caller", f.admin, "+2", domain.MustAmount("5"), domain.ErrForbidden},
		{"unknown caller", unknownAccount, "+2", domain.MustAmount("5"), domain.ErrAccountNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.transfers.Transfer(context.Background(), tc.caller, tc.phone, tc.amount)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, domain.MustAmount("100"), f.balance(t, a))
	assert.Equal(t, domain.Amount(0), f.balance(t, b))
	assert.Zero(t, f.db.Count(t, "ledger_entries", "type = $1", string(domain.EntryTransfer)))
}

func TestTransferRollsBackWhenCreditFails(t *testing.T) {
	f := newFixture(t)

	a := f.register(t, "+1", domain.RoleAgent)
	b := f.register(t, "+2", domain.RoleClient)
	f.deposit(t, a, "100")

	f.failAdjustments(b.AccountID, errors.New("disk full"))
	_, err := f.transfers.Transfer(context.Background(), a, "+2", domain.MustAmount("40"))
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	f.failAdjustments(b.AccountID, nil)

	assert.Equal(t, domain.MustAmount("100"), f.balance(t, a))
	assert.Equal(t, domain.Amount(0), f.balance(t, b))
	assert.Empty(t, f.entriesWith(domain.EntryTransfer, domain.EntryCompleted))
	assert.Empty(t, f.entriesWith(domain.EntryTransfer, domain.EntryPending))

	failed := f.entriesWith(domain.EntryTransfer, domain.EntryFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "internal_error", failed[0].Metadata[domain.MetaFailureReason])
	assert.Equal(t, domain.MustAmount("40"), failed[0].Amount)
	require.Len(t, f.events.Events(domain.EventEntryFailed), 1)
	assert.Empty(t, f.events.Events(domain.EventTransferCompleted))
}

func TestConcurrentDoubleSpend(t *testing.T) {
	f := newFixture(t)

	a := f.register(t, "+1", domain.RoleAgent)
	b := f.register(t, "+2", domain.RoleClient)
	c := f.register(t, "+3", domain.RoleClient)
	f.deposit(t, a, "100")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, phone := range []string{"+2", "+3"} {
		wg.Add(1)
		go func(i int, phone string) {
			defer wg.Done()
			_, errs[i] = f.transfers.Transfer(context.Background(), a, phone, domain.MustAmount("60"))
		}(i, phone)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, domain.MustAmount("40"), f.balance(t, a))
	assert.Equal(t, domain.MustAmount("100"), f.totalBalance(t, a, b, c))
	assert.Len(t, f.entriesWith(domain.EntryTransfer, domain.EntryCompleted), 1)
}

func TestConcurrentOppositeTransfers(t *testing.T) {
	f := newFixture(t)

	a := f.register(t, "+1", domain.RoleAgent)
	b := f.register(t, "+2", domain.RoleAgent)
	f.deposit(t, a, "100")
	f.deposit(t, b, "100")

	n := 10
	amount := domain.MustAmount("10")
	errs := make(chan error, n*2)
	for i := 0; i < n; i++ {
		go func() {
			_, err := f.transfers.Transfer(context.Background(), a, "+2", amount)
			errs <- err
		}()
		go func() {
			_, err := f.transfers.Transfer(context.Background(), b, "+1", amount)
			errs <- err
		}()
	}
	for i := 0; i < n*2; i++ {
		assert.NoError(t, <-errs)
	}

	assert.Equal(t, domain.MustAmount("100"), f.balance(t, a))
	assert.Equal(t, domain.MustAmount("100"), f.balance(t, b))
	assert.Len(t, f.entriesWith(domain.EntryTransfer, domain.EntryCompleted), n*2)
}

func TestTransferConservesBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agent := f.register(t, "+1", domain.RoleAgent)
	x := f.register(t, "+2", domain.RoleClient)
	y := f.register(t, "+3", domain.RoleClient)
	f.deposit(t, agent, "75.25")

	steps := []struct {
		from  auth.Identity
		to    string
		value string
	}{
		{agent, "+2", "30.10"},
		{x, "+3", "12.05"},
		{y, "+1", "0.01"},
		{x, "+3", "100"},
		{agent, "+3", "45.16"},
	}
	for _, s := range steps {
		before := f.totalBalance(t, agent, x, y)
		fromBefore := f.balance(t, s.from)
		_, err := f.transfers.Transfer(ctx, s.from, s.to, domain.MustAmount(s.value))
		if err == nil {
			assert.Equal(t, fromBefore-domain.MustAmount(s.value), f.balance(t, s.from))
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			assert.Equal(t, fromBefore, f.balance(t, s.from))
		}
		assert.Equal(t, before, f.totalBalance(t, agent, x, y))
		for _, id := range []auth.Identity{agent, x, y} {
			assert.GreaterOrEqual(t, int64(f.balance(t, id)), int64(0))
		}
	}

	report, err := NewReconciliationService(f.store).Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Equal(t, domain.MustAmount("75.25"), report.Totals.BalanceSum)
}
