package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/repository"
	"github.com/qs3c/photoshoot_server/internal/testutil"
)

func TestLedger_Debit(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	ctx := context.Background()
	account := testutil.TestAccount(t, env.db, testutil.WithCredits(3))

	balance, err := env.ledger.Debit(ctx, account.ID, 1, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 2, balance)

	// 重放同一个 job 不会重复扣费
	balance, err = env.ledger.Debit(ctx, account.ID, 1, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 2, balance)
	assert.Equal(t, 2, env.balanceOf(t, account.ID))

	_, err = env.ledger.Debit(ctx, account.ID, 5, "job-2")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 2, env.balanceOf(t, account.ID))

	_, err = env.ledger.Debit(ctx, "missing", 1, "job-3")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLedger_ConcurrentDebitsOnLastCredit(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	ctx := context.Background()
	account := testutil.TestAccount(t, env.db, testutil.WithCredits(1))

	var (
		wg      sync.WaitGroup
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.ledger.Debit(ctx, account.ID, 1, []string{"job-x", "job-y"}[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, env.balanceOf(t, account.ID))
	assert.Equal(t, int64(1), env.transactionCount(t, account.ID))
}

func TestLedger_Credit(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	ctx := context.Background()
	account := testutil.TestAccount(t, env.db, testutil.WithCredits(1))

	balance, err := env.ledger.Credit(ctx, account.ID, 10, repository.CreditOptions{Type: model.TxnTypePurchaseCredit})
	require.NoError(t, err)
	assert.Equal(t, 11, balance)

	_, err = env.ledger.Credit(ctx, account.ID, -1, repository.CreditOptions{Type: model.TxnTypePurchaseCredit})
	assert.Equal(t, KindInvalidRequest, KindOf(err))

	_, err = env.ledger.Credit(ctx, "missing", 1, repository.CreditOptions{Type: model.TxnTypePurchaseCredit})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLedger_GrantFirstLoginBonus(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	ctx := context.Background()
	account := testutil.TestAccount(t, env.db)

	updated, granted, err := env.ledger.GrantFirstLoginBonus(ctx, account.ID, 5)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 5, updated.Credits)

	updated, granted, err = env.ledger.GrantFirstLoginBonus(ctx, account.ID, 5)
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Equal(t, 5, updated.Credits)
}

func TestLedger_GetBalance(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	ctx := context.Background()
	account := testutil.TestAccount(t, env.db, testutil.WithCredits(4))

	balance, err := env.ledger.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, balance)

	_, err = env.ledger.GetBalance(ctx, "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLedger_StoreUnavailable(t *testing.T) {
	env, cleanup := setupEnv(t)
	cleanup()

	_, err := env.ledger.GetBalance(context.Background(), "uid")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.True(t, Retryable(err))
}
