package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/pkg/payment"
	"github.com/qs3c/photoshoot_server/internal/testutil"
)

func purchaseInput(method, txID string, amount int64) PurchaseInput {
	return PurchaseInput{
		PaymentMethod: method,
		TransactionID: txID,
		AmountPKR:     decimal.NewFromInt(amount),
		PhoneNumber:   "03001234567",
	}
}

func TestPurchaseService_PurchaseCredits(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	ctx := context.Background()
	testutil.TestAccount(t, env.db, testutil.WithUID("uid-ayesha"), testutil.WithCredits(2))

	resp, err := env.purchases.PurchaseCredits(ctx, tokenAyesha, purchaseInput("jazzcash", "JC-125", 125))
	require.NoError(t, err)
	assert.Equal(t, 25, resp.CreditsAdded)
	assert.Equal(t, 27, resp.NewBalance)
	assert.Equal(t, "JC-125", resp.TransactionID)
	assert.Equal(t, 1, env.verifier.Calls())
	assert.Equal(t, payment.GatewayJazzCash, env.verifier.last.Gateway)

	var txns []model.CreditTransaction
	require.NoError(t, env.db.Where("account_id = ? AND type = ?", "uid-ayesha", model.TxnTypePurchaseCredit).Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.Equal(t, 25, txns[0].Amount)
	assert.Equal(t, 27, txns[0].BalanceAfter)
	assert.Equal(t, "jazzcash", txns[0].PaymentMethod)
	require.NotNil(t, txns[0].PaymentRef)
	assert.Equal(t, "jazzcash:JC-125", *txns[0].PaymentRef)
}

func TestPurchaseService_ReplayedPayment(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	ctx := context.Background()
	testutil.TestAccount(t, env.db, testutil.WithUID("uid-ayesha"))

	_, err := env.purchases.PurchaseCredits(ctx, tokenAyesha, purchaseInput("easypaisa", "EP-1", 50))
	require.NoError(t, err)

	_, err = env.purchases.PurchaseCredits(ctx, tokenAyesha, purchaseInput("easypaisa", "EP-1", 50))
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	assert.Equal(t, 10, env.balanceOf(t, "uid-ayesha"))

	// 不同网关的相同交易号互不影响
	_, err = env.purchases.PurchaseCredits(ctx, tokenAyesha, purchaseInput("jazzcash", "EP-1", 50))
	require.NoError(t, err)
	assert.Equal(t, 20, env.balanceOf(t, "uid-ayesha"))
}

func TestPurchaseService_VerificationFailed(t *testing.T) {
	tests := []struct {
		name     string
		verifier *fakeVerifier
	}{
		{"gateway rejects", &fakeVerifier{verification: &payment.Verification{Verified: false, Message: "Transaction not found"}}},
		{"gateway error", &fakeVerifier{err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, cleanup := setupEnv(t)
			defer cleanup()

			env.purchases.verifier = tt.verifier
			testutil.TestAccount(t, env.db, testutil.WithUID("uid-ayesha"), testutil.WithCredits(3))

			_, err := env.purchases.PurchaseCredits(context.Background(), tokenAyesha, purchaseInput("jazzcash", "JC-X", 100))
			assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
			assert.Equal(t, 3, env.balanceOf(t, "uid-ayesha"))
			assert.Equal(t, int64(0), env.transactionCount(t, "uid-ayesha"))
		})
	}
}

func TestPurchaseService_GatewayReportedAmount(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	env.purchases.verifier = &fakeVerifier{verification: &payment.Verification{
		Verified:       true,
		CreditedAmount: decimal.NewFromInt(50),
	}}
	testutil.TestAccount(t, env.db, testutil.WithUID("uid-ayesha"))

	resp, err := env.purchases.PurchaseCredits(context.Background(), tokenAyesha, purchaseInput("jazzcash", "JC-2", 500))
	require.NoError(t, err)
	assert.Equal(t, 10, resp.CreditsAdded)
}

func TestPurchaseService_InvalidRequests(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	ctx := context.Background()
	testutil.TestAccount(t, env.db, testutil.WithUID("uid-ayesha"))

	tests := []struct {
		name  string
		token string
		input PurchaseInput
		want  error
	}{
		{"unknown gateway", tokenAyesha, purchaseInput("paypal", "P-1", 100), ErrInvalidRequest},
		{"missing transaction id", tokenAyesha, purchaseInput("jazzcash", " ", 100), ErrInvalidRequest},
		{"zero amount", tokenAyesha, purchaseInput("jazzcash", "JC-0", 0), ErrInvalidRequest},
		{"negative amount", tokenAyesha, purchaseInput("jazzcash", "JC-N", -5), ErrInvalidRequest},
		{"invalid credential", "bad", purchaseInput("jazzcash", "JC-3", 100), ErrInvalidCredential},
		{"unregistered account", tokenBilal, purchaseInput("jazzcash", "JC-4", 100), ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.purchases.PurchaseCredits(ctx, tt.token, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, env.verifier.Calls(), "verifier must not be called for rejected requests")
	assert.Equal(t, 0, env.balanceOf(t, "uid-ayesha"))
}

func TestPurchaseService_SmallAmountGetsOneCredit(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	testutil.TestAccount(t, env.db, testutil.WithUID("uid-ayesha"))

	resp, err := env.purchases.PurchaseCredits(context.Background(), tokenAyesha, purchaseInput("easypaisa", "EP-2", 3))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.CreditsAdded)
}

func TestPurchaseService_Packages(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	packages := env.purchases.Packages()
	require.Len(t, packages, 4)
	assert.Equal(t, "pkg_10", packages[0].ID)
	assert.Equal(t, "50", packages[0].PricePKR)
	assert.Equal(t, "125", packages[1].PricePKR)
	assert.True(t, packages[1].Featured)
}
