package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
	"github.com/qs3c/photoshoot_server/internal/testutil"
)

func TestCreditsHandler_Balance(t *testing.T) {
	env, cleanup := setupHandlers(t)
	defer cleanup()

	testutil.TestAccount(t, env.db, testutil.WithUID("uid-ayesha"), testutil.WithCredits(12))

	t.Run("authenticated", func(t *testing.T) {
		w := performAuthRequest(env.router, "GET", "/api/v1/credits/balance", tokenFor(t, "uid-ayesha"), nil)

		resp := parseResponse(t, w)
		require.Equal(t, response.CodeSuccess, resp.Code)

		var data dto.BalanceResponse
		decodeData(t, resp, &data)
		assert.Equal(t, 12, data.Credits)
	})

	t.Run("unknown account", func(t *testing.T) {
		w := performAuthRequest(env.router, "GET", "/api/v1/credits/balance", tokenFor(t, "uid-ghost"), nil)

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeResourceNotFound, resp.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := performRequest(env.router, "GET", "/api/v1/credits/balance", nil)

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeAuthFailed, resp.Code)
	})
}

func TestCreditsHandler_Purchase(t *testing.T) {
	env, cleanup := setupHandlers(t)
	defer cleanup()

	account := testutil.TestAccount(t, env.db, testutil.WithUID("uid-ayesha"), testutil.WithCredits(0))
	token := tokenFor(t, "uid-ayesha")

	t.Run("verified payment credits the account", func(t *testing.T) {
		w := performAuthRequest(env.router, "POST", "/api/v1/credits/purchase", token, map[string]interface{}{
			"payment_method": "jazzcash",
			"transaction_id": "T-125",
			"amount_pkr":     "125",
		})

		resp := parseResponse(t, w)
		require.Equal(t, response.CodeSuccess, resp.Code)

		var data dto.PurchaseResponse
		decodeData(t, resp, &data)
		assert.Equal(t, 25, data.CreditsAdded)
		assert.Equal(t, 25, data.NewBalance)

		var count int64
		env.db.Model(&model.CreditTransaction{}).
			Where("account_id = ? AND type = ?", account.ID, model.TxnTypePurchaseCredit).
			Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("replayed payment is rejected", func(t *testing.T) {
		w := performAuthRequest(env.router, "POST", "/api/v1/credits/purchase", token, map[string]interface{}{
			"payment_method": "jazzcash",
			"transaction_id": "T-125",
			"amount_pkr":     "125",
		})

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeDuplicateAction, resp.Code)
	})

	t.Run("rejected payment", func(t *testing.T) {
		env.verifier.verified = false
		defer func() { env.verifier.verified = true }()

		w := performAuthRequest(env.router, "POST", "/api/v1/credits/purchase", token, map[string]interface{}{
			"payment_method": "easypaisa",
			"transaction_id": "T-404",
			"amount_pkr":     "50",
		})

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodePaymentFailed, resp.Code)

		var refreshed model.Account
		require.NoError(t, env.db.First(&refreshed, "id = ?", account.ID).Error)
		assert.Equal(t, 25, refreshed.Credits)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		w := performAuthRequest(env.router, "POST", "/api/v1/credits/purchase", token, map[string]interface{}{
			"payment_method": "paypal",
			"transaction_id": "T-1",
			"amount_pkr":     "50",
		})

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeParamError, resp.Code)
	})

	t.Run("missing transaction id", func(t *testing.T) {
		w := performAuthRequest(env.router, "POST", "/api/v1/credits/purchase", token, map[string]interface{}{
			"payment_method": "jazzcash",
			"amount_pkr":     "50",
		})

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeParamError, resp.Code)
	})
}

func TestCreditsHandler_Transactions(t *testing.T) {
	env, cleanup := setupHandlers(t)
	defer cleanup()

	token := tokenFor(t, "uid-ayesha")
	performAuthRequest(env.router, "POST", "/api/v1/auth/register", token, nil)
	performAuthRequest(env.router, "POST", "/api/v1/credits/purchase", token, map[string]interface{}{
		"payment_method": "jazzcash",
		"transaction_id": "T-1",
		"amount_pkr":     "50",
	})

	w := performAuthRequest(env.router, "GET", "/api/v1/credits/transactions?page=1&page_size=1", token, nil)

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var page response.PageData
	decodeData(t, resp, &page)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.PageSize)
	assert.Len(t, page.Items, 1)
}

func TestCreditsHandler_Packages(t *testing.T) {
	env, cleanup := setupHandlers(t)
	defer cleanup()

	w := performRequest(env.router, "GET", "/api/v1/credits/packages", nil)

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var packages []dto.PackageInfo
	decodeData(t, resp, &packages)
	require.Len(t, packages, 4)
	assert.Equal(t, "pkg_10", packages[0].ID)
	assert.Equal(t, "50", packages[0].PricePKR)
}

func TestCreditsHandler_TrialStatus(t *testing.T) {
	env, cleanup := setupHandlers(t)
	defer cleanup()

	w := performRequest(env.router, "GET", "/api/v1/credits/trial-status", nil)

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var data dto.TrialStatusResponse
	decodeData(t, resp, &data)
	assert.True(t, data.Eligible)
	assert.Equal(t, 0, data.GenerationsUsed)
	assert.Equal(t, 3, data.Limit)
	assert.Equal(t, 3, data.Remaining)
}
