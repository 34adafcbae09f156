package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/api/middleware"
	"github.com/qs3c/photoshoot_server/internal/pkg/clientid"
	"github.com/qs3c/photoshoot_server/internal/pkg/generator"
	"github.com/qs3c/photoshoot_server/internal/pkg/jwt"
	"github.com/qs3c/photoshoot_server/internal/pkg/payment"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
	"github.com/qs3c/photoshoot_server/internal/repository"
	"github.com/qs3c/photoshoot_server/internal/service"
	"github.com/qs3c/photoshoot_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key-for-handlers"

type countingGenerator struct {
	err   error
	calls int32
}

func (g *countingGenerator) Name() string {
	return "counting"
}

func (g *countingGenerator) Generate(ctx context.Context, req *generator.Request) (*generator.Result, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.err != nil {
		return nil, g.err
	}
	return &generator.Result{Images: []string{"https://gen.example.com/a.png", "https://gen.example.com/b.png", "https://gen.example.com/c.png"}}, nil
}

func (g *countingGenerator) Calls() int {
	return int(atomic.LoadInt32(&g.calls))
}

type stubVerifier struct {
	verified bool
}

func (v *stubVerifier) Verify(ctx context.Context, req *payment.VerifyRequest) (*payment.Verification, error) {
	if !v.verified {
		return &payment.Verification{Verified: false, Message: "Transaction not found"}, nil
	}
	return &payment.Verification{Verified: true, CreditedAmount: req.ClaimedAmount}, nil
}

// handlerEnv 处理层测试的完整依赖，身份使用真实 JWT
type handlerEnv struct {
	db         *gorm.DB
	cfg        *config.Config
	generator  *countingGenerator
	verifier   *stubVerifier
	auth       *AuthHandler
	credits    *CreditsHandler
	generation *GenerationHandler
	router     *gin.Engine
}

func setupHandlers(t *testing.T) (*handlerEnv, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: testJWTSecret, ExpireHours: 1},
		Credits: config.CreditsConfig{
			FirstLoginBonus: 5,
			GenerationCost:  1,
			FreeTrialLimit:  3,
			PKRPerCredit:    5,
			ClientHashKey:   "handler-test-key",
		},
		Generation: config.GenerationConfig{Timeout: 2 * time.Second},
		Payment:    config.PaymentConfig{Timeout: time.Second},
		Mirror:     config.MirrorConfig{Backend: "none"},
		Upload:     config.UploadConfig{MaxImages: 5},
		Packages:   config.DefaultPackages(),
	}

	accountRepo := repository.NewAccountRepository(db)
	hasher := clientid.NewHasher(cfg.Credits.ClientHashKey)
	resolver := jwt.NewResolver(cfg.JWT.Secret)
	gen := &countingGenerator{}
	verifier := &stubVerifier{verified: true}

	ledger := service.NewLedger(accountRepo, logger)
	trials := service.NewTrialService(repository.NewTrialRepository(db), hasher, cfg)
	accounts := service.NewAccountService(accountRepo, ledger, resolver, hasher, cfg, logger)
	purchases := service.NewPurchaseService(accountRepo, ledger, verifier, resolver, cfg, logger)
	generations := service.NewGenerationService(accountRepo, repository.NewPhotoshootRepository(db),
		ledger, trials, gen, resolver, nil, cfg, logger)

	env := &handlerEnv{
		db:         db,
		cfg:        cfg,
		generator:  gen,
		verifier:   verifier,
		auth:       NewAuthHandler(accounts),
		credits:    NewCreditsHandler(accounts, purchases, trials),
		generation: NewGenerationHandler(generations),
	}

	router := gin.New()
	api := router.Group("/api/v1", middleware.Credential())
	api.POST("/auth/register", env.auth.Register)
	api.GET("/auth/verify", env.auth.Verify)
	api.GET("/user/profile", env.auth.Profile)
	api.GET("/credits/balance", env.credits.Balance)
	api.GET("/credits/transactions", env.credits.Transactions)
	api.POST("/credits/purchase", env.credits.Purchase)
	api.GET("/credits/packages", env.credits.Packages)
	api.GET("/credits/trial-status", env.credits.TrialStatus)
	api.POST("/generations", env.generation.Create)
	api.GET("/generations", env.generation.List)
	api.GET("/generations/:id", env.generation.Get)
	env.router = router

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return env, cleanup
}

func tokenFor(t *testing.T, uid string) string {
	t.Helper()

	token, err := jwt.GenerateToken(jwt.Identity{UID: uid, Email: uid + "@example.com", DisplayName: uid}, testJWTSecret, 1)
	require.NoError(t, err)
	return token
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	return performAuthRequest(r, method, path, "", body)
}

func performAuthRequest(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "198.51.100.20:51000"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// decodeData 将响应 data 解码到指定结构
func decodeData(t *testing.T, resp response.Response, out interface{}) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}
