package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/pkg/clientid"
	"github.com/qs3c/photoshoot_server/internal/pkg/generator"
	"github.com/qs3c/photoshoot_server/internal/pkg/jwt"
	"github.com/qs3c/photoshoot_server/internal/pkg/payment"
	"github.com/qs3c/photoshoot_server/internal/pkg/queue"
	"github.com/qs3c/photoshoot_server/internal/repository"
	"github.com/qs3c/photoshoot_server/internal/testutil"
)

type fakeResolver struct {
	identities map[string]*jwt.Identity
}

func (r *fakeResolver) Resolve(ctx context.Context, credential string) (*jwt.Identity, error) {
	if identity, ok := r.identities[credential]; ok {
		return identity, nil
	}
	return nil, jwt.ErrInvalidToken
}

type fakeGenerator struct {
	images []string
	err    error
	hook   func(ctx context.Context) error
	calls  int32
}

func (g *fakeGenerator) Name() string {
	return "fake"
}

func (g *fakeGenerator) Generate(ctx context.Context, req *generator.Request) (*generator.Result, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.hook != nil {
		if err := g.hook(ctx); err != nil {
			return nil, err
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &generator.Result{Images: g.images}, nil
}

func (g *fakeGenerator) Calls() int {
	return int(atomic.LoadInt32(&g.calls))
}

type fakeVerifier struct {
	verification *payment.Verification
	err          error
	calls        int32
	last         *payment.VerifyRequest
}

func (v *fakeVerifier) Verify(ctx context.Context, req *payment.VerifyRequest) (*payment.Verification, error) {
	atomic.AddInt32(&v.calls, 1)
	v.last = req
	if v.err != nil {
		return nil, v.err
	}
	if v.verification != nil {
		return v.verification, nil
	}
	return &payment.Verification{Verified: true, CreditedAmount: req.ClaimedAmount}, nil
}

func (v *fakeVerifier) Calls() int {
	return int(atomic.LoadInt32(&v.calls))
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []*queue.MirrorMessage
	err      error
}

func (q *fakeQueue) Push(ctx context.Context, msg *queue.MirrorMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, msg)
	return nil
}

func (q *fakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

func testConfig() *config.Config {
	return &config.Config{
		Credits: config.CreditsConfig{
			FirstLoginBonus: 5,
			GenerationCost:  1,
			FreeTrialLimit:  3,
			PKRPerCredit:    5,
			ClientHashKey:   "test-hash-key",
		},
		Generation: config.GenerationConfig{Provider: "mock", Timeout: 2 * time.Second},
		Payment:    config.PaymentConfig{Provider: "mock", Timeout: time.Second},
		Mirror:     config.MirrorConfig{Backend: "s3", MaxAttempts: 3},
		Upload: config.UploadConfig{
			MaxSize:           1024,
			MaxImages:         3,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp"},
		},
		Packages: config.DefaultPackages(),
	}
}

const (
	tokenAyesha = "token-ayesha"
	tokenBilal  = "token-bilal"
)

// testEnv 服务层测试共用的依赖
type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	accountRepo *repository.AccountRepository
	trialRepo   *repository.TrialRepository
	shootRepo   *repository.PhotoshootRepository
	hasher      *clientid.Hasher
	ledger      *Ledger
	trials      *TrialService
	accounts    *AccountService
	purchases   *PurchaseService
	generations *GenerationService
	resolver    *fakeResolver
	generator   *fakeGenerator
	verifier    *fakeVerifier
	queue       *fakeQueue
}

func setupEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testConfig()
	logger := zap.NewNop()

	env := &testEnv{
		db:          db,
		cfg:         cfg,
		accountRepo: repository.NewAccountRepository(db),
		trialRepo:   repository.NewTrialRepository(db),
		shootRepo:   repository.NewPhotoshootRepository(db),
		hasher:      clientid.NewHasher(cfg.Credits.ClientHashKey),
		resolver: &fakeResolver{identities: map[string]*jwt.Identity{
			tokenAyesha: {UID: "uid-ayesha", Email: "ayesha@example.com", DisplayName: "Ayesha"},
			tokenBilal:  {UID: "uid-bilal", Email: "bilal@example.com", DisplayName: "Bilal"},
		}},
		generator: &fakeGenerator{images: []string{"https://gen.example.com/1.png", "https://gen.example.com/2.png", "https://gen.example.com/3.png"}},
		verifier:  &fakeVerifier{},
		queue:     &fakeQueue{},
	}

	env.ledger = NewLedger(env.accountRepo, logger)
	env.trials = NewTrialService(env.trialRepo, env.hasher, cfg)
	env.accounts = NewAccountService(env.accountRepo, env.ledger, env.resolver, env.hasher, cfg, logger)
	env.purchases = NewPurchaseService(env.accountRepo, env.ledger, env.verifier, env.resolver, cfg, logger)
	env.generations = NewGenerationService(env.accountRepo, env.shootRepo, env.ledger, env.trials,
		env.generator, env.resolver, env.queue, cfg, logger)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return env, cleanup
}

// balanceOf 直接读库里的余额
func (e *testEnv) balanceOf(t *testing.T, accountID string) int {
	t.Helper()

	account, err := e.accountRepo.GetByID(context.Background(), accountID)
	if err != nil {
		t.Fatalf("failed to load account %s: %v", accountID, err)
	}
	return account.Credits
}

func (e *testEnv) transactionCount(t *testing.T, accountID string) int64 {
	t.Helper()

	var count int64
	if err := e.db.Table("credit_transactions").Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	return count
}
