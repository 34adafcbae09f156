package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/clientid"
	"github.com/qs3c/photoshoot_server/internal/repository"
)

const (
	RegisterStatusCreated = "user_created"
	RegisterStatusExists  = "user_exists"
)

// RegisterInput 注册附加信息，Email/DisplayName 为空时取身份中的值
type RegisterInput struct {
	Email       string
	DisplayName string
	ClientIP    string
}

type AccountService struct {
	accountRepo *repository.AccountRepository
	ledger      *Ledger
	resolver    IdentityResolver
	hasher      *clientid.Hasher
	cfg         *config.Config
	logger      *zap.Logger
}

func NewAccountService(
	accountRepo *repository.AccountRepository,
	ledger *Ledger,
	resolver IdentityResolver,
	hasher *clientid.Hasher,
	cfg *config.Config,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		ledger:      ledger,
		resolver:    resolver,
		hasher:      hasher,
		cfg:         cfg,
		logger:      logger,
	}
}

// RegisterAccount 首次登录时创建账户并发放首登奖励，可重复调用
func (s *AccountService) RegisterAccount(ctx context.Context, credential string, input RegisterInput) (*dto.RegisterResponse, error) {
	identity, err := resolveIdentity(ctx, s.resolver, credential)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:          identity.UID,
		Email:       firstNonBlank(input.Email, identity.Email),
		DisplayName: firstNonBlank(input.DisplayName, identity.DisplayName),
		Plan:        model.PlanFree,
	}
	if strings.TrimSpace(input.ClientIP) != "" {
		account.AnonHashBeforeSignup = s.hasher.Hash(input.ClientIP)
	}

	created, err := s.accountRepo.CreateIfAbsent(ctx, account)
	if err != nil {
		return nil, storeError(err)
	}

	if err := s.accountRepo.TouchLogin(ctx, identity.UID, time.Now()); err != nil {
		s.logger.Warn("failed to update last login", zap.String("account_id", identity.UID), zap.Error(err))
	}

	bonusGranted := 0
	if bonus := s.cfg.Credits.FirstLoginBonus; bonus > 0 {
		updated, granted, err := s.ledger.GrantFirstLoginBonus(ctx, identity.UID, bonus)
		if err != nil {
			return nil, err
		}
		account = updated
		if granted {
			bonusGranted = bonus
		}
	} else {
		account, err = s.accountRepo.GetByID(ctx, identity.UID)
		if err != nil {
			return nil, storeError(err)
		}
	}

	status := RegisterStatusExists
	if created {
		status = RegisterStatusCreated
		s.logger.Info("account registered", zap.String("account_id", identity.UID))
	}

	return &dto.RegisterResponse{
		Status:       status,
		UID:          account.ID,
		Credits:      account.Credits,
		BonusGranted: bonusGranted,
	}, nil
}

// GetBalance 查询积分余额
func (s *AccountService) GetBalance(ctx context.Context, credential string) (*dto.BalanceResponse, error) {
	account, err := s.loadAccount(ctx, credential)
	if err != nil {
		return nil, err
	}

	return &dto.BalanceResponse{
		UID:                   account.ID,
		Credits:               account.Credits,
		Plan:                  account.Plan,
		FirstLoginBonusUsed:   account.FirstLoginBonusUsed,
		CreditsFromFirstLogin: account.CreditsFromFirstLogin,
	}, nil
}

// VerifyCredential 只校验凭据，不要求账户已注册
func (s *AccountService) VerifyCredential(ctx context.Context, credential string) (*dto.VerifyResponse, error) {
	identity, err := resolveIdentity(ctx, s.resolver, credential)
	if err != nil {
		return nil, err
	}

	return &dto.VerifyResponse{
		Valid:       true,
		UID:         identity.UID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}, nil
}

// GetProfile 获取账户资料
func (s *AccountService) GetProfile(ctx context.Context, credential string) (*dto.ProfileResponse, error) {
	account, err := s.loadAccount(ctx, credential)
	if err != nil {
		return nil, err
	}

	return &dto.ProfileResponse{
		UID:                 account.ID,
		Email:               account.Email,
		DisplayName:         account.DisplayName,
		Credits:             account.Credits,
		Plan:                account.Plan,
		FirstLoginBonusUsed: account.FirstLoginBonusUsed,
		CreatedAt:           account.CreatedAt,
		LastLoginAt:         account.LastLoginAt,
	}, nil
}

// ListTransactions 分页查询积分流水
func (s *AccountService) ListTransactions(ctx context.Context, credential string, page, pageSize int) ([]dto.TransactionItem, int64, error) {
	account, err := s.loadAccount(ctx, credential)
	if err != nil {
		return nil, 0, err
	}

	txns, total, err := s.ledger.ListTransactions(ctx, account.ID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]dto.TransactionItem, 0, len(txns))
	for _, t := range txns {
		items = append(items, dto.TransactionItem{
			ID:            t.ID,
			Type:          t.Type,
			Amount:        t.Amount,
			BalanceAfter:  t.BalanceAfter,
			PaymentMethod: t.PaymentMethod,
			CreatedAt:     t.CreatedAt,
		})
	}
	return items, total, nil
}

func (s *AccountService) loadAccount(ctx context.Context, credential string) (*model.Account, error) {
	identity, err := resolveIdentity(ctx, s.resolver, credential)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, identity.UID)
	if err != nil {
		return nil, storeError(err)
	}
	return account, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
