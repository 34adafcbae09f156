package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/metrics"
	"github.com/qs3c/photoshoot_server/internal/pkg/payment"
	"github.com/qs3c/photoshoot_server/internal/repository"
)

// PurchaseInput 购买积分参数
type PurchaseInput struct {
	PaymentMethod string
	TransactionID string
	AmountPKR     decimal.Decimal
	PhoneNumber   string
}

type PurchaseService struct {
	accountRepo *repository.AccountRepository
	ledger      *Ledger
	verifier    payment.Verifier
	resolver    IdentityResolver
	cfg         *config.Config
	logger      *zap.Logger
}

func NewPurchaseService(
	accountRepo *repository.AccountRepository,
	ledger *Ledger,
	verifier payment.Verifier,
	resolver IdentityResolver,
	cfg *config.Config,
	logger *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		accountRepo: accountRepo,
		ledger:      ledger,
		verifier:    verifier,
		resolver:    resolver,
		cfg:         cfg,
		logger:      logger,
	}
}

// PurchaseCredits 核验支付后按金额入账
func (s *PurchaseService) PurchaseCredits(ctx context.Context, credential string, input PurchaseInput) (*dto.PurchaseResponse, error) {
	identity, err := resolveIdentity(ctx, s.resolver, credential)
	if err != nil {
		return nil, err
	}

	gateway, err := payment.ParseGateway(input.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	txID := strings.TrimSpace(input.TransactionID)
	if txID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", ErrInvalidRequest)
	}
	if !input.AmountPKR.IsPositive() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, payment.ErrInvalidAmount)
	}

	if _, err := s.accountRepo.GetByID(ctx, identity.UID); err != nil {
		return nil, storeError(err)
	}

	verification, err := s.verify(ctx, &payment.VerifyRequest{
		Gateway:       gateway,
		TransactionID: txID,
		ClaimedAmount: input.AmountPKR,
		PayerPhone:    input.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}

	amount := verification.CreditedAmount
	if !amount.IsPositive() {
		amount = input.AmountPKR
	}
	credits, err := payment.AmountToCredits(amount, s.cfg.Credits.PKRPerCredit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	balance, err := s.ledger.Credit(ctx, identity.UID, credits, repository.CreditOptions{
		Type:          model.TxnTypePurchaseCredit,
		PaymentRef:    string(gateway) + ":" + txID,
		PaymentMethod: string(gateway),
	})
	if err != nil {
		return nil, err
	}

	return &dto.PurchaseResponse{
		CreditsAdded:  credits,
		NewBalance:    balance,
		TransactionID: txID,
		Message:       fmt.Sprintf("Successfully added %d credits", credits),
	}, nil
}

func (s *PurchaseService) verify(ctx context.Context, req *payment.VerifyRequest) (*payment.Verification, error) {
	vctx, cancel := withTimeout(ctx, s.cfg.Payment.Timeout, defaultPaymentTimeout)
	defer cancel()

	verification, err := s.verifier.Verify(vctx, req)
	if err != nil {
		metrics.PaymentVerificationsTotal.WithLabelValues(string(req.Gateway), "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
	}
	if !verification.Verified {
		metrics.PaymentVerificationsTotal.WithLabelValues(string(req.Gateway), "rejected").Inc()
		s.logger.Warn("payment verification failed",
			zap.String("gateway", string(req.Gateway)),
			zap.String("transaction_id", req.TransactionID),
			zap.String("message", verification.Message))
		return nil, fmt.Errorf("%w: %s", ErrPaymentVerificationFailed, verification.Message)
	}

	metrics.PaymentVerificationsTotal.WithLabelValues(string(req.Gateway), "verified").Inc()
	return verification, nil
}

// Packages 积分套餐列表，价格按当前汇率计算
func (s *PurchaseService) Packages() []dto.PackageInfo {
	packages := make([]dto.PackageInfo, 0, len(s.cfg.Packages))
	for _, p := range s.cfg.Packages {
		packages = append(packages, dto.PackageInfo{
			ID:       p.ID,
			Credits:  p.Credits,
			PricePKR: payment.PriceForCredits(p.Credits, s.cfg.Credits.PKRPerCredit).String(),
			Featured: p.Featured,
		})
	}
	return packages
}
