package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
)

// MockVerifier 未配置网关凭据时使用，所有交易均视为成功
type MockVerifier struct {
	logger *zap.Logger
}

func NewMockVerifier(logger *zap.Logger) *MockVerifier {
	return &MockVerifier{logger: logger}
}

func (v *MockVerifier) Verify(ctx context.Context, req *VerifyRequest) (*Verification, error) {
	if req.Gateway != GatewayJazzCash && req.Gateway != GatewayEasyPaisa {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, req.Gateway)
	}

	v.logger.Info("mock payment verification",
		zap.String("gateway", string(req.Gateway)),
		zap.String("transaction_id", req.TransactionID))

	return &Verification{
		Verified:       true,
		CreditedAmount: req.ClaimedAmount,
		Message:        "Mock payment verified",
	}, nil
}

// New 按配置选择核验策略，凭据不全时退回 mock
func New(cfg *config.PaymentConfig, logger *zap.Logger) Verifier {
	if cfg.Provider == "mock" || !cfg.PaymentConfigured() {
		logger.Warn("payment credentials not configured, using mock payment verifier")
		return NewMockVerifier(logger)
	}
	return NewGatewayVerifier(cfg, logger)
}
