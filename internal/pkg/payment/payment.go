package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Gateway string

const (
	GatewayJazzCash  Gateway = "jazzcash"
	GatewayEasyPaisa Gateway = "easypaisa"
)

var (
	ErrUnknownGateway = errors.New("unsupported payment gateway")
	ErrInvalidAmount  = errors.New("payment amount must be positive")
)

// ParseGateway 解析支付方式
func ParseGateway(s string) (Gateway, error) {
	switch Gateway(strings.ToLower(strings.TrimSpace(s))) {
	case GatewayJazzCash:
		return GatewayJazzCash, nil
	case GatewayEasyPaisa:
		return GatewayEasyPaisa, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGateway, s)
	}
}

// VerifyRequest 支付核验请求
type VerifyRequest struct {
	Gateway       Gateway
	TransactionID string
	ClaimedAmount decimal.Decimal // PKR
	PayerPhone    string
}

// Verification 核验结果，网关拒绝或网络异常都以 Verified=false 返回
type Verification struct {
	Verified       bool
	CreditedAmount decimal.Decimal // PKR
	Message        string
}

// Verifier 支付核验策略
type Verifier interface {
	Verify(ctx context.Context, req *VerifyRequest) (*Verification, error)
}

// AmountToCredits 按 PKR 金额计算积分：向下取整，最少 1 分
func AmountToCredits(amountPKR decimal.Decimal, pkrPerCredit int) (int, error) {
	if !amountPKR.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if pkrPerCredit <= 0 {
		return 0, fmt.Errorf("invalid rate %d pkr per credit", pkrPerCredit)
	}

	credits := amountPKR.Div(decimal.NewFromInt(int64(pkrPerCredit))).Floor().IntPart()
	if credits < 1 {
		credits = 1
	}
	return int(credits), nil
}

// PriceForCredits 套餐价格
func PriceForCredits(credits, pkrPerCredit int) decimal.Decimal {
	return decimal.NewFromInt(int64(credits)).Mul(decimal.NewFromInt(int64(pkrPerCredit)))
}
