package service

import (
	"errors"
	"fmt"

	"github.com/qs3c/photoshoot_server/internal/repository"
)

var (
	ErrInvalidCredential         = errors.New("登录凭据无效")
	ErrAccountNotFound           = errors.New("账户不存在")
	ErrInsufficientBalance       = errors.New("积分不足")
	ErrTrialExhausted            = errors.New("免费试用次数已用完")
	ErrPaymentVerificationFailed = errors.New("支付校验失败")
	ErrDuplicatePayment          = errors.New("该笔支付已入账")
	ErrGenerationFailed          = errors.New("图片生成失败")
	ErrShootNotFound             = errors.New("生成记录不存在")
	ErrStoreUnavailable          = errors.New("存储暂不可用")
	ErrInvalidRequest            = errors.New("请求参数错误")
)

// ErrorKind 业务错误分类，处理层按分类返回不同错误码
type ErrorKind int

const (
	KindStoreUnavailable ErrorKind = iota
	KindInvalidCredential
	KindAccountNotFound
	KindInsufficientBalance
	KindTrialExhausted
	KindPaymentVerificationFailed
	KindDuplicatePayment
	KindGenerationFailed
	KindShootNotFound
	KindInvalidRequest
)

var kindNames = map[ErrorKind]string{
	KindStoreUnavailable:          "store_unavailable",
	KindInvalidCredential:         "invalid_credential",
	KindAccountNotFound:           "account_not_found",
	KindInsufficientBalance:       "insufficient_balance",
	KindTrialExhausted:            "trial_exhausted",
	KindPaymentVerificationFailed: "payment_verification_failed",
	KindDuplicatePayment:          "duplicate_payment",
	KindGenerationFailed:          "generation_failed",
	KindShootNotFound:             "shoot_not_found",
	KindInvalidRequest:            "invalid_request",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindOf 对错误分类，无法识别的错误一律视为存储不可用
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return KindInvalidCredential
	case errors.Is(err, ErrAccountNotFound):
		return KindAccountNotFound
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrTrialExhausted):
		return KindTrialExhausted
	case errors.Is(err, ErrPaymentVerificationFailed):
		return KindPaymentVerificationFailed
	case errors.Is(err, ErrDuplicatePayment):
		return KindDuplicatePayment
	case errors.Is(err, ErrGenerationFailed):
		return KindGenerationFailed
	case errors.Is(err, ErrShootNotFound):
		return KindShootNotFound
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindStoreUnavailable
	}
}

// Retryable 只有存储不可用可以原样重试
func Retryable(err error) bool {
	return err != nil && KindOf(err) == KindStoreUnavailable
}

// storeError 将仓储层错误转换为业务错误
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repository.ErrInsufficientCredits):
		return ErrInsufficientBalance
	case errors.Is(err, repository.ErrDuplicatePayment):
		return ErrDuplicatePayment
	case errors.Is(err, repository.ErrShootNotFound):
		return ErrShootNotFound
	case errors.Is(err, repository.ErrInvalidAmount), errors.Is(err, repository.ErrJobRefConflict):
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
