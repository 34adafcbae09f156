package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/pkg/metrics"
	"github.com/qs3c/photoshoot_server/internal/repository"
)

// Ledger 积分账本，余额只能通过这里变更
type Ledger struct {
	accountRepo *repository.AccountRepository
	logger      *zap.Logger
}

func NewLedger(accountRepo *repository.AccountRepository, logger *zap.Logger) *Ledger {
	return &Ledger{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Credit 入账并返回新余额
func (l *Ledger) Credit(ctx context.Context, accountID string, amount int, opts repository.CreditOptions) (int, error) {
	txn, err := l.accountRepo.Credit(ctx, accountID, amount, opts)
	if err != nil {
		return 0, storeError(err)
	}

	metrics.CreditsGrantedTotal.WithLabelValues(opts.Type).Add(float64(amount))
	l.logger.Info("credits added",
		zap.String("account_id", accountID),
		zap.String("type", opts.Type),
		zap.Int("amount", amount),
		zap.Int("balance_after", txn.BalanceAfter),
		zap.String("txn_id", txn.ID))
	return txn.BalanceAfter, nil
}

// Debit 扣减积分并返回新余额。同一 jobRef 只扣一次，重放返回首次扣减后的余额
func (l *Ledger) Debit(ctx context.Context, accountID string, amount int, jobRef string) (int, error) {
	txn, replayed, err := l.accountRepo.Debit(ctx, accountID, amount, jobRef)
	if err != nil {
		return 0, storeError(err)
	}

	if replayed {
		l.logger.Warn("debit replayed",
			zap.String("account_id", accountID),
			zap.String("job_ref", jobRef))
		return txn.BalanceAfter, nil
	}

	metrics.CreditsDebitedTotal.Add(float64(amount))
	l.logger.Info("credits debited",
		zap.String("account_id", accountID),
		zap.Int("amount", amount),
		zap.Int("balance_after", txn.BalanceAfter),
		zap.String("job_ref", jobRef))
	return txn.BalanceAfter, nil
}

// GrantFirstLoginBonus 发放首登奖励，重复调用不会重复发放
func (l *Ledger) GrantFirstLoginBonus(ctx context.Context, accountID string, bonus int) (*model.Account, bool, error) {
	account, granted, err := l.accountRepo.GrantFirstLoginBonus(ctx, accountID, bonus)
	if err != nil {
		return nil, false, storeError(err)
	}

	if granted {
		metrics.CreditsGrantedTotal.WithLabelValues(model.TxnTypeSignupBonus).Add(float64(bonus))
		l.logger.Info("first login bonus granted",
			zap.String("account_id", accountID),
			zap.Int("bonus", bonus))
	}
	return account, granted, nil
}

func (l *Ledger) GetBalance(ctx context.Context, accountID string) (int, error) {
	account, err := l.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, storeError(err)
	}
	return account.Credits, nil
}

func (l *Ledger) ListTransactions(ctx context.Context, accountID string, page, pageSize int) ([]*model.CreditTransaction, int64, error) {
	txns, total, err := l.accountRepo.ListTransactions(ctx, accountID, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err)
	}
	return txns, total, nil
}
