package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/photoshoot_server/internal/model"
)

// AccountRepository 账户与积分流水。所有余额变更与流水写入在同一个事务内完成
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreditOptions 入账附加信息
type CreditOptions struct {
	Type          string
	PaymentRef    string
	PaymentMethod string
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CreateIfAbsent 账户不存在时创建，返回是否新建
func (r *AccountRepository) CreateIfAbsent(ctx context.Context, account *model.Account) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(account)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *AccountRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).
		Update("last_login_at", at).Error
}

// GrantFirstLoginBonus 发放首登奖励，只在 first_login_bonus_used 为 false 时生效
func (r *AccountRepository) GrantFirstLoginBonus(ctx context.Context, id string, bonus int) (*model.Account, bool, error) {
	var (
		account model.Account
		granted bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Account{}).
			Where("id = ? AND first_login_bonus_used = ?", id, false).
			Updates(map[string]interface{}{
				"credits":                  gorm.Expr("credits + ?", bonus),
				"first_login_bonus_used":   true,
				"credits_from_first_login": bonus,
			})
		if result.Error != nil {
			return result.Error
		}

		if err := tx.Where("id = ?", id).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if result.RowsAffected == 0 {
			return nil
		}
		granted = true

		return tx.Create(&model.CreditTransaction{
			AccountID:    id,
			Type:         model.TxnTypeSignupBonus,
			Amount:       bonus,
			BalanceAfter: account.Credits,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &account, granted, nil
}

// Credit 入账。PaymentRef 非空时同一笔支付只能入账一次
func (r *AccountRepository) Credit(ctx context.Context, id string, amount int, opts CreditOptions) (*model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var txn *model.CreditTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.PaymentRef != "" {
			var count int64
			if err := tx.Model(&model.CreditTransaction{}).
				Where("payment_ref = ?", opts.PaymentRef).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrDuplicatePayment
			}
		}

		result := tx.Model(&model.Account{}).Where("id = ?", id).
			Update("credits", gorm.Expr("credits + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAccountNotFound
		}

		balance, err := readBalance(tx, id)
		if err != nil {
			return err
		}

		txn = &model.CreditTransaction{
			AccountID:     id,
			Type:          opts.Type,
			Amount:        amount,
			BalanceAfter:  balance,
			PaymentMethod: opts.PaymentMethod,
		}
		if opts.PaymentRef != "" {
			ref := opts.PaymentRef
			txn.PaymentRef = &ref
		}
		if err := tx.Create(txn).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePayment
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Debit 扣减积分。同一账户重放 jobRef 时返回首次扣减的流水，replayed 为 true；
// jobRef 已属于其他账户时返回 ErrJobRefConflict
func (r *AccountRepository) Debit(ctx context.Context, id string, amount int, jobRef string) (txn *model.CreditTransaction, replayed bool, err error) {
	if amount <= 0 {
		return nil, false, ErrInvalidAmount
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByJobRef(tx, jobRef)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.AccountID != id {
				return ErrJobRefConflict
			}
			txn, replayed = existing, true
			return nil
		}

		result := tx.Model(&model.Account{}).
			Where("id = ? AND credits >= ?", id, amount).
			Update("credits", gorm.Expr("credits - ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrAccountNotFound
			}
			return ErrInsufficientCredits
		}

		balance, err := readBalance(tx, id)
		if err != nil {
			return err
		}

		ref := jobRef
		txn = &model.CreditTransaction{
			AccountID:    id,
			Type:         model.TxnTypeGenerationDebit,
			Amount:       -amount,
			BalanceAfter: balance,
			JobRef:       &ref,
		}
		return tx.Create(txn).Error
	})

	// 并发重放时另一个事务先提交了同一 jobRef，本事务已回滚
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := findByJobRef(r.db.WithContext(ctx), jobRef)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing != nil {
			if existing.AccountID != id {
				return nil, false, ErrJobRefConflict
			}
			return existing, true, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	return txn, replayed, nil
}

// ListTransactions 按时间倒序分页查询流水
func (r *AccountRepository) ListTransactions(ctx context.Context, id string, page, pageSize int) ([]*model.CreditTransaction, int64, error) {
	var (
		txns  []*model.CreditTransaction
		total int64
	)

	query := r.db.WithContext(ctx).Model(&model.CreditTransaction{}).Where("account_id = ?", id)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(pageSize).Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func readBalance(tx *gorm.DB, id string) (int, error) {
	var account model.Account
	if err := tx.Select("credits").Where("id = ?", id).First(&account).Error; err != nil {
		return 0, err
	}
	return account.Credits, nil
}

func findByJobRef(tx *gorm.DB, jobRef string) (*model.CreditTransaction, error) {
	var txn model.CreditTransaction
	err := tx.Where("job_ref = ?", jobRef).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
