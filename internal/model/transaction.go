package model

import (
	"fmt"
	"time"

	"go.jetify.com/typeid/v2"
	"gorm.io/gorm"
)

const (
	TxnTypeSignupBonus     = "signup_bonus"
	TxnTypeGenerationDebit = "generation_debit"
	TxnTypePurchaseCredit  = "purchase_credit"

	TxnStatusCompleted = "completed"

	txnIDPrefix = "txn"
)

// CreditTransaction 积分流水，只追加不修改
type CreditTransaction struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	AccountID     string    `gorm:"size:128;not null;index" json:"account_id"`
	Type          string    `gorm:"size:32;not null" json:"type"`
	Amount        int       `gorm:"not null" json:"amount"` // 扣减为负数
	BalanceAfter  int       `gorm:"not null" json:"balance_after"`
	JobRef        *string   `gorm:"size:64;uniqueIndex" json:"job_ref,omitempty"`
	PaymentRef    *string   `gorm:"size:160;uniqueIndex" json:"payment_ref,omitempty"` // gateway:transaction_id
	PaymentMethod string    `gorm:"size:20" json:"payment_method,omitempty"`
	Status        string    `gorm:"size:20;not null;default:completed" json:"status"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// BeforeCreate 生成 txn_ 前缀的 TypeID
func (t *CreditTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TxnStatusCompleted
	}
	if t.ID != "" {
		return nil
	}
	tid, err := typeid.Generate(txnIDPrefix)
	if err != nil {
		return fmt.Errorf("failed to generate transaction id: %w", err)
	}
	t.ID = tid.String()
	return nil
}
