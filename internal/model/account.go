package model

import (
	"time"
)

const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

// Account 用户积分账户，ID 即身份提供方返回的 uid
type Account struct {
	ID                    string     `gorm:"primaryKey;size:128" json:"uid"`
	Email                 string     `gorm:"size:255;index" json:"email"`
	DisplayName           string     `gorm:"size:100" json:"display_name"`
	Credits               int        `gorm:"not null;default:0" json:"credits"`
	Plan                  string     `gorm:"size:20;not null;default:free" json:"plan"`
	FirstLoginBonusUsed   bool       `gorm:"not null;default:false" json:"first_login_bonus_used"`
	CreditsFromFirstLogin int        `gorm:"not null;default:0" json:"credits_from_first_login"`
	AnonHashBeforeSignup  string     `gorm:"size:64" json:"-"` // 注册前匿名试用的客户端哈希
	LastLoginAt           *time.Time `json:"last_login_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
