package dto

import "time"

// RegisterRequest 首次登录注册请求，凭据放在 Authorization 头
type RegisterRequest struct {
	Email       string `json:"email" binding:"omitempty,email"`
	DisplayName string `json:"display_name" binding:"max=100"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	Status       string `json:"status"` // user_created, user_exists
	UID          string `json:"uid"`
	Credits      int    `json:"credits"`
	BonusGranted int    `json:"bonus_granted"`
}

// BalanceResponse 积分余额
type BalanceResponse struct {
	UID                   string `json:"uid"`
	Credits               int    `json:"credits"`
	Plan                  string `json:"plan"`
	FirstLoginBonusUsed   bool   `json:"first_login_bonus_used"`
	CreditsFromFirstLogin int    `json:"credits_from_first_login"`
}

// ProfileResponse 用户资料
type ProfileResponse struct {
	UID                 string     `json:"uid"`
	Email               string     `json:"email"`
	DisplayName         string     `json:"display_name"`
	Credits             int        `json:"credits"`
	Plan                string     `json:"plan"`
	FirstLoginBonusUsed bool       `json:"first_login_bonus_used"`
	CreatedAt           time.Time  `json:"created_at"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

// VerifyResponse 凭据校验结果
type VerifyResponse struct {
	Valid       bool   `json:"valid"`
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// TransactionItem 积分流水
type TransactionItem struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        int       `json:"amount"`
	BalanceAfter  int       `json:"balance_after"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
