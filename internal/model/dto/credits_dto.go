package dto

import "github.com/shopspring/decimal"

// PurchaseRequest 购买积分请求
type PurchaseRequest struct {
	PaymentMethod string          `json:"payment_method" binding:"required"`
	TransactionID string          `json:"transaction_id" binding:"required,max=100"`
	AmountPKR     decimal.Decimal `json:"amount_pkr"`
	PhoneNumber   string          `json:"phone_number" binding:"max=20"`
}

// PurchaseResponse 购买积分响应
type PurchaseResponse struct {
	CreditsAdded  int    `json:"credits_added"`
	NewBalance    int    `json:"new_balance"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// PackageInfo 积分套餐
type PackageInfo struct {
	ID       string `json:"id"`
	Credits  int    `json:"credits"`
	PricePKR string `json:"price_pkr"`
	Featured bool   `json:"featured"`
}

// TrialStatusResponse 匿名试用状态
type TrialStatusResponse struct {
	Eligible        bool   `json:"eligible"`
	GenerationsUsed int    `json:"generations_used"`
	Limit           int    `json:"limit"`
	Remaining       int    `json:"remaining"`
	Status          string `json:"status"`
}
