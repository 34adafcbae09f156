package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/photoshoot_server/internal/model"
)

// TestAccount 创建测试账户
func TestAccount(t *testing.T, db *gorm.DB, opts ...func(*model.Account)) *model.Account {
	t.Helper()

	uid := "uid-" + uuid.NewString()[:8]
	account := &model.Account{
		ID:          uid,
		Email:       fmt.Sprintf("%s@example.com", uid),
		DisplayName: "Test Account",
		Plan:        model.PlanFree,
	}

	for _, opt := range opts {
		opt(account)
	}

	if err := db.Create(account).Error; err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
	// Credits 为 0 时 gorm 会跳过该字段，这里显式写回
	if err := db.Model(account).Updates(map[string]interface{}{
		"credits":                account.Credits,
		"first_login_bonus_used": account.FirstLoginBonusUsed,
	}).Error; err != nil {
		t.Fatalf("Failed to set test account credits: %v", err)
	}

	return account
}

// WithUID 设置账户 uid
func WithUID(uid string) func(*model.Account) {
	return func(a *model.Account) {
		a.ID = uid
		a.Email = fmt.Sprintf("%s@example.com", uid)
	}
}

// WithCredits 设置积分余额
func WithCredits(credits int) func(*model.Account) {
	return func(a *model.Account) {
		a.Credits = credits
	}
}

// WithBonusUsed 标记首登奖励已发放
func WithBonusUsed() func(*model.Account) {
	return func(a *model.Account) {
		a.FirstLoginBonusUsed = true
	}
}

// TestTrial 创建匿名试用计数
func TestTrial(t *testing.T, db *gorm.DB, clientHash string, count int) *model.TrialCounter {
	t.Helper()

	now := time.Now()
	status := model.TrialStatusEligible
	if count >= 3 {
		status = model.TrialStatusExhausted
	}
	trial := &model.TrialCounter{
		ClientHash:        clientHash,
		GenerationCount:   count,
		FirstGenerationAt: now,
		LastGenerationAt:  now,
		Status:            status,
	}

	if err := db.Create(trial).Error; err != nil {
		t.Fatalf("Failed to create test trial: %v", err)
	}

	return trial
}

// TestPhotoshoot 创建测试生成记录
func TestPhotoshoot(t *testing.T, db *gorm.DB, ownerID string, opts ...func(*model.Photoshoot)) *model.Photoshoot {
	t.Helper()

	shoot := &model.Photoshoot{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		ArticleType:     "shirt",
		ImageSize:       "medium",
		UploadedImages:  model.StringArray{"https://cdn.example.com/ref.jpg"},
		GeneratedImages: model.StringArray{"https://gen.example.com/1.png", "https://gen.example.com/2.png"},
		CreditsCost:     1,
		Status:          model.ShootStatusCompleted,
		MirrorStatus:    model.MirrorStatusPending,
	}

	for _, opt := range opts {
		opt(shoot)
	}

	if err := db.Create(shoot).Error; err != nil {
		t.Fatalf("Failed to create test photoshoot: %v", err)
	}

	return shoot
}

// WithMirrorStatus 设置转存状态
func WithMirrorStatus(status string, attempts int) func(*model.Photoshoot) {
	return func(p *model.Photoshoot) {
		p.MirrorStatus = status
		p.MirrorAttempts = attempts
	}
}
