package model

import (
	"time"
)

const (
	TrialStatusEligible  = "eligible"
	TrialStatusExhausted = "exhausted"
)

// TrialCounter 匿名试用计数，只保存客户端标识的哈希
type TrialCounter struct {
	ClientHash        string    `gorm:"primaryKey;size:64" json:"client_hash"`
	GenerationCount   int       `gorm:"not null;default:0" json:"generation_count"`
	FirstGenerationAt time.Time `json:"first_generation_at"`
	LastGenerationAt  time.Time `json:"last_generation_at"`
	Status            string    `gorm:"size:20;not null;default:eligible" json:"status"`
}

func (TrialCounter) TableName() string {
	return "anon_trials"
}
