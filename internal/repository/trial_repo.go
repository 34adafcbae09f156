package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/photoshoot_server/internal/model"
)

type TrialRepository struct {
	db *gorm.DB
}

func NewTrialRepository(db *gorm.DB) *TrialRepository {
	return &TrialRepository{db: db}
}

// Get 查询试用计数，不存在时返回 nil
func (r *TrialRepository) Get(ctx context.Context, clientHash string) (*model.TrialCounter, error) {
	var trial model.TrialCounter
	err := r.db.WithContext(ctx).Where("client_hash = ?", clientHash).First(&trial).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trial, nil
}

// RecordUsage 计数加一并返回最新记录。计数达到 limit 时标记为 exhausted，且不会回退
func (r *TrialRepository) RecordUsage(ctx context.Context, clientHash string, limit int, now time.Time) (*model.TrialCounter, error) {
	var trial model.TrialCounter
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(trialUpsert(now)).Create(newTrialCounter(clientHash, now)).Error
		if err != nil {
			return err
		}

		if err := tx.Where("client_hash = ?", clientHash).First(&trial).Error; err != nil {
			return err
		}

		if trial.GenerationCount >= limit && trial.Status != model.TrialStatusExhausted {
			trial.Status = model.TrialStatusExhausted
			return tx.Model(&model.TrialCounter{}).Where("client_hash = ?", clientHash).
				Update("status", model.TrialStatusExhausted).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &trial, nil
}

// trialUpsert 冲突时在原计数上加一。右侧列必须带表名，
// 否则 postgres 无法区分目标行与 excluded 中的同名列
func trialUpsert(now time.Time) clause.OnConflict {
	counter := clause.Column{Table: clause.CurrentTable, Name: "generation_count"}
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "client_hash"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"generation_count":   gorm.Expr("? + 1", counter),
			"last_generation_at": now,
		}),
	}
}

func newTrialCounter(clientHash string, now time.Time) *model.TrialCounter {
	return &model.TrialCounter{
		ClientHash:        clientHash,
		GenerationCount:   1,
		FirstGenerationAt: now,
		LastGenerationAt:  now,
		Status:            model.TrialStatusEligible,
	}
}
