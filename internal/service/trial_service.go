package service

import (
	"context"
	"strings"
	"time"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/clientid"
	"github.com/qs3c/photoshoot_server/internal/repository"
)

// TrialStatus 匿名试用状态
type TrialStatus struct {
	Eligible  bool
	Count     int
	Limit     int
	Remaining int
	Status    string
}

type TrialService struct {
	trialRepo *repository.TrialRepository
	hasher    *clientid.Hasher
	cfg       *config.Config
}

func NewTrialService(trialRepo *repository.TrialRepository, hasher *clientid.Hasher, cfg *config.Config) *TrialService {
	return &TrialService{
		trialRepo: trialRepo,
		hasher:    hasher,
		cfg:       cfg,
	}
}

// HashClient 计算客户端标识哈希，空标识返回 ErrInvalidRequest
func (s *TrialService) HashClient(clientID string) (string, error) {
	if strings.TrimSpace(clientID) == "" {
		return "", ErrInvalidRequest
	}
	return s.hasher.Hash(clientID), nil
}

// Check 查询是否还能免费生成，没有记录视为 0 次
func (s *TrialService) Check(ctx context.Context, clientHash string) (*TrialStatus, error) {
	trial, err := s.trialRepo.Get(ctx, clientHash)
	if err != nil {
		return nil, storeError(err)
	}

	count, status := 0, model.TrialStatusEligible
	if trial != nil {
		count, status = trial.GenerationCount, trial.Status
	}
	return s.status(count, status), nil
}

// RecordUsage 记录一次成功的匿名生成
func (s *TrialService) RecordUsage(ctx context.Context, clientHash string) (*TrialStatus, error) {
	trial, err := s.trialRepo.RecordUsage(ctx, clientHash, s.cfg.Credits.FreeTrialLimit, time.Now())
	if err != nil {
		return nil, storeError(err)
	}
	return s.status(trial.GenerationCount, trial.Status), nil
}

// GetTrialStatus 按客户端标识查询试用状态
func (s *TrialService) GetTrialStatus(ctx context.Context, clientID string) (*dto.TrialStatusResponse, error) {
	hash, err := s.HashClient(clientID)
	if err != nil {
		return nil, err
	}

	st, err := s.Check(ctx, hash)
	if err != nil {
		return nil, err
	}

	return &dto.TrialStatusResponse{
		Eligible:        st.Eligible,
		GenerationsUsed: st.Count,
		Limit:           st.Limit,
		Remaining:       st.Remaining,
		Status:          st.Status,
	}, nil
}

func (s *TrialService) status(count int, status string) *TrialStatus {
	limit := s.cfg.Credits.FreeTrialLimit
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	if count >= limit {
		status = model.TrialStatusExhausted
	}
	return &TrialStatus{
		Eligible:  count < limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		Status:    status,
	}
}
