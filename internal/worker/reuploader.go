package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/repository"
)

const (
	defaultSweepInterval = 5 * time.Minute
	defaultMaxAttempts   = 5
	sweepBatchSize       = 50
)

// Reuploader 定期补偿转存：队列消息丢失或转存失败的记录在这里重试
type Reuploader struct {
	shootRepo *repository.PhotoshootRepository
	processor *Processor
	cfg       *config.Config
	logger    *zap.Logger
}

func NewReuploader(
	shootRepo *repository.PhotoshootRepository,
	processor *Processor,
	cfg *config.Config,
	logger *zap.Logger,
) *Reuploader {
	return &Reuploader{
		shootRepo: shootRepo,
		processor: processor,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start 启动后台补偿循环
func (r *Reuploader) Start(ctx context.Context) {
	// 启动后先执行一次
	r.Sweep(ctx)

	interval := r.cfg.Mirror.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reuploader stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep 处理一批待转存记录，返回成功数量
func (r *Reuploader) Sweep(ctx context.Context) int {
	maxAttempts := r.cfg.Mirror.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	shoots, err := r.shootRepo.ListPendingMirror(ctx, maxAttempts, sweepBatchSize)
	if err != nil {
		r.logger.Error("failed to query pending mirrors", zap.Error(err))
		return 0
	}
	if len(shoots) == 0 {
		return 0
	}

	r.logger.Info("re-mirroring shoots", zap.Int("count", len(shoots)))

	mirrored := 0
	for _, shoot := range shoots {
		if ctx.Err() != nil {
			break
		}
		if err := r.processor.mirror(ctx, shoot); err != nil {
			continue
		}
		mirrored++
	}
	return mirrored
}
