package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/internal/pkg/queue"
)

const popTimeout = 5 * time.Second

// MessageSource 转存任务来源
type MessageSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.MirrorMessage, error)
}

// Run 启动 n 个消费协程，ctx 取消后等待全部退出
func Run(ctx context.Context, source MessageSource, processor *Processor, n int, logger *zap.Logger) {
	if n <= 0 {
		n = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consume(ctx, workerID, source, processor, logger)
		}(i)
	}
	wg.Wait()
}

func consume(ctx context.Context, workerID int, source MessageSource, processor *Processor, logger *zap.Logger) {
	log := logger.With(zap.Int("worker", workerID))
	for {
		if ctx.Err() != nil {
			log.Info("worker shutting down")
			return
		}

		msg, err := source.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("failed to pop mirror job", zap.Error(err))
			// Redis 不可用时避免空转
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if msg == nil {
			continue // 超时，继续等待
		}

		if err := processor.Process(ctx, msg); err != nil {
			log.Warn("mirror job failed", zap.String("shoot_id", msg.ShootID), zap.Error(err))
		}
	}
}
