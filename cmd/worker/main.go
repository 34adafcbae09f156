package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/database"
	"github.com/qs3c/photoshoot_server/internal/pkg/logger"
	"github.com/qs3c/photoshoot_server/internal/pkg/pubsub"
	"github.com/qs3c/photoshoot_server/internal/pkg/queue"
	"github.com/qs3c/photoshoot_server/internal/pkg/storage"
	"github.com/qs3c/photoshoot_server/internal/repository"
	"github.com/qs3c/photoshoot_server/internal/worker"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.NewLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// 初始化数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}
	zlog.Info("database connected", zap.String("driver", cfg.Database.Driver))
	defer func() {
		if err := database.Close(db); err != nil {
			zlog.Error("database close failed", zap.Error(err))
		}
	}()

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		zlog.Fatal("failed to connect redis", zap.Error(err))
	}
	zlog.Info("redis connected")
	defer rdb.Close()

	store, err := storage.New(cfg)
	if err != nil {
		zlog.Fatal("failed to init object store", zap.Error(err))
	}
	if store == nil {
		zlog.Info("mirror backend disabled, worker has nothing to do")
		return
	}

	// 初始化 Queue 和 Pub/Sub
	mirrorQueue := queue.NewQueue(rdb, cfg.Queue.MirrorQueue)
	publisher := pubsub.NewPublisher(rdb)

	shootRepo := repository.NewPhotoshootRepository(db)
	processor := worker.NewProcessor(shootRepo, store, publisher, cfg, zlog)
	reuploader := worker.NewReuploader(shootRepo, processor, cfg, zlog)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		zlog.Info("received shutdown signal")
		cancel()
	}()

	zlog.Info("worker started", zap.Int("max_workers", cfg.Queue.MaxWorkers))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reuploader.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		worker.Run(ctx, mirrorQueue, processor, cfg.Queue.MaxWorkers, zlog)
	}()

	wg.Wait()
	zlog.Info("worker shutdown complete")
}
