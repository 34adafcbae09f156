package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/api"
	"github.com/qs3c/photoshoot_server/internal/api/handler"
	"github.com/qs3c/photoshoot_server/internal/database"
	"github.com/qs3c/photoshoot_server/internal/pkg/clientid"
	"github.com/qs3c/photoshoot_server/internal/pkg/generator"
	"github.com/qs3c/photoshoot_server/internal/pkg/jwt"
	"github.com/qs3c/photoshoot_server/internal/pkg/logger"
	"github.com/qs3c/photoshoot_server/internal/pkg/payment"
	"github.com/qs3c/photoshoot_server/internal/pkg/pubsub"
	"github.com/qs3c/photoshoot_server/internal/pkg/queue"
	"github.com/qs3c/photoshoot_server/internal/pkg/storage"
	"github.com/qs3c/photoshoot_server/internal/pkg/ws"
	"github.com/qs3c/photoshoot_server/internal/repository"
	"github.com/qs3c/photoshoot_server/internal/service"
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
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}
	zlog.Info("database connected", zap.String("driver", cfg.Database.Driver))

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		zlog.Fatal("failed to connect redis", zap.Error(err))
	}
	zlog.Info("redis connected")

	// 对象存储（可选）
	store, err := storage.New(cfg)
	if err != nil {
		zlog.Fatal("failed to init object store", zap.Error(err))
	}
	if store == nil {
		zlog.Warn("object store disabled, uploads and mirroring are unavailable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 外部依赖
	resolver := jwt.NewResolver(cfg.JWT.Secret)
	hasher := clientid.NewHasher(cfg.Credits.ClientHashKey)
	gen := generator.New(&cfg.Generation, zlog)
	verifier := payment.New(&cfg.Payment, zlog)
	mirrorQueue := queue.NewQueue(rdb, cfg.Queue.MirrorQueue)

	// 初始化 WebSocket Hub，转存结果经 Redis 广播到各实例
	wsHub := ws.NewHub(zlog)

	// 初始化 Repository
	accountRepo := repository.NewAccountRepository(db)
	trialRepo := repository.NewTrialRepository(db)
	shootRepo := repository.NewPhotoshootRepository(db)

	// 初始化 Service
	ledger := service.NewLedger(accountRepo, zlog)
	trialService := service.NewTrialService(trialRepo, hasher, cfg)
	accountService := service.NewAccountService(accountRepo, ledger, resolver, hasher, cfg, zlog)
	purchaseService := service.NewPurchaseService(accountRepo, ledger, verifier, resolver, cfg, zlog)
	generationService := service.NewGenerationService(accountRepo, shootRepo, ledger, trialService, gen, resolver, mirrorQueue, cfg, zlog)
	uploadService := service.NewUploadService(store, cfg)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(accountService)
	creditsHandler := handler.NewCreditsHandler(accountService, purchaseService, trialService)
	generationHandler := handler.NewGenerationHandler(generationService)
	uploadHandler := handler.NewUploadHandler(uploadService, cfg)
	websocketHandler := handler.NewWebSocketHandler(wsHub, resolver, cfg.CORS.AllowedOrigins, zlog)
	healthHandler := handler.NewHealthHandler(db, rdb)

	go func() {
		err := pubsub.NewSubscriber(rdb).Subscribe(ctx, websocketHandler.Forward)
		if err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error("shoot event subscription stopped", zap.Error(err))
		}
	}()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		creditsHandler,
		generationHandler,
		uploadHandler,
		websocketHandler,
		healthHandler,
		rdb,
		zlog,
		cfg,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Setup(),
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	zlog.Info("received shutdown signal")
	cancel()

	// 生成请求最长 60s，留足时间让进行中的请求完成扣费
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Generation.Timeout+5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	rdb.Close()
	if err := database.Close(db); err != nil {
		zlog.Error("database close failed", zap.Error(err))
	}
	zlog.Info("server stopped")
}
