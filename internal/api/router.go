package api

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/api/handler"
	"github.com/qs3c/photoshoot_server/internal/api/middleware"
	"github.com/qs3c/photoshoot_server/internal/pkg/metrics"
)

type Router struct {
	authHandler       *handler.AuthHandler
	creditsHandler    *handler.CreditsHandler
	generationHandler *handler.GenerationHandler
	uploadHandler     *handler.UploadHandler
	websocketHandler  *handler.WebSocketHandler
	healthHandler     *handler.HealthHandler
	redis             *redis.Client
	logger            *zap.Logger
	cfg               *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	creditsHandler *handler.CreditsHandler,
	generationHandler *handler.GenerationHandler,
	uploadHandler *handler.UploadHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	redis *redis.Client,
	logger *zap.Logger,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:       authHandler,
		creditsHandler:    creditsHandler,
		generationHandler: generationHandler,
		uploadHandler:     uploadHandler,
		websocketHandler:  websocketHandler,
		healthHandler:     healthHandler,
		redis:             redis,
		logger:            logger,
		cfg:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.AccessLog(r.logger))
	engine.Use(metrics.Middleware())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", r.healthHandler.Check)
	engine.GET("/metrics", metrics.Handler())

	api := engine.Group("/api/v1")
	api.Use(middleware.Credential())
	{
		// WebSocket，凭据放在 query 中
		api.GET("/ws", r.websocketHandler.Handle)

		auth := api.Group("/auth")
		{
			auth.POST("/register", middleware.RequireCredential(), r.authHandler.Register)
			auth.GET("/verify", middleware.RequireCredential(), r.authHandler.Verify)
		}

		// 公开接口 - 套餐与匿名试用
		api.GET("/credits/packages", r.creditsHandler.Packages)
		api.GET("/credits/trial-status", r.creditsHandler.TrialStatus)

		// 登录与匿名均可：生成、上传参考图
		api.POST("/generations",
			middleware.RateLimit(r.redis, r.cfg.RateLimit, r.logger),
			r.generationHandler.Create)
		api.POST("/upload/reference", r.uploadHandler.Reference)

		// 需要凭据的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.RequireCredential())
		{
			authenticated.GET("/user/profile", r.authHandler.Profile)

			credits := authenticated.Group("/credits")
			{
				credits.GET("/balance", r.creditsHandler.Balance)
				credits.GET("/transactions", r.creditsHandler.Transactions)
				credits.POST("/purchase", r.creditsHandler.Purchase)
			}

			authenticated.GET("/generations", r.generationHandler.List)
			authenticated.GET("/generations/:id", r.generationHandler.Get)
		}
	}

	return engine
}
