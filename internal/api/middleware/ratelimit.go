package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
)

const rateLimitWindow = time.Minute

// RateLimit 按客户端 IP 做每分钟固定窗口限流。Redis 出错时放行
func RateLimit(client *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || cfg.RequestsPerMinute <= 0 || client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := time.Now().Unix() / int64(rateLimitWindow/time.Second)
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), window)

		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rateLimitWindow)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(cfg.RequestsPerMinute) - incr.Val()
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if incr.Val() > int64(cfg.RequestsPerMinute) {
			response.TooManyRequestsError(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}
