package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/photoshoot_server/internal/pkg/response"
)

const (
	CredentialKey = "credential"
)

// Credential 提取 Bearer 凭据放入上下文，凭据的校验由服务层完成。
// 没有 Authorization 头的请求按匿名处理
func Credential() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == authHeader || tokenString == "" {
			response.AuthError(c, "认证格式错误")
			c.Abort()
			return
		}

		c.Set(CredentialKey, tokenString)
		c.Next()
	}
}

// RequireCredential 必须携带凭据的接口使用，需放在 Credential 之后
func RequireCredential() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetCredential(c) == "" {
			response.AuthError(c, "请提供认证信息")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCredential 从上下文获取凭据，匿名请求返回空串
func GetCredential(c *gin.Context) string {
	return c.GetString(CredentialKey)
}
