package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/internal/pkg/logger"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
	"github.com/qs3c/photoshoot_server/internal/service"
)

// respondError 按业务错误分类返回错误码，内部错误细节只写日志
func respondError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindInvalidCredential:
		response.AuthError(c, "认证失败或已过期")
	case service.KindAccountNotFound:
		response.NotFoundError(c, "账户不存在，请先注册")
	case service.KindInsufficientBalance:
		response.InsufficientBalanceError(c, "")
	case service.KindTrialExhausted:
		response.TrialExhaustedError(c, "")
	case service.KindPaymentVerificationFailed:
		response.PaymentError(c, "")
	case service.KindDuplicatePayment:
		response.DuplicateError(c, "该笔支付已入账")
	case service.KindGenerationFailed:
		response.GenerationError(c, "")
	case service.KindShootNotFound:
		response.NotFoundError(c, "生成记录不存在")
	case service.KindInvalidRequest:
		response.ParamError(c, err.Error())
	default:
		logger.FromContext(c.Request.Context(), nil).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		response.UnavailableError(c, "")
	}
}

// pagination 解析分页参数
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
