package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	CodeSuccess             = 0
	CodeParamError          = 1000
	CodeAuthFailed          = 1001
	CodeResourceNotFound    = 1003
	CodeDuplicateAction     = 1005
	CodeInsufficientBalance = 1006
	CodeTrialExhausted      = 1007
	CodePaymentFailed       = 1008
	CodeGenerationFailed    = 1009
	CodeTooManyRequests     = 1010
	CodeServerError         = 5000
	CodeServiceUnavailable  = 5003 // 可重试
)

// 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:             "success",
	CodeParamError:          "参数错误",
	CodeAuthFailed:          "认证失败",
	CodeResourceNotFound:    "资源不存在",
	CodeDuplicateAction:     "重复操作",
	CodeInsufficientBalance: "积分不足",
	CodeTrialExhausted:      "免费试用次数已用完，请登录后继续",
	CodePaymentFailed:       "支付校验失败",
	CodeGenerationFailed:    "图片生成失败，未扣除积分",
	CodeTooManyRequests:     "请求过于频繁，请稍后再试",
	CodeServerError:         "服务器内部错误",
	CodeServiceUnavailable:  "服务暂时不可用，请稍后重试",
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PageData 分页数据结构
type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data: PageData{
			Total:    total,
			Page:     page,
			PageSize: pageSize,
			Items:    items,
		},
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorWithData 带附加数据的错误响应
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

// DuplicateError 重复操作
func DuplicateError(c *gin.Context, message string) {
	Error(c, CodeDuplicateAction, message)
}

// InsufficientBalanceError 积分不足
func InsufficientBalanceError(c *gin.Context, message string) {
	Error(c, CodeInsufficientBalance, message)
}

// TrialExhaustedError 试用次数用完
func TrialExhaustedError(c *gin.Context, message string) {
	Error(c, CodeTrialExhausted, message)
}

// PaymentError 支付校验失败
func PaymentError(c *gin.Context, message string) {
	Error(c, CodePaymentFailed, message)
}

// GenerationError 生成失败
func GenerationError(c *gin.Context, message string) {
	Error(c, CodeGenerationFailed, message)
}

// TooManyRequestsError 触发限流
func TooManyRequestsError(c *gin.Context, message string) {
	Error(c, CodeTooManyRequests, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

// UnavailableError 存储等依赖暂不可用，客户端可重试
func UnavailableError(c *gin.Context, message string) {
	Error(c, CodeServiceUnavailable, message)
}
