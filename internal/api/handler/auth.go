package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/photoshoot_server/internal/api/middleware"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
	"github.com/qs3c/photoshoot_server/internal/service"
)

type AuthHandler struct {
	accountService *service.AccountService
}

func NewAuthHandler(accountService *service.AccountService) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
	}
}

// Register 首次登录注册，重复调用不会重复发放奖励
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, err.Error())
			return
		}
	}

	resp, err := h.accountService.RegisterAccount(c.Request.Context(), middleware.GetCredential(c), service.RegisterInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if resp.Status == service.RegisterStatusCreated {
		response.SuccessWithMessage(c, "注册成功", resp)
		return
	}
	response.SuccessWithMessage(c, "欢迎回来", resp)
}

// Verify 校验凭据
// GET /api/v1/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	resp, err := h.accountService.VerifyCredential(c.Request.Context(), middleware.GetCredential(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

// Profile 获取账户资料
// GET /api/v1/user/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	resp, err := h.accountService.GetProfile(c.Request.Context(), middleware.GetCredential(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}
