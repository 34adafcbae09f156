package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/photoshoot_server/internal/api/middleware"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
	"github.com/qs3c/photoshoot_server/internal/service"
)

type CreditsHandler struct {
	accountService  *service.AccountService
	purchaseService *service.PurchaseService
	trialService    *service.TrialService
}

func NewCreditsHandler(
	accountService *service.AccountService,
	purchaseService *service.PurchaseService,
	trialService *service.TrialService,
) *CreditsHandler {
	return &CreditsHandler{
		accountService:  accountService,
		purchaseService: purchaseService,
		trialService:    trialService,
	}
}

// Balance 查询积分余额
// GET /api/v1/credits/balance
func (h *CreditsHandler) Balance(c *gin.Context) {
	resp, err := h.accountService.GetBalance(c.Request.Context(), middleware.GetCredential(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

// Transactions 积分流水
// GET /api/v1/credits/transactions
func (h *CreditsHandler) Transactions(c *gin.Context) {
	page, pageSize := pagination(c)

	items, total, err := h.accountService.ListTransactions(c.Request.Context(), middleware.GetCredential(c), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Purchase 购买积分
// POST /api/v1/credits/purchase
func (h *CreditsHandler) Purchase(c *gin.Context) {
	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.purchaseService.PurchaseCredits(c.Request.Context(), middleware.GetCredential(c), service.PurchaseInput{
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		AmountPKR:     req.AmountPKR,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, resp.Message, resp)
}

// Packages 积分套餐
// GET /api/v1/credits/packages
func (h *CreditsHandler) Packages(c *gin.Context) {
	response.Success(c, h.purchaseService.Packages())
}

// TrialStatus 匿名试用状态
// GET /api/v1/credits/trial-status
func (h *CreditsHandler) TrialStatus(c *gin.Context) {
	resp, err := h.trialService.GetTrialStatus(c.Request.Context(), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}
