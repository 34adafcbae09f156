package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/photoshoot_server/internal/api/middleware"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
	"github.com/qs3c/photoshoot_server/internal/service"
)

type GenerationHandler struct {
	generationService *service.GenerationService
}

func NewGenerationHandler(generationService *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
	}
}

// Create 发起生成。带凭据按积分扣费，不带凭据走匿名试用
// POST /api/v1/generations
func (h *GenerationHandler) Create(c *gin.Context) {
	var req dto.CreateGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.generationService.CreateGeneration(c.Request.Context(), service.CreateGenerationInput{
		Credential:        middleware.GetCredential(c),
		ClientIP:          c.ClientIP(),
		ArticleType:       req.ArticleType,
		StyleNotes:        req.StyleNotes,
		ImageSize:         req.ImageSize,
		UploadedImageURLs: req.UploadedImages,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

// List 历史生成记录
// GET /api/v1/generations
func (h *GenerationHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	items, total, err := h.generationService.ListShoots(c.Request.Context(), middleware.GetCredential(c), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 生成记录详情
// GET /api/v1/generations/:id
func (h *GenerationHandler) Get(c *gin.Context) {
	resp, err := h.generationService.GetShoot(c.Request.Context(), middleware.GetCredential(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}
