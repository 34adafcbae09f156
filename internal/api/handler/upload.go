package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
	"github.com/qs3c/photoshoot_server/internal/service"
)

type UploadHandler struct {
	uploadService *service.UploadService
	cfg           *config.Config
}

func NewUploadHandler(uploadService *service.UploadService, cfg *config.Config) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		cfg:           cfg,
	}
}

// Reference 上传参考图
// POST /api/v1/upload/reference
func (h *UploadHandler) Reference(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.ParamError(c, "请上传文件")
		return
	}
	defer file.Close()

	if h.cfg.Upload.MaxSize > 0 && header.Size > h.cfg.Upload.MaxSize {
		response.ParamError(c, "文件过大")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		response.ParamError(c, "文件读取失败")
		return
	}

	resp, err := h.uploadService.UploadReference(c.Request.Context(), header.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}
