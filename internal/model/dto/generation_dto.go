package dto

import "time"

// CreateGenerationRequest 生成请求，登录用户通过 Authorization 头携带凭据
type CreateGenerationRequest struct {
	ArticleType    string   `json:"article_type" binding:"required,max=50"`
	StyleNotes     string   `json:"style_notes" binding:"max=1000"`
	ImageSize      string   `json:"image_size" binding:"omitempty,oneof=small medium large"`
	UploadedImages []string `json:"uploaded_images" binding:"required,min=1,dive,url"`
}

// GenerationResponse 生成结果
type GenerationResponse struct {
	ShootID          string   `json:"shoot_id"`
	Status           string   `json:"status"`
	Images           []string `json:"generated_images"`
	CreditsCost      int      `json:"credits_cost"`
	CreditsRemaining int      `json:"credits_remaining"`
	IsFreeTrial      bool     `json:"is_free_trial"`
}

// ShootInfo 历史生成记录
type ShootInfo struct {
	ShootID      string    `json:"shoot_id"`
	ArticleType  string    `json:"article_type"`
	StyleNotes   string    `json:"style_notes"`
	ImageSize    string    `json:"image_size"`
	Images       []string  `json:"images"`
	CreditsCost  int       `json:"credits_cost"`
	IsFreeTrial  bool      `json:"is_free_trial"`
	MirrorStatus string    `json:"mirror_status"`
	CreatedAt    time.Time `json:"created_at"`
}

// UploadResponse 参考图上传结果
type UploadResponse struct {
	URL string `json:"url"`
}
