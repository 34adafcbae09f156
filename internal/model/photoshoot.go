package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringArray 用于 JSON 数组字段
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = []string{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return nil
	}
}

const (
	ShootStatusCompleted = "completed"

	MirrorStatusPending  = "pending"
	MirrorStatusMirrored = "mirrored"
	MirrorStatusFailed   = "failed"
	MirrorStatusDisabled = "disabled"
)

// Photoshoot 一次成功的生成任务记录
type Photoshoot struct {
	ID              string      `gorm:"primaryKey;size:64" json:"shoot_id"`
	OwnerID         string      `gorm:"size:128;not null;index" json:"owner_id"` // 账户 uid 或 anon-<hash>
	ArticleType     string      `gorm:"size:50;not null" json:"article_type"`
	StyleNotes      string      `gorm:"type:text" json:"style_notes"`
	ImageSize       string      `gorm:"size:20;not null" json:"image_size"`
	UploadedImages  StringArray `gorm:"type:json" json:"uploaded_images"`
	GeneratedImages StringArray `gorm:"type:json" json:"generated_images"`
	CreditsCost     int         `gorm:"not null;default:0" json:"credits_cost"`
	IsFreeTrial     bool        `gorm:"not null;default:false" json:"is_free_trial"`
	Status          string      `gorm:"size:20;not null;default:completed" json:"status"`
	MirrorStatus    string      `gorm:"size:20;not null;default:pending;index" json:"mirror_status"`
	MirroredImages  StringArray `gorm:"type:json" json:"mirrored_images,omitempty"`
	MirrorAttempts  int         `gorm:"not null;default:0" json:"-"`
	MirrorError     string      `gorm:"type:text" json:"-"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (Photoshoot) TableName() string {
	return "photoshoots"
}

// Images 优先返回已转存的图片地址
func (p *Photoshoot) Images() []string {
	if p.MirrorStatus == MirrorStatusMirrored && len(p.MirroredImages) > 0 {
		return p.MirroredImages
	}
	return p.GeneratedImages
}
