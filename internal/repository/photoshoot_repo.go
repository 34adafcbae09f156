package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/photoshoot_server/internal/model"
)

var ErrShootNotFound = errors.New("photoshoot not found")

type PhotoshootRepository struct {
	db *gorm.DB
}

func NewPhotoshootRepository(db *gorm.DB) *PhotoshootRepository {
	return &PhotoshootRepository{db: db}
}

func (r *PhotoshootRepository) Create(ctx context.Context, shoot *model.Photoshoot) error {
	return r.db.WithContext(ctx).Create(shoot).Error
}

func (r *PhotoshootRepository) GetByID(ctx context.Context, id string) (*model.Photoshoot, error) {
	var shoot model.Photoshoot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shoot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShootNotFound
		}
		return nil, err
	}
	return &shoot, nil
}

func (r *PhotoshootRepository) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]*model.Photoshoot, int64, error) {
	var (
		shoots []*model.Photoshoot
		total  int64
	)

	query := r.db.WithContext(ctx).Model(&model.Photoshoot{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&shoots).Error
	if err != nil {
		return nil, 0, err
	}
	return shoots, total, nil
}

// ListPendingMirror 查询待转存或转存失败且未超过重试次数的记录
func (r *PhotoshootRepository) ListPendingMirror(ctx context.Context, maxAttempts, limit int) ([]*model.Photoshoot, error) {
	var shoots []*model.Photoshoot
	err := r.db.WithContext(ctx).
		Where("mirror_status IN ?", []string{model.MirrorStatusPending, model.MirrorStatusFailed}).
		Where("mirror_attempts < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&shoots).Error
	return shoots, err
}

// MarkMirrored 记录转存成功
func (r *PhotoshootRepository) MarkMirrored(ctx context.Context, id string, images []string) error {
	return r.db.WithContext(ctx).Model(&model.Photoshoot{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"mirror_status":   model.MirrorStatusMirrored,
			"mirrored_images": model.StringArray(images),
			"mirror_attempts": gorm.Expr("mirror_attempts + 1"),
			"mirror_error":    "",
		}).Error
}

// MarkMirrorFailed 记录一次转存失败
func (r *PhotoshootRepository) MarkMirrorFailed(ctx context.Context, id string, reason string) error {
	return r.db.WithContext(ctx).Model(&model.Photoshoot{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"mirror_status":   model.MirrorStatusFailed,
			"mirror_attempts": gorm.Expr("mirror_attempts + 1"),
			"mirror_error":    reason,
		}).Error
}
