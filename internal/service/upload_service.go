package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/oss"
)

var (
	ErrFileTooLarge     = errors.New("文件过大")
	ErrInvalidFormat    = errors.New("不支持的图片格式")
	ErrStoreNotDeployed = errors.New("未配置对象存储")
)

// ObjectStore 对象存储，OSS 与 S3 实现相同签名
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type UploadService struct {
	store ObjectStore
	cfg   *config.Config
}

func NewUploadService(store ObjectStore, cfg *config.Config) *UploadService {
	return &UploadService{store: store, cfg: cfg}
}

// UploadReference 上传参考图，返回可供生成服务读取的 URL
func (s *UploadService) UploadReference(ctx context.Context, filename string, data []byte) (*dto.UploadResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidRequest)
	}
	if s.cfg.Upload.MaxSize > 0 && int64(len(data)) > s.cfg.Upload.MaxSize {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, ErrFileTooLarge)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowed(ext) {
		return nil, fmt.Errorf("%w: %v %q", ErrInvalidRequest, ErrInvalidFormat, ext)
	}

	if s.store == nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, ErrStoreNotDeployed)
	}

	key := ReferenceKey(time.Now(), uuid.NewString(), ext)
	url, err := s.store.Put(ctx, key, data, oss.ContentType(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &dto.UploadResponse{URL: url}, nil
}

func (s *UploadService) allowed(ext string) bool {
	if len(s.cfg.Upload.AllowedExtensions) == 0 {
		return ext != ""
	}
	for _, e := range s.cfg.Upload.AllowedExtensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// ReferenceKey 参考图对象路径：references/2006/01/02/<id><ext>
func ReferenceKey(now time.Time, id, ext string) string {
	return path.Join("references", now.Format("2006/01/02"), id+ext)
}
