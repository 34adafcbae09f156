package storage

import (
	"context"
	"fmt"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/pkg/oss"
	"github.com/qs3c/photoshoot_server/internal/pkg/s3"
)

// Store 对象存储
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// New 按 mirror.backend 选择对象存储，none 或为空时返回 nil
func New(cfg *config.Config) (Store, error) {
	switch cfg.Mirror.Backend {
	case "", "none":
		return nil, nil
	case "oss":
		client, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "s3":
		uploader, err := s3.NewUploader(cfg.S3)
		if err != nil {
			return nil, err
		}
		return uploader, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Mirror.Backend)
	}
}
