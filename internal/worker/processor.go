package worker

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/pkg/metrics"
	"github.com/qs3c/photoshoot_server/internal/pkg/pubsub"
	"github.com/qs3c/photoshoot_server/internal/pkg/queue"
	"github.com/qs3c/photoshoot_server/internal/repository"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxArtifactSize     = 20 << 20
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectStore 转存目标，OSS 与 S3 实现相同签名
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// EventPublisher 转存结果通知
type EventPublisher interface {
	Publish(ctx context.Context, event *pubsub.ShootEvent) error
}

// Processor 将生成网关返回的临时图片转存到自有对象存储
type Processor struct {
	shootRepo  *repository.PhotoshootRepository
	store      ObjectStore
	publisher  EventPublisher
	httpClient *http.Client
	cfg        *config.Config
	logger     *zap.Logger
}

func NewProcessor(
	shootRepo *repository.PhotoshootRepository,
	store ObjectStore,
	publisher EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *Processor {
	timeout := cfg.Mirror.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Processor{
		shootRepo:  shootRepo,
		store:      store,
		publisher:  publisher,
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// Process 处理一条转存任务。记录不存在或已转存时直接确认
func (p *Processor) Process(ctx context.Context, msg *queue.MirrorMessage) error {
	shoot, err := p.shootRepo.GetByID(ctx, msg.ShootID)
	if errors.Is(err, repository.ErrShootNotFound) {
		p.logger.Warn("mirror target not found, dropping message", zap.String("shoot_id", msg.ShootID))
		metrics.MirrorJobsTotal.WithLabelValues("dropped").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load shoot: %w", err)
	}
	if shoot.MirrorStatus == model.MirrorStatusMirrored {
		return nil
	}

	return p.mirror(ctx, shoot)
}

func (p *Processor) mirror(ctx context.Context, shoot *model.Photoshoot) error {
	if p.store == nil {
		return p.fail(ctx, shoot, errors.New("object store not configured"))
	}

	mirrored := make([]string, 0, len(shoot.GeneratedImages))
	for i, src := range shoot.GeneratedImages {
		data, contentType, err := p.load(ctx, src)
		if err != nil {
			return p.fail(ctx, shoot, fmt.Errorf("fetch image %d: %w", i, err))
		}

		url, err := p.store.Put(ctx, MirrorKey(shoot.ID, i, src, contentType), data, contentType)
		if err != nil {
			return p.fail(ctx, shoot, fmt.Errorf("store image %d: %w", i, err))
		}
		mirrored = append(mirrored, url)
	}

	if err := p.shootRepo.MarkMirrored(ctx, shoot.ID, mirrored); err != nil {
		return fmt.Errorf("failed to mark shoot mirrored: %w", err)
	}

	metrics.MirrorJobsTotal.WithLabelValues("mirrored").Inc()
	p.logger.Info("shoot mirrored",
		zap.String("shoot_id", shoot.ID),
		zap.Int("images", len(mirrored)))

	p.publish(ctx, &pubsub.ShootEvent{
		Type:    pubsub.EventShootMirrored,
		OwnerID: shoot.OwnerID,
		ShootID: shoot.ID,
		Status:  model.MirrorStatusMirrored,
		Images:  mirrored,
	})
	return nil
}

func (p *Processor) fail(ctx context.Context, shoot *model.Photoshoot, cause error) error {
	metrics.MirrorJobsTotal.WithLabelValues("failed").Inc()
	p.logger.Warn("shoot mirror failed",
		zap.String("shoot_id", shoot.ID),
		zap.Int("attempt", shoot.MirrorAttempts+1),
		zap.Error(cause))

	if err := p.shootRepo.MarkMirrorFailed(ctx, shoot.ID, cause.Error()); err != nil {
		p.logger.Error("failed to record mirror failure", zap.String("shoot_id", shoot.ID), zap.Error(err))
	}

	p.publish(ctx, &pubsub.ShootEvent{
		Type:    pubsub.EventShootMirrorFailed,
		OwnerID: shoot.OwnerID,
		ShootID: shoot.ID,
		Status:  model.MirrorStatusFailed,
		Error:   cause.Error(),
	})
	return cause
}

func (p *Processor) publish(ctx context.Context, event *pubsub.ShootEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish shoot event",
			zap.String("shoot_id", event.ShootID),
			zap.Error(err))
	}
}

// load 网关产物可能是 URL，也可能是 data URI 或裸 base64
func (p *Processor) load(ctx context.Context, src string) ([]byte, string, error) {
	if isRemote(src) {
		return p.fetch(ctx, src)
	}
	return decodeInline(src)
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// decodeInline 解码 data:<type>;base64,<payload> 或裸 base64
func decodeInline(src string) ([]byte, string, error) {
	contentType := ""
	payload := strings.TrimSpace(src)
	if strings.HasPrefix(payload, "data:") {
		meta, body, ok := strings.Cut(strings.TrimPrefix(payload, "data:"), ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, "", errors.New("unsupported data uri")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = body
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > maxArtifactSize+2 {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxArtifactSize)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode inline image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty inline image")
	}
	if len(data) > maxArtifactSize {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxArtifactSize)
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func (p *Processor) fetch(ctx context.Context, src string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxArtifactSize {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxArtifactSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// MirrorKey 转存对象路径：shoots/<shoot_id>/<index><ext>
func MirrorKey(shootID string, index int, src, contentType string) string {
	ext := ""
	if isRemote(src) {
		ext = strings.ToLower(path.Ext(strings.SplitN(src, "?", 2)[0]))
	}
	if len(ext) < 2 || len(ext) > 5 {
		ext = ".png"
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if e, ok := imageExtensions[mediaType]; ok {
				ext = e
			}
		}
	}
	return fmt.Sprintf("shoots/%s/%d%s", shootID, index, ext)
}
