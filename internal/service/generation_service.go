package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/model/dto"
	"github.com/qs3c/photoshoot_server/internal/pkg/clientid"
	"github.com/qs3c/photoshoot_server/internal/pkg/generator"
	"github.com/qs3c/photoshoot_server/internal/pkg/metrics"
	"github.com/qs3c/photoshoot_server/internal/pkg/queue"
	"github.com/qs3c/photoshoot_server/internal/repository"
)

const (
	defaultGenerationTimeout = 60 * time.Second
	defaultPaymentTimeout    = 30 * time.Second

	modeAuthenticated = "authenticated"
	modeAnonymous     = "anonymous"
)

// MirrorQueue 生成产物转存队列
type MirrorQueue interface {
	Push(ctx context.Context, msg *queue.MirrorMessage) error
}

// CreateGenerationInput 生成请求。Credential 为空时按匿名试用处理
type CreateGenerationInput struct {
	Credential        string
	ClientIP          string
	ArticleType       string
	StyleNotes        string
	ImageSize         string
	UploadedImageURLs []string
}

type GenerationService struct {
	accountRepo *repository.AccountRepository
	shootRepo   *repository.PhotoshootRepository
	ledger      *Ledger
	trials      *TrialService
	generator   generator.Generator
	resolver    IdentityResolver
	mirrorQueue MirrorQueue
	cfg         *config.Config
	logger      *zap.Logger
}

func NewGenerationService(
	accountRepo *repository.AccountRepository,
	shootRepo *repository.PhotoshootRepository,
	ledger *Ledger,
	trials *TrialService,
	gen generator.Generator,
	resolver IdentityResolver,
	mirrorQueue MirrorQueue,
	cfg *config.Config,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		accountRepo: accountRepo,
		shootRepo:   shootRepo,
		ledger:      ledger,
		trials:      trials,
		generator:   gen,
		resolver:    resolver,
		mirrorQueue: mirrorQueue,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateGeneration 登录用户先查余额、生成成功后扣费；匿名用户先查试用资格、生成成功后计数。
// 生成失败时不扣费也不计数
func (s *GenerationService) CreateGeneration(ctx context.Context, input CreateGenerationInput) (*dto.GenerationResponse, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Credential) != "" {
		return s.createAuthenticated(ctx, input)
	}
	return s.createAnonymous(ctx, input)
}

func (s *GenerationService) createAuthenticated(ctx context.Context, input CreateGenerationInput) (*dto.GenerationResponse, error) {
	identity, err := resolveIdentity(ctx, s.resolver, input.Credential)
	if err != nil {
		return nil, s.fail(modeAuthenticated, err)
	}

	account, err := s.accountRepo.GetByID(ctx, identity.UID)
	if err != nil {
		return nil, s.fail(modeAuthenticated, storeError(err))
	}

	cost := s.cfg.Credits.GenerationCost
	if account.Credits < cost {
		return nil, s.fail(modeAuthenticated, ErrInsufficientBalance)
	}

	jobID := uuid.NewString()
	result, err := s.generate(ctx, input)
	if err != nil {
		s.logger.Warn("generation failed",
			zap.String("account_id", account.ID),
			zap.String("job_id", jobID),
			zap.Error(err))
		return nil, s.fail(modeAuthenticated, err)
	}

	// 余额可能在生成期间被并发请求用掉，此时产物作废
	balance, err := s.ledger.Debit(ctx, account.ID, cost, jobID)
	if err != nil {
		s.logger.Error("debit after generation failed, artifact discarded",
			zap.String("account_id", account.ID),
			zap.String("job_id", jobID),
			zap.Error(err))
		return nil, s.fail(modeAuthenticated, err)
	}

	shoot := s.saveShoot(ctx, jobID, account.ID, input, result.Images, cost, false)
	metrics.GenerationsTotal.WithLabelValues(modeAuthenticated, "success").Inc()

	return &dto.GenerationResponse{
		ShootID:          shoot.ID,
		Status:           model.ShootStatusCompleted,
		Images:           result.Images,
		CreditsCost:      cost,
		CreditsRemaining: balance,
		IsFreeTrial:      false,
	}, nil
}

func (s *GenerationService) createAnonymous(ctx context.Context, input CreateGenerationInput) (*dto.GenerationResponse, error) {
	clientHash, err := s.trials.HashClient(input.ClientIP)
	if err != nil {
		return nil, s.fail(modeAnonymous, err)
	}

	status, err := s.trials.Check(ctx, clientHash)
	if err != nil {
		return nil, s.fail(modeAnonymous, err)
	}
	if !status.Eligible {
		return nil, s.fail(modeAnonymous, ErrTrialExhausted)
	}

	jobID := uuid.NewString()
	result, err := s.generate(ctx, input)
	if err != nil {
		s.logger.Warn("anonymous generation failed",
			zap.String("client_hash", clientHash),
			zap.String("job_id", jobID),
			zap.Error(err))
		return nil, s.fail(modeAnonymous, err)
	}

	status, err = s.trials.RecordUsage(ctx, clientHash)
	if err != nil {
		s.logger.Error("failed to record trial usage",
			zap.String("client_hash", clientHash),
			zap.String("job_id", jobID),
			zap.Error(err))
		return nil, s.fail(modeAnonymous, err)
	}

	shoot := s.saveShoot(ctx, jobID, clientid.AnonOwnerID(clientHash), input, result.Images, 0, true)
	metrics.GenerationsTotal.WithLabelValues(modeAnonymous, "success").Inc()

	return &dto.GenerationResponse{
		ShootID:          shoot.ID,
		Status:           model.ShootStatusCompleted,
		Images:           result.Images,
		CreditsCost:      0,
		CreditsRemaining: status.Remaining,
		IsFreeTrial:      true,
	}, nil
}

func (s *GenerationService) validate(input *CreateGenerationInput) error {
	input.ArticleType = strings.TrimSpace(input.ArticleType)
	if input.ArticleType == "" {
		return fmt.Errorf("%w: article type is required", ErrInvalidRequest)
	}
	if len(input.UploadedImageURLs) == 0 {
		return fmt.Errorf("%w: at least one reference image is required", ErrInvalidRequest)
	}
	if limit := s.cfg.Upload.MaxImages; limit > 0 && len(input.UploadedImageURLs) > limit {
		return fmt.Errorf("%w: at most %d reference images", ErrInvalidRequest, limit)
	}
	input.ImageSize = generator.NormalizeSize(input.ImageSize)
	return nil
}

func (s *GenerationService) generate(ctx context.Context, input CreateGenerationInput) (*generator.Result, error) {
	gctx, cancel := withTimeout(ctx, s.cfg.Generation.Timeout, defaultGenerationTimeout)
	defer cancel()

	result, err := s.generator.Generate(gctx, &generator.Request{
		ReferenceImages: input.UploadedImageURLs,
		ArticleType:     input.ArticleType,
		StyleNotes:      input.StyleNotes,
		Size:            input.ImageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(result.Images) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, generator.ErrNoImages)
	}
	return result, nil
}

// saveShoot 记录生成结果并投递转存任务。扣费已完成，这里的失败只记日志
func (s *GenerationService) saveShoot(ctx context.Context, jobID, ownerID string, input CreateGenerationInput, images []string, cost int, trial bool) *model.Photoshoot {
	shoot := &model.Photoshoot{
		ID:              jobID,
		OwnerID:         ownerID,
		ArticleType:     input.ArticleType,
		StyleNotes:      input.StyleNotes,
		ImageSize:       input.ImageSize,
		UploadedImages:  input.UploadedImageURLs,
		GeneratedImages: images,
		CreditsCost:     cost,
		IsFreeTrial:     trial,
		Status:          model.ShootStatusCompleted,
		MirrorStatus:    model.MirrorStatusPending,
	}
	if !s.mirrorEnabled() {
		shoot.MirrorStatus = model.MirrorStatusDisabled
	}

	if err := s.shootRepo.Create(ctx, shoot); err != nil {
		s.logger.Error("failed to save photoshoot",
			zap.String("job_id", jobID),
			zap.String("owner_id", ownerID),
			zap.Error(err))
		return shoot
	}

	if !s.mirrorEnabled() {
		return shoot
	}
	err := s.mirrorQueue.Push(ctx, &queue.MirrorMessage{
		ShootID:   shoot.ID,
		OwnerID:   ownerID,
		Images:    images,
		CreatedAt: time.Now(),
	})
	if err != nil {
		// 队列不可用时由 worker 的定时扫描兜底
		s.logger.Warn("failed to enqueue mirror job", zap.String("job_id", jobID), zap.Error(err))
	}
	return shoot
}

func (s *GenerationService) mirrorEnabled() bool {
	return s.mirrorQueue != nil && s.cfg.Mirror.Backend != "" && s.cfg.Mirror.Backend != "none"
}

func (s *GenerationService) fail(mode string, err error) error {
	metrics.GenerationsTotal.WithLabelValues(mode, KindOf(err).String()).Inc()
	return err
}

// ListShoots 分页查询当前账户的生成记录
func (s *GenerationService) ListShoots(ctx context.Context, credential string, page, pageSize int) ([]dto.ShootInfo, int64, error) {
	identity, err := resolveIdentity(ctx, s.resolver, credential)
	if err != nil {
		return nil, 0, err
	}

	shoots, total, err := s.shootRepo.ListByOwner(ctx, identity.UID, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err)
	}

	items := make([]dto.ShootInfo, 0, len(shoots))
	for _, shoot := range shoots {
		items = append(items, *toShootInfo(shoot))
	}
	return items, total, nil
}

// GetShoot 获取单条生成记录，只能查看自己的
func (s *GenerationService) GetShoot(ctx context.Context, credential, shootID string) (*dto.ShootInfo, error) {
	identity, err := resolveIdentity(ctx, s.resolver, credential)
	if err != nil {
		return nil, err
	}

	shoot, err := s.shootRepo.GetByID(ctx, shootID)
	if err != nil {
		return nil, storeError(err)
	}
	if shoot.OwnerID != identity.UID {
		return nil, ErrShootNotFound
	}
	return toShootInfo(shoot), nil
}

func toShootInfo(shoot *model.Photoshoot) *dto.ShootInfo {
	return &dto.ShootInfo{
		ShootID:      shoot.ID,
		ArticleType:  shoot.ArticleType,
		StyleNotes:   shoot.StyleNotes,
		ImageSize:    shoot.ImageSize,
		Images:       shoot.Images(),
		CreditsCost:  shoot.CreditsCost,
		IsFreeTrial:  shoot.IsFreeTrial,
		MirrorStatus: shoot.MirrorStatus,
		CreatedAt:    shoot.CreatedAt,
	}
}

func withTimeout(ctx context.Context, d, fallback time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = fallback
	}
	return context.WithTimeout(ctx, d)
}
