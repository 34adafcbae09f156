package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
	"github.com/qs3c/photoshoot_server/internal/pkg/metrics"
)

const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"

	defaultNumOutputs = 3
)

var ErrNoImages = errors.New("no images generated")

var sizeDimensions = map[string][2]int{
	SizeSmall:  {512, 512},
	SizeMedium: {768, 768},
	SizeLarge:  {1024, 1024},
}

// Request 生成请求
type Request struct {
	ReferenceImages []string
	ArticleType     string
	StyleNotes      string
	Size            string
}

// Result 生成结果，Images 为产物地址
type Result struct {
	Images  []string
	Message string
}

// Generator 图片生成策略
type Generator interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// Dimensions 尺寸标签对应的像素，未知标签按 medium 处理
func Dimensions(size string) (int, int) {
	d, ok := sizeDimensions[size]
	if !ok {
		d = sizeDimensions[SizeMedium]
	}
	return d[0], d[1]
}

// NormalizeSize 未知或空尺寸归一为 medium
func NormalizeSize(size string) string {
	if _, ok := sizeDimensions[size]; ok {
		return size
	}
	return SizeMedium
}

// BuildPrompt 拼装商品摄影提示词
func BuildPrompt(req *Request) string {
	style := strings.TrimSpace(req.StyleNotes)
	if style == "" {
		style = "modern, professional"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "High-quality fashion photoshoot of a %s.\n", req.ArticleType)
	b.WriteString("Professional studio lighting, clean white background, premium fashion photography.\n")
	fmt.Fprintf(&b, "Article type: %s\n", req.ArticleType)
	fmt.Fprintf(&b, "Style: %s\n\n", style)
	b.WriteString("Generate multiple angles and shots:\n")
	b.WriteString("- Front-facing shot\n- Side profile\n- Back view (if applicable)\n\n")
	b.WriteString("Lighting: Professional studio with soft diffused lighting\n")
	b.WriteString("Background: Clean white or neutral\n")
	b.WriteString("Quality: 8K, high detail, professional fashion magazine quality")
	return b.String()
}

// New 按配置选择生成策略，缺少 API Key 时退回 mock
func New(cfg *config.GenerationConfig, logger *zap.Logger) Generator {
	var g Generator
	switch {
	case cfg.Provider == "mock":
		g = NewMock()
	case cfg.APIKey == "":
		logger.Warn("generation api key not configured, using mock generator", zap.String("provider", cfg.Provider))
		g = NewMock()
	case cfg.Provider == "openai":
		g = NewOpenAI(cfg)
	default:
		g = NewNanoBanana(cfg)
	}
	return Instrument(g)
}

type instrumented struct {
	next Generator
}

// Instrument 记录生成耗时
func Instrument(g Generator) Generator {
	return &instrumented{next: g}
}

func (i *instrumented) Name() string {
	return i.next.Name()
}

func (i *instrumented) Generate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	res, err := i.next.Generate(ctx, req)

	outcome := "success"
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
	}
	metrics.GenerationDuration.WithLabelValues(i.next.Name(), outcome).Observe(time.Since(start).Seconds())
	return res, err
}
