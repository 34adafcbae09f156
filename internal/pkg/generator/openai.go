package generator

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/qs3c/photoshoot_server/config"
)

// OpenAI 使用 OpenAI 兼容的图片接口生成
type OpenAI struct {
	client     *openai.Client
	model      string
	numOutputs int
}

func NewOpenAI(cfg *config.GenerationConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.ModelID
	if model == "" {
		model = openai.CreateImageModelDallE2
	}
	n := cfg.NumOutputs
	if n <= 0 {
		n = defaultNumOutputs
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		numOutputs: n,
	}
}

func (o *OpenAI) Name() string {
	return "openai"
}

// openAISize 接口只支持固定尺寸，向上取最接近的一档
func openAISize(size string) string {
	switch NormalizeSize(size) {
	case SizeSmall:
		return openai.CreateImageSize512x512
	default:
		return openai.CreateImageSize1024x1024
	}
}

func (o *OpenAI) Generate(ctx context.Context, req *Request) (*Result, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         BuildPrompt(req),
		Model:          o.model,
		N:              o.numOutputs,
		Size:           openAISize(req.Size),
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("openai create image: %w", err)
	}

	images := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.URL != "" {
			images = append(images, d.URL)
		}
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	return &Result{
		Images:  images,
		Message: fmt.Sprintf("Generated %d images", len(images)),
	}, nil
}
