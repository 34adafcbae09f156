package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/qs3c/photoshoot_server/config"
)

const (
	defaultNanoBananaURL = "https://api.nanobana.com/v1/generate"

	inferenceSteps = 50
	guidanceScale  = 7.5
)

// NanoBanana Nano Banana 生成接口
type NanoBanana struct {
	apiKey     string
	url        string
	modelID    string
	numOutputs int
	httpClient *http.Client
}

func NewNanoBanana(cfg *config.GenerationConfig) *NanoBanana {
	url := strings.TrimSpace(cfg.BaseURL)
	if url == "" {
		url = defaultNanoBananaURL
	}
	n := cfg.NumOutputs
	if n <= 0 {
		n = defaultNumOutputs
	}
	// 超时由调用方 context 控制
	return &NanoBanana{
		apiKey:     cfg.APIKey,
		url:        url,
		modelID:    cfg.ModelID,
		numOutputs: n,
		httpClient: &http.Client{},
	}
}

func (n *NanoBanana) Name() string {
	return "nanobanana"
}

type nanoBananaRequest struct {
	ModelID           string   `json:"model_id"`
	Prompt            string   `json:"prompt"`
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	NumOutputs        int      `json:"num_outputs"`
	NumInferenceSteps int      `json:"num_inference_steps"`
	GuidanceScale     float64  `json:"guidance_scale"`
	ImageURLs         []string `json:"image_urls,omitempty"`
}

type nanoBananaResponse struct {
	Outputs []string `json:"outputs"`
}

func (n *NanoBanana) Generate(ctx context.Context, req *Request) (*Result, error) {
	width, height := Dimensions(req.Size)
	payload := nanoBananaRequest{
		ModelID:           n.modelID,
		Prompt:            BuildPrompt(req),
		Width:             width,
		Height:            height,
		NumOutputs:        n.numOutputs,
		NumInferenceSteps: inferenceSteps,
		GuidanceScale:     guidanceScale,
		ImageURLs:         req.ReferenceImages,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+n.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call nano banana: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nano banana api error: %d", resp.StatusCode)
	}

	var out nanoBananaResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Outputs) == 0 {
		return nil, ErrNoImages
	}

	return &Result{
		Images:  out.Outputs,
		Message: fmt.Sprintf("Generated %d images", len(out.Outputs)),
	}, nil
}
