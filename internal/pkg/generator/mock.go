package generator

import (
	"context"
	"fmt"
)

// Mock 未配置生成服务时返回占位图
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) Generate(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := Dimensions(req.Size)
	images := make([]string, 0, defaultNumOutputs)
	for _, shot := range []string{"Front+Shot", "Side+Shot", "Back+Shot"} {
		images = append(images, fmt.Sprintf("https://via.placeholder.com/%dx%d?text=%s", w, h, shot))
	}

	return &Result{
		Images:  images,
		Message: "Mock images generated",
	}, nil
}
