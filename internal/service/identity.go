package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/qs3c/photoshoot_server/internal/pkg/jwt"
)

// IdentityResolver 将客户端凭据解析为身份
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*jwt.Identity, error)
}

func resolveIdentity(ctx context.Context, resolver IdentityResolver, credential string) (*jwt.Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrInvalidCredential
	}
	identity, err := resolver.Resolve(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return identity, nil
}
