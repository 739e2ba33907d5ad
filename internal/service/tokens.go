package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"quill/internal/repository"

	"github.com/google/uuid"
)

const (
	tokenBytes       = 32
	DefaultTokenRole = "admin"
)

// TokenService 管理 bearer token，同时作为鉴权中间件的校验器。
type TokenService struct {
	repo repository.TokenRepository
	now  func() time.Time
}

func NewTokenService(repo repository.TokenRepository) *TokenService {
	return &TokenService{repo: repo, now: time.Now}
}

// Generate 生成并登记一个新的随机 token。
func (s *TokenService) Generate(ctx context.Context) (*repository.Token, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := &repository.Token{
		ID:         uuid.NewString(),
		Token:      hex.EncodeToString(buf),
		Role:       DefaultTokenRole,
		CreateTime: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *TokenService) List(ctx context.Context) ([]repository.Token, error) {
	return s.repo.List(ctx)
}

func (s *TokenService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Verify 报告 token 是否有效，空字符串直接视为无效。
func (s *TokenService) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.repo.Exists(ctx, token)
}
