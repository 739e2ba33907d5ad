package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quill/internal/repository"

	"github.com/google/uuid"
)

type EssayService struct {
	repo repository.EssayRepository
	now  func() time.Time
}

func NewEssayService(repo repository.EssayRepository) *EssayService {
	return &EssayService{repo: repo, now: time.Now}
}

func (s *EssayService) Create(ctx context.Context, content string) (*repository.Essay, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	essay := &repository.Essay{ID: uuid.NewString(), Content: content, CreateTime: s.now().UTC()}
	if err := s.repo.Create(ctx, essay); err != nil {
		return nil, err
	}
	return essay, nil
}

func (s *EssayService) List(ctx context.Context) ([]repository.Essay, error) {
	return s.repo.List(ctx)
}

func (s *EssayService) Update(ctx context.Context, id, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return s.repo.Update(ctx, &repository.Essay{ID: id, Content: content})
}

func (s *EssayService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
