package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quill/internal/github"
	"quill/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// IssueTracker 是文章镜像到 GitHub issue 所需的最小接口。
type IssueTracker interface {
	CreateIssue(ctx context.Context, req github.CreateIssueRequest) (*github.Issue, error)
	UpdateIssue(ctx context.Context, number int, req github.UpdateIssueRequest) (*github.Issue, error)
}

// ArticleService 管理文章，并在配置了 GitHub 时同步维护对应的 issue。
type ArticleService struct {
	repo   repository.ArticleRepository
	issues IssueTracker
	logger zerolog.Logger
	now    func() time.Time
}

// NewArticleService 中 issues 可以为 nil，此时不做镜像。
func NewArticleService(repo repository.ArticleRepository, issues IssueTracker, logger zerolog.Logger) *ArticleService {
	return &ArticleService{
		repo:   repo,
		issues: issues,
		logger: logger.With().Str("component", "articles").Logger(),
		now:    time.Now,
	}
}

type ArticleInput struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Content  string `json:"content"`
	Cover    string `json:"cover"`
}

func (in ArticleInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return nil
}

// Create 先创建 issue 再写库；issue 创建失败时文章不会入库。
func (s *ArticleService) Create(ctx context.Context, in ArticleInput) (*repository.Article, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	article := &repository.Article{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Abstract:   in.Abstract,
		Content:    in.Content,
		Cover:      in.Cover,
		CreateTime: s.now().UTC(),
	}

	if s.issues != nil {
		issue, err := s.issues.CreateIssue(ctx, github.CreateIssueRequest{Title: in.Title, Body: in.Content})
		if err != nil {
			return nil, fmt.Errorf("mirror article to issue: %w", err)
		}
		article.IssueID = &issue.Number
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

func (s *ArticleService) Get(ctx context.Context, id string) (*repository.Article, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ArticleService) List(ctx context.Context) ([]repository.Article, error) {
	return s.repo.List(ctx)
}

// Update 修改文章；已关联 issue 时先同步标题与正文。
func (s *ArticleService) Update(ctx context.Context, id string, in ArticleInput) (*repository.Article, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.issues != nil && article.IssueID != nil {
		_, err := s.issues.UpdateIssue(ctx, *article.IssueID, github.UpdateIssueRequest{
			Title: github.String(in.Title),
			Body:  github.String(in.Content),
			State: github.String("open"),
		})
		if err != nil {
			return nil, fmt.Errorf("update issue #%d: %w", *article.IssueID, err)
		}
	}

	article.Title = in.Title
	article.Abstract = in.Abstract
	article.Content = in.Content
	article.Cover = in.Cover
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Delete 删除文章；已关联的 issue 会被关闭，issue 已不存在时忽略。
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if s.issues != nil && article.IssueID != nil {
		_, err := s.issues.UpdateIssue(ctx, *article.IssueID, github.UpdateIssueRequest{
			Title: github.String(article.Title),
			Body:  github.String(article.Content),
			State: github.String("closed"),
		})
		switch {
		case github.IsNotFound(err):
			s.logger.Warn().Int("issue", *article.IssueID).Msg("linked issue missing, deleting article anyway")
		case err != nil:
			return fmt.Errorf("close issue #%d: %w", *article.IssueID, err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}
