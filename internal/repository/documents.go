package repository

import (
	"context"
	"time"
)

// Article 是博客文章，IssueID 指向镜像到 GitHub 的 issue 编号。
type Article struct {
	ID         string    `json:"id"`
	IssueID    *int      `json:"issueId,omitempty"`
	Title      string    `json:"title"`
	Abstract   string    `json:"abstract"`
	Content    string    `json:"content"`
	Cover      string    `json:"cover"`
	ViewCount  int       `json:"view_count"`
	CreateTime time.Time `json:"create_time"`
}

// Essay 是随笔。
type Essay struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	CreateTime time.Time `json:"create_time"`
}

// Photo 是相册条目，URL 由关联的文件推导。
type Photo struct {
	ID            string    `json:"id"`
	FileID        string    `json:"fileId"`
	Filename      string    `json:"filename,omitempty"`
	URL           string    `json:"url,omitempty"`
	Description   string    `json:"description"`
	ShootingTime  time.Time `json:"shooting_time"`
	ShootingPlace string    `json:"shooting_place"`
	CreateTime    time.Time `json:"create_time"`
}

// Token 是管理接口使用的 bearer token。
type Token struct {
	ID         string    `json:"id"`
	Token      string    `json:"token"`
	Role       string    `json:"role"`
	CreateTime time.Time `json:"create_time"`
}

type ArticleRepository interface {
	Create(ctx context.Context, article *Article) error
	GetByID(ctx context.Context, id string) (*Article, error)
	List(ctx context.Context) ([]Article, error)
	Update(ctx context.Context, article *Article) error
	Delete(ctx context.Context, id string) error
}

type EssayRepository interface {
	Create(ctx context.Context, essay *Essay) error
	List(ctx context.Context) ([]Essay, error)
	Update(ctx context.Context, essay *Essay) error
	Delete(ctx context.Context, id string) error
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *Photo) error
	List(ctx context.Context) ([]Photo, error)
	Update(ctx context.Context, photo *Photo) error
	Delete(ctx context.Context, id string) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *Token) error
	List(ctx context.Context) ([]Token, error)
	Delete(ctx context.Context, id string) error
	// Exists 报告 token 值是否已登记。
	Exists(ctx context.Context, token string) (bool, error)
}
