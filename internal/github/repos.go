package github

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Repository 是个人项目页展示的仓库信息。
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	PushedAt        time.Time `json:"pushed_at"`
}

// ListUserRepos 列出 token 所属用户的公开仓库，按最近推送排序。
func (c *Client) ListUserRepos(ctx context.Context) ([]Repository, error) {
	query := url.Values{
		"visibility":  {"public"},
		"affiliation": {"owner"},
		"sort":        {"pushed"},
	}
	repos := []Repository{}
	if err := c.get(ctx, "/user/repos", query, &repos); err != nil {
		return nil, fmt.Errorf("listing user repos: %w", err)
	}
	return repos, nil
}
