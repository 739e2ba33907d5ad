package github

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Issue 是博客关心的 issue 字段子集。
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateIssueRequest struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// UpdateIssueRequest 只发送非 nil 字段。
type UpdateIssueRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
	State *string `json:"state,omitempty"` // "open" 或 "closed"
}

func (c *Client) issuesPath() string {
	return fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(c.owner), url.PathEscape(c.repo))
}

// ListIssues 按更新时间排序列出博客仓库的 issue。
func (c *Client) ListIssues(ctx context.Context) ([]Issue, error) {
	issues := []Issue{}
	if err := c.get(ctx, c.issuesPath(), url.Values{"sort": {"updated"}}, &issues); err != nil {
		return nil, fmt.Errorf("listing issues in %s/%s: %w", c.owner, c.repo, err)
	}
	return issues, nil
}

func (c *Client) CreateIssue(ctx context.Context, req CreateIssueRequest) (*Issue, error) {
	var issue Issue
	if err := c.post(ctx, c.issuesPath(), req, &issue); err != nil {
		return nil, fmt.Errorf("creating issue in %s/%s: %w", c.owner, c.repo, err)
	}
	return &issue, nil
}

func (c *Client) UpdateIssue(ctx context.Context, number int, req UpdateIssueRequest) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("%s/%d", c.issuesPath(), number)
	if err := c.patch(ctx, path, req, &issue); err != nil {
		return nil, fmt.Errorf("updating issue %s/%s#%d: %w", c.owner, c.repo, number, err)
	}
	return &issue, nil
}

// String 返回字符串指针，便于构造 UpdateIssueRequest。
func String(s string) *string {
	return &s
}
