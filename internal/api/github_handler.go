package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"quill/internal/github"

	"github.com/go-chi/chi/v5"
)

// GitHubClient 是项目页与 issue 端点用到的 GitHub 操作。
type GitHubClient interface {
	ListUserRepos(ctx context.Context) ([]github.Repository, error)
	ListIssues(ctx context.Context) ([]github.Issue, error)
	CreateIssue(ctx context.Context, req github.CreateIssueRequest) (*github.Issue, error)
	UpdateIssue(ctx context.Context, number int, req github.UpdateIssueRequest) (*github.Issue, error)
}

// GitHubHandler 代理 GitHub 仓库与 issue。client 为 nil 时端点返回 503。
type GitHubHandler struct {
	client GitHubClient
}

func NewGitHubHandler(client GitHubClient) *GitHubHandler {
	return &GitHubHandler{client: client}
}

func (h *GitHubHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/projects", h.ListProjects)
	r.Get("/issues", h.ListIssues)
}

func (h *GitHubHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/issues", h.CreateIssue)
	r.Patch("/issues/{number}", h.UpdateIssue)
}

func (h *GitHubHandler) ready(w http.ResponseWriter) bool {
	if h.client == nil {
		writeError(w, http.StatusServiceUnavailable, "github integration not configured")
		return false
	}
	return true
}

func (h *GitHubHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	repos, err := h.client.ListUserRepos(r.Context())
	if err != nil {
		writeGitHubError(w, err)
		return
	}
	writeData(w, http.StatusOK, repos)
}

func (h *GitHubHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	issues, err := h.client.ListIssues(r.Context())
	if err != nil {
		writeGitHubError(w, err)
		return
	}
	writeData(w, http.StatusOK, issues)
}

func (h *GitHubHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req github.CreateIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	issue, err := h.client.CreateIssue(r.Context(), req)
	if err != nil {
		writeGitHubError(w, err)
		return
	}
	writeData(w, http.StatusCreated, issue)
}

func (h *GitHubHandler) UpdateIssue(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "invalid issue number")
		return
	}
	var req github.UpdateIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.State != nil && *req.State != "open" && *req.State != "closed" {
		writeError(w, http.StatusBadRequest, "state must be open or closed")
		return
	}
	issue, err := h.client.UpdateIssue(r.Context(), number, req)
	if err != nil {
		writeGitHubError(w, err)
		return
	}
	writeData(w, http.StatusOK, issue)
}

// writeGitHubError 透传 GitHub 的 4xx，其余视为上游故障。
func writeGitHubError(w http.ResponseWriter, err error) {
	var apiErr *github.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		writeError(w, apiErr.StatusCode, apiErr.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
