package api

import (
	"context"
	"net/http"

	"quill/internal/config"
	qmiddleware "quill/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers 汇总路由需要的各组处理器，nil 的处理器不注册。
type Handlers struct {
	Files   *FileHandler
	Content *ContentHandler
	Tokens  *TokenHandler
	GitHub  *GitHubHandler
	Static  *StaticHandler
	// Auth 保护写接口；为 nil 时不鉴权（仅开发模式）。
	Auth   func(http.Handler) http.Handler
	Health func(ctx context.Context) error
	Logger zerolog.Logger
}

// NewRouter 构建 HTTP 路由，集中注册所有对外服务的端点。
func NewRouter(cfg *config.Config, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(qmiddleware.RequestLogger(h.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(qmiddleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(qmiddleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	r.Use(qmiddleware.Metrics())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if h.Health != nil {
			if err := h.Health(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// 公开读接口
	if h.Content != nil {
		h.Content.RegisterPublicRoutes(r)
	}
	if h.GitHub != nil {
		h.GitHub.RegisterPublicRoutes(r)
	}
	if h.Static != nil {
		h.Static.RegisterRoutes(r)
	}

	// 写接口与上传都在鉴权之后
	r.Group(func(r chi.Router) {
		if h.Auth != nil {
			r.Use(h.Auth)
		}
		if h.Files != nil {
			h.Files.RegisterRoutes(r)
		}
		if h.Content != nil {
			h.Content.RegisterProtectedRoutes(r)
		}
		if h.Tokens != nil {
			h.Tokens.RegisterRoutes(r)
		}
		if h.GitHub != nil {
			h.GitHub.RegisterProtectedRoutes(r)
		}
	})

	return r
}
