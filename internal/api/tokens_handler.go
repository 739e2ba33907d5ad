package api

import (
	"net/http"

	"quill/internal/middleware"
	"quill/internal/service"

	"github.com/go-chi/chi/v5"
)

// TokenHandler 管理 bearer token，全部端点都需要鉴权。
type TokenHandler struct {
	service *service.TokenService
}

func NewTokenHandler(s *service.TokenService) *TokenHandler {
	return &TokenHandler{service: s}
}

func (h *TokenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tokens", h.ListTokens)
	r.Post("/tokens", h.GenerateToken)
	r.Delete("/tokens/{id}", h.DeleteToken)
	r.Get("/token", h.CurrentToken)
}

func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, tokens)
}

func (h *TokenHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.Generate(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, token)
}

func (h *TokenHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// CurrentToken 返回本次请求使用的鉴权主体。
func (h *TokenHandler) CurrentToken(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"token": middleware.PrincipalFromContext(r.Context())})
}
