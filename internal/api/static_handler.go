package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"quill/internal/ingest"
	"quill/internal/storage"

	"github.com/go-chi/chi/v5"
)

// StaticHandler 从存储后端读取规范文件。文件名即内容摘要，可长期缓存。
type StaticHandler struct {
	backend storage.Backend
}

func NewStaticHandler(backend storage.Backend) *StaticHandler {
	return &StaticHandler{backend: backend}
}

func (h *StaticHandler) RegisterRoutes(r chi.Router) {
	r.Get("/static/image/{name}", h.ServeImage)
}

func (h *StaticHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !ingest.IsCanonicalName(name) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	body, err := h.backend.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer body.Close()

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", `"`+name[:64]+`"`)
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}

	if rs, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, time.Time{}, rs)
		return
	}
	if match := r.Header.Get("If-None-Match"); match == w.Header().Get("ETag") {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	// 客户端断开时无法再写错误响应
	_, _ = io.Copy(w, body)
}
