package api

import (
	"net/http"
	"strconv"
	"time"

	"quill/internal/service"

	"github.com/go-chi/chi/v5"
)

// ContentHandler 提供文章、随笔、相册与时间轴端点。
// 读接口公开，写接口由路由挂在鉴权分组下。
type ContentHandler struct {
	articles *service.ArticleService
	essays   *service.EssayService
	photos   *service.PhotoService
	timeline *service.TimelineService
	now      func() time.Time
}

func NewContentHandler(articles *service.ArticleService, essays *service.EssayService, photos *service.PhotoService, timeline *service.TimelineService) *ContentHandler {
	return &ContentHandler{articles: articles, essays: essays, photos: photos, timeline: timeline, now: time.Now}
}

func (h *ContentHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/articles", h.ListArticles)
	r.Get("/articles/{id}", h.GetArticle)
	r.Get("/essays", h.ListEssays)
	r.Get("/photos", h.ListPhotos)
	r.Get("/timeline", h.Timeline)
}

func (h *ContentHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/articles", h.CreateArticle)
	r.Put("/articles/{id}", h.UpdateArticle)
	r.Delete("/articles/{id}", h.DeleteArticle)
	r.Post("/essays", h.CreateEssay)
	r.Put("/essays/{id}", h.UpdateEssay)
	r.Delete("/essays/{id}", h.DeleteEssay)
	r.Post("/photos", h.CreatePhoto)
	r.Put("/photos/{id}", h.UpdatePhoto)
	r.Delete("/photos/{id}", h.DeletePhoto)
}

func (h *ContentHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, articles)
}

func (h *ContentHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.articles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, article)
}

func (h *ContentHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var in service.ArticleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	article, err := h.articles.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, article)
}

func (h *ContentHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	var in service.ArticleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	article, err := h.articles.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, article)
}

func (h *ContentHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.articles.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

type essayRequest struct {
	Content string `json:"content"`
}

func (h *ContentHandler) ListEssays(w http.ResponseWriter, r *http.Request) {
	essays, err := h.essays.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, essays)
}

func (h *ContentHandler) CreateEssay(w http.ResponseWriter, r *http.Request) {
	var req essayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	essay, err := h.essays.Create(r.Context(), req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, essay)
}

func (h *ContentHandler) UpdateEssay(w http.ResponseWriter, r *http.Request) {
	var req essayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.essays.Update(r.Context(), id, req.Content); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "updated": true})
}

func (h *ContentHandler) DeleteEssay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.essays.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *ContentHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photos.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, photos)
}

func (h *ContentHandler) CreatePhoto(w http.ResponseWriter, r *http.Request) {
	var in service.PhotoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	photo, err := h.photos.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, photo)
}

func (h *ContentHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	var in service.PhotoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.photos.Update(r.Context(), id, in); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "updated": true})
}

func (h *ContentHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.photos.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// Timeline 返回 ?year= 指定年份的时间轴，缺省为当前年份。
func (h *ContentHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1970 || n > 9999 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}

	months, err := h.timeline.Timeline(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, months)
}
