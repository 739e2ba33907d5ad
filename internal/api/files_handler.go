package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"quill/internal/ingest"
	"quill/internal/repository"
	"quill/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// multipartMemoryBudget 之外的部分由 mime/multipart 落盘到临时文件。
const multipartMemoryBudget int64 = 1 << 20

// FileHandler 提供上传与文件元数据相关的 HTTP 端点。
type FileHandler struct {
	service       *service.FileService
	maxUploadSize int64
	logger        zerolog.Logger
}

func NewFileHandler(s *service.FileService, maxUploadSize int64, logger zerolog.Logger) *FileHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 100 << 20
	}
	return &FileHandler{service: s, maxUploadSize: maxUploadSize, logger: logger}
}

func (h *FileHandler) RegisterRoutes(r chi.Router) {
	r.Route("/files", func(r chi.Router) {
		r.Get("/", h.ListFiles)
		r.Post("/", h.UploadFiles)
		r.Delete("/{id}", h.DeleteFile)
	})
}

type fileFailure struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type batchFailureResponse struct {
	Error    string                 `json:"error"`
	Failures []fileFailure          `json:"failures"`
	Placed   []ingest.CanonicalFile `json:"placed,omitempty"`
}

// UploadFiles 接受 multipart/form-data，字段 files 可出现多次。
// 每个文件独立并发入库，整批成功后一次性写入元数据。
func (h *FileHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		writeError(w, http.StatusInternalServerError, "handler not initialized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemoryBudget); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadSize))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "files field is required")
		return
	}

	items, closeAll, err := openParts(headers)
	defer closeAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	files, err := h.service.Upload(r.Context(), items)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	writeData(w, http.StatusCreated, files)
}

func openParts(headers []*multipart.FileHeader) ([]ingest.UploadItem, func(), error) {
	items := make([]ingest.UploadItem, 0, len(headers))
	opened := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, c := range opened {
			_ = c.Close()
		}
	}

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open part %q: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		items = append(items, ingest.UploadItem{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Encoding:    fh.Header.Get("Content-Transfer-Encoding"),
			Content:     f,
		})
	}
	return items, closeAll, nil
}

// writeUploadError：全部失败都是类型不支持时返回 415，其余批次失败返回 422。
func (h *FileHandler) writeUploadError(w http.ResponseWriter, err error) {
	var be *ingest.BatchError
	if !errors.As(err, &be) {
		h.logger.Error().Err(err).Msg("upload failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := batchFailureResponse{Error: ingest.ErrBatchPartialFailure.Error(), Placed: be.Placed}
	allUnsupported := true
	for _, f := range be.Failures {
		resp.Failures = append(resp.Failures, fileFailure{Index: f.Index, Filename: f.Filename, Error: f.Err.Error()})
		if !errors.Is(f.Err, ingest.ErrUnsupportedContentType) {
			allUnsupported = false
		}
	}

	status := http.StatusUnprocessableEntity
	if allUnsupported {
		status = http.StatusUnsupportedMediaType
	}
	writeJSON(w, status, resp)
}

// ListFiles 返回文件元数据，支持 limit/offset 分页。
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	params := repository.ListParams{}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		params.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		params.Offset = n
	}

	files, err := h.service.ListFiles(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, files)
}

// DeleteFile 删除元数据记录，规范文件保留。
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteFile(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}
