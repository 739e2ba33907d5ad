package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quill/internal/ingest"
	"quill/internal/repository"

	"github.com/google/uuid"
)

// Ingester 是上传批次的入口，由 ingest.Coordinator 实现。
type Ingester interface {
	Ingest(ctx context.Context, items []ingest.UploadItem) (*ingest.BatchResult, error)
}

// RecordSink 把一批规范文件转换为 files 表记录并在单个事务里写入。
type RecordSink struct {
	repo repository.FileRepository
	now  func() time.Time
}

func NewRecordSink(repo repository.FileRepository) *RecordSink {
	return &RecordSink{repo: repo, now: time.Now}
}

// Commit 实现 ingest.Sink。
func (s *RecordSink) Commit(ctx context.Context, files []ingest.CanonicalFile) error {
	if len(files) == 0 {
		return nil
	}
	now := s.now().UTC()
	records := make([]repository.FileRecord, len(files))
	for i, f := range files {
		records[i] = repository.FileRecord{
			ID:         uuid.NewString(),
			Filename:   f.Filename,
			MimeType:   f.ContentType,
			Encoding:   f.Encoding,
			SizeBytes:  f.Size,
			CreateTime: now,
		}
	}
	return s.repo.InsertMany(ctx, records)
}

// FileService 封装上传批次与文件元数据的业务流程。
type FileService struct {
	repo     repository.FileRepository
	ingester Ingester
}

func NewFileService(repo repository.FileRepository, ingester Ingester) *FileService {
	return &FileService{repo: repo, ingester: ingester}
}

// Upload 处理一批上传，全部成功时返回与输入同序的规范文件。
func (s *FileService) Upload(ctx context.Context, items []ingest.UploadItem) ([]ingest.CanonicalFile, error) {
	if s == nil || s.ingester == nil {
		return nil, errors.New("file service not initialized")
	}
	result, err := s.ingester.Ingest(ctx, items)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

// ListFiles 以分页形式列出文件。
func (s *FileService) ListFiles(ctx context.Context, params repository.ListParams) ([]repository.FileRecord, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("file service not initialized")
	}
	if params.Limit < 0 || params.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}
	if params.Limit > 200 {
		params.Limit = 200
	}
	return s.repo.List(ctx, params)
}

func (s *FileService) GetFile(ctx context.Context, id string) (*repository.FileRecord, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("file service not initialized")
	}
	return s.repo.GetByID(ctx, id)
}

// DeleteFile 只删除元数据记录；规范文件可能被其他记录共享，保留在存储中。
func (s *FileService) DeleteFile(ctx context.Context, id string) error {
	if s == nil || s.repo == nil {
		return errors.New("file service not initialized")
	}
	return s.repo.Delete(ctx, id)
}
