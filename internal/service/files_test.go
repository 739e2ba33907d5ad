package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"quill/internal/ingest"
	"quill/internal/repository"
)

type stubIngester struct {
	items  []ingest.UploadItem
	result *ingest.BatchResult
	err    error
}

func (s *stubIngester) Ingest(ctx context.Context, items []ingest.UploadItem) (*ingest.BatchResult, error) {
	s.items = items
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestRecordSink_CommitBuildsOneRecordPerFile(t *testing.T) {
	repo := &mockFileRepo{}
	sink := NewRecordSink(repo)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	files := []ingest.CanonicalFile{
		{Filename: "aa.jpg", ContentType: "image/jpeg", Encoding: "7bit", Size: 3},
		{Filename: "aa.jpg", ContentType: "image/jpeg", Encoding: "7bit", Size: 3},
	}
	if err := sink.Commit(context.Background(), files); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected a single InsertMany call, got %d", len(repo.inserted))
	}
	batch := repo.inserted[0]
	if len(batch) != 2 {
		t.Fatalf("expected 2 records, got %d", len(batch))
	}
	if batch[0].ID == "" || batch[0].ID == batch[1].ID {
		t.Fatalf("expected distinct ids, got %q and %q", batch[0].ID, batch[1].ID)
	}
	for _, rec := range batch {
		if rec.Filename != "aa.jpg" || rec.MimeType != "image/jpeg" || rec.Encoding != "7bit" || rec.SizeBytes != 3 {
			t.Fatalf("unexpected record: %+v", rec)
		}
		if !rec.CreateTime.Equal(fixed) {
			t.Fatalf("unexpected create time %v", rec.CreateTime)
		}
	}
}

func TestRecordSink_PropagatesRepositoryError(t *testing.T) {
	repo := &mockFileRepo{insertErr: errors.New("tx aborted")}
	err := NewRecordSink(repo).Commit(context.Background(), []ingest.CanonicalFile{{Filename: "x.png"}})
	if err == nil || err.Error() != "tx aborted" {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestFileService_UploadReturnsFilesInOrder(t *testing.T) {
	ing := &stubIngester{result: &ingest.BatchResult{Files: []ingest.CanonicalFile{{Filename: "a.png"}, {Filename: "b.gif"}}}}
	svc := NewFileService(&mockFileRepo{}, ing)

	items := []ingest.UploadItem{
		{Filename: "1.png", ContentType: "image/png", Content: bytes.NewReader([]byte("1"))},
		{Filename: "2.gif", ContentType: "image/gif", Content: bytes.NewReader([]byte("2"))},
	}
	files, err := svc.Upload(context.Background(), items)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if len(ing.items) != 2 {
		t.Fatalf("ingester received %d items", len(ing.items))
	}
	if files[0].Filename != "a.png" || files[1].Filename != "b.gif" {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestFileService_UploadPropagatesBatchError(t *testing.T) {
	be := &ingest.BatchError{Total: 1, Failures: []*ingest.FileError{{Index: 0, Filename: "a.pdf", Err: ingest.ErrUnsupportedContentType}}}
	svc := NewFileService(&mockFileRepo{}, &stubIngester{err: be})

	_, err := svc.Upload(context.Background(), nil)
	if !errors.Is(err, ingest.ErrBatchPartialFailure) {
		t.Fatalf("expected batch failure, got %v", err)
	}
}

func TestFileService_ListFilesClampsLimit(t *testing.T) {
	repo := &mockFileRepo{listResult: []repository.FileRecord{{ID: "1"}}}
	svc := NewFileService(repo, nil)

	files, err := svc.ListFiles(context.Background(), repository.ListParams{Limit: 1000, Offset: 5})
	if err != nil {
		t.Fatalf("ListFiles returned error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("unexpected result length %d", len(files))
	}
	if repo.listParams.Limit != 200 || repo.listParams.Offset != 5 {
		t.Fatalf("unexpected params: %+v", repo.listParams)
	}

	if _, err := svc.ListFiles(context.Background(), repository.ListParams{Limit: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestFileService_DeleteFile(t *testing.T) {
	repo := &mockFileRepo{records: map[string]repository.FileRecord{"1": {ID: "1"}}}
	svc := NewFileService(repo, nil)

	if err := svc.DeleteFile(context.Background(), "1"); err != nil {
		t.Fatalf("DeleteFile returned error: %v", err)
	}
	if err := svc.DeleteFile(context.Background(), "2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFileService_NotInitialized(t *testing.T) {
	var svc *FileService
	if _, err := svc.Upload(context.Background(), nil); err == nil {
		t.Fatal("expected error from nil service")
	}
}
