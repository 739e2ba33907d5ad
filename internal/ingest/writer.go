package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	tempPattern       = "upload-*"
	defaultBufferSize = 512 * 1024
)

// StreamWriter 把上传流写入临时文件，同时把同一批字节块按相同顺序喂给 Hasher。
type StreamWriter struct {
	tempDir string
	alg     HashAlgorithm
	policy  *TypePolicy
	bufSize int
}

func NewStreamWriter(tempDir string, alg HashAlgorithm, policy *TypePolicy) (*StreamWriter, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure temp dir %q: %w", tempDir, err)
	}
	if policy == nil {
		policy = NewTypePolicy(DefaultAllowedTypes)
	}
	return &StreamWriter{
		tempDir: tempDir,
		alg:     alg,
		policy:  policy,
		bufSize: defaultBufferSize,
	}, nil
}

// TempDir 返回临时文件所在目录。
func (w *StreamWriter) TempDir() string {
	return w.tempDir
}

// Stage 消费 item.Content 直到结束。类型不允许时不会创建任何临时文件；
// 其余任何失败都会先删除半成品临时文件再返回。
func (w *StreamWriter) Stage(ctx context.Context, item UploadItem) (StagedFile, error) {
	if !w.policy.Allows(item.ContentType) {
		return StagedFile{}, fmt.Errorf("%w: %q", ErrUnsupportedContentType, item.ContentType)
	}
	if item.Content == nil {
		return StagedFile{}, fmt.Errorf("%w: no content", ErrStreamRead)
	}

	file, err := os.CreateTemp(w.tempDir, tempPattern)
	if err != nil {
		return StagedFile{}, fmt.Errorf("%w: create temp file: %w", ErrWrite, err)
	}
	tempPath := file.Name()

	abort := func(err error) (StagedFile, error) {
		file.Close()
		os.Remove(tempPath)
		return StagedFile{}, err
	}

	hasher := NewHasher(w.alg)
	buf := make([]byte, w.bufSize)
	var size int64

	for {
		if err := ctx.Err(); err != nil {
			return abort(fmt.Errorf("%w: %w", ErrStreamRead, err))
		}

		n, rerr := item.Content.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if _, err := file.Write(chunk); err != nil {
				return abort(fmt.Errorf("%w: %w", ErrWrite, err))
			}
			hasher.Write(chunk)
			size += int64(n)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return abort(fmt.Errorf("%w: %w", ErrStreamRead, rerr))
		}
	}

	if err := file.Sync(); err != nil {
		return abort(fmt.Errorf("%w: sync: %w", ErrWrite, err))
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return StagedFile{}, fmt.Errorf("%w: close: %w", ErrWrite, err)
	}

	return StagedFile{TempPath: tempPath, Digest: hasher.Finish(), Size: size}, nil
}
