package ingest

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"quill/internal/storage"

	"github.com/rs/zerolog"
)

// CanonicalName 返回 "<digest>.<ext>"。
func CanonicalName(digest, contentType string) string {
	return digest + "." + SuffixFor(contentType)
}

var canonicalNameRE = regexp.MustCompile(`^[0-9a-f]{64}\.[a-z0-9+-]+$`)

// IsCanonicalName 报告 name 是否形如 CanonicalName 的输出。
func IsCanonicalName(name string) bool {
	return canonicalNameRE.MatchString(name)
}

// Resolver 把临时文件放置到规范路径。同一规范路径上的 Finalize 调用互斥执行，
// 不同路径之间互不影响；同一个 Resolver 应在整个进程内共享。
type Resolver struct {
	backend storage.Backend
	locks   *keyedMutex
	logger  zerolog.Logger
}

func NewResolver(backend storage.Backend, logger zerolog.Logger) *Resolver {
	return &Resolver{
		backend: backend,
		locks:   newKeyedMutex(),
		logger:  logger.With().Str("component", "placement").Logger(),
	}
}

// Finalize 先驱逐规范路径上已有的文件，再把临时文件移动过去。
// 失败时规范路径保持当时的状态，临时文件被删除。
func (r *Resolver) Finalize(ctx context.Context, staged StagedFile, contentType, encoding string) (CanonicalFile, error) {
	name := CanonicalName(staged.Digest, contentType)

	unlock := r.locks.Lock(name)
	defer unlock()

	exists, err := r.backend.Exists(ctx, name)
	if err != nil {
		r.Discard(staged)
		return CanonicalFile{}, fmt.Errorf("%w: stat %s: %w", ErrPlacement, name, err)
	}
	if exists {
		// 摘要相同即内容相同，替换只刷新文件系统元数据
		if err := r.backend.Delete(ctx, name); err != nil {
			r.Discard(staged)
			return CanonicalFile{}, fmt.Errorf("%w: evict %s: %w", ErrPlacement, name, err)
		}
		replacementsTotal.Inc()
		r.logger.Debug().Str("filename", name).Msg("evicted existing canonical file")
	}

	if err := r.backend.MoveInto(ctx, staged.TempPath, name); err != nil {
		r.Discard(staged)
		return CanonicalFile{}, fmt.Errorf("%w: move %s: %w", ErrPlacement, name, err)
	}

	return CanonicalFile{
		Filename:    name,
		ContentType: contentType,
		Encoding:    encoding,
		Digest:      staged.Digest,
		Size:        staged.Size,
	}, nil
}

// Discard 删除未放置的临时文件。
func (r *Resolver) Discard(staged StagedFile) {
	if staged.TempPath == "" {
		return
	}
	if err := os.Remove(staged.TempPath); err != nil && !os.IsNotExist(err) {
		r.logger.Warn().Err(err).Str("temp_path", staged.TempPath).Msg("remove temp file failed")
	}
}
