package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper 回收进程崩溃后遗留在临时目录中的上传文件。
// 只删除 mtime 早于 TTL 的文件，正在写入的临时文件不受影响。
type Sweeper struct {
	dir    string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewSweeper(dir string, ttl time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		dir:    dir,
		ttl:    ttl,
		logger: logger.With().Str("component", "sweeper").Logger(),
	}
}

// Sweep 执行一次清理并返回删除的文件数。
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("dir", s.dir).Msg("readdir failed")
		}
		return 0
	}

	prefix := strings.TrimSuffix(tempPattern, "*")
	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn().Err(err).Str("file", e.Name()).Msg("remove stale temp file failed")
			}
			continue
		}
		removed++
		sweptTotal.Inc()
		s.logger.Info().
			Str("file", e.Name()).
			Dur("age", time.Since(info.ModTime()).Round(time.Minute)).
			Msg("removed stale temp file")
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("sweep complete")
	}
	return removed
}

// RunPeriodic 在后台立即清理一次，之后每隔 interval 清理，直到 ctx 取消。
func (s *Sweeper) RunPeriodic(ctx context.Context, interval time.Duration) {
	go func() {
		s.Sweep()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}
