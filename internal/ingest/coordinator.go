package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BatchMode 决定整批中各文件何时放置到规范路径。
type BatchMode string

const (
	// BatchModeImmediate 每个文件写完即放置；兄弟失败时已放置的文件不回滚。
	BatchModeImmediate BatchMode = "immediate"
	// BatchModeStaged 全部文件写入临时目录成功后才统一放置，任何写入失败都不会放置文件。
	BatchModeStaged BatchMode = "staged"
)

// ParseBatchMode 解析配置值，空字符串视为 immediate。
func ParseBatchMode(raw string) (BatchMode, error) {
	switch mode := BatchMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "", BatchModeImmediate:
		return BatchModeImmediate, nil
	case BatchModeStaged:
		return BatchModeStaged, nil
	default:
		return "", fmt.Errorf("unknown batch mode %q", raw)
	}
}

// Sink 持久化整批文件的元数据，每个成功的批次只调用一次。
type Sink interface {
	Commit(ctx context.Context, files []CanonicalFile) error
}

// Options 控制并发度与批次语义。
type Options struct {
	MaxConcurrency int // <= 0 表示不限制
	Mode           BatchMode
}

// Coordinator 为一批上传中的每个文件并发运行 Stage → Finalize 流水线，
// 等待全部结束后再决定是否写入元数据。
type Coordinator struct {
	writer   *StreamWriter
	resolver *Resolver
	sink     Sink
	opts     Options
	logger   zerolog.Logger
}

func NewCoordinator(writer *StreamWriter, resolver *Resolver, sink Sink, opts Options, logger zerolog.Logger) *Coordinator {
	if opts.Mode == "" {
		opts.Mode = BatchModeImmediate
	}
	return &Coordinator{
		writer:   writer,
		resolver: resolver,
		sink:     sink,
		opts:     opts,
		logger:   logger.With().Str("component", "ingest").Logger(),
	}
}

type outcome struct {
	staged StagedFile
	file   CanonicalFile
	err    error
}

// Ingest 处理一批上传。所有流水线成功时调用一次 Sink 并按输入顺序返回结果；
// 任一失败时返回 *BatchError，且不调用 Sink。兄弟流水线不会因某个失败而被取消。
func (c *Coordinator) Ingest(ctx context.Context, items []UploadItem) (*BatchResult, error) {
	if len(items) == 0 {
		return &BatchResult{Files: []CanonicalFile{}}, nil
	}

	start := time.Now()
	var outcomes []outcome
	var err error
	switch c.opts.Mode {
	case BatchModeStaged:
		outcomes, err = c.ingestStaged(ctx, items)
	default:
		outcomes = c.fanOut(items, func(i int, item UploadItem) outcome {
			return c.runPipeline(ctx, item, true)
		})
	}
	if err == nil {
		err = batchError(items, outcomes)
	}

	log := c.logger.With().Int("files", len(items)).Dur("elapsed", time.Since(start)).Logger()
	if err != nil {
		batchesTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("upload batch failed")
		return nil, err
	}

	files := make([]CanonicalFile, len(outcomes))
	for i, o := range outcomes {
		files[i] = o.file
	}

	if c.sink != nil {
		if err := c.sink.Commit(ctx, files); err != nil {
			batchesTotal.WithLabelValues("sink_failed").Inc()
			log.Error().Err(err).Msg("commit upload metadata failed")
			return nil, fmt.Errorf("commit metadata: %w", err)
		}
	}

	batchesTotal.WithLabelValues("committed").Inc()
	log.Info().Msg("upload batch committed")
	return &BatchResult{Files: files}, nil
}

// ingestStaged 先并发写完全部临时文件，全部成功后再并发放置。
func (c *Coordinator) ingestStaged(ctx context.Context, items []UploadItem) ([]outcome, error) {
	outcomes := c.fanOut(items, func(i int, item UploadItem) outcome {
		return c.runPipeline(ctx, item, false)
	})

	failed := false
	for _, o := range outcomes {
		if o.err != nil {
			failed = true
			break
		}
	}
	if failed {
		for _, o := range outcomes {
			if o.err == nil {
				c.resolver.Discard(o.staged)
			}
		}
		return outcomes, nil
	}

	return c.fanOut(items, func(i int, item UploadItem) outcome {
		staged := outcomes[i].staged
		file, err := c.resolver.Finalize(ctx, staged, item.ContentType, encodingOf(item))
		if err != nil {
			filesTotal.WithLabelValues("failed").Inc()
			return outcome{staged: staged, err: err}
		}
		filesTotal.WithLabelValues("placed").Inc()
		bytesTotal.Add(float64(file.Size))
		return outcome{staged: staged, file: file}
	}), nil
}

// fanOut 为每个 item 启动一个任务并等待全部结束，结果与输入一一对应。
func (c *Coordinator) fanOut(items []UploadItem, run func(int, UploadItem) outcome) []outcome {
	outcomes := make([]outcome, len(items))

	var g errgroup.Group
	if c.opts.MaxConcurrency > 0 {
		g.SetLimit(c.opts.MaxConcurrency)
	}
	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = run(i, item)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// runPipeline 运行单个文件的流水线；place 为 false 时只写临时文件。
func (c *Coordinator) runPipeline(ctx context.Context, item UploadItem, place bool) outcome {
	start := time.Now()
	defer func() { pipelineDuration.Observe(time.Since(start).Seconds()) }()

	staged, err := c.writer.Stage(ctx, item)
	if err != nil {
		filesTotal.WithLabelValues("failed").Inc()
		return outcome{err: err}
	}
	if !place {
		return outcome{staged: staged}
	}

	file, err := c.resolver.Finalize(ctx, staged, item.ContentType, encodingOf(item))
	if err != nil {
		filesTotal.WithLabelValues("failed").Inc()
		return outcome{err: err}
	}

	filesTotal.WithLabelValues("placed").Inc()
	bytesTotal.Add(float64(file.Size))
	c.logger.Debug().
		Str("filename", file.Filename).
		Str("original_name", item.Filename).
		Int64("size", file.Size).
		Msg("file placed")
	return outcome{staged: staged, file: file}
}

func batchError(items []UploadItem, outcomes []outcome) error {
	var be *BatchError
	for i, o := range outcomes {
		if o.err == nil {
			continue
		}
		if be == nil {
			be = &BatchError{Total: len(items)}
		}
		be.Failures = append(be.Failures, &FileError{Index: i, Filename: items[i].Filename, Err: o.err})
	}
	if be == nil {
		return nil
	}
	for _, o := range outcomes {
		if o.err == nil && o.file.Filename != "" {
			be.Placed = append(be.Placed, o.file)
		}
	}
	return be
}

func encodingOf(item UploadItem) string {
	if item.Encoding == "" {
		return "7bit"
	}
	return item.Encoding
}
